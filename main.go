package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	redisstore "github.com/gofiber/storage/redis/v3"
	"github.com/khanghh/kcentral/internal/auth"
	"github.com/khanghh/kcentral/internal/common"
	"github.com/khanghh/kcentral/internal/config"
	"github.com/khanghh/kcentral/internal/logs"
	"github.com/khanghh/kcentral/internal/mail"
	"github.com/khanghh/kcentral/internal/middlewares"
	"github.com/khanghh/kcentral/internal/render"
	"github.com/khanghh/kcentral/internal/retention"
	"github.com/khanghh/kcentral/internal/server"
	"github.com/khanghh/kcentral/internal/store"
	"github.com/khanghh/kcentral/internal/users"
	"github.com/khanghh/kcentral/model"
	"github.com/khanghh/kcentral/params"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
	usernameFlag = &cli.StringFlag{
		Name:     "username",
		Usage:    "Username of the new superuser",
		Required: true,
	}
	emailFlag = &cli.StringFlag{
		Name:     "email",
		Usage:    "Email address of the new superuser",
		Required: true,
	}
	passwordFlag = &cli.StringFlag{
		Name:     "password",
		Usage:    "Password of the new superuser",
		EnvVars:  []string{"KCENTRAL_SUPERUSER_PASSWORD"},
		Required: true,
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "kcentral - A central event logging server"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:  "version",
			Usage: "Print version information",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
		{
			Name:   "migrate",
			Usage:  "Create the database schema and seed permissions",
			Action: migrate,
		},
		{
			Name:   "createsuperuser",
			Usage:  "Create an active user holding every permission",
			Flags:  []cli.Flag{usernameFlag, emailFlag, passwordFlag},
			Action: createSuperuser,
		},
		{
			Name:  "genkey",
			Usage: "Print a random master key",
			Action: func(ctx *cli.Context) error {
				key, err := common.GenerateSecret(params.MasterKeyLength)
				if err != nil {
					return err
				}
				fmt.Println(key)
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func openDialector(driver string, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

func initDatabase(dbConfig config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dialector, err := openDialector(dbConfig.Driver, dbConfig.Dsn)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if len(dbConfig.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(dbConfig.Replicas))
		for _, dsn := range dbConfig.Replicas {
			replica, err := openDialector(dbConfig.Driver, dsn)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, replica)
		}
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})
		if err := db.Use(resolver); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dbConfig.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	}
	if dbConfig.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	}
	if dbConfig.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(dbConfig.ConnMaxIdleTime) * time.Second)
	}
	if dbConfig.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Second)
	}
	return db, nil
}

func mustInitDatabase(dbConfig config.DatabaseConfig, debug bool) *gorm.DB {
	db, err := initDatabase(dbConfig, debug)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	return db
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	mail.SetDefaultFromAddress(mailCfg.From)
	switch mailCfg.Backend {
	case "console":
		return mail.NewConsoleMailSender(os.Stdout)
	case "smtp":
		smtpCfg := mailCfg.SMTP
		sender, err := mail.NewSMTPMailSender(mail.SMTPConfig{
			Host:     smtpCfg.Host,
			Port:     smtpCfg.Port,
			Username: smtpCfg.Username,
			Password: smtpCfg.Password,
			TLS:      smtpCfg.TLS,
			CertFile: smtpCfg.CertFile,
			KeyFile:  smtpCfg.KeyFile,
			CAFile:   smtpCfg.CAFile,
		}, mailCfg.From)
		if err != nil {
			slog.Error("Failed to initialize SMTP mail sender", "error", err)
			os.Exit(1)
		}
		return sender
	}
	slog.Error("Unsupported mail sender backend", "backend", mailCfg.Backend)
	os.Exit(1)
	return nil
}

// mustInitStorage returns the storage for recovery tokens, the one for rate
// limit counters and the redis client when redis is configured. Without redis
// everything is kept in process memory.
func mustInitStorage(redisCfg config.RedisConfig) (store.Storage, fiber.Storage, redis.UniversalClient) {
	if redisCfg.URL == "" {
		memStorage := memory.New()
		return store.NewMemoryStorage(memStorage), memStorage, nil
	}
	redisStorage := redisstore.New(redisstore.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
	return store.NewRedisStorage(redisStorage.Conn()), redisStorage, redisStorage.Conn()
}

func mustLoadConfig(ctx *cli.Context) *config.Config {
	config, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		os.Exit(1)
	}
	mustInitLogger(config.Debug || ctx.IsSet(debugFlag.Name))
	return config
}

func newUserService(db *gorm.DB) *users.UserService {
	return users.NewUserService(
		users.NewUserRepository(db),
		users.NewGroupRepository(db),
		users.NewPermissionRepository(db),
	)
}

func migrate(ctx *cli.Context) error {
	config := mustLoadConfig(ctx)
	mustInitDatabase(config.Database, config.Debug)
	slog.Info("Database migrated")
	return nil
}

func createSuperuser(ctx *cli.Context) error {
	config := mustLoadConfig(ctx)
	db := mustInitDatabase(config.Database, config.Debug)

	var (
		username = ctx.String(usernameFlag.Name)
		email    = ctx.String(emailFlag.Name)
		password = ctx.String(passwordFlag.Name)
		yes      = true
	)
	user, err := newUserService(db).CreateUser(ctx.Context, users.UserInput{
		Username:    &username,
		Email:       &email,
		Password:    &password,
		IsActive:    &yes,
		IsStaff:     &yes,
		IsSuperuser: &yes,
	})
	if err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}
	slog.Info("Superuser created", "id", user.ID, "username", user.Username)
	return nil
}

func run(ctx *cli.Context) error {
	config := mustLoadConfig(ctx)

	globalVars := fiber.Map{
		"siteName": config.SiteName,
		"baseURL":  config.BaseURL,
	}
	if err := render.Initialize(globalVars, config.TemplateDir); err != nil {
		slog.Error("Failed to load templates", "error", err)
		return err
	}
	mailSender := mustInitMailSender(config.Mail)
	db := mustInitDatabase(config.Database, config.Debug)
	tokenStorage, limiterStorage, rdb := mustInitStorage(config.Redis)

	// repositories
	var (
		agentRepo = logs.NewAgentRepository(db)
		eventRepo = logs.NewEventRepository(db)
	)

	// services
	var (
		userService  = newUserService(db)
		groupService = users.NewGroupService(users.NewGroupRepository(db), users.NewPermissionRepository(db))
		permService  = users.NewPermissionService(users.NewPermissionRepository(db))
		agentService = logs.NewAgentService(db, agentRepo)
		eventService = logs.NewEventService(db, eventRepo)
		tokenService = auth.NewTokenService(config.MasterKey, tokenStorage, auth.TokenConfig{
			AccessTTL:   config.Auth.AccessTokenTTL,
			RefreshTTL:  config.Auth.RefreshTokenTTL,
			RecoveryTTL: config.Auth.RecoveryTokenTTL,
		})
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := server.New(server.Config{
		BaseURL:          config.BaseURL,
		AllowOrigins:     config.AllowOrigins,
		AccessLog:        true,
		RateLimitMax:     config.RateLimit.Max,
		RateLimitWindow:  config.RateLimit.Expiration,
		RateLimitStorage: limiterStorage,
		Metrics:          middlewares.NewMetrics(registry),
	}, server.Services{
		Users:       userService,
		Groups:      groupService,
		Permissions: permService,
		Agents:      agentService,
		Events:      eventService,
		Tokens:      tokenService,
		MailSender:  mailSender,
	})

	if config.Retention.ArchiveAfter > 0 {
		job, err := retention.NewJob(eventService, config.Retention.Schedule, config.Retention.ArchiveAfter)
		if err != nil {
			return err
		}
		job.Start()
		defer job.Stop()
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthCheckCtx, term := context.WithCancel(sigCtx)
	done := make(chan struct{})
	go common.NewHealthCheck(db, rdb, registry).Serve(healthCheckCtx, config.HealthCheckAddr, done)
	defer func() {
		term()
		<-done
	}()

	go func() {
		<-sigCtx.Done()
		if err := router.Shutdown(); err != nil {
			slog.Error("Failed to shut down server", "error", err)
		}
	}()

	slog.Info("Server listening", "addr", config.ListenAddr, "version", params.VersionWithMeta)
	if err := router.Listen(config.ListenAddr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
