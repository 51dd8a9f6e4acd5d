package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/khanghh/kcentral/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr     = ":8000"
	DefaultSiteName       = "kcentral"
	DefaultDatabaseDriver = "sqlite"
	DefaultDatabaseDsn    = "kcentral.db"
	DefaultMailBackend    = "console"
	DefaultRetentionCron  = "@daily"
)

type DatabaseConfig struct {
	Driver          string   `mapstructure:"driver"`
	Dsn             string   `mapstructure:"dsn"`
	Replicas        []string `mapstructure:"replicas"`
	TablePrefix     string   `mapstructure:"tablePrefix"`
	MaxIdleConns    int      `mapstructure:"maxIdleConns"`
	MaxOpenConns    int      `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int      `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int      `mapstructure:"connMaxLifetime"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TLS      bool   `mapstructure:"tls"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

type MailConfig struct {
	Backend string     `mapstructure:"backend"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type AuthConfig struct {
	AccessTokenTTL   time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL  time.Duration `mapstructure:"refreshTokenTTL"`
	RecoveryTokenTTL time.Duration `mapstructure:"recoveryTokenTTL"`
}

type RateLimitConfig struct {
	Max        int           `mapstructure:"max"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type RetentionConfig struct {
	Schedule     string        `mapstructure:"schedule"`
	ArchiveAfter time.Duration `mapstructure:"archiveAfter"`
}

type Config struct {
	Debug           bool            `mapstructure:"debug"`
	SiteName        string          `mapstructure:"siteName"`
	BaseURL         string          `mapstructure:"baseURL"`
	MasterKey       string          `mapstructure:"masterKey"`
	ListenAddr      string          `mapstructure:"listenAddr"`
	HealthCheckAddr string          `mapstructure:"healthCheckAddr"`
	TemplateDir     string          `mapstructure:"templateDir"`
	AllowOrigins    []string        `mapstructure:"allowOrigins"`
	Database        DatabaseConfig  `mapstructure:"database"`
	Redis           RedisConfig     `mapstructure:"redis"`
	Mail            MailConfig      `mapstructure:"mail"`
	Auth            AuthConfig      `mapstructure:"auth"`
	RateLimit       RateLimitConfig `mapstructure:"rateLimit"`
	Retention       RetentionConfig `mapstructure:"retention"`
}

func (c *Config) Sanitize() error {
	if c.MasterKey == "" {
		return errors.New("masterKey must be set")
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.HealthCheckAddr == "" {
		c.HealthCheckAddr = params.HealthCheckServerAddr
	}
	if c.SiteName == "" {
		c.SiteName = DefaultSiteName
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost" + c.ListenAddr
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = []string{"*"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDatabaseDriver
	}
	if c.Database.Dsn == "" && c.Database.Driver == DefaultDatabaseDriver {
		c.Database.Dsn = DefaultDatabaseDsn
	}
	if c.Mail.Backend == "" {
		c.Mail.Backend = DefaultMailBackend
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = params.AccessTokenExpiration
	}
	if c.Auth.RefreshTokenTTL == 0 {
		c.Auth.RefreshTokenTTL = params.RefreshTokenExpiration
	}
	if c.Auth.RecoveryTokenTTL == 0 {
		c.Auth.RecoveryTokenTTL = params.RecoveryTokenExpiration
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = params.RateLimitMax
	}
	if c.RateLimit.Expiration == 0 {
		c.RateLimit.Expiration = params.RateLimitExpiration
	}
	if c.Retention.ArchiveAfter > 0 && c.Retention.Schedule == "" {
		c.Retention.Schedule = DefaultRetentionCron
	}
	return nil
}

// loadDotEnv exports the variables of a .env file next to the working
// directory, if there is one. Variables already set in the environment win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
