package params

import "time"

const (
	ServerBodyLimit          = 1048576 // 1 MiB
	ServerIdleTimeout        = 30 * time.Second
	ServerReadTimeout        = 10 * time.Second
	ServerWriteTimeout       = 10 * time.Second
	RecoveryTokenKeyPrefix   = "r:"
	RateLimitKeyPrefix       = "rl:"
	AccessTokenExpiration    = 5 * time.Minute
	RefreshTokenExpiration   = 24 * time.Hour
	RecoveryTokenExpiration  = 1 * time.Hour
	RateLimitMax             = 20              // max login/recover requests per client ip per window
	RateLimitExpiration      = 1 * time.Minute // rate limit window
	HealthCheckServerAddr    = ":3001"         // health check and metrics server address
	MasterKeyLength          = 48              // length of generated master keys
	PasswordMinLength        = 8
	PasswordMaxSimilarityLen = 3  // shortest user attribute checked against the password
	PasswordMaxLength        = 72 // bcrypt rejects longer input
	UsernameMaxLength        = 150
	EmailMaxLength           = 254
	NameMaxLength            = 150
	AgentNameMaxLength       = 256
	SnowflakeNodeID          = 1
	GroupNameMaxLength       = 150
	LinkMaxLength            = 2048
)
