package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

// RedisConfig configures the optional token cache. An empty Addr disables it.
type RedisConfig struct {
	Addr          string        `env:"REDIS_ADDR" default:""`
	Password      string        `env:"REDIS_PASSWORD" default:""`
	DB            int           `env:"REDIS_DB" default:"0"`
	TokenCacheTTL time.Duration `env:"REDIS_TOKEN_CACHE_TTL" default:"10m"`
}

type AuthConfig struct {
	TokenTTL   time.Duration `env:"AUTH_TOKEN_TTL" default:"168h"`
	BcryptCost int           `env:"AUTH_BCRYPT_COST" default:"10"`
}

type ReferralConfig struct {
	CodeLength            int             `env:"REFERRAL_CODE_LENGTH" default:"8"`
	LinkBaseURL           string          `env:"REFERRAL_LINK_BASE_URL" default:"http://localhost:3000/auth?ref="`
	DefaultReferrerReward decimal.Decimal `env:"REFERRAL_DEFAULT_REFERRER_REWARD" default:"5.00"`
	DefaultReferredReward decimal.Decimal `env:"REFERRAL_DEFAULT_REFERRED_REWARD" default:"5.00"`
	DefaultMinOrderAmount decimal.Decimal `env:"REFERRAL_DEFAULT_MIN_ORDER_AMOUNT" default:"0"`
}

type WorkerConfig struct {
	Enabled              bool          `env:"WORKER_ENABLED" default:"true"`
	RewardRetryInterval  time.Duration `env:"WORKER_REWARD_RETRY_INTERVAL" default:"1m"`
	RewardMaxAttempts    int           `env:"WORKER_REWARD_MAX_ATTEMPTS" default:"10"`
	RewardRetryBatch     int           `env:"WORKER_REWARD_RETRY_BATCH" default:"50"`
	ReconcileInterval    time.Duration `env:"WORKER_RECONCILE_INTERVAL" default:"5m"`
	TokenCleanupInterval time.Duration `env:"WORKER_TOKEN_CLEANUP_INTERVAL" default:"1h"`
	JobTimeout           time.Duration `env:"WORKER_JOB_TIMEOUT" default:"30s"`
}
