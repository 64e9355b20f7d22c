package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/shopledger/internal/config"
	"github.com/fastprodman/shopledger/internal/money"
	"github.com/fastprodman/shopledger/internal/repos/settings"
	"github.com/fastprodman/shopledger/pkg/envconf"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"15s"`
	CORSOrigins     []string      `env:"APP_CORS_ORIGINS" default:"http://localhost:3000"`

	Postgres config.PostgresConfig
	Redis    config.RedisConfig
	Auth     config.AuthConfig
	Referral config.ReferralConfig
	Workers  config.WorkerConfig
}

func readConfig() (*apiConfig, error) {
	err := envconf.LoadDotenv()
	if err != nil {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	cfg := new(apiConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	return cfg, nil
}

// defaultSettings converts the configured program defaults into minor units.
func (c *apiConfig) defaultSettings() (settings.Settings, error) {
	var (
		st  = settings.Settings{IsActive: true}
		err error
	)

	for _, f := range []struct {
		name string
		src  func() (int64, error)
		dst  *int64
	}{
		{"referrer reward", func() (int64, error) { return money.FromDecimal(c.Referral.DefaultReferrerReward) }, &st.ReferrerReward},
		{"referred reward", func() (int64, error) { return money.FromDecimal(c.Referral.DefaultReferredReward) }, &st.ReferredReward},
		{"min order amount", func() (int64, error) { return money.FromDecimal(c.Referral.DefaultMinOrderAmount) }, &st.MinOrderAmount},
	} {
		*f.dst, err = f.src()
		if err != nil {
			return settings.Settings{}, fmt.Errorf("default %s: %w", f.name, err)
		}

		if *f.dst < 0 {
			return settings.Settings{}, fmt.Errorf("default %s: %w", f.name, settings.ErrNegativeAmount)
		}
	}

	return st, nil
}
