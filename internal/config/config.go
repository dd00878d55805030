package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	AIURL          string        `mapstructure:"AI_URL"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	DuplicateThreshold float64 `mapstructure:"DUPLICATE_THRESHOLD"`
	IngestRetries      int     `mapstructure:"INGEST_RETRIES"`

	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`
	SessionMaxEntries    int           `mapstructure:"SESSION_MAX_ENTRIES"`
	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`

	NoiseMinEntries    int           `mapstructure:"NOISE_MIN_ENTRIES"`
	NoiseMaxAvgGap     time.Duration `mapstructure:"NOISE_MAX_AVG_GAP"`
	NoiseMinSimilarity float64       `mapstructure:"NOISE_MIN_SIMILARITY"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("DUPLICATE_THRESHOLD", 0.88)
	v.SetDefault("INGEST_RETRIES", 3)

	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_MAX_ENTRIES", 10)
	v.SetDefault("SESSION_SWEEP_INTERVAL", "5m")

	v.SetDefault("NOISE_MIN_ENTRIES", 4)
	v.SetDefault("NOISE_MAX_AVG_GAP", "30s")
	v.SetDefault("NOISE_MIN_SIMILARITY", 0.85)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
