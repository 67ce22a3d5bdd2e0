package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type AppConfig struct {
	ServiceName string     `mapstructure:"service_name"`
	Env         string     `mapstructure:"env"`
	LogLevel    string     `mapstructure:"log_level"`
	MetricsPath string     `mapstructure:"metrics_path"`
	HTTP        HTTPConfig `mapstructure:"http"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	JWTIssuer  string        `mapstructure:"jwt_issuer"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type FeedConfig struct {
	UpdateInterval time.Duration `mapstructure:"update_interval"`
	Volatility     float64       `mapstructure:"volatility"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type SessionStoreConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type JournalConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type RateLimitConfig struct {
	LoginLimit int           `mapstructure:"login_limit"`
	Window     time.Duration `mapstructure:"window"`
}

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Feed         FeedConfig         `mapstructure:"feed"`
	SessionStore SessionStoreConfig `mapstructure:"session_store"`
	Journal      JournalConfig      `mapstructure:"journal"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

// Load reads config.yaml (or the file named by BANK_CONFIG) with BANK_*
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path == "" {
		path = "config.yaml"
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.App.Env != "dev" && cfg.App.Env != "test" {
			return nil, fmt.Errorf("auth.jwt_secret must be set outside dev")
		}
		cfg.Auth.JWTSecret = "dev-only-secret"
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.service_name", "bank-api")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.metrics_path", "/metrics")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.read_timeout", "5s")
	v.SetDefault("app.http.write_timeout", "10s")
	v.SetDefault("app.http.idle_timeout", "60s")

	v.SetDefault("auth.jwt_issuer", "bank-api")
	v.SetDefault("auth.session_ttl", "12h")

	v.SetDefault("feed.update_interval", "3s")
	v.SetDefault("feed.volatility", 0.01)

	v.SetDefault("session_store.redis.addr", "")
	v.SetDefault("session_store.redis.prefix", "bank:session:")

	v.SetDefault("journal.postgres.host", "")
	v.SetDefault("journal.postgres.port", 5432)
	v.SetDefault("journal.postgres.name", "bank")
	v.SetDefault("journal.postgres.user", "bank")
	v.SetDefault("journal.postgres.sslmode", "disable")

	v.SetDefault("kafka.topic", "bank.transactions")

	v.SetDefault("rate_limit.login_limit", 10)
	v.SetDefault("rate_limit.window", "1m")
}
