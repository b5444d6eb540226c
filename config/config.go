package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Listen          string        `mapstructure:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Database      DatabaseConfig      `mapstructure:"database"`
	Session       SessionConfig       `mapstructure:"session"`
	Search        SearchConfig        `mapstructure:"search"`
	Analytics     AnalyticsConfig     `mapstructure:"analytics"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	OSS           OSSConfig           `mapstructure:"oss"`
	Tracing       TracingConfig       `mapstructure:"tracing"`
	Log           LogConfig           `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"`
	Args    string `mapstructure:"args"`
	LogMode bool   `mapstructure:"log_mode"`
}

type SessionConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// SearchConfig throttles product search per user.
type SearchConfig struct {
	Rate  float64       `mapstructure:"rate"`
	Burst int           `mapstructure:"burst"`
	Idle  time.Duration `mapstructure:"idle"`
}

type AnalyticsConfig struct {
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Debug     bool     `mapstructure:"debug"`
	SyncCron  string   `mapstructure:"sync_cron"`
}

type OSSConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	AgentHost    string  `mapstructure:"agent_host"`
	SamplerType  string  `mapstructure:"sampler_type"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("shutdown_timeout", 3*time.Second)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.args", "stocktrack.db")
	v.SetDefault("database.log_mode", false)

	v.SetDefault("session.token_ttl", 24*time.Hour)

	v.SetDefault("search.rate", 5.0)
	v.SetDefault("search.burst", 10)
	v.SetDefault("search.idle", 10*time.Minute)

	v.SetDefault("analytics.cache_ttl", time.Minute)
	v.SetDefault("analytics.cache_size", 64)

	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.debug", false)
	v.SetDefault("elasticsearch.sync_cron", "0 0 3 * * *")

	v.SetDefault("oss.enabled", false)
	v.SetDefault("oss.endpoint", "")
	v.SetDefault("oss.access_key", "")
	v.SetDefault("oss.secret_key", "")
	v.SetDefault("oss.bucket", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "stocktrack")
	v.SetDefault("tracing.agent_host", "localhost:6831")
	v.SetDefault("tracing.sampler_type", "const")
	v.SetDefault("tracing.sampler_param", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
}

// Load reads file (optional) and the environment on top of the defaults.
// Keys map to env vars by upper-casing and replacing dots, e.g. DATABASE_ARGS.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	return c, nil
}
