package config

import (
	"bytes"
	_ "embed"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig      `mapstructure:"http"`
	MySQL      DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
	Channel    ChannelConfig   `mapstructure:"channel"`
	Dispatch   DispatchConfig  `mapstructure:"dispatch"`
	Scheduler  SchedulerConfig `mapstructure:"scheduler"`
	Assistant  AssistantConfig `mapstructure:"assistant"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Auth       AuthConfig      `mapstructure:"auth"`
	Log        LogConfig       `mapstructure:"log"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	JobsTopic      string   `mapstructure:"jobs_topic"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

// ChannelConfig configures the outbound WhatsApp channel (Twilio-compatible API).
type ChannelConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	AccountSID   string        `mapstructure:"account_sid"`
	AuthToken    string        `mapstructure:"auth_token"`
	FromNumber   string        `mapstructure:"from_number"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	FailThreshold int `mapstructure:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"`
}

// DispatchConfig tunes the rate-governed bulk dispatcher.
// PaceInterval is the minimum gap between two initiated sends within one
// job; the channel enforces this limit globally and rejects bursts outright.
type DispatchConfig struct {
	PaceInterval    time.Duration `mapstructure:"pace_interval"`
	CheckpointEvery int           `mapstructure:"checkpoint_every"`
	ProgressTTL     time.Duration `mapstructure:"progress_ttl"`
}

type SchedulerConfig struct {
	AutomationSpec string `mapstructure:"automation_spec"`
	ApprovalSpec   string `mapstructure:"approval_spec"`
}

type AssistantConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxHistory int           `mapstructure:"max_history"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type AuthConfig struct {
	APISecret string `mapstructure:"api_secret"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (WACOM_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (WACOM_*)
	v.SetEnvPrefix("WACOM")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
