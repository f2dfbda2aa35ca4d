package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	PurgeOnStart bool   `mapstructure:"purge_on_start" yaml:"purge_on_start"`
	StaticDir    string `mapstructure:"static_dir" yaml:"static_dir"`

	// HistoryLimit caps how many messages are replayed after a successful login.
	HistoryLimit int    `mapstructure:"history_limit" yaml:"history_limit"`
	GuestPrefix  string `mapstructure:"guest_prefix" yaml:"guest_prefix"`
	HashCost     int    `mapstructure:"hash_cost" yaml:"hash_cost"`

	// MaxMessageSize is a human readable byte size ("64KiB") for a single websocket frame.
	MaxMessageSize string  `mapstructure:"max_message_size" yaml:"max_message_size"`
	MessageRate    float64 `mapstructure:"message_rate" yaml:"message_rate"`
	MessageBurst   int     `mapstructure:"message_burst" yaml:"message_burst"`

	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AdminJWTSecret string   `mapstructure:"admin_jwt_secret" yaml:"admin_jwt_secret"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "messages.db",
		StaticDir:         ".",
		HistoryLimit:      100,
		GuestPrefix:       "Guest",
		HashCost:          10,
		MaxMessageSize:    "64KiB",
		MessageRate:       5,
		MessageBurst:      10,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.PurgeOnStart {
		c.PurgeOnStart = true
	}
	if other.StaticDir != "" {
		c.StaticDir = other.StaticDir
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.GuestPrefix != "" {
		c.GuestPrefix = other.GuestPrefix
	}
	if other.HashCost != 0 {
		c.HashCost = other.HashCost
	}
	if other.MaxMessageSize != "" {
		c.MaxMessageSize = other.MaxMessageSize
	}
	if other.MessageRate != 0 {
		c.MessageRate = other.MessageRate
	}
	if other.MessageBurst != 0 {
		c.MessageBurst = other.MessageBurst
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.AdminJWTSecret != "" {
		c.AdminJWTSecret = other.AdminJWTSecret
	}
}
