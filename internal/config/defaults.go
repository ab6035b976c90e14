package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL         = "https://api.guildwars2.com/v2"
	DefaultAPITimeout      = 30 * time.Second
	DefaultMaxRetries      = 3
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultPollInterval    = 2 * time.Minute
	DefaultBatchSize       = 500
	DefaultFlushInterval   = 1 * time.Second
	DefaultBufferSize      = 2048
	DefaultTrackerInterval = 5 * time.Minute
	DefaultPushPort        = 8081
	DefaultPushPath        = "/ws"
	DefaultHealthPort      = 8080
)

func (c *WatcherConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Aggregator defaults
	if c.Aggregator.Interval == 0 {
		c.Aggregator.Interval = DefaultPollInterval
	}

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}

	// Tracker defaults
	if c.Tracker.Interval == 0 {
		c.Tracker.Interval = DefaultTrackerInterval
	}

	// Push defaults
	if c.Push.Port == 0 {
		c.Push.Port = DefaultPushPort
	}
	if c.Push.Path == "" {
		c.Push.Path = DefaultPushPath
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
