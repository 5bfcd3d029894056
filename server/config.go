package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	Port     int    `envconfig:"PORT" default:"3001"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
	// StrictErrors reports rejected pause/stop/leave/chat requests instead of
	// ignoring them.
	StrictErrors bool `envconfig:"STRICT_ERRORS" default:"false"`

	InboxSize     int           `envconfig:"INBOX_SIZE" default:"1024"`
	SendQueueSize int           `envconfig:"SEND_QUEUE_SIZE" default:"256"`
	ReadLimit     int64         `envconfig:"WS_READ_LIMIT_BYTES" default:"1048576"`
	WriteTimeout  time.Duration `envconfig:"WS_WRITE_TIMEOUT" default:"4s"`
	PongWait      time.Duration `envconfig:"WS_PONG_WAIT" default:"45s"`
	PingInterval  time.Duration `envconfig:"WS_PING_INTERVAL" default:"20s"`
}

func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.PingInterval >= cfg.PongWait {
		cfg.PingInterval = cfg.PongWait / 2
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("SEND_QUEUE_SIZE must be positive, got %d", c.SendQueueSize)
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("WS_READ_LIMIT_BYTES must be positive, got %d", c.ReadLimit)
	}
	if c.PongWait <= 0 {
		return fmt.Errorf("WS_PONG_WAIT must be positive, got %s", c.PongWait)
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("WS_PING_INTERVAL must be positive, got %s", c.PingInterval)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("WS_WRITE_TIMEOUT must be positive, got %s", c.WriteTimeout)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
