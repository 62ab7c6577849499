// Copyright (C) 2025, The webrpc Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package webrpc

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config describes how to reach the admin server's RPC proxy.
type Config struct {
	BaseURL      string            `env:"WEBRPC_BASE_URL"      envDefault:"http://localhost:8889"`
	Transport    string            `env:"WEBRPC_TRANSPORT"     envDefault:"http"`
	Timeout      time.Duration     `env:"WEBRPC_TIMEOUT"       envDefault:"30s"`
	Headers      map[string]string `env:"WEBRPC_HEADERS"`
	LogLevel     string            `env:"WEBRPC_LOG_LEVEL"     envDefault:"info"`
	OTelEndpoint string            `env:"WEBRPC_OTEL_ENDPOINT"`
}

// LoadConfigFromEnv reads the client configuration from the environment.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if !HasTransport(cfg.Transport) {
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownTransport, cfg.Transport)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("parse log level: %w", err)
	}
	return cfg, nil
}

// Level returns the configured log level, falling back to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// DialOptions turns the configuration into options for Dial.
func (c Config) DialOptions() []DialOption {
	opts := []DialOption{
		WithTransport(c.Transport),
		WithTimeout(c.Timeout),
	}
	for k, v := range c.Headers {
		opts = append(opts, WithHeader(k, v))
	}
	return opts
}
