// Package config loads process configuration for x402 servers and examples
// from the environment, with optional .env support.
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/openlibx402/go-x402/pkg/defs"
	"github.com/openlibx402/go-x402/pkg/x402"
)

// Config holds the settings a resource guard or payer process needs.
type Config struct {
	// PaymentAddress is the ledger address receiving payments. Required for
	// guard processes.
	PaymentAddress string

	// AssetAddress identifies the fungible token payments are made in.
	// Required for guard processes.
	AssetAddress string

	// Network is the logical ledger identifier.
	Network string

	// RPCURL overrides the network's default ledger endpoint.
	RPCURL string

	// RedisAddr, when set, enables the Redis-backed replay store.
	RedisAddr string

	// ListenAddr is the HTTP listen address for guard processes.
	ListenAddr string

	// Price is the default price per guarded request.
	Price string

	// LogLevel and LogHandler configure the process logger.
	LogLevel   defs.LogLevel
	LogHandler defs.LogHandler
}

// Load reads configuration from X402_* environment variables, loading a .env
// file first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PaymentAddress: os.Getenv("X402_PAYMENT_ADDRESS"),
		AssetAddress:   os.Getenv("X402_ASSET_ADDRESS"),
		Network:        getEnvOr("X402_NETWORK", x402.NetworkDevnet),
		RPCURL:         os.Getenv("X402_RPC_URL"),
		RedisAddr:      os.Getenv("X402_REDIS_ADDR"),
		ListenAddr:     getEnvOr("X402_LISTEN_ADDR", ":8080"),
		Price:          getEnvOr("X402_PRICE", "0.01"),
	}

	if cfg.PaymentAddress == "" {
		return nil, x402.NewError(x402.KindConfiguration, "missing required env X402_PAYMENT_ADDRESS")
	}
	if cfg.AssetAddress == "" {
		return nil, x402.NewError(x402.KindConfiguration, "missing required env X402_ASSET_ADDRESS")
	}
	if _, err := x402.ParseAmount(cfg.Price); err != nil {
		return nil, x402.WrapError(x402.KindConfiguration, err, "invalid X402_PRICE")
	}

	level, err := defs.ParseLogLevelStr(getEnvOr("X402_LOG_LEVEL", string(defs.LogLevelInfo)))
	if err != nil {
		return nil, x402.WrapError(x402.KindConfiguration, err, "invalid X402_LOG_LEVEL")
	}
	cfg.LogLevel = level

	handler, err := defs.ParseHandlerTypeStr(getEnvOr("X402_LOG_HANDLER", string(defs.TextHandler)))
	if err != nil {
		return nil, x402.WrapError(x402.KindConfiguration, err, "invalid X402_LOG_HANDLER")
	}
	cfg.LogHandler = handler

	return cfg, nil
}

// NewLogger builds the process logger from the configured level and handler.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(c.LogHandler.NewSlogHandler(os.Stderr, c.LogLevel))
}

func getEnvOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
