// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr        string
	MongoURI        string
	MongoDatabase   string
	RedisAddr       string
	EventChannel    string
	OrderQueueSize  int
	OrderTimeout    time.Duration
	JWTSecret       string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getenv("MONGO_DB", "stockdesk"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		EventChannel:    getenv("EVENT_CHANNEL", "stockdesk:events"),
		OrderQueueSize:  atoienv("ORDER_QUEUE_SIZE", 1024),
		OrderTimeout:    durenvs("ORDER_TIMEOUT", 5),
		JWTSecret:       getenv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:        durenvs("TOKEN_TTL", 24*60*60),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 10),
	}
}
