package config

import (
	"os"
	"strconv"
)

type Config struct {
	Env              string
	HTTPPort         string
	DatabaseURL      string
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTIssuer        string
	RateRPS          int
	Workers          int
}

func Load() Config {
	cfg := Config{
		Env:              get("APP_ENV", "dev"),
		HTTPPort:         get("HTTP_PORT", "8080"),
		DatabaseURL:      get("DATABASE_URL", ""), // empty -> in-memory ledger
		JWTAccessSecret:  get("JWT_ACCESS_SECRET", "changeme-secret"),
		JWTRefreshSecret: get("JWT_REFRESH_SECRET", "changeme-refresh"),
		JWTIssuer:        get("JWT_ISSUER", "store-backend"),
		RateRPS:          getInt("RATE_RPS", 100),
		Workers:          getInt("WORKERS", 4),
	}
	return cfg
}

func get(key, def string) string { v := os.Getenv(key); if v == "" { return def }; return v }

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil { return n }
	}
	return def
}
