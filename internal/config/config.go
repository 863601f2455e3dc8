package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	StoreName             string
	SnapshotTTLSeconds    int
	CatalogRefreshSeconds int
	OrderAPIURL           string
	OrderAPITimeoutSecs   int
	AuthSecret            string
	AccessTokenTTLMinutes int
	AdminUsername         string
	AdminPassword         string
	CashierUsername       string
	CashierPassword       string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	snapTTL, err := strconv.Atoi(getEnv("SNAPSHOT_TTL_SECONDS", "300"))
	if err != nil || snapTTL < 1 {
		snapTTL = 300
	}
	refresh, err := strconv.Atoi(getEnv("CATALOG_REFRESH_SECONDS", "60"))
	if err != nil || refresh < 1 {
		refresh = 60
	}
	orderTimeout, err := strconv.Atoi(getEnv("ORDER_API_TIMEOUT_SECONDS", "10"))
	if err != nil || orderTimeout < 1 {
		orderTimeout = 10
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		StoreName:             getEnv("STORE_NAME", "main-store"),
		SnapshotTTLSeconds:    snapTTL,
		CatalogRefreshSeconds: refresh,
		OrderAPIURL:           strings.TrimSpace(os.Getenv("ORDER_API_URL")),
		OrderAPITimeoutSecs:   orderTimeout,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		AdminUsername:         getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:         os.Getenv("ADMIN_PASSWORD"),
		CashierUsername:       getEnv("CASHIER_USERNAME", "cashier"),
		CashierPassword:       os.Getenv("CASHIER_PASSWORD"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
