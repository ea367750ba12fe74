// README: Config loader with env defaults for HTTP, Firebase, Redis, Maps, and merge settings.
package config

import (
	"os"
	"strconv"
)

type MergeConfig struct {
	ScanIntervalSeconds int
	// RecomputeCost switches the finalized merged-trip cost from the
	// master's pre-merge cost to a fresh estimate over the combined route.
	RecomputeCost bool
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Firebase struct {
		ProjectID       string
		CredentialsFile string
	}
	Redis struct {
		Addr string
	}
	Maps struct {
		APIKey string
		Region string
	}
	Merge    MergeConfig
	Currency string
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("FLEET_HTTP_ADDR", ":8080")
	cfg.Firebase.ProjectID = os.Getenv("FLEET_FIREBASE_PROJECT_ID")
	cfg.Firebase.CredentialsFile = os.Getenv("FLEET_FIREBASE_CREDENTIALS")
	cfg.Redis.Addr = envOrDefault("FLEET_REDIS_ADDR", "localhost:6379")
	cfg.Maps.APIKey = os.Getenv("FLEET_MAPS_API_KEY")
	cfg.Maps.Region = envOrDefault("FLEET_MAPS_REGION", "LK")
	cfg.Merge.ScanIntervalSeconds = envOrDefaultInt("FLEET_MERGE_SCAN_SECONDS", 300)
	cfg.Merge.RecomputeCost = envOrDefaultBool("FLEET_MERGE_RECOMPUTE_COST", false)
	cfg.Currency = envOrDefault("FLEET_CURRENCY", "LKR")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
