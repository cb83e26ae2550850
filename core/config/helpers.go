package config

import (
	"os"
	"strconv"
	"strings"
)

// GetAllSettings returns a map of the effective runtime settings, used by the
// admin status endpoint.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":                   Global.App.Version,
		"app_debug":                     Global.App.Debug,
		"push_enabled":                  Global.Push.Enabled,
		"push_batch_size":               Global.Push.BatchSize,
		"sync_interval_seconds":         Global.Scheduler.SyncIntervalSeconds,
		"laundry_default_cycle_minutes": Global.Laundry.DefaultCycleMinutes,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}
