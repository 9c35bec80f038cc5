// Package config loads process-level configuration for the gateway
// binary from the environment. Per-resource configuration stays in
// Settings; this covers only what the process needs before any resource
// exists.
package config

import (
	"os"
	"strconv"
)

// GatewayConfig holds gateway server configuration.
type GatewayConfig struct {
	Port int
	Host string

	// ShutdownTimeoutSecs bounds the graceful drain on SIGINT/SIGTERM.
	ShutdownTimeoutSecs int

	// ManifestPath optionally names a resource manifest verified at
	// boot. Empty skips verification.
	ManifestPath string
}

// LoadGatewayConfig loads configuration from environment.
func LoadGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		Port:                getEnvInt("RESOURCE_GATEWAY_PORT", 50051),
		Host:                getEnv("RESOURCE_GATEWAY_HOST", "0.0.0.0"),
		ShutdownTimeoutSecs: getEnvInt("RESOURCE_SHUTDOWN_TIMEOUT_SECS", 30),
		ManifestPath:        getEnv("RESOURCE_MANIFEST", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
