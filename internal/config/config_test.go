package config

import "testing"

func TestConfig_Unit_Defaults(t *testing.T) {
	// Blank values read as unset, so this holds regardless of the
	// ambient environment.
	for _, key := range []string{
		"RESOURCE_GATEWAY_PORT", "RESOURCE_GATEWAY_HOST",
		"RESOURCE_SHUTDOWN_TIMEOUT_SECS", "RESOURCE_MANIFEST",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadGatewayConfig()
	if cfg.Port != 50051 {
		t.Errorf("default port = %d, want 50051", cfg.Port)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("default host = %q", cfg.Host)
	}
	if cfg.ShutdownTimeoutSecs != 30 {
		t.Errorf("default shutdown timeout = %d, want 30", cfg.ShutdownTimeoutSecs)
	}
	if cfg.ManifestPath != "" {
		t.Errorf("default manifest path = %q, want empty", cfg.ManifestPath)
	}
}

func TestConfig_Unit_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RESOURCE_GATEWAY_PORT", "6000")
	t.Setenv("RESOURCE_GATEWAY_HOST", "127.0.0.1")
	t.Setenv("RESOURCE_MANIFEST", "/etc/resources.yaml")

	cfg := LoadGatewayConfig()
	if cfg.Port != 6000 {
		t.Errorf("port = %d, want 6000", cfg.Port)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.ManifestPath != "/etc/resources.yaml" {
		t.Errorf("manifest path = %q", cfg.ManifestPath)
	}
}

func TestConfig_Unit_MalformedIntFallsBack(t *testing.T) {
	t.Setenv("RESOURCE_GATEWAY_PORT", "not-a-port")
	if cfg := LoadGatewayConfig(); cfg.Port != 50051 {
		t.Errorf("port = %d, want default 50051", cfg.Port)
	}
}
