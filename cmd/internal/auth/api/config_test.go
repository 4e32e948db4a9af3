package authapi

import "testing"

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("SKYGATE_AUTH_MAX_BODY_BYTES", "2048")
	t.Setenv("SKYGATE_AUTH_GENERIC_LOGIN_ERRORS", "true")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.MaxBodyBytes != 2048 || !cfg.GenericLoginErrors {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigFromEnv_NonPositiveBodyLimit(t *testing.T) {
	t.Setenv("SKYGATE_AUTH_MAX_BODY_BYTES", "0")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("expected fallback to 1 MiB, got %d", cfg.MaxBodyBytes)
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("SKYGATE_AUTH_GENERIC_LOGIN_ERRORS", "maybe")

	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatalf("expected parse error")
	}
}
