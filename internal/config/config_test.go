package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Billing.Subscriptions["lite"]; got != (Credits{Std: 30, HD: 10}) {
		t.Fatalf("expected lite=(30,10), got %+v", got)
	}
	if got := cfg.Billing.Packages["hd_5"]; got != (Credits{Std: 5, HD: 5}) {
		t.Fatalf("expected hd_5=(5,5), got %+v", got)
	}
	if cfg.Billing.SubscriptionPeriod != 30*24*time.Hour {
		t.Fatalf("expected 30 day period, got %s", cfg.Billing.SubscriptionPeriod)
	}
	if cfg.Upscale.UnavailablePolicy != "fail" {
		t.Fatalf("expected fail policy by default, got %q", cfg.Upscale.UnavailablePolicy)
	}
	if len(cfg.Styles) == 0 {
		t.Fatalf("expected default style catalog")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INTERIO_UPSCALE_UNAVAILABLE_POLICY", "passthrough")
	t.Setenv("INTERIO_SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Upscale.UnavailablePolicy != "passthrough" {
		t.Fatalf("expected passthrough, got %q", cfg.Upscale.UnavailablePolicy)
	}
	if cfg.Server.Addr() != "0.0.0.0:9090" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr())
	}
}

func TestLoadFileRejectsBadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "interio.yaml")
	if err := os.WriteFile(path, []byte("upscale:\n  unavailable_policy: maybe\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("INTERIO_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid policy error")
	}
}

func TestValidateRejectsOverlappingCatalogs(t *testing.T) {
	cfg := Config{
		Upscale: UpscaleConfig{UnavailablePolicy: "fail"},
		Billing: BillingConfig{
			Packages:      map[string]Credits{"lite": {Std: 1}},
			Subscriptions: map[string]Credits{"lite": {Std: 30, HD: 10}},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected overlap error")
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
