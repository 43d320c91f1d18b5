package configparser

import (
	"testing"
	"time"
)

type testConfig struct {
	Nested struct {
		Host    string        `env:"CFGTEST_HOST" default:"localhost"`
		Port    int           `env:"CFGTEST_PORT" default:"5432"`
		Timeout time.Duration `env:"CFGTEST_TIMEOUT" default:"15m"`
		Debug   bool          `env:"CFGTEST_DEBUG" default:"true"`
	}
	Untagged string
}

func TestParseEnv_Defaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}

	if cfg.Nested.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", cfg.Nested.Host)
	}
	if cfg.Nested.Port != 5432 {
		t.Errorf("Port = %d, want 5432", cfg.Nested.Port)
	}
	if cfg.Nested.Timeout != 15*time.Minute {
		t.Errorf("Timeout = %v, want 15m", cfg.Nested.Timeout)
	}
	if !cfg.Nested.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestParseEnv_EnvOverridesDefault(t *testing.T) {
	t.Setenv("CFGTEST_HOST", "db.internal")
	t.Setenv("CFGTEST_PORT", "6543")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}

	if cfg.Nested.Host != "db.internal" {
		t.Errorf("Host = %q, want db.internal", cfg.Nested.Host)
	}
	if cfg.Nested.Port != 6543 {
		t.Errorf("Port = %d, want 6543", cfg.Nested.Port)
	}
}

func TestParseEnv_RejectsNonPointer(t *testing.T) {
	if err := ParseEnv(testConfig{}); err == nil {
		t.Fatal("expected error for non-pointer argument")
	}
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("CFGTEST_PORT", "not-a-number")

	var cfg testConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Fatal("expected error for malformed int")
	}
}
