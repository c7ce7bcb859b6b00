package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected development environment, got %q", cfg.Environment)
	}
	if cfg.Credits.WelcomeBonus != 10 {
		t.Fatalf("expected welcome bonus 10, got %d", cfg.Credits.WelcomeBonus)
	}
	if cfg.Credits.CentsPerCredit != 500 {
		t.Fatalf("expected 500 cents per credit, got %d", cfg.Credits.CentsPerCredit)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
environment = "staging"
http_addr = ":9090"

[credits]
welcome_bonus = 5
cents_per_credit = 250
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHURNBUSTER_CONFIG", path)
	t.Setenv("CHURNBUSTER_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected file http_addr, got %q", cfg.HTTPAddr)
	}
	if cfg.Credits.WelcomeBonus != 5 {
		t.Fatalf("expected file welcome bonus, got %d", cfg.Credits.WelcomeBonus)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected env override to win, got %q", cfg.Environment)
	}
}

func TestCreditsForAmount(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cases := []struct {
		amountCents int64
		want        int64
	}{
		{5000, 10},
		{20000, 50},
		{70000, 200},
		{1500, 3},
		{499, 0},
		{0, 0},
		{-100, 0},
	}
	for _, tc := range cases {
		if got := cfg.CreditsForAmount(tc.amountCents); got != tc.want {
			t.Fatalf("CreditsForAmount(%d) = %d, want %d", tc.amountCents, got, tc.want)
		}
	}
}
