package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BILI_SESSDATA", "sess")
	t.Setenv("BILI_JCT", "jct")
	t.Setenv("BILI_BVID", "BV1xx411c7mD")
	t.Setenv("MOD_PATTERNS", `["spam", "casino"]`)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxPages != 5 {
		t.Fatalf("expected default max pages 5, got %d", cfg.MaxPages)
	}
	if cfg.PassInterval != 5*time.Minute {
		t.Fatalf("expected default interval 5m, got %s", cfg.PassInterval)
	}
	if cfg.LedgerBackend != BackendFile || cfg.LedgerPath != "violation_users.json" {
		t.Fatalf("unexpected ledger defaults: %s %s", cfg.LedgerBackend, cfg.LedgerPath)
	}
	if len(cfg.Patterns) != 2 || cfg.Patterns[0] != "spam" {
		t.Fatalf("unexpected patterns: %v", cfg.Patterns)
	}
}

func TestLoad_MissingCredential(t *testing.T) {
	setRequired(t)
	t.Setenv("BILI_SESSDATA", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SESSDATA")
	}
}

func TestLoad_PatternsMustBeJSONArray(t *testing.T) {
	setRequired(t)
	t.Setenv("MOD_PATTERNS", "spam,casino")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-JSON patterns")
	}
}

func TestLoad_EmptyPatternsRejected(t *testing.T) {
	setRequired(t)
	t.Setenv("MOD_PATTERNS", "[]")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty pattern list")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MOD_MAX_PAGES", "12")
	t.Setenv("MOD_PASS_INTERVAL", "90s")
	t.Setenv("MOD_LEDGER_BACKEND", "postgres")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxPages != 12 || cfg.PassInterval != 90*time.Second || cfg.LedgerBackend != BackendPostgres {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_UnknownBackendRejected(t *testing.T) {
	setRequired(t)
	t.Setenv("MOD_LEDGER_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown ledger backend")
	}
}
