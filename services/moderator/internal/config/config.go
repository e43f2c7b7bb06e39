package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config is the moderator's own configuration surface, on top of the
// shared platform AppConfig.
type Config struct {
	SESSDATA    string
	BiliJCT     string
	ACTimeValue string
	BVID        string
	BaseURL     string

	Patterns     []string
	MaxPages     int
	PassInterval time.Duration

	LedgerBackend string
	LedgerPath    string

	NATSURL string
}

func Load() (Config, error) {
	cfg := Config{
		SESSDATA:      strings.TrimSpace(os.Getenv("BILI_SESSDATA")),
		BiliJCT:       strings.TrimSpace(os.Getenv("BILI_JCT")),
		ACTimeValue:   strings.TrimSpace(os.Getenv("BILI_AC_TIME_VALUE")),
		BVID:          strings.TrimSpace(os.Getenv("BILI_BVID")),
		BaseURL:       strings.TrimSpace(os.Getenv("BILI_BASE_URL")),
		MaxPages:      envInt("MOD_MAX_PAGES", 5),
		PassInterval:  envDuration("MOD_PASS_INTERVAL", 5*time.Minute),
		LedgerBackend: strings.TrimSpace(os.Getenv("MOD_LEDGER_BACKEND")),
		LedgerPath:    strings.TrimSpace(os.Getenv("MOD_LEDGER_PATH")),
		NATSURL:       strings.TrimSpace(os.Getenv("NATS_URL")),
	}
	if cfg.SESSDATA == "" {
		return Config{}, errors.New("BILI_SESSDATA is required")
	}
	if cfg.BiliJCT == "" {
		return Config{}, errors.New("BILI_JCT is required")
	}
	if cfg.BVID == "" {
		return Config{}, errors.New("BILI_BVID is required")
	}

	patterns, err := parsePatterns(os.Getenv("MOD_PATTERNS"))
	if err != nil {
		return Config{}, err
	}
	cfg.Patterns = patterns

	switch cfg.LedgerBackend {
	case "":
		cfg.LedgerBackend = BackendFile
	case BackendFile, BackendPostgres:
	default:
		return Config{}, fmt.Errorf("MOD_LEDGER_BACKEND must be %q or %q", BackendFile, BackendPostgres)
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = "violation_users.json"
	}
	return cfg, nil
}

// parsePatterns decodes MOD_PATTERNS, a JSON array of regular expressions.
// JSON rather than a separator keeps patterns containing commas intact.
func parsePatterns(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("MOD_PATTERNS is required (JSON array of regexps)")
	}
	var patterns []string
	if err := json.Unmarshal([]byte(raw), &patterns); err != nil {
		return nil, fmt.Errorf("MOD_PATTERNS must be a JSON array of strings: %w", err)
	}
	if len(patterns) == 0 {
		return nil, errors.New("MOD_PATTERNS must not be empty")
	}
	return patterns, nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
