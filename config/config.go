package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// DefaultSymbols is the deck used for generated boards when no board file
// is configured. Symbols are opaque strings; emoji keep the browser UI
// readable.
var DefaultSymbols = []string{
	"🦄", "🌈", "🍭", "🎲", "🐙", "🌵", "🍄", "⭐", "🐳",
	"🔥", "🍀", "🎈", "🐝", "🍉", "🚀", "🎯", "🧩", "🌙",
}

// Config holds all configurable server parameters.
type Config struct {
	// BoardFile is a board description to load at startup. When empty, a
	// random BoardRows x BoardCols board is generated instead.
	BoardFile string `json:"board_file"`
	BoardRows int    `json:"board_rows"`
	BoardCols int    `json:"board_cols"`

	WSPort        int `json:"ws_port"`
	MaxNameLength int `json:"max_name_length"`

	// WatchTimeoutSec bounds an HTTP long-poll on /watch; 0 disables the
	// bound.
	WatchTimeoutSec int `json:"watch_timeout_sec"`

	// CheckInvariants makes every board re-verify its representation after
	// each mutation. Cheap, but meant for development and tests.
	CheckInvariants bool `json:"check_invariants"`

	LogLevel string `json:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		BoardFile:       "",
		BoardRows:       4,
		BoardCols:       4,
		WSPort:          8080,
		MaxNameLength:   24,
		WatchTimeoutSec: 60,
		CheckInvariants: false,
		LogLevel:        "info",
	}
}

// Load reads configuration from an optional config.json file, then applies
// environment variable overrides. Fields not set in either source retain
// their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	overrideString(&cfg.BoardFile, "BOARD_FILE")
	overrideInt(&cfg.BoardRows, "BOARD_ROWS")
	overrideInt(&cfg.BoardCols, "BOARD_COLS")
	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.WatchTimeoutSec, "WATCH_TIMEOUT_SEC")
	overrideBool(&cfg.CheckInvariants, "CHECK_INVARIANTS")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func overrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			*field = v
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

// Level translates the configured log level name to a slog-compatible
// threshold name; unknown names fall back to "info".
func (c *Config) Level() string {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		return c.LogLevel
	default:
		return "info"
	}
}
