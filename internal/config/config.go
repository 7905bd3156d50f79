// Package config loads application settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/abhisek/staarai/internal/llm"
	"github.com/joho/godotenv"
)

// Config holds the application settings shared by the CLI and web server.
type Config struct {
	// OutputDir receives rendered PDFs and ZIP bundles.
	OutputDir string
	// CatalogCSV is an optional standards CSV loaded on top of the
	// embedded catalog.
	CatalogCSV string
	// ListenAddr is the address the web server binds.
	ListenAddr string
	LogMode    string
	LogLevel   string
	// DBPath overrides the event store location. Empty means the default.
	DBPath string

	// AllowFallback lets the pipeline substitute generic template content
	// when the provider is unavailable. Off by default.
	AllowFallback bool
	// ShowAlignment exposes judge reports to the user.
	ShowAlignment bool
	// LegacySymmetricItems asks for 8 Spanish items even on monolingual
	// worksheets.
	LegacySymmetricItems bool

	LLM llm.Config
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		OutputDir:  "out",
		ListenAddr: ":8080",
		LogMode:    "dev",
		LLM:        llm.DefaultConfig(),
	}
}

// Load reads envFile (when it exists) into the process environment without
// overriding variables that are already set, then builds a Config from
// STAAR_* variables. An empty envFile means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment.
func FromEnv() (Config, error) {
	cfg := Default()

	if v := os.Getenv("STAAR_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	cfg.CatalogCSV = os.Getenv("STAAR_TEKS_CSV")
	if v := os.Getenv("STAAR_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("STAAR_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	cfg.LogLevel = os.Getenv("STAAR_LOG_LEVEL")
	cfg.DBPath = os.Getenv("STAAR_DB")

	var err error
	if cfg.AllowFallback, err = envBool("STAAR_ALLOW_FALLBACK"); err != nil {
		return Config{}, err
	}
	if cfg.ShowAlignment, err = envBool("STAAR_SHOW_ALIGNMENT"); err != nil {
		return Config{}, err
	}
	if cfg.LegacySymmetricItems, err = envBool("STAAR_SYMMETRIC_ITEMS"); err != nil {
		return Config{}, err
	}

	cfg.LLM = llm.ConfigFromEnv()
	return cfg, nil
}

func envBool(name string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false, nil
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", name, v)
	}
	return b, nil
}
