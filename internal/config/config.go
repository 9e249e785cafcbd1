package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config captures everything leaddeck needs to reach the CRM API.
type Config struct {
	APIURL       string
	Token        string
	UserID       int64
	Company      int64
	CanAllocate  bool
	Timeout      time.Duration
	PollInterval time.Duration
	LogFile      string
	PrefsFile    string
}

const (
	defaultConfigPath = "~/.config/leaddeck/config.toml"
	defaultAPIURL     = "https://ulg.unitytelco.com/api/v1"
	defaultLogFile    = "~/.local/state/leaddeck/leaddeck.log"
	defaultPrefsFile  = "~/.config/leaddeck/prefs.toml"
	defaultTimeout    = 10 * time.Second
	defaultPoll       = 30 * time.Second

	envToken  = "LEADDECK_TOKEN"
	envAPIURL = "LEADDECK_API_URL"
)

// ErrMissingToken is returned by Validate when no API token is configured.
var ErrMissingToken = errors.New("api token is not configured (set token in config or " + envToken + ")")

type rawConfig struct {
	APIURL      string `toml:"api_url" yaml:"api_url"`
	Token       string `toml:"token" yaml:"token"`
	UserID      int64  `toml:"user_id" yaml:"user_id"`
	Company     int64  `toml:"company" yaml:"company"`
	CanAllocate *bool  `toml:"can_allocate" yaml:"can_allocate"`
	Timeout     string `toml:"timeout" yaml:"timeout"`
	Poll        string `toml:"poll" yaml:"poll"`
	LogFile     string `toml:"log_file" yaml:"log_file"`
	PrefsFile   string `toml:"prefs_file" yaml:"prefs_file"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:       defaultAPIURL,
		CanAllocate:  true,
		Timeout:      defaultTimeout,
		PollInterval: defaultPoll,
		LogFile:      mustExpand(defaultLogFile),
		PrefsFile:    mustExpand(defaultPrefsFile),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
// A .env file next to the config is loaded first; environment variables
// override file values.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	if err := LoadDotEnv(filepath.Join(filepath.Dir(resolved), ".env")); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := merge(&cfg, raw); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// Validate reports settings the API calls cannot do without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrMissingToken
	}
	if c.UserID <= 0 {
		return fmt.Errorf("user_id must be set to a positive id")
	}
	if c.Company <= 0 {
		return fmt.Errorf("company must be set to a positive id")
	}
	return nil
}

func merge(cfg *Config, raw rawConfig) error {
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.Token = strings.TrimSpace(raw.Token)
	cfg.UserID = raw.UserID
	cfg.Company = raw.Company
	if raw.CanAllocate != nil {
		cfg.CanAllocate = *raw.CanAllocate
	}

	if v := strings.TrimSpace(raw.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("parse config: invalid timeout %q", raw.Timeout)
		}
		cfg.Timeout = d
	}
	if v := strings.TrimSpace(raw.Poll); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("parse config: invalid poll %q", raw.Poll)
		}
		cfg.PollInterval = d
	}

	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.PrefsFile); v != "" {
		cfg.PrefsFile = mustExpand(v)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envToken)); v != "" {
		cfg.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(envAPIURL)); v != "" {
		cfg.APIURL = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
