package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalFlags are the persistent CLI flags merged into Settings.
type GlobalFlags struct {
	ConfigPath string
	BaseURL    string
	Explorer   string
	APIKey     string
	Timeout    string
	Retries    int
	LogLevel   string
}

// Settings is the explicit configuration passed into every client
// constructor; nothing in this repo reads configuration from package state.
type Settings struct {
	BaseURL       string
	ExplorerURL   string
	APIKey        string
	Timeout       time.Duration
	ReadRetries   int
	LogLevel      string
	StorePath     string
	StoreLockPath string
	RPCOverrides  map[int64]string
}

type fileConfig struct {
	BaseURL   string `yaml:"base_url"`
	Explorer  string `yaml:"explorer_url"`
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	Timeout   string `yaml:"timeout"`
	Retries   *int   `yaml:"retries"`
	LogLevel  string `yaml:"log_level"`
	Store     struct {
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"store"`
	RPC map[string]string `yaml:"rpc"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}
	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	if settings.ReadRetries < 0 {
		settings.ReadRetries = 0
	}
	return settings, nil
}

func defaultSettings() (Settings, error) {
	storePath, lockPath, err := defaultStorePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Timeout:       30 * time.Second,
		ReadRetries:   2,
		LogLevel:      "info",
		StorePath:     storePath,
		StoreLockPath: lockPath,
		RPCOverrides:  map[int64]string{},
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "supertx", "config.yaml"), nil
}

func defaultStorePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "supertx")
	return filepath.Join(dir, "supertxs.db"), filepath.Join(dir, "supertxs.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.BaseURL != "" {
		settings.BaseURL = cfg.BaseURL
	}
	if cfg.Explorer != "" {
		settings.ExplorerURL = cfg.Explorer
	}
	if cfg.APIKey != "" {
		settings.APIKey = cfg.APIKey
	}
	if cfg.APIKeyEnv != "" {
		settings.APIKey = os.Getenv(cfg.APIKeyEnv)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.ReadRetries = *cfg.Retries
	}
	if cfg.LogLevel != "" {
		settings.LogLevel = strings.ToLower(cfg.LogLevel)
	}
	if cfg.Store.Path != "" {
		settings.StorePath = cfg.Store.Path
	}
	if cfg.Store.LockPath != "" {
		settings.StoreLockPath = cfg.Store.LockPath
	}
	for chain, url := range cfg.RPC {
		id, err := strconv.ParseInt(chain, 10, 64)
		if err != nil {
			return fmt.Errorf("config rpc chain id %q: %w", chain, err)
		}
		settings.RPCOverrides[id] = url
	}
	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("SUPERTX_BASE_URL"); v != "" {
		settings.BaseURL = v
	}
	if v := os.Getenv("SUPERTX_EXPLORER_URL"); v != "" {
		settings.ExplorerURL = v
	}
	if v := os.Getenv("SUPERTX_API_KEY"); v != "" {
		settings.APIKey = v
	}
	if v := os.Getenv("SUPERTX_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("SUPERTX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.ReadRetries = n
		}
	}
	if v := os.Getenv("SUPERTX_LOG_LEVEL"); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("SUPERTX_STORE_PATH"); v != "" {
		settings.StorePath = v
	}
	if v := os.Getenv("SUPERTX_STORE_LOCK_PATH"); v != "" {
		settings.StoreLockPath = v
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if strings.TrimSpace(flags.BaseURL) != "" {
		settings.BaseURL = strings.TrimSpace(flags.BaseURL)
	}
	if strings.TrimSpace(flags.Explorer) != "" {
		settings.ExplorerURL = strings.TrimSpace(flags.Explorer)
	}
	if strings.TrimSpace(flags.APIKey) != "" {
		settings.APIKey = strings.TrimSpace(flags.APIKey)
	}
	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.ReadRetries = flags.Retries
	}
	if strings.TrimSpace(flags.LogLevel) != "" {
		settings.LogLevel = strings.ToLower(strings.TrimSpace(flags.LogLevel))
	}
	return nil
}
