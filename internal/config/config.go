// Package config loads connection settings with viper and keeps the small
// UI settings file (masking preference, selected environment) in TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/vedsharma/pingforge/internal/remote"
)

const (
	FileName  = ".pingforge"
	FileType  = "yaml"
	EnvPrefix = "PINGFORGE"

	KeyAPIURL   = "api_url"
	KeyWSURL    = "ws_url"
	KeyAPIToken = "api_token"
	KeyTimeout  = "timeout"
	KeyLogLevel = "log_level"
	KeyDataDir  = "data_dir"
)

// Config is the resolved connection configuration.
type Config struct {
	APIURL   string
	WSURL    string
	APIToken string
	Timeout  time.Duration
	LogLevel string
	DataDir  string

	// File is the config file in use; Created reports that it was written
	// with defaults during this load.
	File    string
	Created bool
}

// DefaultFile returns $HOME/.pingforge.yaml.
func DefaultFile() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, FileName+"."+FileType), nil
}

func setDefaults(v *viper.Viper) error {
	home, err := homedir.Dir()
	if err != nil {
		return fmt.Errorf("find home directory: %w", err)
	}
	v.SetDefault(KeyAPIURL, remote.DefaultBaseURL)
	v.SetDefault(KeyWSURL, "")
	v.SetDefault(KeyAPIToken, "")
	v.SetDefault(KeyTimeout, remote.DefaultTimeout.String())
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyDataDir, filepath.Join(home, FileName))
	return nil
}

// Load reads path (or the default file when empty) into v, applying
// PINGFORGE_* environment overrides. A missing file is created with
// defaults; failing to create it is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		p, err := DefaultFile()
		if err != nil {
			return nil, err
		}
		path = p
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}

	if err := setDefaults(v); err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	v.SetConfigType(FileType)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{File: path}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			cfg.Created = v.SafeWriteConfigAs(path) == nil
		}
	}

	if err := fill(v, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fill(v *viper.Viper, cfg *Config) error {
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIURL)), "/")
	if cfg.APIURL == "" {
		cfg.APIURL = remote.DefaultBaseURL
	}

	cfg.WSURL = strings.TrimRight(strings.TrimSpace(v.GetString(KeyWSURL)), "/")
	if cfg.WSURL == "" {
		ws, err := remote.StreamURLFor(cfg.APIURL)
		if err != nil {
			return err
		}
		cfg.WSURL = ws
	}

	cfg.APIToken = strings.TrimSpace(v.GetString(KeyAPIToken))

	cfg.Timeout = v.GetDuration(KeyTimeout)
	if cfg.Timeout <= 0 {
		return fmt.Errorf("invalid %s %q: must be a positive duration", KeyTimeout, v.GetString(KeyTimeout))
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel)))

	dir, err := homedir.Expand(v.GetString(KeyDataDir))
	if err != nil {
		return fmt.Errorf("expand %s: %w", KeyDataDir, err)
	}
	cfg.DataDir = dir
	return nil
}
