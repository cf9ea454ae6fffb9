package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	DBPath          string `toml:"db_path"`
	AttachmentsRoot string `toml:"attachments_root"`
	ContactsPath    string `toml:"contacts_path"` // optional vCard file
	LabelMaxLen     int    `toml:"label_max_len"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"` // text or json

	Home string `toml:"-"`
}

// DefaultPath is where Load looks for a config file when none is given.
func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "msgexport", "config.toml")
}

// Load builds the configuration from defaults, the TOML file at path (or the
// default location when path is empty), a .env file in the working directory
// and MSGEXPORT_* environment variables, in that order of precedence. A
// missing default config file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:          filepath.Join(home, "Library", "Messages", "chat.db"),
		AttachmentsRoot: filepath.Join(home, "Library", "Messages", "Attachments"),
		LogLevel:        "info",
		LogFormat:       "text",
		Home:            home,
	}

	cfgPath := path
	if cfgPath == "" {
		cfgPath = DefaultPath(home)
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	} else if path != "" {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	// .env is optional, but a broken one is an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.AttachmentsRoot = expandHome(cfg.AttachmentsRoot, home)
	cfg.ContactsPath = expandHome(cfg.ContactsPath, home)

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	for _, v := range []struct {
		key string
		dst *string
	}{
		{"MSGEXPORT_DB_PATH", &cfg.DBPath},
		{"MSGEXPORT_ATTACHMENTS_ROOT", &cfg.AttachmentsRoot},
		{"MSGEXPORT_CONTACTS_PATH", &cfg.ContactsPath},
		{"MSGEXPORT_LOG_LEVEL", &cfg.LogLevel},
		{"MSGEXPORT_LOG_FORMAT", &cfg.LogFormat},
	} {
		if s := os.Getenv(v.key); s != "" {
			*v.dst = s
		}
	}
	if s := os.Getenv("MSGEXPORT_LABEL_MAX_LEN"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("MSGEXPORT_LABEL_MAX_LEN: %w", err)
		}
		cfg.LabelMaxLen = n
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the configured home directory.
func (c *Config) ExpandHome(path string) string {
	return expandHome(path, c.Home)
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
