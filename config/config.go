// Package config loads the settings of the bkr command from a config file,
// a .env file and BKR_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	Store    string // file, sqlite or memory
	Data     string // path of the snapshot file or database
	Currency string
	HashCost int
	Plain    bool // print raw markdown instead of rendering it
	Tick     time.Duration
	Log      logging.Options
}

// Load reads the configuration. file may be empty, in which case BKR_CONFIG
// names it, or else bkr.yaml
// (or .toml, .json) is looked up in the working directory and in
// $HOME/.config/bkr. envFiles are loaded into the environment first; a
// missing one is ignored.
func Load(file string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("cannot load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetDefault("store", StoreFile)
	v.SetDefault("data", defaultData())
	v.SetDefault("currency", brokerage.DefaultCurrency)
	v.SetDefault("auth.cost", bcrypt.DefaultCost)
	v.SetDefault("plain", false)
	v.SetDefault("tick", 2*time.Second)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetEnvPrefix("BKR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		file = os.Getenv("BKR_CONFIG")
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("bkr")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "bkr"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	c := &Config{
		Store:    strings.ToLower(v.GetString("store")),
		Data:     v.GetString("data"),
		Currency: strings.ToUpper(v.GetString("currency")),
		HashCost: v.GetInt("auth.cost"),
		Plain:    v.GetBool("plain"),
		Tick:     v.GetDuration("tick"),
		Log: logging.Options{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q, want %s, %s or %s", c.Store, StoreFile, StoreSQLite, StoreMemory)
	}
	if c.Store != StoreMemory && c.Data == "" {
		return fmt.Errorf("store %s needs a data path", c.Store)
	}
	if c.HashCost < bcrypt.MinCost || c.HashCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.cost %d out of [%d, %d]", c.HashCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("tick %v must be positive", c.Tick)
	}
	return nil
}

// defaultData is the snapshot path in the user data directory, falling
// back to the working directory.
func defaultData() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bkr.json"
	}
	return filepath.Join(dir, "bkr", "ledger.json")
}
