package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. DOTS_AGE_PASSPHRASE.
const EnvPrefix = "DOTS"

//go:embed defaults.yaml
var defaults []byte

// Loader merges the built-in defaults, a config file and the environment.
type Loader struct {
	Name        string   // file name without extension searched for in SearchPaths
	SearchPaths []string // used when no explicit path is given
	EnvPrefix   string
}

// NewLoader returns a Loader searching $XDG_CONFIG_HOME/dots and the working
// directory for dots.yaml.
func NewLoader() *Loader {
	return &Loader{
		Name:        "dots",
		SearchPaths: []string{filepath.Join(xdg.ConfigHome, "dots"), "."},
		EnvPrefix:   EnvPrefix,
	}
}

// Load reads the configuration. An explicit path must exist; otherwise a
// missing file simply leaves the defaults in place. The returned string is
// the config file that was used, if any.
func (l *Loader) Load(path string) (Config, string, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, "", fmt.Errorf("read built-in defaults: %w", err)
	}

	v.SetEnvPrefix(l.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(l.Name)
		for _, p := range l.SearchPaths {
			v.AddConfigPath(p)
		}
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	// DOTS_BASE_PACKAGES=base-devel,git and friends arrive as one string.
	hook := viper.DecodeHook(mapstructure.StringToSliceHookFunc(","))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, "", fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, v.ConfigFileUsed(), nil
}
