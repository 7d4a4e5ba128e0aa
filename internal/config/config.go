// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autobrr/plexorphans/internal/buildinfo"
	"github.com/autobrr/plexorphans/internal/domain"
)

const (
	appName        = "plexorphans"
	configFileName = "config.toml"
	envPrefix      = "PLEXORPHANS__"
)

// flagNames overrides the kebab-case flag name derived from a config key.
var flagNames = map[string]string{
	"folderMappings":  "folder-mapping",
	"excludes":        "exclude",
	"libraryExcludes": "library-exclude",
}

type AppConfig struct {
	Config *domain.Config
	viper  *viper.Viper
	path   string
}

// Option customises how New resolves configuration.
type Option func(*AppConfig) error

// WithFlags binds every flag in fs whose name matches a config key. A flag
// only takes effect when it was set on the command line.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(c *AppConfig) error {
		if fs == nil {
			return nil
		}
		for _, key := range configKeys() {
			flag := fs.Lookup(FlagName(key))
			if flag == nil {
				continue
			}
			if err := c.viper.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag.Name, err)
			}
		}
		return nil
	}
}

// New loads configuration with precedence flags > environment > config file
// > defaults. configPath may name a file or a directory holding config.toml;
// when empty the default config directory is used if it has a config file.
func New(configPath string, opts ...Option) (*AppConfig, error) {
	c := &AppConfig{
		Config: &domain.Config{},
		viper:  viper.New(),
	}

	c.defaults()
	if err := c.bindEnv(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.viper.SetConfigFile(path)
		c.viper.SetConfigType("toml")
		if err := c.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		c.path = path
		log.Debug().Str("path", path).Msg("config: loaded config file")
	}

	if err := c.viper.Unmarshal(c.Config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		splitListHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.Config.Version = buildinfo.Version

	return c, nil
}

// Path returns the config file that was read, or "" when none was.
func (c *AppConfig) Path() string {
	return c.path
}

func (c *AppConfig) defaults() {
	c.viper.SetDefault("baseUrl", "")
	c.viper.SetDefault("token", "")
	c.viper.SetDefault("folderMappings", []string{})
	c.viper.SetDefault("excludes", []string{})
	c.viper.SetDefault("libraries", []string{})
	c.viper.SetDefault("libraryExcludes", []string{})
	c.viper.SetDefault("followSymlinks", true)
	c.viper.SetDefault("unicodeNormalization", false)
	c.viper.SetDefault("sectionConcurrency", 1)
	c.viper.SetDefault("fetchConcurrency", 4)
	c.viper.SetDefault("maxDepth", 16)
	c.viper.SetDefault("requestTimeout", 30)
	c.viper.SetDefault("retryAttempts", 3)
	c.viper.SetDefault("requestsPerSecond", 0)
	c.viper.SetDefault("output", domain.OutputText)
	c.viper.SetDefault("metricsTextfile", "")
	c.viper.SetDefault("logLevel", "WARN")
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
}

// splitListHook decodes a single string, as environment variables arrive,
// into a []string with splitList.
func splitListHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string(nil)) {
			return data, nil
		}
		return splitList(reflect.ValueOf(data).String()), nil
	}
}

// splitList splits a comma-separated list. Commas inside {} do not separate
// items, so brace globs like *.{nfo,jpg} stay whole. Outside braces, \, is a
// literal comma. Items are trimmed and empty items dropped.
func splitList(s string) []string {
	out := make([]string, 0)
	var item strings.Builder
	flush := func() {
		if v := strings.TrimSpace(item.String()); v != "" {
			out = append(out, v)
		}
		item.Reset()
	}

	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			if depth == 0 && s[i+1] == ',' {
				item.WriteByte(',')
			} else {
				item.WriteByte(c)
				item.WriteByte(s[i+1])
			}
			i++
			continue
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		case c == ',' && depth == 0:
			flush()
			continue
		}
		item.WriteByte(c)
	}
	flush()
	return out
}

func (c *AppConfig) bindEnv() error {
	for _, key := range configKeys() {
		if err := c.viper.BindEnv(key, EnvName(key)); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// configKeys returns the mapstructure keys of domain.Config.
func configKeys() []string {
	t := reflect.TypeOf(domain.Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("mapstructure"); tag != "" {
			keys = append(keys, tag)
		}
	}
	return keys
}

// EnvName returns the environment variable for a config key,
// e.g. baseUrl -> PLEXORPHANS__BASE_URL.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(splitCamel(key, '_'))
}

// FlagName returns the command-line flag for a config key,
// e.g. fetchConcurrency -> fetch-concurrency.
func FlagName(key string) string {
	if name, ok := flagNames[key]; ok {
		return name
	}
	return strings.ToLower(splitCamel(key, '-'))
}

func splitCamel(s string, sep rune) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteRune(sep)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func resolveConfigPath(configPath string) (string, error) {
	if configPath == "" {
		candidate := filepath.Join(getDefaultConfigDir(), configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		return "", nil
	}

	info, err := os.Stat(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("config file %s does not exist", configPath)
		}
		return "", fmt.Errorf("stat config %s: %w", configPath, err)
	}
	if info.IsDir() {
		return filepath.Join(configPath, configFileName), nil
	}
	return configPath, nil
}

// getDefaultConfigDir returns $XDG_CONFIG_HOME/plexorphans, or the platform
// user config dir. XDG_CONFIG_HOME=/config is used as-is for containers.
func getDefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if xdg == "/config" {
			return xdg
		}
		return filepath.Join(xdg, appName)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, appName)
}
