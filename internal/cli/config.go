package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/taskly/internal/paths"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
)

// Config keys.
const (
	cfgKeyBackend          = "backend"
	cfgKeyDataDir          = "data_dir"
	cfgKeySync             = "sync"
	cfgKeyShowCompleted    = "show_completed"
	cfgKeySort             = "sort"
	cfgKeyLanguage         = "language"
	cfgKeyRemindersEnabled = "reminders.enabled"
	cfgKeyRemindersJournal = "reminders.journal"
	cfgKeyHTTPAddr         = "http.addr"
)

const configHeader = "# taskly configuration\n" +
	"# backend: json | sqlite; sync: immediate | async;\n" +
	"# sort: manual | due_date | title | status\n\n"

// loadConfig reads config.yaml from configDir using Viper. The directory and
// a default config.yaml are created on first run.
func loadConfig(configDir string) (types.Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, sysErr("create config directory: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return types.Config{}, sysErr("write default config: %w", err)
	}

	def := types.DefaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyDataDir, def.DataDir)
	v.SetDefault(cfgKeySync, def.Sync)
	v.SetDefault(cfgKeyShowCompleted, def.ShowCompleted)
	v.SetDefault(cfgKeySort, def.Sort)
	v.SetDefault(cfgKeyLanguage, def.Language)
	v.SetDefault(cfgKeyRemindersEnabled, def.Reminders.Enabled)
	v.SetDefault(cfgKeyRemindersJournal, def.Reminders.Journal)
	v.SetDefault(cfgKeyHTTPAddr, def.HTTP.Addr)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config %s: %w", paths.ConfigFile(configDir), err)
	}
	return cfg, nil
}

// ensureDefaultConfigFile writes config.yaml with default values if the file
// does not exist. An existing file is left untouched.
func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return writeConfig(path, types.DefaultConfig())
}

// writeConfig marshals cfg with yaml.v3 and writes it to path.
func writeConfig(path string, cfg types.Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
