package types

import "errors"

// Config holds backend selection and engine parameters. It is populated
// from config.yaml by the CLI and validated before the store is opened.
type Config struct {
	Backend       string          `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir       string          `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	Sync          string          `json:"sync" yaml:"sync" mapstructure:"sync"`
	ShowCompleted bool            `json:"show_completed" yaml:"show_completed" mapstructure:"show_completed"`
	Sort          string          `json:"sort" yaml:"sort" mapstructure:"sort"`
	Language      string          `json:"language" yaml:"language" mapstructure:"language"`
	Reminders     RemindersConfig `json:"reminders" yaml:"reminders" mapstructure:"reminders"`
	HTTP          HTTPConfig      `json:"http" yaml:"http" mapstructure:"http"`
}

// RemindersConfig controls the notification scheduler.
type RemindersConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Journal bool `json:"journal" yaml:"journal" mapstructure:"journal"`
}

// HTTPConfig holds settings for "taskly serve".
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Supported backend names.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Sync strategies for snapshot writes.
const (
	SyncImmediate = "immediate" // Save runs inside the mutation.
	SyncAsync     = "async"     // Saves go through a single background writer.
)

// Defaults applied by DefaultConfig.
const (
	DefaultLanguage = "en"
	DefaultHTTPAddr = "127.0.0.1:8080"
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrSyncStrategyUnknown = errors.New("unknown sync strategy")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendJSON:   true,
	BackendSQLite: true,
}

// knownSyncStrategies lists the sync strategies that Validate accepts. The
// empty string means the default (async).
var knownSyncStrategies = map[string]bool{
	"":            true,
	SyncImmediate: true,
	SyncAsync:     true,
}

// DefaultConfig returns the configuration used when config.yaml sets
// nothing.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendJSON,
		Sync:          SyncAsync,
		ShowCompleted: true,
		Sort:          string(SortManual),
		Language:      DefaultLanguage,
		Reminders:     RemindersConfig{Enabled: true, Journal: true},
		HTTP:          HTTPConfig{Addr: DefaultHTTPAddr},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownSyncStrategies[c.Sync] {
		return ErrSyncStrategyUnknown
	}
	if _, err := ParseSortMode(c.Sort); err != nil {
		return err
	}
	return nil
}

// SyncStrategy returns the effective sync strategy.
func (c Config) SyncStrategy() string {
	if c.Sync == "" {
		return SyncAsync
	}
	return c.Sync
}
