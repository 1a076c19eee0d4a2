package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/praxis-ai/praxis/internal/types"
)

// configKeys lists every configuration key so environment overrides work
// even for keys absent from the config file. Viper only surfaces env values
// for keys it has been told about.
var configKeys = []string{
	"engine.step_timeout",
	"engine.work_dir",
	"confidence.high_threshold",
	"confidence.medium_threshold",
	"safety.allowed_roots",
	"state.dir",
	"knowledge.enabled",
	"knowledge.path",
	"ai.provider",
	"ai.model",
	"ai.temperature",
}

// Loader handles loading configuration from YAML files.
type Loader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperLoader implements Loader using Viper.
type viperLoader struct {
	validator Validator
}

// NewLoader creates a Loader backed by the given validator.
func NewLoader(validator Validator) Loader {
	return &viperLoader{validator: validator}
}

// Load reads and validates configuration from the given file path.
// Environment variables with the PRAXIS_ prefix override file values, with
// dots mapped to underscores (e.g. PRAXIS_STATE_DIR overrides state.dir).
func (l *viperLoader) Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	return l.finish(v)
}

// LoadWithDefaults loads configuration from path, falling back to the
// defaults when the file does not exist. Environment overrides apply
// either way.
func (l *viperLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return l.finish(newViper())
	}
	return l.Load(path)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PRAXIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(key)
	}
	return v
}

func (l *viperLoader) finish(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to unmarshal config", err)
	}

	if err := l.validator.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
