package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ConfigData is the configuration-data source: .env files, an optional
// config file, and the process environment, in increasing priority.
// Read it once at bootstrap and hand it to the composition root.
type ConfigData struct {
	v *viper.Viper
}

// Options selects the files ConfigData reads.
type Options struct {
	// EnvFiles are loaded into the environment first. Default: ".env".
	EnvFiles []string
	// File is an optional YAML/TOML/JSON config file. When set it must exist.
	File string
}

// Load reads .env (if present) and the optional config file.
//
//	data, err := config.Load(config.Options{File: "appsettings.yaml"})
func Load(opts Options) (*ConfigData, error) {
	files := opts.EnvFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
	}

	return &ConfigData{v: v}, nil
}

// FromMap builds a ConfigData from fixed values. Environment variables still
// take precedence, as with Load.
func FromMap(values map[string]any) *ConfigData {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range values {
		v.SetDefault(k, val)
	}
	return &ConfigData{v: v}
}

// Get returns a string value, falling back to defaultVal.
// Keys are dotted ("services.store_path") and match the env var
// SERVICES_STORE_PATH.
func (d *ConfigData) Get(key, defaultVal string) string {
	if !d.v.IsSet(key) {
		return defaultVal
	}
	if s := d.v.GetString(key); s != "" {
		return s
	}
	return defaultVal
}

// GetInt returns an int value, falling back to defaultVal when unset or invalid.
func (d *ConfigData) GetInt(key string, defaultVal int) int {
	if !d.v.IsSet(key) {
		return defaultVal
	}
	i, err := cast.ToIntE(d.v.Get(key))
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool value, falling back to defaultVal when unset or invalid.
func (d *ConfigData) GetBool(key string, defaultVal bool) bool {
	if !d.v.IsSet(key) {
		return defaultVal
	}
	b, err := cast.ToBoolE(d.v.Get(key))
	if err != nil {
		return defaultVal
	}
	return b
}

// GetDuration returns a duration value ("5s", "1m"), falling back to defaultVal.
func (d *ConfigData) GetDuration(key string, defaultVal time.Duration) time.Duration {
	if !d.v.IsSet(key) {
		return defaultVal
	}
	dur, err := time.ParseDuration(fmt.Sprint(d.v.Get(key)))
	if err != nil {
		return defaultVal
	}
	return dur
}
