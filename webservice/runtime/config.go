package runtime

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/km-arc/iothub-manager/framework/config"
	servicesruntime "github.com/km-arc/iothub-manager/services/runtime"
)

// Configuration keys. Each also reads from the matching environment variable
// (dots become underscores: webservice.port → WEBSERVICE_PORT).
const (
	KeyPort             = "webservice.port"
	KeyShutdownTimeout  = "webservice.shutdown_timeout"
	KeyStrictAutowire   = "webservice.strict_autowire"
	KeyEnvironment      = "app.env"
	KeyLogLevel         = "log.level"
	KeyHubName          = "services.hub_name"
	KeyStorePath        = "services.store_path"
	KeyDeviceQueryLimit = "services.device_query_limit"
)

// Config is the web service configuration.
type Config interface {
	Port() int
	Environment() string
	LogLevel() string
	ShutdownTimeout() time.Duration
	StrictAutowire() bool
	ServicesConfig() servicesruntime.ServicesConfig
}

// AppConfig is read once from the configuration-data source and shared by
// every consumer.
type AppConfig struct {
	HTTPPort int                                   `validate:"min=1,max=65535"`
	Env      string                                `validate:"oneof=local testing production"`
	Level    string                                `validate:"omitempty,oneof=debug info warn error"`
	Shutdown time.Duration                         `validate:"gt=0"`
	Strict   bool
	Services *servicesruntime.StaticServicesConfig `validate:"required"`
}

// NewConfig builds the configuration from data and validates it.
func NewConfig(data *config.ConfigData) (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPPort: data.GetInt(KeyPort, 9002),
		Env:      data.Get(KeyEnvironment, "local"),
		Level:    data.Get(KeyLogLevel, ""),
		Shutdown: data.GetDuration(KeyShutdownTimeout, 10*time.Second),
		Strict:   data.GetBool(KeyStrictAutowire, false),
		Services: &servicesruntime.StaticServicesConfig{
			Hub:        data.Get(KeyHubName, "local-hub"),
			Store:      data.Get(KeyStorePath, "iothub-manager.db"),
			QueryLimit: data.GetInt(KeyDeviceQueryLimit, 100),
		},
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("runtime: invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) Port() int                      { return c.HTTPPort }
func (c *AppConfig) Environment() string            { return c.Env }
func (c *AppConfig) LogLevel() string               { return c.Level }
func (c *AppConfig) ShutdownTimeout() time.Duration { return c.Shutdown }

// StrictAutowire reports whether startup fails on ambiguous interfaces.
func (c *AppConfig) StrictAutowire() bool { return c.Strict }

// ServicesConfig returns the sub-configuration of the device services.
func (c *AppConfig) ServicesConfig() servicesruntime.ServicesConfig { return c.Services }
