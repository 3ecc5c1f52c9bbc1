// Package webservice assembles the IoT hub manager web service: it reads the
// configuration, builds the dependency container and mounts the HTTP API.
package webservice

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/framework/app"
	"github.com/km-arc/iothub-manager/framework/config"
	"github.com/km-arc/iothub-manager/framework/container"
	"github.com/km-arc/iothub-manager/framework/logging"
	"github.com/km-arc/iothub-manager/framework/metrics"
	"github.com/km-arc/iothub-manager/framework/providers"
	"github.com/km-arc/iothub-manager/framework/routing"
	"github.com/km-arc/iothub-manager/webservice/dependencyresolution"
	"github.com/km-arc/iothub-manager/webservice/runtime"
	v1 "github.com/km-arc/iothub-manager/webservice/v1"
)

// Options configures New.
type Options struct {
	// Config is read from the configuration data when nil.
	Config *runtime.AppConfig
	// Logger replaces the logger built from the configuration.
	Logger *zap.Logger
	// Factory receives the container; Default() when nil.
	Factory *dependencyresolution.ContainerFactory
	// Strict fails startup on ambiguous interfaces, on top of the
	// webservice.strict_autowire setting.
	Strict bool
}

// New builds the application from data.
func New(data *config.ConfigData, opts Options) (*app.Application, error) {
	cfg := opts.Config
	var err error
	if cfg == nil {
		if cfg, err = runtime.NewConfig(data); err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		if logger, err = logging.New(cfg.Environment(), cfg.LogLevel()); err != nil {
			return nil, err
		}
	}

	resolutions := metrics.NewResolutions()
	descriptors := append(providers.Framework(logger, data, resolutions), v1.Controllers()...)

	setupOpts := []dependencyresolution.Option{
		dependencyresolution.WithLogger(logger),
		dependencyresolution.WithConfig(cfg),
		dependencyresolution.WithResolutionHook(resolutions.Observe),
	}
	if opts.Factory != nil {
		setupOpts = append(setupOpts, dependencyresolution.WithFactory(opts.Factory))
	}
	if opts.Strict || cfg.StrictAutowire() {
		setupOpts = append(setupOpts, dependencyresolution.WithStrictAutowire())
	}

	c, err := dependencyresolution.Setup(descriptors, data, setupOpts...)
	if err != nil {
		return nil, fmt.Errorf("webservice: dependency setup: %w", err)
	}

	router := routing.New()
	router.Middleware(routing.Scoped(c, logger), routing.RequestLogger(logger))
	v1.Routes(router)
	router.Mount("/metrics", resolutions.Handler())

	logger.Info("web service configured",
		zap.String("env", cfg.Environment()),
		zap.Int("port", cfg.Port()),
		zap.Int("bindings", len(c.Bindings())),
		zap.Int("ambiguous", len(c.Ambiguous())))

	return app.New(c, router, logger, app.Options{
		Port:            cfg.Port(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
	}), nil
}

// Bindings builds the container without serving and returns its registry,
// with the ambiguous interfaces auto-wiring skipped.
func Bindings(data *config.ConfigData, logger *zap.Logger) ([]container.BindingInfo, map[string][]string, error) {
	descriptors := append(providers.Framework(logger, data, nil), v1.Controllers()...)
	c, err := dependencyresolution.Setup(descriptors, data,
		dependencyresolution.WithLogger(logger),
		dependencyresolution.WithFactory(dependencyresolution.NewFactory()))
	if err != nil {
		return nil, nil, err
	}
	defer c.Close()

	ambiguous := make(map[string][]string)
	for svc, impls := range c.Ambiguous() {
		for _, impl := range impls {
			ambiguous[svc.String()] = append(ambiguous[svc.String()], impl.String())
		}
	}
	return c.Bindings(), ambiguous, nil
}
