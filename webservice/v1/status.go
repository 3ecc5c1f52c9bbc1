package v1

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	gohttp "github.com/km-arc/iothub-manager/framework/http"
	"github.com/km-arc/iothub-manager/services"
	"github.com/km-arc/iothub-manager/webservice/dependencyresolution"
	"github.com/km-arc/iothub-manager/webservice/runtime"
)

const pingTimeout = 2 * time.Second

var errNoDependency = errors.New("resolved to nil")

// StatusReport is the body of GET /v1/status.
type StatusReport struct {
	Name         string            `json:"name"`
	Status       string            `json:"status"`
	Environment  string            `json:"environment"`
	Hub          string            `json:"hub"`
	Dependencies map[string]string `json:"dependencies"`
}

// StatusController reports whether the service and its backends are up. The
// backends are looked up through the factory on every call.
type StatusController struct {
	factory dependencyresolution.Factory
	config  runtime.Config
	logger  *zap.Logger
}

func NewStatusController(factory dependencyresolution.Factory, config runtime.Config, logger *zap.Logger) *StatusController {
	return &StatusController{factory: factory, config: config, logger: logger.Named("status")}
}

// Status handles GET /v1/status.
func (c *StatusController) Status(req *gohttp.Request, res *gohttp.Response) {
	ctx, cancel := context.WithTimeout(req.Raw().Context(), pingTimeout)
	defer cancel()

	report := StatusReport{
		Name:         "iothub-manager",
		Status:       "OK",
		Environment:  c.config.Environment(),
		Hub:          c.config.ServicesConfig().HubName(),
		Dependencies: map[string]string{},
	}

	checks := map[string]func() (services.HealthChecker, error){
		"devices": func() (services.HealthChecker, error) {
			return dependencyresolution.Resolve[services.Devices](c.factory)
		},
		"twins": func() (services.HealthChecker, error) {
			return dependencyresolution.Resolve[services.DeviceTwins](c.factory)
		},
	}
	for name, resolve := range checks {
		report.Dependencies[name] = c.check(ctx, name, resolve)
		if report.Dependencies[name] != "OK" {
			report.Status = "ERROR"
		}
	}
	res.Success(report)
}

func (c *StatusController) check(ctx context.Context, name string, resolve func() (services.HealthChecker, error)) string {
	checker, err := resolve()
	if err == nil && checker == nil {
		err = errNoDependency
	}
	if err != nil {
		c.logger.Warn("dependency unavailable", zap.String("dependency", name), zap.Error(err))
		return "ERROR"
	}
	if err := checker.Ping(ctx); err != nil {
		c.logger.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
		return "ERROR"
	}
	return "OK"
}
