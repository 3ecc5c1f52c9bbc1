// Package v1 is the first version of the HTTP API. Controllers are
// registered as per-scope host services and resolved from the request scope.
package v1

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/framework/container"
	gohttp "github.com/km-arc/iothub-manager/framework/http"
	"github.com/km-arc/iothub-manager/framework/routing"
	"github.com/km-arc/iothub-manager/services"
)

// Controllers returns the host descriptors of every v1 controller.
func Controllers() []container.Descriptor {
	return []container.Descriptor{
		container.Describe[*StatusController](NewStatusController, container.LifetimeScoped),
		container.Describe[*DevicesController](NewDevicesController, container.LifetimeScoped),
		container.Describe[*DeviceTwinsController](NewDeviceTwinsController, container.LifetimeScoped),
	}
}

// Routes mounts the v1 API under /v1. The router must already run
// routing.Scoped.
func Routes(r *routing.Router) {
	r.Prefix("/v1", func(api *routing.Router) {
		api.Get("/status", handle((*StatusController).Status))

		api.Get("/devices", handle((*DevicesController).List))
		api.Post("/devices", handle((*DevicesController).Create))
		api.Get("/devices/{id}", handle((*DevicesController).Get))
		api.Delete("/devices/{id}", handle((*DevicesController).Delete))

		api.Get("/devices/{id}/twin", handle((*DeviceTwinsController).Get))
		api.Patch("/devices/{id}/twin/tags", handle((*DeviceTwinsController).UpdateTags))
		api.Patch("/devices/{id}/twin/desired", handle((*DeviceTwinsController).UpdateDesired))
	})
}

// handle resolves the controller from the request scope and runs the
// controller method fn.
func handle[C any](fn func(C, *gohttp.Request, *gohttp.Response)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := gohttp.NewResponse(w)
		scope, ok := container.FromContext(r.Context())
		if !ok {
			res.ServerError("No request scope.")
			return
		}
		ctrl, err := container.Resolve[C](scope)
		if err != nil {
			res.ServerError(err.Error())
			return
		}
		fn(ctrl, gohttp.NewRequest(r), res)
	}
}

// writeError maps service errors onto HTTP statuses.
func writeError(res *gohttp.Response, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrDeviceNotFound):
		res.NotFound(err.Error())
	case errors.Is(err, services.ErrDeviceExists):
		res.Conflict(err.Error())
	case errors.Is(err, services.ErrEtagMismatch):
		res.Error(http.StatusPreconditionFailed, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		res.ServerError()
	}
}
