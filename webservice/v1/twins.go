package v1

import (
	"context"
	"errors"

	"go.uber.org/zap"

	gohttp "github.com/km-arc/iothub-manager/framework/http"
	"github.com/km-arc/iothub-manager/services"
)

var (
	errInvalidLimit = errors.New("limit must be a non-negative integer")
	errInvalidAll   = errors.New("all must be true or false")
	errEmptyPatch   = errors.New("patch must set at least one key")
)

// DeviceTwinsController serves /v1/devices/{id}/twin. Updates honour If-Match.
type DeviceTwinsController struct {
	twins  services.DeviceTwins
	logger *zap.Logger
}

func NewDeviceTwinsController(twins services.DeviceTwins, logger *zap.Logger) *DeviceTwinsController {
	return &DeviceTwinsController{twins: twins, logger: logger.Named("v1.twins")}
}

// Get handles GET /v1/devices/{id}/twin.
func (c *DeviceTwinsController) Get(req *gohttp.Request, res *gohttp.Response) {
	twin, err := c.twins.Get(req.Raw().Context(), req.RouteParam("id"))
	if err != nil {
		writeError(res, c.logger, err)
		return
	}
	c.respond(res, twin)
}

// UpdateTags handles PATCH /v1/devices/{id}/twin/tags.
func (c *DeviceTwinsController) UpdateTags(req *gohttp.Request, res *gohttp.Response) {
	c.update(req, res, c.twins.UpdateTags)
}

// UpdateDesired handles PATCH /v1/devices/{id}/twin/desired.
func (c *DeviceTwinsController) UpdateDesired(req *gohttp.Request, res *gohttp.Response) {
	c.update(req, res, c.twins.UpdateDesired)
}

type patchFunc func(ctx context.Context, deviceID, etag string, patch map[string]any) (services.DeviceTwin, error)

func (c *DeviceTwinsController) update(req *gohttp.Request, res *gohttp.Response, apply patchFunc) {
	var patch map[string]any
	if err := req.Bind(&patch); err != nil {
		res.ValidationError(err)
		return
	}
	if len(patch) == 0 {
		res.ValidationError(errEmptyPatch)
		return
	}

	twin, err := apply(req.Raw().Context(), req.RouteParam("id"), req.IfMatch(), patch)
	if err != nil {
		writeError(res, c.logger, err)
		return
	}
	c.respond(res, twin)
}

func (c *DeviceTwinsController) respond(res *gohttp.Response, twin services.DeviceTwin) {
	if twin.Etag != "" {
		res.Raw().Header().Set("ETag", quote(twin.Etag))
	}
	res.Success(twin)
}
