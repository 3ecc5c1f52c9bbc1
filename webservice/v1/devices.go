package v1

import (
	"github.com/spf13/cast"
	"go.uber.org/zap"

	gohttp "github.com/km-arc/iothub-manager/framework/http"
	"github.com/km-arc/iothub-manager/services"
	"github.com/km-arc/iothub-manager/webservice/dependencyresolution"
)

// DevicesController serves /v1/devices.
type DevicesController struct {
	devices services.Devices
	factory dependencyresolution.Factory
	logger  *zap.Logger
}

func NewDevicesController(devices services.Devices, factory dependencyresolution.Factory, logger *zap.Logger) *DevicesController {
	return &DevicesController{devices: devices, factory: factory, logger: logger.Named("v1.devices")}
}

type createDeviceRequest struct {
	ID      string `json:"id" validate:"required,max=128,excludesall=/?#"`
	Enabled *bool  `json:"enabled"`
}

// List handles GET /v1/devices. With ?all=true every page is collected, each
// through its own DeviceQuery.
func (c *DevicesController) List(req *gohttp.Request, res *gohttp.Response) {
	limit, err := cast.ToIntE(req.Query("limit", "0"))
	if err != nil || limit < 0 {
		res.ValidationError(errInvalidLimit)
		return
	}
	all, err := cast.ToBoolE(req.Query("all", "false"))
	if err != nil {
		res.ValidationError(errInvalidAll)
		return
	}
	ctx := req.Raw().Context()

	if !all {
		list, err := c.devices.List(ctx, req.Query("continuationToken"), limit)
		if err != nil {
			writeError(res, c.logger, err)
			return
		}
		res.Success(list)
		return
	}

	out := services.DeviceList{Items: []services.Device{}}
	token := req.Query("continuationToken")
	for {
		query, err := dependencyresolution.Resolve[services.DeviceQuery](c.factory)
		if err != nil {
			writeError(res, c.logger, err)
			return
		}
		page, err := query.Limit(limit).After(token).Run(ctx)
		if err != nil {
			writeError(res, c.logger, err)
			return
		}
		out.Items = append(out.Items, page.Items...)
		if page.ContinuationToken == "" {
			break
		}
		token = page.ContinuationToken
	}
	res.Success(out)
}

// Get handles GET /v1/devices/{id}.
func (c *DevicesController) Get(req *gohttp.Request, res *gohttp.Response) {
	device, err := c.devices.Get(req.Raw().Context(), req.RouteParam("id"))
	if err != nil {
		writeError(res, c.logger, err)
		return
	}
	res.Raw().Header().Set("ETag", quote(device.Etag))
	res.Success(device)
}

// Create handles POST /v1/devices.
func (c *DevicesController) Create(req *gohttp.Request, res *gohttp.Response) {
	var body createDeviceRequest
	if err := req.BindAndValidate(&body); err != nil {
		res.ValidationError(err)
		return
	}
	device := services.Device{ID: body.ID, Enabled: true}
	if body.Enabled != nil {
		device.Enabled = *body.Enabled
	}

	created, err := c.devices.Create(req.Raw().Context(), device)
	if err != nil {
		writeError(res, c.logger, err)
		return
	}
	res.Raw().Header().Set("ETag", quote(created.Etag))
	res.Created(created)
}

// Delete handles DELETE /v1/devices/{id}.
func (c *DevicesController) Delete(req *gohttp.Request, res *gohttp.Response) {
	if err := c.devices.Delete(req.Raw().Context(), req.RouteParam("id")); err != nil {
		writeError(res, c.logger, err)
		return
	}
	res.NoContent()
}

func quote(etag string) string {
	return `"` + etag + `"`
}
