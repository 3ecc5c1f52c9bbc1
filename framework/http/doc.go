// Package http provides the request and response helpers used by the API
// controllers.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	var body createDeviceRequest
//	if err := req.BindAndValidate(&body); err != nil {
//	    res.ValidationError(err)   // 422 {"errors": {"id": ["id is required"]}}
//	    return
//	}
//	id := req.RouteParam("id")
//	etag := req.IfMatch()
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(device)            // 200 {"data": ...}
//	res.Created(device)            // 201 {"data": ...}
//	res.NotFound(err.Error())      // 404 {"message": ...}
//	res.Error(http.StatusPreconditionFailed, "etag mismatch")
package http
