package services

import (
	"errors"
	"time"
)

var (
	ErrDeviceNotFound = errors.New("services: device not found")
	ErrDeviceExists   = errors.New("services: device already exists")
	ErrEtagMismatch   = errors.New("services: etag mismatch")
	ErrQueryUsed      = errors.New("services: query already executed")
)

// Device is a registered device identity.
type Device struct {
	ID          string    `json:"id" validate:"required,max=128,excludesall=/?#"`
	Etag        string    `json:"etag"`
	Enabled     bool      `json:"enabled"`
	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// DeviceList is one page of devices.
type DeviceList struct {
	Items             []Device `json:"items"`
	ContinuationToken string   `json:"continuationToken,omitempty"`
}

// DeviceTwin holds the tags and properties of a device. A nil value in a
// patch removes the key.
type DeviceTwin struct {
	DeviceID string         `json:"deviceId"`
	Etag     string         `json:"etag"`
	Version  int64          `json:"version"`
	Tags     map[string]any `json:"tags"`
	Desired  map[string]any `json:"desired"`
	Reported map[string]any `json:"reported"`
}

func newTwin(deviceID string) DeviceTwin {
	return DeviceTwin{
		DeviceID: deviceID,
		Tags:     map[string]any{},
		Desired:  map[string]any{},
		Reported: map[string]any{},
	}
}

// merge applies patch onto dst; nil values delete keys.
func merge(dst, patch map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range patch {
		if v == nil {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
	return dst
}

// etagMatches treats "" and "*" as unconditional.
func etagMatches(want, have string) bool {
	return want == "" || want == "*" || want == have
}
