package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/services/storage"
)

// DeviceTwins reads and patches device twins.
type DeviceTwins interface {
	HealthChecker
	Get(ctx context.Context, deviceID string) (DeviceTwin, error)
	UpdateTags(ctx context.Context, deviceID, etag string, tags map[string]any) (DeviceTwin, error)
	UpdateDesired(ctx context.Context, deviceID, etag string, desired map[string]any) (DeviceTwin, error)
}

// TwinRegistry is the DeviceTwins implementation on top of a Store. A device
// without a stored twin has an empty one.
type TwinRegistry struct {
	store  storage.Store
	logger *zap.Logger
}

func NewTwinRegistry(store storage.Store, logger *zap.Logger) *TwinRegistry {
	return &TwinRegistry{store: store, logger: logger.Named("twins")}
}

func (r *TwinRegistry) Get(ctx context.Context, deviceID string) (DeviceTwin, error) {
	if err := ctx.Err(); err != nil {
		return DeviceTwin{}, err
	}
	if err := r.requireDevice(deviceID); err != nil {
		return DeviceTwin{}, err
	}
	raw, err := r.store.Get(storage.TwinsBucket, deviceID)
	if errors.Is(err, storage.ErrNotFound) {
		return newTwin(deviceID), nil
	}
	if err != nil {
		return DeviceTwin{}, err
	}
	return decodeTwin(deviceID, raw)
}

func (r *TwinRegistry) UpdateTags(ctx context.Context, deviceID, etag string, tags map[string]any) (DeviceTwin, error) {
	return r.patch(ctx, deviceID, etag, func(t *DeviceTwin) { t.Tags = merge(t.Tags, tags) })
}

func (r *TwinRegistry) UpdateDesired(ctx context.Context, deviceID, etag string, desired map[string]any) (DeviceTwin, error) {
	return r.patch(ctx, deviceID, etag, func(t *DeviceTwin) { t.Desired = merge(t.Desired, desired) })
}

func (r *TwinRegistry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *TwinRegistry) patch(ctx context.Context, deviceID, etag string, apply func(*DeviceTwin)) (DeviceTwin, error) {
	if err := ctx.Err(); err != nil {
		return DeviceTwin{}, err
	}
	// A twin is written only in the transaction that saw its device.
	var updated DeviceTwin
	err := r.store.Atomic(func(tx storage.Tx) error {
		if _, err := tx.Get(storage.DevicesBucket, deviceID); err != nil {
			return deviceErr(deviceID, err)
		}
		twin := newTwin(deviceID)
		current, err := tx.Get(storage.TwinsBucket, deviceID)
		switch {
		case err == nil:
			if twin, err = decodeTwin(deviceID, current); err != nil {
				return err
			}
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		if !etagMatches(etag, twin.Etag) {
			return fmt.Errorf("%w: device %s", ErrEtagMismatch, deviceID)
		}
		apply(&twin)
		twin.Version++
		twin.Etag = uuid.NewString()
		raw, err := json.Marshal(twin)
		if err != nil {
			return err
		}
		if err := tx.Put(storage.TwinsBucket, deviceID, raw); err != nil {
			return err
		}
		updated = twin
		return nil
	})
	if err != nil {
		return DeviceTwin{}, err
	}
	r.logger.Debug("twin updated", zap.String("device", deviceID), zap.Int64("version", updated.Version))
	return updated, nil
}

func (r *TwinRegistry) requireDevice(deviceID string) error {
	_, err := r.store.Get(storage.DevicesBucket, deviceID)
	return deviceErr(deviceID, err)
}

func deviceErr(deviceID string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	return err
}

func decodeTwin(deviceID string, raw []byte) (DeviceTwin, error) {
	twin := newTwin(deviceID)
	if err := json.Unmarshal(raw, &twin); err != nil {
		return DeviceTwin{}, fmt.Errorf("services: decode twin %s: %w", deviceID, err)
	}
	return twin, nil
}
