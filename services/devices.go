package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/services/runtime"
	"github.com/km-arc/iothub-manager/services/storage"
)

// Devices manages device identities.
type Devices interface {
	HealthChecker
	List(ctx context.Context, continuationToken string, limit int) (DeviceList, error)
	Get(ctx context.Context, id string) (Device, error)
	Create(ctx context.Context, device Device) (Device, error)
	Delete(ctx context.Context, id string) error
}

// HealthChecker is implemented by every component that can report whether
// its backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// DeviceRegistry is the Devices implementation on top of a Store.
type DeviceRegistry struct {
	store  storage.Store
	config runtime.ServicesConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewDeviceRegistry(store storage.Store, config runtime.ServicesConfig, logger *zap.Logger) *DeviceRegistry {
	return &DeviceRegistry{
		store:  store,
		config: config,
		logger: logger.Named("devices").With(zap.String("hub", config.HubName())),
		now:    time.Now,
	}
}

func (r *DeviceRegistry) List(ctx context.Context, continuationToken string, limit int) (DeviceList, error) {
	return listDevices(ctx, r.store, continuationToken, clampLimit(limit, r.config.DeviceQueryLimit()))
}

func (r *DeviceRegistry) Get(ctx context.Context, id string) (Device, error) {
	if err := ctx.Err(); err != nil {
		return Device{}, err
	}
	raw, err := r.store.Get(storage.DevicesBucket, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if err != nil {
		return Device{}, err
	}
	var d Device
	if err := json.Unmarshal(raw, &d); err != nil {
		return Device{}, fmt.Errorf("services: decode device %s: %w", id, err)
	}
	return d, nil
}

func (r *DeviceRegistry) Create(ctx context.Context, device Device) (Device, error) {
	if err := ctx.Err(); err != nil {
		return Device{}, err
	}
	now := r.now().UTC()
	device.Etag = uuid.NewString()
	device.Created = now
	device.LastUpdated = now

	err := r.store.Update(storage.DevicesBucket, device.ID, func(current []byte) ([]byte, error) {
		if current != nil {
			return nil, fmt.Errorf("%w: %s", ErrDeviceExists, device.ID)
		}
		return json.Marshal(device)
	})
	if err != nil {
		return Device{}, err
	}
	r.logger.Info("device created", zap.String("device", device.ID))
	return device, nil
}

// Delete removes the device and its twin.
func (r *DeviceRegistry) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.store.Atomic(func(tx storage.Tx) error {
		if _, err := tx.Get(storage.DevicesBucket, id); err != nil {
			return deviceErr(id, err)
		}
		if err := tx.Delete(storage.DevicesBucket, id); err != nil {
			return err
		}
		return tx.Delete(storage.TwinsBucket, id)
	})
	if err != nil {
		return err
	}
	r.logger.Info("device deleted", zap.String("device", id))
	return nil
}

func (r *DeviceRegistry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func listDevices(ctx context.Context, store storage.Store, after string, limit int) (DeviceList, error) {
	if err := ctx.Err(); err != nil {
		return DeviceList{}, err
	}
	// one extra entry tells whether another page exists
	entries, err := store.List(storage.DevicesBucket, after, limit+1)
	if err != nil {
		return DeviceList{}, err
	}

	list := DeviceList{Items: make([]Device, 0, len(entries))}
	for i, e := range entries {
		if i == limit {
			list.ContinuationToken = list.Items[len(list.Items)-1].ID
			break
		}
		var d Device
		if err := json.Unmarshal(e.Value, &d); err != nil {
			return DeviceList{}, fmt.Errorf("services: decode device %s: %w", e.Key, err)
		}
		list.Items = append(list.Items, d)
	}
	return list, nil
}

func clampLimit(limit, ceiling int) int {
	if limit <= 0 || limit > ceiling {
		return ceiling
	}
	return limit
}
