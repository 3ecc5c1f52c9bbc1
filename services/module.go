package services

import (
	"reflect"

	"github.com/km-arc/iothub-manager/framework/container"
	"github.com/km-arc/iothub-manager/services/storage"
)

// Module is the registration table of the device services.
var Module = container.Module{
	Name: "services",
	Interfaces: []reflect.Type{
		container.TypeOf[Devices](),
		container.TypeOf[DeviceTwins](),
		container.TypeOf[DeviceQuery](),
		container.TypeOf[HealthChecker](),
		container.TypeOf[storage.Store](),
	},
	Constructors: []any{
		NewDeviceRegistry,
		NewTwinRegistry,
		NewQuery,
		storage.NewBoltStore,
	},
}
