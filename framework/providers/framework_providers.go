// Package providers describes the services the host framework contributes
// to the container before any auto-wiring happens.
package providers

import (
	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/framework/config"
	"github.com/km-arc/iothub-manager/framework/container"
	"github.com/km-arc/iothub-manager/framework/metrics"
)

// Framework returns the host descriptors shared by every application:
//
//   - *zap.Logger          → the process logger
//   - *config.ConfigData   → the configuration-data source
//   - *metrics.Resolutions → the resolution counter, when m is not nil
func Framework(logger *zap.Logger, data *config.ConfigData, m *metrics.Resolutions) []container.Descriptor {
	descs := []container.Descriptor{
		container.DescribeInstance(logger),
		container.DescribeInstance(data),
	}
	if m != nil {
		descs = append(descs, container.DescribeInstance(m))
	}
	return descs
}
