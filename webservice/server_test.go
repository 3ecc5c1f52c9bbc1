package webservice_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/framework/config"
	"github.com/km-arc/iothub-manager/framework/container"
	"github.com/km-arc/iothub-manager/webservice"
	"github.com/km-arc/iothub-manager/webservice/dependencyresolution"
	"github.com/km-arc/iothub-manager/webservice/runtime"
)

func testData(t *testing.T, extra map[string]any) *config.ConfigData {
	t.Helper()
	values := map[string]any{
		runtime.KeyEnvironment: "testing",
		runtime.KeyStorePath:   filepath.Join(t.TempDir(), "server.db"),
	}
	for k, v := range extra {
		values[k] = v
	}
	return config.FromMap(values)
}

func TestNew_WiresApplication(t *testing.T) {
	application, err := webservice.New(testData(t, map[string]any{runtime.KeyPort: 9123}), webservice.Options{
		Logger:  zap.NewNop(),
		Factory: dependencyresolution.NewFactory(),
	})
	require.NoError(t, err)
	defer application.Close()

	assert.Equal(t, ":9123", application.Addr())
	assert.NotEmpty(t, application.Container.Bindings())
}

func TestNew_RegistersTheConfigurationItRuns(t *testing.T) {
	data := testData(t, map[string]any{runtime.KeyPort: 9124})
	cfg, err := runtime.NewConfig(data)
	require.NoError(t, err)

	application, err := webservice.New(data, webservice.Options{
		Config:  cfg,
		Logger:  zap.NewNop(),
		Factory: dependencyresolution.NewFactory(),
	})
	require.NoError(t, err)
	defer application.Close()

	resolved := container.MustResolve[runtime.Config](application.Container)
	assert.Same(t, cfg, resolved)
	assert.Equal(t, ":9124", application.Addr())
}

func TestNew_StrictFromConfiguration(t *testing.T) {
	_, err := webservice.New(testData(t, map[string]any{runtime.KeyStrictAutowire: true}), webservice.Options{
		Logger:  zap.NewNop(),
		Factory: dependencyresolution.NewFactory(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrAmbiguous)
}

func TestNew_InvalidConfiguration(t *testing.T) {
	_, err := webservice.New(testData(t, map[string]any{runtime.KeyEnvironment: "staging"}), webservice.Options{
		Logger:  zap.NewNop(),
		Factory: dependencyresolution.NewFactory(),
	})
	assert.Error(t, err)
}

func TestNew_Strict(t *testing.T) {
	_, err := webservice.New(testData(t, nil), webservice.Options{
		Logger:  zap.NewNop(),
		Factory: dependencyresolution.NewFactory(),
		Strict:  true,
	})
	assert.Error(t, err)
}

func TestBindings(t *testing.T) {
	bindings, ambiguous, err := webservice.Bindings(testData(t, nil), zap.NewNop())
	require.NoError(t, err)

	sources := map[string]string{}
	for _, b := range bindings {
		sources[b.Service.String()] = b.Source
	}
	assert.Equal(t, "explicit", sources["services.Devices"])
	assert.Equal(t, "explicit", sources["runtime.Config"])
	assert.Equal(t, "autowire:services", sources["services.DeviceQuery"])
	assert.Equal(t, "host", sources["*v1.DevicesController"])
	assert.Equal(t, "host", sources["*zap.Logger"])

	assert.Len(t, ambiguous["services.HealthChecker"], 3)
}
