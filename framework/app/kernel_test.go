package app_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/framework/app"
	"github.com/km-arc/iothub-manager/framework/container"
	"github.com/km-arc/iothub-manager/framework/routing"
)

type resource struct{ closed bool }

func (r *resource) Close() error {
	r.closed = true
	return nil
}

func newApp(t *testing.T) (*app.Application, *resource) {
	t.Helper()
	res := &resource{}
	b := container.NewBuilder()
	b.RegisterType(func() *resource { return res }).SingleInstance()
	c, err := b.Build()
	require.NoError(t, err)

	router := routing.New()
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	return app.New(c, router, zap.NewNop(), app.Options{ShutdownTimeout: time.Second}), res
}

func TestApplication_ServeAndShutdown(t *testing.T) {
	application, _ := newApp(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestApplication_CloseDisposesContainer(t *testing.T) {
	application, res := newApp(t)
	container.MustResolve[*resource](application.Container)

	require.NoError(t, application.Close())
	assert.True(t, res.closed)
}

func TestApplication_DefaultAddr(t *testing.T) {
	application, _ := newApp(t)
	assert.Equal(t, ":0", application.Addr())
}
