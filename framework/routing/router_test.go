package routing_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/km-arc/iothub-manager/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ── HTTP verbs ────────────────────────────────────────────────────────────────

func TestRouter_Verbs(t *testing.T) {
	r := routing.New()
	r.Get("/devices", okHandler)
	r.Post("/devices", okHandler)
	r.Patch("/devices/{id}", okHandler)
	r.Delete("/devices/{id}", okHandler)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/devices"},
		{http.MethodPost, "/devices"},
		{http.MethodPatch, "/devices/1"},
		{http.MethodDelete, "/devices/1"},
	}
	for _, tt := range tests {
		if rr := do(t, r, tt.method, tt.path); rr.Code != http.StatusOK {
			t.Errorf("%s %s: got %d want 200", tt.method, tt.path, rr.Code)
		}
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r := routing.New()
	r.Get("/devices", okHandler)

	if rr := do(t, r, http.MethodPost, "/devices"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /devices: got %d want 405", rr.Code)
	}
}

// ── Params ───────────────────────────────────────────────────────────────────

func TestRouter_Param(t *testing.T) {
	r := routing.New()
	var got string
	r.Get("/devices/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = routing.Param(req, "id")
	})

	do(t, r, http.MethodGet, "/devices/thermostat-7")
	if got != "thermostat-7" {
		t.Errorf("Param id: got %q want %q", got, "thermostat-7")
	}
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

func TestRouter_Prefix(t *testing.T) {
	r := routing.New()
	r.Prefix("/v1", func(api *routing.Router) {
		api.Get("/status", okHandler)
	})

	if rr := do(t, r, http.MethodGet, "/v1/status"); rr.Code != http.StatusOK {
		t.Errorf("GET /v1/status: got %d want 200", rr.Code)
	}
	if rr := do(t, r, http.MethodGet, "/status"); rr.Code != http.StatusNotFound {
		t.Errorf("GET /status: got %d want 404", rr.Code)
	}
}

func TestRouter_GroupMiddleware(t *testing.T) {
	r := routing.New()
	r.Get("/open", okHandler)
	r.Group(func(g *routing.Router) {
		g.Middleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			})
		})
		g.Get("/guarded", okHandler)
	})

	if rr := do(t, r, http.MethodGet, "/open"); rr.Code != http.StatusOK {
		t.Errorf("GET /open: got %d want 200", rr.Code)
	}
	if rr := do(t, r, http.MethodGet, "/guarded"); rr.Code != http.StatusForbidden {
		t.Errorf("GET /guarded: got %d want 403", rr.Code)
	}
}

func TestRouter_Mount(t *testing.T) {
	r := routing.New()
	r.Mount("/metrics", http.HandlerFunc(okHandler))

	if rr := do(t, r.Handler(), http.MethodGet, "/metrics"); rr.Code != http.StatusOK {
		t.Errorf("GET /metrics: got %d want 200", rr.Code)
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	r := routing.New()
	r.Get("/boom", func(w http.ResponseWriter, req *http.Request) { panic("boom") })

	if rr := do(t, r, http.MethodGet, "/boom"); rr.Code != http.StatusInternalServerError {
		t.Errorf("GET /boom: got %d want 500", rr.Code)
	}
}
