package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	gohttp "github.com/km-arc/iothub-manager/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return gohttp.NewRequest(req)
}

func newGetRequest(t *testing.T, rawQuery string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return gohttp.NewRequest(req)
}

// ── Bind JSON ────────────────────────────────────────────────────────────────

func TestRequest_BindJSON(t *testing.T) {
	type device struct {
		ID      string `json:"id"`
		Enabled bool   `json:"enabled"`
	}

	req := newJSONRequest(t, `{"id":"thermostat-1","enabled":true}`)

	var d device
	if err := req.Bind(&d); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if d.ID != "thermostat-1" {
		t.Errorf("ID: got %q want %q", d.ID, "thermostat-1")
	}
	if !d.Enabled {
		t.Error("Enabled: got false want true")
	}
}

func TestRequest_BindJSON_EmptyBody(t *testing.T) {
	req := newJSONRequest(t, "")
	var v any
	if err := req.Bind(&v); err == nil {
		t.Error("expected error for empty body, got nil")
	}
}

func TestRequest_BindJSON_InvalidJSON(t *testing.T) {
	req := newJSONRequest(t, `{bad json}`)
	var v map[string]any
	if err := req.Bind(&v); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

// ── BindAndValidate ──────────────────────────────────────────────────────────

func TestRequest_BindAndValidate(t *testing.T) {
	type payload struct {
		ID string `json:"id" validate:"required,max=8"`
	}

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"valid", `{"id":"dev-1"}`, ""},
		{"missing", `{}`, "id"},
		{"too long", `{"id":"device-with-long-id"}`, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := newJSONRequest(t, tt.body).BindAndValidate(&p)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if got := fieldErrs[0].Field(); got != tt.wantField {
				t.Errorf("field: got %q want %q", got, tt.wantField)
			}
		})
	}
}

// ── Input helpers ────────────────────────────────────────────────────────────

func TestRequest_Query(t *testing.T) {
	req := newGetRequest(t, "limit=10&continuationToken=dev-3")

	if got := req.Query("limit"); got != "10" {
		t.Errorf("Query limit: got %q want %q", got, "10")
	}
	if got := req.Query("continuationToken"); got != "dev-3" {
		t.Errorf("Query continuationToken: got %q want %q", got, "dev-3")
	}
}

func TestRequest_Query_Fallback(t *testing.T) {
	req := newGetRequest(t, "")
	if got := req.Query("missing", "1"); got != "1" {
		t.Errorf("Query fallback: got %q want %q", got, "1")
	}
}

func TestRequest_RouteParam(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/devices/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = gohttp.NewRequest(req).RouteParam("id")
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/devices/dev-9", nil))

	if got != "dev-9" {
		t.Errorf("RouteParam: got %q want %q", got, "dev-9")
	}
}

// ── Headers ──────────────────────────────────────────────────────────────────

func TestRequest_IfMatch(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{`"abc"`, "abc"},
		{"abc", "abc"},
		{"*", "*"},
		{"", ""},
	}
	for _, tt := range tests {
		raw := httptest.NewRequest(http.MethodPatch, "/", nil)
		if tt.header != "" {
			raw.Header.Set("If-Match", tt.header)
		}
		if got := gohttp.NewRequest(raw).IfMatch(); got != tt.want {
			t.Errorf("IfMatch(%q): got %q want %q", tt.header, got, tt.want)
		}
	}
}

func TestRequest_Header(t *testing.T) {
	raw := httptest.NewRequest(http.MethodGet, "/", nil)
	raw.Header.Set("X-Hub", "local-hub")
	if got := gohttp.NewRequest(raw).Header("X-Hub"); got != "local-hub" {
		t.Errorf("Header: got %q want %q", got, "local-hub")
	}
}
