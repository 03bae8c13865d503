package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/collabwave/collabwave/internal/apperror"
	"github.com/collabwave/collabwave/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	a := New(&config.Config{Env: "test", Port: 0}, nil, nil)

	a.Echo.GET("/api/missing", func(c echo.Context) error {
		return apperror.NewNotFound("task not found")
	})
	a.Echo.GET("/missing", func(c echo.Context) error {
		return apperror.NewNotFound("task not found")
	})
	a.Echo.GET("/private", func(c echo.Context) error {
		return apperror.NewUnauthorized("authentication required")
	})
	a.Echo.GET("/api/panic", func(c echo.Context) error {
		panic("boom")
	})
	return a
}

func get(a *App, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func TestErrorHandler_APIGetsJSON(t *testing.T) {
	rec := get(newTestApp(t), "/api/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body, got %q", rec.Body.String())
	}
	if body["message"] != "task not found" {
		t.Errorf("unexpected message %q", body["message"])
	}
}

func TestErrorHandler_BrowserGetsErrorPage(t *testing.T) {
	rec := get(newTestApp(t), "/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "task not found") {
		t.Errorf("expected message in page, got %q", rec.Body.String())
	}
}

func TestErrorHandler_BrowserUnauthorizedRedirects(t *testing.T) {
	rec := get(newTestApp(t), "/private")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestErrorHandler_PanicIsRecovered(t *testing.T) {
	rec := get(newTestApp(t), "/api/panic")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("panic value must not leak to the client")
	}
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	rec := get(newTestApp(t), "/api/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected a request id header")
	}
}
