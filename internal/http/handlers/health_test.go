package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/accounts/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestReadyz(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }

	tests := []struct {
		name   string
		checks map[string]handlers.Pinger
		status int
		want   string
	}{
		{name: "no checks", checks: nil, status: http.StatusOK, want: `"status":"ready"`},
		{name: "all up", checks: map[string]handlers.Pinger{"db": up, "cache": up}, status: http.StatusOK, want: `"db":"up"`},
		{name: "cache down", checks: map[string]handlers.Pinger{"db": up, "cache": down}, status: http.StatusServiceUnavailable, want: `"cache":"down"`},
		{name: "nil check skipped", checks: map[string]handlers.Pinger{"db": nil}, status: http.StatusOK, want: `"status":"ready"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks)
			r := gin.New()
			r.GET("/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.status {
				t.Fatalf("got status %d, want %d", w.Code, tt.status)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Fatalf("body %s does not contain %s", w.Body.String(), tt.want)
			}
		})
	}
}

func TestDocs(t *testing.T) {
	docs := handlers.NewDocsHandler("accounts")
	r := gin.New()
	r.GET("/api/docs", docs.SwaggerUI)
	r.GET("/api/docs/openapi.yaml", docs.OpenAPI)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "accounts API Docs") {
		t.Fatalf("unexpected docs page: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/api/users/me:") {
		t.Fatalf("unexpected openapi document: %d", w.Code)
	}
}
