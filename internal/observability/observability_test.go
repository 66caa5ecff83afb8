package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/accounts/internal/actorctx"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{&pgconn.PgError{Code: "40P01"}, "deadlock"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("weird"), "unknown"},
	}

	for _, tt := range tests {
		if got := classifyDBErr(tt.err); got != tt.want {
			t.Fatalf("classifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserveDB_NoRowsIsNotAnError(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("users.get_by_email", func() error { return pgx.ErrNoRows })
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("ObserveDB must return fn's error, got %v", err)
	}

	if n := testutil.CollectAndCount(p.DbErrorsTotal); n != 0 {
		t.Fatalf("expected no error series, got %d", n)
	}

	_ = p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("expected one unique_violation, got %v", got)
	}
}

func TestAuthEventAndHandler(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.AuthEvent("login", "invalid_credentials")
	p.AuthEvent("login", "invalid_credentials")
	p.CacheLookup("hit")

	if got := testutil.ToFloat64(p.AuthEventsTotal.WithLabelValues("login", "invalid_credentials")); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}

	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(w.Body.String(), "accounts_auth_events_total") {
		t.Fatalf("metrics output missing auth counter: %s", w.Body.String())
	}
}

func TestGinHandleMiddleware_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/api/users/:id", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users/7", nil))

	if got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/api/users/:id", "200")); got != 1 {
		t.Fatalf("expected 1 request on route template, got %v", got)
	}
}

func TestLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "accounts")

	ctx := actorctx.WithRequestID(context.Background(), "req-42")
	log.InfoContext(ctx, "hello")
	log.DebugContext(ctx, "hidden outside dev")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one line at info level, got %d: %s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if rec["request_id"] != "req-42" || rec["service"] != "accounts" {
		t.Fatalf("expected request_id and service attrs, got %v", rec)
	}
}

func TestLogger_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev", "")

	log.Info("login", "password", "hunter2", "Refresh_Token", "abc.def.ghi", "email", "a@x.com")

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "abc.def.ghi") {
		t.Fatalf("credentials leaked into log: %s", out)
	}
	if !strings.Contains(out, "a@x.com") || !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestSampler(t *testing.T) {
	tests := map[float64]string{
		1:   "root:AlwaysOnSampler",
		0:   "root:AlwaysOffSampler",
		0.5: "root:TraceIDRatioBased{0.5}",
	}

	for ratio, want := range tests {
		if got := sampler(ratio).Description(); !strings.Contains(got, want) {
			t.Fatalf("sampler(%v) = %q, want it to mention %q", ratio, got, want)
		}
	}
}

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracerConfig{ServiceName: "accounts", Env: "test"})
	if err != nil {
		t.Fatalf("InitTracer error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown returned %v", err)
	}
}
