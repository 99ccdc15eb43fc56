package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-server/internal/platform/auth"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rid := rec.Header().Get("X-Request-ID")
	if rid == "" {
		t.Fatal("expected a generated request id")
	}
	if _, err := uuid.Parse(rid); err != nil {
		t.Errorf("generated id is not a UUID: %s", rid)
	}
	if got, _ := c.Get("request_id").(string); got != rid {
		t.Errorf("context id %q != header id %q", got, rid)
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-me-123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rid := rec.Header().Get("X-Request-ID"); rid != "trace-me-123" {
		t.Errorf("expected existing id to be preserved, got %s", rid)
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Recovery(logger)(func(c echo.Context) error {
		panic("boom")
	})
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %v", err)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Error("expected panic value in the log")
	}
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Logger(logger)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "/api/v1/patients") {
		t.Error("expected path in the log")
	}
}

func TestAudit_RecordsPatientAccess(t *testing.T) {
	actorID := uuid.New()
	recordID := uuid.New()

	var recorded []AuditEntry
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		recorded = append(recorded, entry)
		return nil
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+recordID.String(), nil)
	req = req.WithContext(auth.WithActor(context.Background(), auth.Actor{ID: actorID, Role: auth.RoleStaff}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recorded) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorded))
	}
	entry := recorded[0]
	if entry.UserID != actorID.String() {
		t.Errorf("expected user %s, got %s", actorID, entry.UserID)
	}
	if entry.Resource != "patients" || entry.RecordID != recordID.String() {
		t.Errorf("unexpected resource/record: %s/%s", entry.Resource, entry.RecordID)
	}
	if entry.Action != "read" {
		t.Errorf("expected action read, got %s", entry.Action)
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	var recorded []AuditEntry
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		recorded = append(recorded, entry)
		return nil
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorded) != 0 {
		t.Errorf("expected no audit entries for /health, got %d", len(recorded))
	}
}

func TestAudit_RecorderErrorDoesNotBreakRequest(t *testing.T) {
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		return context.DeadlineExceeded
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/patients/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Audit(zerolog.Nop(), recorder)(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	if err := handler(c); err != nil {
		t.Errorf("recorder failure should not fail the request: %v", err)
	}
}

func TestHttpMethodToAction(t *testing.T) {
	cases := map[string]string{
		http.MethodGet:    "read",
		http.MethodPost:   "create",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range cases {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("%s: expected %s, got %s", method, want, got)
		}
	}
}

func TestExtractResourceAndRecordID(t *testing.T) {
	id := uuid.NewString()

	if got := extractResource("/api/v1/patients/" + id); got != "patients" {
		t.Errorf("expected patients, got %s", got)
	}
	if got := extractResource("/api/v1/stats"); got != "stats" {
		t.Errorf("expected stats, got %s", got)
	}
	if got := extractRecordID("/api/v1/patients/" + id); got != id {
		t.Errorf("expected %s, got %s", id, got)
	}
	if got := extractRecordID("/api/v1/patients/export.xlsx"); got != "" {
		t.Errorf("expected empty record id for non-uuid segment, got %s", got)
	}
}

func TestRateLimit_WithinLimit(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 5})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler := mw(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := handler(c); err != nil {
			t.Fatalf("request %d unexpectedly limited: %v", i, err)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})

	var limited bool
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler := mw(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := handler(c); err != nil {
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %v", err)
			}
			if c.Response().Header().Get("Retry-After") == "" {
				t.Error("expected Retry-After header")
			}
			limited = true
		}
	}
	if !limited {
		t.Error("expected the burst to be exhausted")
	}
}
