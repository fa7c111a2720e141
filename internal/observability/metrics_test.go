package observability

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsDispatchCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncDispatchSucceeded("STATE_CHANGE")
	metrics.IncDispatchFailed("bulk")
	metrics.ObserveGatewaySendDuration(80 * time.Millisecond)
	metrics.IncBulkInFlight()
	metrics.DecBulkInFlight()
	metrics.IncLedgerWriteFailed()
	metrics.AddRetentionDeleted(500)

	if got := testutil.ToFloat64(metrics.dispatchSucceededTotal.WithLabelValues("state_change")); got != 1 {
		t.Fatalf("dispatch_succeeded_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.dispatchFailedTotal.WithLabelValues("bulk")); got != 1 {
		t.Fatalf("dispatch_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.bulkInFlight); got != 0 {
		t.Fatalf("bulk_inflight_recipients = %v, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.ledgerWriteFailuresTotal); got != 1 {
		t.Fatalf("ledger_write_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.retentionDeletedTotal); got != 500 {
		t.Fatalf("retention_deleted_total = %v, want 500", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsErrorStatus(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	_, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}
