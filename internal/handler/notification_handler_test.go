package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartdoc/queue-notifier/internal/domain"
	"github.com/smartdoc/queue-notifier/internal/service"
	"github.com/smartdoc/queue-notifier/internal/transport"
)

type fakeNotificationService struct {
	sendCustomFn func(ctx context.Context, req service.CustomRequest) (*service.CustomResult, error)
	sendBulkFn   func(ctx context.Context, req service.BulkRequest) (*service.BulkResult, error)
}

func (f *fakeNotificationService) SendCustom(ctx context.Context, req service.CustomRequest) (*service.CustomResult, error) {
	return f.sendCustomFn(ctx, req)
}

func (f *fakeNotificationService) SendBulk(ctx context.Context, req service.BulkRequest) (*service.BulkResult, error) {
	return f.sendBulkFn(ctx, req)
}

func newTestApp(t *testing.T, svc NotificationService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})
	if err := RegisterNotificationRoutes(app, svc); err != nil {
		t.Fatalf("RegisterNotificationRoutes() error = %v", err)
	}
	return app
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("json.Unmarshal(%s) error = %v", body, err)
	}
}

func TestSendCustomSuccess(t *testing.T) {
	t.Parallel()

	var got service.CustomRequest
	svc := &fakeNotificationService{
		sendCustomFn: func(_ context.Context, req service.CustomRequest) (*service.CustomResult, error) {
			got = req
			return &service.CustomResult{MessageID: "projects/smartdoc/messages/42"}, nil
		},
	}
	app := newTestApp(t, svc)

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/v1/notifications/custom", map[string]any{
		"patientId": "patient-1",
		"title":     "تذكير بالموعد",
		"body":      "موعدك غداً الساعة العاشرة",
		"data":      map[string]string{"appointmentId": "apt-9"},
	}))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	var body customNotificationResponse
	decodeJSON(t, resp, &body)
	if !body.Success {
		t.Error("expected success = true")
	}
	if body.MessageID != "projects/smartdoc/messages/42" {
		t.Errorf("messageId = %q", body.MessageID)
	}

	if got.PatientID != "patient-1" {
		t.Errorf("service received patientId = %q", got.PatientID)
	}
	if got.ExtraData["appointmentId"] != "apt-9" {
		t.Errorf("service received data = %v", got.ExtraData)
	}
}

func TestSendCustomInvalidBody(t *testing.T) {
	t.Parallel()

	svc := &fakeNotificationService{
		sendCustomFn: func(context.Context, service.CustomRequest) (*service.CustomResult, error) {
			t.Error("service should not be called for malformed body")
			return nil, nil
		},
	}
	app := newTestApp(t, svc)

	req := httptest.NewRequest(fiber.MethodPost, "/v1/notifications/custom", bytes.NewReader([]byte("{broken")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}
}

func TestSendCustomDomainErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{
			name:       "validation maps to 400",
			serviceErr: fmt.Errorf("%w: title is required", domain.ErrValidation),
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "unauthenticated maps to 401",
			serviceErr: fmt.Errorf("%w: caller identity is required", domain.ErrUnauthenticated),
			wantStatus: fiber.StatusUnauthorized,
		},
		{
			name:       "unknown patient maps to 404",
			serviceErr: fmt.Errorf("%w: patient patient-1", domain.ErrNotFound),
			wantStatus: fiber.StatusNotFound,
		},
		{
			name:       "missing push token maps to 412",
			serviceErr: fmt.Errorf("%w: patient patient-1", domain.ErrNoDeliveryAddress),
			wantStatus: fiber.StatusPreconditionFailed,
		},
		{
			name:       "unexpected error maps to 500",
			serviceErr: fmt.Errorf("gateway exploded"),
			wantStatus: fiber.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeNotificationService{
				sendCustomFn: func(context.Context, service.CustomRequest) (*service.CustomResult, error) {
					return nil, tt.serviceErr
				},
			}
			app := newTestApp(t, svc)

			resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/v1/notifications/custom", map[string]any{
				"patientId": "patient-1",
				"title":     "t",
				"body":      "b",
			}))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestSendBulkPartialFailureResponse(t *testing.T) {
	t.Parallel()

	svc := &fakeNotificationService{
		sendBulkFn: func(_ context.Context, req service.BulkRequest) (*service.BulkResult, error) {
			return &service.BulkResult{
				TotalRequested: 3,
				SuccessCount:   2,
				FailureCount:   1,
				Successes: []service.BulkRecipientSuccess{
					{PatientID: "p1", MessageID: "m1"},
					{PatientID: "p2", MessageID: "m2"},
				},
				Failures: []service.BulkRecipientFailure{
					{PatientID: "p3", Error: "No push token found"},
				},
			}, nil
		},
	}
	app := newTestApp(t, svc)

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/v1/notifications/bulk", map[string]any{
		"patientIds": []string{"p1", "p2", "p3"},
		"title":      "إعلان",
		"body":       "العيادة مغلقة يوم الجمعة",
	}))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	var body bulkNotificationResponse
	decodeJSON(t, resp, &body)
	if body.Success {
		t.Error("expected success = false when any recipient failed")
	}
	if body.TotalPatients != 3 || body.Successful != 2 || body.Failed != 1 {
		t.Errorf("totals = %d/%d/%d, want 3/2/1", body.TotalPatients, body.Successful, body.Failed)
	}
	if len(body.Results) != 2 || len(body.Errors) != 1 {
		t.Fatalf("results = %d, errors = %d", len(body.Results), len(body.Errors))
	}
	if body.Errors[0].PatientID != "p3" || body.Errors[0].Error != "No push token found" {
		t.Errorf("errors[0] = %+v", body.Errors[0])
	}
}

func TestSendBulkTooManyRecipients(t *testing.T) {
	t.Parallel()

	svc := &fakeNotificationService{
		sendBulkFn: func(_ context.Context, req service.BulkRequest) (*service.BulkResult, error) {
			return nil, fmt.Errorf("%w: at most 100 patients per request", domain.ErrValidation)
		},
	}
	app := newTestApp(t, svc)

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
	}

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/v1/notifications/bulk", map[string]any{
		"patientIds": ids,
		"title":      "t",
		"body":       "b",
	}))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}
}
