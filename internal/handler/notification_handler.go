package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/smartdoc/queue-notifier/internal/service"
	"github.com/smartdoc/queue-notifier/internal/transport"
)

type NotificationService interface {
	SendCustom(ctx context.Context, req service.CustomRequest) (*service.CustomResult, error)
	SendBulk(ctx context.Context, req service.BulkRequest) (*service.BulkResult, error)
}

type NotificationHandler struct {
	service NotificationService
}

func NewNotificationHandler(service NotificationService) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	return &NotificationHandler{service: service}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service NotificationService) error {
	h, err := NewNotificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/notifications/custom", h.SendCustom)
	v1.Post("/notifications/bulk", h.SendBulk)

	return nil
}

type customNotificationRequest struct {
	PatientID string            `json:"patientId"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
}

type customNotificationResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

type bulkNotificationRequest struct {
	PatientIDs []string          `json:"patientIds"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Data       map[string]string `json:"data,omitempty"`
}

type bulkRecipientResult struct {
	PatientID string `json:"patientId"`
	MessageID string `json:"messageId"`
}

type bulkRecipientError struct {
	PatientID string `json:"patientId"`
	Error     string `json:"error"`
}

type bulkNotificationResponse struct {
	Success       bool                  `json:"success"`
	TotalPatients int                   `json:"totalPatients"`
	Successful    int                   `json:"successful"`
	Failed        int                   `json:"failed"`
	Results       []bulkRecipientResult `json:"results"`
	Errors        []bulkRecipientError  `json:"errors"`
}

// Domain errors are mapped to HTTP statuses by the app-level error handler,
// so handlers return service errors unwrapped.
func (h *NotificationHandler) SendCustom(c *fiber.Ctx) error {
	var req customNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SendCustom(c.Context(), service.CustomRequest{
		PatientID: strings.TrimSpace(req.PatientID),
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
		ExtraData: req.Data,
		SentBy:    transport.CallerID(c),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(customNotificationResponse{
		Success:   true,
		MessageID: result.MessageID,
	})
}

func (h *NotificationHandler) SendBulk(c *fiber.Ctx) error {
	var req bulkNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SendBulk(c.Context(), service.BulkRequest{
		PatientIDs: req.PatientIDs,
		Title:      strings.TrimSpace(req.Title),
		Body:       strings.TrimSpace(req.Body),
		ExtraData:  req.Data,
		SentBy:     transport.CallerID(c),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toBulkResponse(result))
}

func toBulkResponse(result *service.BulkResult) bulkNotificationResponse {
	if result == nil {
		return bulkNotificationResponse{Results: []bulkRecipientResult{}, Errors: []bulkRecipientError{}}
	}

	results := make([]bulkRecipientResult, 0, len(result.Successes))
	for _, success := range result.Successes {
		results = append(results, bulkRecipientResult{
			PatientID: success.PatientID,
			MessageID: success.MessageID,
		})
	}

	errs := make([]bulkRecipientError, 0, len(result.Failures))
	for _, failure := range result.Failures {
		errs = append(errs, bulkRecipientError{
			PatientID: failure.PatientID,
			Error:     failure.Error,
		})
	}

	return bulkNotificationResponse{
		Success:       result.FailureCount == 0,
		TotalPatients: result.TotalRequested,
		Successful:    result.SuccessCount,
		Failed:        result.FailureCount,
		Results:       results,
		Errors:        errs,
	}
}
