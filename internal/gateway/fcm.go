package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultSendTimeout = 10 * time.Second

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroidNotification struct {
	ChannelID            string `json:"channel_id,omitempty"`
	Priority             string `json:"notification_priority,omitempty"`
	DefaultSound         bool   `json:"default_sound,omitempty"`
	DefaultVibrateTiming bool   `json:"default_vibrate_timings,omitempty"`
	Icon                 string `json:"icon,omitempty"`
	Color                string `json:"color,omitempty"`
}

type fcmAndroid struct {
	Notification fcmAndroidNotification `json:"notification"`
}

type fcmAps struct {
	Sound    string `json:"sound,omitempty"`
	Badge    int    `json:"badge,omitempty"`
	Category string `json:"category,omitempty"`
}

type fcmApnsPayload struct {
	Aps fcmAps `json:"aps"`
}

type fcmApns struct {
	Payload fcmApnsPayload `json:"payload"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *fcmAndroid       `json:"android,omitempty"`
	Apns         *fcmApns          `json:"apns,omitempty"`
}

type fcmSendRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmSendResponse struct {
	Name string `json:"name"`
}

// FCMClient sends pushes through an FCM HTTP v1 compatible endpoint.
type FCMClient struct {
	client   *resty.Client
	endpoint string
}

func NewFCMClient(endpoint, accessToken string) (*FCMClient, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)
	if strings.TrimSpace(accessToken) != "" {
		client.SetAuthToken(accessToken)
	}

	return NewFCMClientWithClient(endpoint, client)
}

func NewFCMClientWithClient(endpoint string, client *resty.Client) (*FCMClient, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("push gateway endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid push gateway endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &FCMClient{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (c *FCMClient) Send(ctx context.Context, msg Message) (*SendResponse, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("gateway client is not initialized")
	}
	if strings.TrimSpace(msg.Token) == "" {
		return nil, fmt.Errorf("device token is required")
	}
	if msg.Title == "" || msg.Body == "" {
		return nil, fmt.Errorf("message title and body are required")
	}

	reqBody := fcmSendRequest{
		Message: fcmMessage{
			Token:        msg.Token,
			Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
			Data:         msg.Data,
			Android:      androidPayload(msg.Android),
			Apns:         apnsPayload(msg.APNS),
		},
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(c.endpoint)
	if err != nil {
		return nil, &GatewayError{
			Message: "gateway request failed",
			Cause:   err,
		}
	}
	if response == nil {
		return nil, &GatewayError{
			Message: "gateway returned empty response",
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResponse{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  messageIDFromBody(responseBody),
		}, nil
	}

	return nil, &GatewayError{
		StatusCode: statusCode,
		Message:    gatewayErrorMessage(statusCode, responseBody),
	}
}

func androidPayload(hints AndroidHints) *fcmAndroid {
	if hints == (AndroidHints{}) {
		return nil
	}
	return &fcmAndroid{
		Notification: fcmAndroidNotification{
			ChannelID:            hints.ChannelID,
			Priority:             hints.Priority,
			DefaultSound:         hints.DefaultSound,
			DefaultVibrateTiming: hints.DefaultVibrate,
			Icon:                 hints.Icon,
			Color:                hints.Color,
		},
	}
}

func apnsPayload(hints *APNSHints) *fcmApns {
	if hints == nil {
		return nil
	}
	return &fcmApns{
		Payload: fcmApnsPayload{
			Aps: fcmAps{
				Sound:    hints.Sound,
				Badge:    hints.Badge,
				Category: hints.Category,
			},
		},
	}
}

func gatewayErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("gateway returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}

// messageIDFromBody extracts the FCM resource name, e.g.
// projects/clinic/messages/0:1700000000%abc.
func messageIDFromBody(body string) string {
	if body == "" {
		return ""
	}

	var parsed fcmSendResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return ""
	}

	return strings.TrimSpace(parsed.Name)
}
