package gateway

import "context"

// PushGateway is the outbound delivery port. The engine treats the gateway as
// a black box: one call, one delivery identifier or one error.
type PushGateway interface {
	Send(ctx context.Context, msg Message) (*SendResponse, error)
}

// Message is one push addressed to one device token, with the platform
// delivery hints the mobile client expects.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string

	Android AndroidHints
	APNS    *APNSHints
}

// AndroidHints configures the Android notification channel and presentation.
type AndroidHints struct {
	ChannelID      string
	Priority       string
	DefaultSound   bool
	DefaultVibrate bool
	Icon           string
	Color          string
}

// APNSHints configures the iOS aps payload.
type APNSHints struct {
	Sound    string
	Badge    int
	Category string
}

// SendResponse stores gateway call metadata for audit and persistence.
type SendResponse struct {
	StatusCode int
	Body       string
	MessageID  string
}
