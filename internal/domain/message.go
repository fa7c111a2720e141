package domain

import (
	"fmt"
	"strings"
)

// ComposedMessage is the title/body pair pushed to a recipient. Derived,
// never persisted on its own.
type ComposedMessage struct {
	Title string
	Body  string
}

// defaultDisplayName is the placeholder used when a profile has no name.
const defaultDisplayName = "المريض"

// ComposeStatusMessage maps a queue status to its notification content. Total
// over all inputs: unrecognized statuses get the generic update template with
// the raw status embedded.
func ComposeStatusMessage(status QueueStatus, displayName string) ComposedMessage {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = defaultDisplayName
	}

	switch status {
	case StatusWaiting:
		return ComposedMessage{
			Title: "تم إضافتك للطابور",
			Body:  fmt.Sprintf("مرحباً %s، تم إضافتك للطابور بنجاح", name),
		}
	case StatusInProgress:
		return ComposedMessage{
			Title: "دورك الآن",
			Body:  fmt.Sprintf("مرحباً %s، يرجى التوجه إلى الدكتور، دورك قد حان", name),
		}
	case StatusDone:
		return ComposedMessage{
			Title: "تم إكمال الموعد",
			Body:  fmt.Sprintf("مرحباً %s، تم إكمال موعدك بنجاح، نتمنى لك الشفاء العاجل", name),
		}
	case StatusCancelled:
		return ComposedMessage{
			Title: "تم إلغاء الموعد",
			Body:  fmt.Sprintf("مرحباً %s، تم إلغاء موعدك، يرجى التواصل مع العيادة لإعادة الجدولة", name),
		}
	default:
		return ComposedMessage{
			Title: "تحديث حالة الموعد",
			Body:  fmt.Sprintf("مرحباً %s، تم تحديث حالة موعدك إلى: %s", name, status),
		}
	}
}
