package notifier

import (
	"context"
	"fmt"
	"html"
)

// Notifier delivers a formatted message to one or more channels.
//
// Notify reports whether the message went out. Failures are logged by the
// implementation and never returned, so a caller can treat "not delivered"
// the same way whatever the cause.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}

// FormatMessage renders the new-listing message in Telegram HTML
func FormatMessage(sourceName, link string) string {
	return fmt.Sprintf("🔔 New listing on <b>%s</b>\n%s", html.EscapeString(sourceName), html.EscapeString(link))
}

// Multi fans a message out to every channel. It counts as delivered when at
// least one channel delivered it.
type Multi []Notifier

// Notify sends text on every channel, in order
func (m Multi) Notify(ctx context.Context, text string) bool {
	delivered := false
	for _, n := range m {
		if n.Notify(ctx, text) {
			delivered = true
		}
	}
	return delivered
}
