package driven

import "context"

// Notifier defines the driven port for outbound alert delivery.
type Notifier interface {
	// Send delivers a message to the address. A nil return means the
	// message was accepted for delivery.
	Send(ctx context.Context, address, subject, body string) error
}
