// Package notify fans calendar invalidations out to every open device of a user.
// An invalidation carries no data; receivers refetch the calendar.
package notify

import "context"

// Message is the payload published on a user's channel.
const Message = "calendar-changed"

// StreamEvent is the server-sent event type that carries Message to devices.
const StreamEvent = "invalidate"

// Notifier publishes and delivers per-user invalidations.
type Notifier interface {
	Publish(ctx context.Context, userID string) error
	// Subscribe returns a channel that receives one value per invalidation burst.
	// The channel is closed once cancel is called or ctx is done.
	Subscribe(ctx context.Context, userID string) (events <-chan struct{}, cancel func(), err error)
}

// Channel is the pub/sub channel name for a user.
func Channel(userID string) string {
	return "calendar:" + userID
}

// signal performs a non-blocking send; a pending value already covers this one.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
