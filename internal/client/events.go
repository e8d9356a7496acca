package client

import (
	"alcyxob/workout-tracker/internal/notify"
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	sse "github.com/tmaxmax/go-sse"
)

const (
	eventsPath = "/calendar/events"
	readyEvent = "ready"

	maxReconnectDelay = 30 * time.Second
)

// streamLoop keeps the event stream open until ctx is done. The outcome of the
// first handshake is sent on ready exactly once; later ready events mean the
// stream was reopened.
func (c *Client) streamLoop(ctx context.Context, cancel context.CancelFunc, onChange func(), ready chan<- error, done chan struct{}) {
	defer close(done)

	settled := false
	settle := func(err error) {
		if !settled {
			settled = true
			ready <- err
		}
	}

	events := c.eventsClient(func(err error, next time.Duration) {
		if !settled {
			settle(err)
			cancel()
			return
		}
		log.Warnf("calendar events: stream lost, retrying in %s: %v", next.Round(time.Millisecond), err)
	})

	for {
		req, err := c.newRequest(ctx, http.MethodGet, eventsPath, nil)
		if err != nil {
			settle(err)
			return
		}
		conn := events.NewConnection(req)
		conn.SubscribeEvent(readyEvent, func(sse.Event) {
			if !settled {
				settle(nil)
				return
			}
			log.Info("calendar events: reconnected")
			onChange()
		})
		conn.SubscribeEvent(notify.StreamEvent, func(sse.Event) { onChange() })

		err = conn.Connect()
		if !settled {
			settle(err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		// a rejected reconnect is permanent for go-sse; keep trying at our pace
		log.Warnf("calendar events: stream closed: %v", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) eventsClient(onRetry func(error, time.Duration)) *sse.Client {
	// the stream outlives any client timeout
	streamClient := *c.httpClient
	streamClient.Timeout = 0
	return &sse.Client{
		HTTPClient:        &streamClient,
		ResponseValidator: validateStream,
		OnRetry:           onRetry,
		Backoff: sse.Backoff{
			InitialInterval: c.reconnectDelay,
			MaxInterval:     maxReconnectDelay,
		},
	}
}

// validateStream turns error responses into an *APIError so callers can
// inspect the status.
func validateStream(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	if err := sse.DefaultValidator(resp); err != nil {
		return fmt.Errorf("event stream: %w", err)
	}
	return nil
}
