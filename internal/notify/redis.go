package notify

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// RedisNotifier publishes invalidations over Redis pub/sub so every server
// instance can reach the user's devices.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (n *RedisNotifier) Publish(ctx context.Context, userID string) error {
	return n.rdb.Publish(ctx, Channel(userID), Message).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, userID string) (<-chan struct{}, func(), error) {
	pubsub := n.rdb.Subscribe(ctx, Channel(userID))
	// Wait for the subscription confirmation so no publish is missed after we return.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}

	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.Errorf("failed to close pubsub for %s: %s", userID, err)
			}
		}()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				signal(out)
			}
		}
	}()

	return out, cancel, nil
}
