package kafka

import (
	"context"
	"fmt"
	"time"
)

type publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// RetryPublisher retries transient broker failures with linear backoff before
// giving up. Audit publishes go through it so a broker hiccup does not drop
// trail entries.
type RetryPublisher struct {
	inner      publisher
	maxRetries int
	backoff    time.Duration
}

func NewRetryPublisher(inner publisher, maxRetries int, backoff time.Duration) *RetryPublisher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &RetryPublisher{inner: inner, maxRetries: maxRetries, backoff: backoff}
}

func (p *RetryPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		if err := p.inner.Publish(ctx, topic, key, payload); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if i < p.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * p.backoff):
			}
		}
	}
	return fmt.Errorf("failed after %d retries: %w", p.maxRetries, lastErr)
}
