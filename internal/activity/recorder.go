package activity

import (
	"context"
	"time"

	"github.com/example/storefront/internal/session"
	"go.uber.org/zap"
)

// DefaultPublishTimeout bounds how long a request waits on the broker
const DefaultPublishTimeout = 2 * time.Second

// Publisher is satisfied by the Kafka producer
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Recorder publishes storefront activity. Publishing never fails a request:
// errors are logged and dropped.
type Recorder struct {
	publisher Publisher
	timeout   time.Duration
	logger    *zap.Logger
}

// NewRecorder returns a recorder; a nil publisher turns recording off
func NewRecorder(publisher Publisher, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		publisher: publisher,
		timeout:   DefaultPublishTimeout,
		logger:    logger.Named("activity"),
	}
}

func (r *Recorder) Enabled() bool {
	return r != nil && r.publisher != nil
}

// Record publishes eventType for the cart token of the session in ctx.
// Sessions without a cart token are not tracked.
func (r *Recorder) Record(ctx context.Context, eventType string, data any) {
	if !r.Enabled() {
		return
	}
	cartToken := session.FromContext(ctx).CartToken
	if cartToken == "" {
		return
	}

	event, err := NewEvent(eventType, cartToken, data)
	if err != nil {
		r.logger.Error("failed to build activity event", zap.String("type", eventType), zap.Error(err))
		return
	}
	// the request may finish before Kafka acknowledges, but an unreachable
	// broker must not hold the response past the timeout
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, cartToken, event); err != nil {
		r.logger.Warn("failed to publish activity event",
			zap.String("type", eventType),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return
	}
	r.logger.Debug("activity recorded", zap.String("type", eventType), zap.String("event_id", event.ID))
}
