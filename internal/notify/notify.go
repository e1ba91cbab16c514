// Package notify delivers targeted push events to a user's personal
// destinations. Delivery is best-effort: nothing is stored for users that are
// not connected.
package notify

//go:generate mockgen -destination=../mocks/mock_notifier.go -package=mocks kawanchat/server/internal/notify Notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Destination names a per-user notification channel
type Destination string

const (
	DestRequests         Destination = "/queue/requests"
	DestRequestResponses Destination = "/queue/request-responses"
	DestPresence         Destination = "/queue/isOnline"
	DestMessages         Destination = "/queue/messages"
	DestFriendRemoval    Destination = "/queue/friendRemoval"
)

// Token returns the destination without its queue prefix, for use as a
// subject or routing token.
func (d Destination) Token() string {
	return strings.TrimPrefix(string(d), "/queue/")
}

// Pusher delivers one payload to one user over one transport
type Pusher interface {
	Push(ctx context.Context, userID int64, dest Destination, payload any) error
}

// Notifier is what the domain services depend on
type Notifier interface {
	SendToUser(ctx context.Context, userID int64, dest Destination, payload any)
}

// Fanout sends every notification through each configured pusher. A failing
// or slow pusher never affects the others or the caller.
type Fanout struct {
	pushers []Pusher
	timeout time.Duration
	log     *zap.Logger

	pushed metric.Int64Counter
	failed metric.Int64Counter
}

var _ Notifier = (*Fanout)(nil)

// NewFanout creates a fan-out over pushers. Each push gets its own timeout.
func NewFanout(log *zap.Logger, timeout time.Duration, pushers ...Pusher) *Fanout {
	meter := otel.Meter("kawanchat/notify")
	pushed, _ := meter.Int64Counter("notifications_pushed_total",
		metric.WithDescription("Total notifications handed to a pusher"))
	failed, _ := meter.Int64Counter("notifications_failed_total",
		metric.WithDescription("Total notifications a pusher failed to deliver"))

	return &Fanout{
		pushers: pushers,
		timeout: timeout,
		log:     log,
		pushed:  pushed,
		failed:  failed,
	}
}

// SendToUser pushes payload to userID on dest. Failures are logged and
// counted, never returned.
func (f *Fanout) SendToUser(ctx context.Context, userID int64, dest Destination, payload any) {
	// notifications are sent after the triggering work committed, so they
	// outlive the caller's cancellation
	ctx = context.WithoutCancel(ctx)

	for _, p := range f.pushers {
		f.push(ctx, p, userID, dest, payload)
	}
}

func (f *Fanout) push(ctx context.Context, p Pusher, userID int64, dest Destination, payload any) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	attrs := metric.WithAttributes(
		attribute.String("destination", dest.Token()),
		attribute.String("pusher", pusherName(p)),
	)

	err := safePush(ctx, p, userID, dest, payload)
	if err != nil {
		f.failed.Add(ctx, 1, attrs)
		f.log.Warn("push failed",
			zap.Int64("user_id", userID),
			zap.String("destination", string(dest)),
			zap.String("pusher", pusherName(p)),
			zap.Error(err),
		)
		return
	}
	f.pushed.Add(ctx, 1, attrs)
}

// safePush turns a panicking pusher into an error
func safePush(ctx context.Context, p Pusher, userID int64, dest Destination, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pusher panicked: %v", r)
		}
	}()
	return p.Push(ctx, userID, dest, payload)
}

func pusherName(p Pusher) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", p), "*")
}
