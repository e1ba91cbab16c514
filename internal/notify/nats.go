package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MsgPublisher is satisfied by *nats.Conn
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSPublisher mirrors notifications to NATS on
// <prefix>.<userID>.<destination token> so out-of-process consumers (a mobile
// push gateway, an audit sink) can subscribe per user or per kind.
type NATSPublisher struct {
	conn   MsgPublisher
	prefix string
	tracer trace.Tracer
}

var _ Pusher = (*NATSPublisher)(nil)

func NewNATSPublisher(conn MsgPublisher, prefix string) *NATSPublisher {
	return &NATSPublisher{
		conn:   conn,
		prefix: prefix,
		tracer: otel.Tracer("kawanchat/notify"),
	}
}

// Subject returns the subject a notification for userID on dest is published to
func (p *NATSPublisher) Subject(userID int64, dest Destination) string {
	return fmt.Sprintf("%s.%d.%s", p.prefix, userID, dest.Token())
}

func (p *NATSPublisher) Push(ctx context.Context, userID int64, dest Destination, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	subject := p.Subject(userID, dest)
	ctx, span := p.tracer.Start(ctx, subject+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "nats"),
			attribute.String("messaging.destination.name", subject),
			attribute.Int("messaging.message.payload_size_bytes", len(data)),
		),
	)
	defer span.End()

	header := nats.Header{}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(header))
	header.Set(nats.MsgIdHdr, uuid.NewString())

	if err := p.conn.PublishMsg(&nats.Msg{Subject: subject, Data: data, Header: header}); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// headerCarrier adapts nats.Header to propagation.TextMapCarrier
type headerCarrier nats.Header

func (c headerCarrier) Get(key string) string { return nats.Header(c).Get(key) }

func (c headerCarrier) Set(key, value string) { nats.Header(c).Set(key, value) }

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
