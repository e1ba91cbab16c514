package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type push struct {
	userID  int64
	dest    Destination
	payload any
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes []push
}

func (r *recordingPusher) Push(_ context.Context, userID int64, dest Destination, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, push{userID, dest, payload})
	return nil
}

type failingPusher struct{}

func (failingPusher) Push(context.Context, int64, Destination, any) error {
	return errors.New("transport down")
}

type panickingPusher struct{}

func (panickingPusher) Push(context.Context, int64, Destination, any) error {
	panic("closed channel")
}

type blockingPusher struct{}

func (blockingPusher) Push(ctx context.Context, _ int64, _ Destination, _ any) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestFanout_SendToUser(t *testing.T) {
	t.Run("happy path - every pusher receives the notification", func(t *testing.T) {
		a, b := &recordingPusher{}, &recordingPusher{}
		f := NewFanout(zap.NewNop(), time.Second, a, b)

		f.SendToUser(context.Background(), 7, DestMessages, "hi")

		require.Len(t, a.pushes, 1)
		require.Len(t, b.pushes, 1)
		assert.Equal(t, push{7, DestMessages, "hi"}, a.pushes[0])
	})

	t.Run("sad path - failing pusher does not block the others", func(t *testing.T) {
		rec := &recordingPusher{}
		f := NewFanout(zap.NewNop(), time.Second, failingPusher{}, panickingPusher{}, rec)

		assert.NotPanics(t, func() {
			f.SendToUser(context.Background(), 7, DestFriendRemoval, "bye")
		})
		assert.Len(t, rec.pushes, 1)
	})

	t.Run("sad path - slow pusher is bounded by the timeout", func(t *testing.T) {
		rec := &recordingPusher{}
		f := NewFanout(zap.NewNop(), 20*time.Millisecond, blockingPusher{}, rec)

		start := time.Now()
		f.SendToUser(context.Background(), 7, DestPresence, "online")

		assert.Less(t, time.Since(start), time.Second)
		assert.Len(t, rec.pushes, 1)
	})

	t.Run("happy path - cancelled caller context still delivers", func(t *testing.T) {
		rec := &recordingPusher{}
		f := NewFanout(zap.NewNop(), time.Second, rec)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f.SendToUser(ctx, 7, DestRequests, "req")

		assert.Len(t, rec.pushes, 1)
	})
}

func TestDestination_Token(t *testing.T) {
	assert.Equal(t, "requests", DestRequests.Token())
	assert.Equal(t, "request-responses", DestRequestResponses.Token())
	assert.Equal(t, "isOnline", DestPresence.Token())
	assert.Equal(t, "messages", DestMessages.Token())
	assert.Equal(t, "friendRemoval", DestFriendRemoval.Token())
}

type capturePublisher struct {
	msgs []*nats.Msg
	err  error
}

func (c *capturePublisher) PublishMsg(m *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func TestNATSPublisher_Push(t *testing.T) {
	t.Run("happy path - publishes json on the per-user subject", func(t *testing.T) {
		conn := &capturePublisher{}
		p := NewNATSPublisher(conn, "kawanchat.notify")

		err := p.Push(context.Background(), 42, DestMessages, map[string]string{"content": "hi"})
		require.NoError(t, err)
		require.Len(t, conn.msgs, 1)

		msg := conn.msgs[0]
		assert.Equal(t, "kawanchat.notify.42.messages", msg.Subject)
		assert.NotEmpty(t, msg.Header.Get(nats.MsgIdHdr))

		var body map[string]string
		require.NoError(t, json.Unmarshal(msg.Data, &body))
		assert.Equal(t, "hi", body["content"])
	})

	t.Run("sad path - publish error is returned", func(t *testing.T) {
		conn := &capturePublisher{err: nats.ErrConnectionClosed}
		p := NewNATSPublisher(conn, "kawanchat.notify")

		err := p.Push(context.Background(), 42, DestMessages, "hi")
		assert.ErrorIs(t, err, nats.ErrConnectionClosed)
	})

	t.Run("sad path - unmarshalable payload", func(t *testing.T) {
		p := NewNATSPublisher(&capturePublisher{}, "kawanchat.notify")
		err := p.Push(context.Background(), 42, DestMessages, make(chan int))
		assert.Error(t, err)
	})
}
