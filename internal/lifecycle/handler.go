// Package lifecycle turns transport connect and disconnect events into
// presence changes and friend notifications.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"kawanchat/server/internal/models"
	"kawanchat/server/internal/notify"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Presence is the part of the presence tracker the handler mutates
type Presence interface {
	MarkOnline(contact string)
	MarkOffline(contact string)
}

// Directory resolves a contact to a user and the user to their friends
type Directory interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Handler flips presence synchronously and fans the change out to friends in
// the background. Fan-out failures are logged and never reach the transport.
//
// Each contact has at most one fan-out worker. Flips that arrive while one is
// running collapse into the latest status, so friends always end on the
// contact's most recent state.
type Handler struct {
	presence Presence
	dir      Directory
	notifier notify.Notifier
	timeout  time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]*announcement

	wg          sync.WaitGroup
	transitions metric.Int64Counter
}

type announcement struct {
	status models.LiveStatus
	queued bool
}

// NewHandler returns a Handler that announces flips through notifier,
// giving each fan-out at most timeout.
func NewHandler(presence Presence, dir Directory, notifier notify.Notifier, timeout time.Duration, log *zap.Logger) *Handler {
	transitions, _ := otel.Meter("kawanchat/lifecycle").Int64Counter("presence_transitions_total",
		metric.WithDescription("Total presence flips processed"))

	return &Handler{
		presence:    presence,
		dir:         dir,
		notifier:    notifier,
		timeout:     timeout,
		log:         log,
		pending:     make(map[string]*announcement),
		transitions: transitions,
	}
}

// Connected marks contact online and notifies its friends
func (h *Handler) Connected(contact string) {
	h.presence.MarkOnline(contact)
	h.announce(contact, models.LiveStatusOnline)
}

// Disconnected marks contact offline and notifies its friends
func (h *Handler) Disconnected(contact string) {
	h.presence.MarkOffline(contact)
	h.announce(contact, models.LiveStatusOffline)
}

// Wait blocks until every in-flight fan-out has finished
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) announce(contact string, status models.LiveStatus) {
	if contact == "" {
		h.log.Warn("presence event without contact", zap.String("status", string(status)))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if a, running := h.pending[contact]; running {
		a.status = status
		a.queued = true
		return
	}
	h.pending[contact] = &announcement{status: status, queued: true}

	h.wg.Add(1)
	go h.drain(contact)
}

// drain announces the latest queued status for contact until none is left
func (h *Handler) drain(contact string) {
	defer h.wg.Done()

	for {
		h.mu.Lock()
		a := h.pending[contact]
		if !a.queued {
			delete(h.pending, contact)
			h.mu.Unlock()
			return
		}
		status := a.status
		a.queued = false
		h.mu.Unlock()

		h.announceOnce(contact, status)
	}
}

func (h *Handler) announceOnce(contact string, status models.LiveStatus) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("presence fan-out panicked", zap.String("contact", contact), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.broadcast(ctx, contact, status)
}

func (h *Handler) broadcast(ctx context.Context, contact string, status models.LiveStatus) {
	h.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))

	user, err := h.dir.UserByEmail(ctx, contact)
	if err != nil {
		h.log.Warn("presence fan-out: user lookup failed", zap.String("contact", contact), zap.Error(err))
		return
	}

	friendIDs, err := h.dir.FriendIDs(ctx, user.ID)
	if err != nil {
		h.log.Warn("presence fan-out: friend lookup failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}

	notification := models.FriendStatusNotification{
		ID:         user.ID,
		UserName:   user.Name,
		LiveStatus: status,
	}
	for _, friendID := range friendIDs {
		h.notifier.SendToUser(ctx, friendID, notify.DestPresence, notification)
	}

	h.log.Debug("presence fan-out done",
		zap.Int64("user_id", user.ID),
		zap.String("status", string(status)),
		zap.Int("friends", len(friendIDs)),
	)
}
