// Package friends is the ledger of friend requests and friendships. Every
// mutation is a single store transaction; cache eviction and notifications
// happen only after it commits.
package friends

import (
	"context"
	"errors"
	"time"

	"kawanchat/server/internal/apperror"
	"kawanchat/server/internal/cache"
	"kawanchat/server/internal/models"
	"kawanchat/server/internal/notify"
	"kawanchat/server/internal/store"

	"go.uber.org/zap"
)

const (
	contentNewRequest      = "New Friend request came!"
	contentAcceptedByOther = "Accepted your friend request"
	contentYouAccepted     = "You have accepted a friend request"
	contentRejectedByOther = "Rejected your friend request"
	contentRemoved         = "Friendship removed"
)

// Presence answers live status for many contacts at once
type Presence interface {
	BulkStatus(contacts []string) map[string]bool
}

// Ledger owns friend requests and friendships. Every mutation commits in one
// store transaction before caches are evicted and notifications go out.
type Ledger struct {
	store    store.Store
	presence Presence
	cache    cache.FriendsCache
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewLedger wires the ledger to its store, the presence tracker used for
// live status, the friend-list cache and the notifier.
func NewLedger(s store.Store, presence Presence, friendsCache cache.FriendsCache, notifier notify.Notifier, log *zap.Logger) *Ledger {
	return &Ledger{
		store:    s,
		presence: presence,
		cache:    friendsCache,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// SendRequest creates a PENDING request from senderID to recipientID and
// notifies the recipient.
func (l *Ledger) SendRequest(ctx context.Context, senderID, recipientID int64) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, apperror.ErrSelfRequest
	}

	var sender *models.User
	req := &models.FriendRequest{
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      models.FriendRequestStatusPending,
		SentAt:      l.now(),
	}

	err := l.tx(ctx, func(q store.Querier) error {
		var err error
		if sender, err = loadUser(ctx, q, senderID); err != nil {
			return err
		}
		if _, err = loadUser(ctx, q, recipientID); err != nil {
			return err
		}

		friends, err := q.FriendshipExists(ctx, senderID, recipientID)
		if err != nil {
			return err
		}
		if friends {
			return apperror.ErrAlreadyFriends
		}

		pending, err := q.PendingRequestExists(ctx, senderID, recipientID)
		if err != nil {
			return err
		}
		if pending {
			return apperror.ErrDuplicateRequest
		}

		err = q.CreateFriendRequest(ctx, req)
		if errors.Is(err, store.ErrDuplicateKey) {
			return apperror.ErrDuplicateRequest
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	l.notifier.SendToUser(ctx, recipientID, notify.DestRequests, models.FriendRequestNotification{
		ID:          req.ID,
		SenderID:    req.SenderID,
		SenderName:  sender.Name,
		RecipientID: req.RecipientID,
		Content:     contentNewRequest,
		Timestamp:   req.SentAt,
		Status:      req.Status,
	})

	l.log.Info("friend request sent",
		zap.Int64("request_id", req.ID),
		zap.Int64("sender_id", senderID),
		zap.Int64("recipient_id", recipientID),
	)
	return req, nil
}

// Respond answers a PENDING request. Only its recipient may answer, and only
// once. Accepting creates the friendship and also settles a PENDING request
// in the opposite direction.
func (l *Ledger) Respond(ctx context.Context, requestID, responderID int64, decision models.Decision) error {
	if !decision.Valid() {
		return apperror.ErrInvalidDecision
	}

	var (
		req        *models.FriendRequest
		sender     *models.User
		responder  *models.User
		friendship *models.Friendship
	)

	err := l.tx(ctx, func(q store.Querier) error {
		var err error
		req, err = q.FriendRequestForUpdate(ctx, requestID)
		if errors.Is(err, store.ErrNotFound) {
			return apperror.RequestNotFound(requestID)
		}
		if err != nil {
			return err
		}

		if req.RecipientID != responderID {
			return apperror.ErrWrongRecipient
		}
		if req.Status != models.FriendRequestStatusPending {
			return apperror.ErrRequestAlreadyAnswered
		}
		if req.SenderID == responderID {
			return apperror.ErrSelfRequest
		}

		if sender, err = loadUser(ctx, q, req.SenderID); err != nil {
			return err
		}
		if responder, err = loadUser(ctx, q, responderID); err != nil {
			return err
		}

		if decision == models.DecisionRejected {
			req.Status = models.FriendRequestStatusRejected
			return q.UpdateFriendRequestStatus(ctx, req.ID, req.Status)
		}

		req.Status = models.FriendRequestStatusAccepted
		if err := q.UpdateFriendRequestStatus(ctx, req.ID, req.Status); err != nil {
			return err
		}
		if _, err := q.SettlePendingRequest(ctx, responderID, req.SenderID, models.FriendRequestStatusAccepted); err != nil {
			return err
		}

		friendship, err = l.befriend(ctx, q, req.SenderID, responderID)
		return err
	})
	if err != nil {
		return err
	}

	if decision == models.DecisionRejected {
		l.notifier.SendToUser(ctx, sender.ID, notify.DestRequestResponses, models.RequestResponseNotification{
			RequestID:   req.ID,
			SenderID:    sender.ID,
			RecipientID: responder.ID,
			SenderName:  responder.Name,
			Content:     contentRejectedByOther,
			Status:      models.DecisionRejected,
		})
		l.log.Info("friend request rejected", zap.Int64("request_id", req.ID))
		return nil
	}

	l.evict(ctx, sender.Email, responder.Email)

	since := friendship.CreatedAt
	l.notifier.SendToUser(ctx, sender.ID, notify.DestRequestResponses, models.RequestResponseNotification{
		RequestID:    req.ID,
		SenderID:     sender.ID,
		RecipientID:  responder.ID,
		SenderName:   responder.Name,
		Content:      contentAcceptedByOther,
		FriendsSince: &since,
		Status:       models.DecisionAccepted,
	})
	l.notifier.SendToUser(ctx, responder.ID, notify.DestRequestResponses, models.RequestResponseNotification{
		RequestID:    req.ID,
		SenderID:     sender.ID,
		RecipientID:  responder.ID,
		SenderName:   sender.Name,
		Content:      contentYouAccepted,
		FriendsSince: &since,
		Status:       models.DecisionAccepted,
	})

	l.log.Info("friend request accepted",
		zap.Int64("request_id", req.ID),
		zap.Int64("friendship_id", friendship.ID),
	)
	return nil
}

// CreateFriendship makes a and b friends directly, without a request
func (l *Ledger) CreateFriendship(ctx context.Context, a, b int64) (*models.Friendship, error) {
	if a == b {
		return nil, apperror.ErrSelfRequest
	}

	var (
		userA, userB *models.User
		friendship   *models.Friendship
	)
	err := l.tx(ctx, func(q store.Querier) error {
		var err error
		if userA, err = loadUser(ctx, q, a); err != nil {
			return err
		}
		if userB, err = loadUser(ctx, q, b); err != nil {
			return err
		}

		exists, err := q.FriendshipExists(ctx, a, b)
		if err != nil {
			return err
		}
		if exists {
			return apperror.ErrAlreadyFriends
		}

		friendship = &models.Friendship{UserA: a, UserB: b, CreatedAt: l.now()}
		err = q.CreateFriendship(ctx, friendship)
		if errors.Is(err, store.ErrDuplicateKey) {
			return apperror.ErrAlreadyFriends
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	l.evict(ctx, userA.Email, userB.Email)
	return friendship, nil
}

// AreFriends reports whether a friendship exists between a and b in either
// direction.
func (l *Ledger) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	if a == b {
		return false, nil
	}
	ok, err := l.store.FriendshipExists(ctx, a, b)
	if err != nil {
		return false, apperror.Unavailable("friendship lookup failed", err)
	}
	return ok, nil
}

// RemoveFriendship deletes the friendship between actorID and otherID and
// notifies both. Nothing happens when they are not friends.
func (l *Ledger) RemoveFriendship(ctx context.Context, actorID, otherID int64) error {
	var actor, other *models.User

	err := l.tx(ctx, func(q store.Querier) error {
		var err error
		if actor, err = loadUser(ctx, q, actorID); err != nil {
			return err
		}
		if other, err = loadUser(ctx, q, otherID); err != nil {
			return err
		}

		exists, err := q.FriendshipExists(ctx, actorID, otherID)
		if err != nil {
			return err
		}
		if !exists {
			return apperror.ErrNotFriends
		}

		_, err = q.DeleteFriendshipsBetween(ctx, actorID, otherID)
		return err
	})
	if err != nil {
		return err
	}

	l.evict(ctx, actor.Email, other.Email)

	l.notifier.SendToUser(ctx, actor.ID, notify.DestFriendRemoval, models.RemovalNotification{
		UserID:  other.ID,
		Message: contentRemoved,
	})
	l.notifier.SendToUser(ctx, other.ID, notify.DestFriendRemoval, models.RemovalNotification{
		UserID:  actor.ID,
		Message: contentRemoved,
	})

	l.log.Info("friendship removed", zap.Int64("actor_id", actorID), zap.Int64("other_id", otherID))
	return nil
}

// ListFriends returns the user's friends, oldest friendship first, each with
// its live status. The friend rows are cached by contact; live status is
// always fresh.
func (l *Ledger) ListFriends(ctx context.Context, user models.User) ([]models.FriendSummary, error) {
	entries, err := l.friendEntries(ctx, user)
	if err != nil {
		return nil, err
	}

	contacts := make([]string, len(entries))
	for i, e := range entries {
		contacts[i] = e.FriendEmail
	}
	online := l.presence.BulkStatus(contacts)

	summaries := make([]models.FriendSummary, 0, len(entries))
	for _, e := range entries {
		summaries = append(summaries, models.FriendSummary{
			ID:           e.FriendID,
			UserName:     e.FriendName,
			FriendsSince: e.FriendsSince,
			LiveStatus:   models.LiveStatusOf(online[e.FriendEmail]),
		})
	}
	return summaries, nil
}

func (l *Ledger) friendEntries(ctx context.Context, user models.User) ([]models.FriendEntry, error) {
	entries, version, ok, cacheErr := l.cache.Get(ctx, user.Email)
	if cacheErr != nil {
		l.log.Warn("friends cache read failed", zap.String("contact", user.Email), zap.Error(cacheErr))
	}
	if ok {
		return entries, nil
	}

	entries, err := l.store.FriendsOf(ctx, user.ID)
	if err != nil {
		return nil, apperror.Unavailable("failed to load friends", err)
	}

	// without a version the write could overwrite a newer eviction
	if cacheErr != nil {
		return entries, nil
	}
	if err := l.cache.Set(ctx, user.Email, version, entries); err != nil {
		l.log.Warn("friends cache write failed", zap.String("contact", user.Email), zap.Error(err))
	}
	return entries, nil
}

// FriendDetail returns one friend of user. It fails when they are not friends.
func (l *Ledger) FriendDetail(ctx context.Context, user models.User, friendID int64) (*models.FriendDetail, error) {
	if friendID == user.ID {
		return nil, apperror.ErrNotFriends
	}

	friend, err := loadUser(ctx, l.store, friendID)
	if err != nil {
		return nil, unavailable(err)
	}

	f, err := l.store.FriendshipBetween(ctx, user.ID, friendID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.ErrNotFriends
	}
	if err != nil {
		return nil, apperror.Unavailable("friendship lookup failed", err)
	}

	online := l.presence.BulkStatus([]string{friend.Email})
	return &models.FriendDetail{
		ID:           friend.ID,
		UserName:     friend.Name,
		Email:        friend.Email,
		FriendsSince: f.CreatedAt,
		LiveStatus:   models.LiveStatusOf(online[friend.Email]),
	}, nil
}

// ListPendingRequestsFor returns the PENDING requests addressed to userID,
// newest first.
func (l *Ledger) ListPendingRequestsFor(ctx context.Context, userID int64) ([]models.PendingRequest, error) {
	requests, err := l.store.PendingRequestsTo(ctx, userID)
	if err != nil {
		return nil, apperror.Unavailable("failed to load friend requests", err)
	}
	return requests, nil
}

// ListSentRequests returns the PENDING requests userID sent, newest first
func (l *Ledger) ListSentRequests(ctx context.Context, userID int64) ([]models.PendingRequest, error) {
	requests, err := l.store.PendingRequestsFrom(ctx, userID)
	if err != nil {
		return nil, apperror.Unavailable("failed to load friend requests", err)
	}
	return requests, nil
}

func (l *Ledger) tx(ctx context.Context, fn func(q store.Querier) error) error {
	return unavailable(l.store.WithTx(ctx, fn))
}

// unavailable passes domain errors through and wraps everything else
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Unavailable("friendship ledger unavailable", err)
}

func (l *Ledger) evict(ctx context.Context, contacts ...string) {
	for _, contact := range contacts {
		if err := l.cache.Evict(ctx, contact); err != nil {
			l.log.Warn("friends cache eviction failed", zap.String("contact", contact), zap.Error(err))
		}
	}
}

func loadUser(ctx context.Context, q store.Querier, id int64) (*models.User, error) {
	u, err := q.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.UserNotFound(id)
	}
	return u, err
}

// befriend returns the pair's friendship, creating it if needed
func (l *Ledger) befriend(ctx context.Context, q store.Querier, a, b int64) (*models.Friendship, error) {
	f, err := q.FriendshipBetween(ctx, a, b)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	f = &models.Friendship{UserA: a, UserB: b, CreatedAt: l.now()}
	if err := q.CreateFriendship(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}
