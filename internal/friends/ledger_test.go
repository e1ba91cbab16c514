package friends

import (
	"context"
	"errors"
	"testing"
	"time"

	"kawanchat/server/internal/apperror"
	"kawanchat/server/internal/mocks"
	"kawanchat/server/internal/models"
	"kawanchat/server/internal/notify"
	"kawanchat/server/internal/presence"
	"kawanchat/server/internal/store/memory"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	alice = models.User{ID: 1, Email: "alice@example.com", Name: "Alice"}
	bob   = models.User{ID: 2, Email: "bob@example.com", Name: "Bob"}
	carol = models.User{ID: 3, Email: "carol@example.com", Name: "Carol"}
)

type fixture struct {
	ledger   *Ledger
	store    *memory.Store
	presence *presence.Tracker
	notifier *mocks.MockNotifier
	cache    *mocks.MockFriendsCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	s := memory.New()
	for _, u := range []models.User{alice, bob, carol} {
		s.PutUser(u)
	}

	f := &fixture{
		store:    s,
		presence: presence.NewTracker(),
		notifier: mocks.NewMockNotifier(ctrl),
		cache:    mocks.NewMockFriendsCache(ctrl),
	}
	f.ledger = NewLedger(s, f.presence, f.cache, f.notifier, zap.NewNop())
	return f
}

// befriend makes a and b friends through the request flow
func (f *fixture) befriend(t *testing.T, a, b models.User) {
	t.Helper()
	ctx := context.Background()
	f.notifier.EXPECT().SendToUser(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(3)
	f.cache.EXPECT().Evict(gomock.Any(), gomock.Any()).Times(2)

	req, err := f.ledger.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Respond(ctx, req.ID, b.ID, models.DecisionAccepted))
}

func TestLedger_SendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - recipient is notified", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.EXPECT().
			SendToUser(gomock.Any(), bob.ID, notify.DestRequests, gomock.Any()).
			Do(func(_ context.Context, _ int64, _ notify.Destination, payload any) {
				n := payload.(models.FriendRequestNotification)
				assert.Equal(t, alice.ID, n.SenderID)
				assert.Equal(t, "Alice", n.SenderName)
				assert.Equal(t, models.FriendRequestStatusPending, n.Status)
				assert.Equal(t, "New Friend request came!", n.Content)
			})

		req, err := f.ledger.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.FriendRequestStatusPending, req.Status)
		assert.NotZero(t, req.ID)
	})

	t.Run("happy path - opposite direction may be pending at the same time", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.EXPECT().SendToUser(gomock.Any(), gomock.Any(), notify.DestRequests, gomock.Any()).Times(2)

		_, err := f.ledger.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = f.ledger.SendRequest(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
	})

	t.Run("sad path - duplicate pending request", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.EXPECT().SendToUser(gomock.Any(), bob.ID, notify.DestRequests, gomock.Any()).Times(1)

		_, err := f.ledger.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = f.ledger.SendRequest(ctx, alice.ID, bob.ID)
		assert.ErrorIs(t, err, apperror.ErrDuplicateRequest)
		assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(err))
	})

	t.Run("sad path - already friends", func(t *testing.T) {
		f := newFixture(t)
		f.befriend(t, alice, bob)

		_, err := f.ledger.SendRequest(ctx, bob.ID, alice.ID)
		assert.ErrorIs(t, err, apperror.ErrAlreadyFriends)
	})

	t.Run("sad path - self request", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.SendRequest(ctx, alice.ID, alice.ID)
		assert.ErrorIs(t, err, apperror.ErrSelfRequest)
	})

	t.Run("sad path - recipient does not exist", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.SendRequest(ctx, alice.ID, 404)
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestLedger_Respond(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - accept creates friendship and notifies both", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.EXPECT().SendToUser(gomock.Any(), bob.ID, notify.DestRequests, gomock.Any())
		req, err := f.ledger.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		f.cache.EXPECT().Evict(gomock.Any(), alice.Email)
		f.cache.EXPECT().Evict(gomock.Any(), bob.Email)

		var toSender, toResponder models.RequestResponseNotification
		f.notifier.EXPECT().
			SendToUser(gomock.Any(), alice.ID, notify.DestRequestResponses, gomock.Any()).
			Do(func(_ context.Context, _ int64, _ notify.Destination, p any) {
				toSender = p.(models.RequestResponseNotification)
			})
		f.notifier.EXPECT().
			SendToUser(gomock.Any(), bob.ID, notify.DestRequestResponses, gomock.Any()).
			Do(func(_ context.Context, _ int64, _ notify.Destination, p any) {
				toResponder = p.(models.RequestResponseNotification)
			})

		require.NoError(t, f.ledger.Respond(ctx, req.ID, bob.ID, models.DecisionAccepted))

		ok, err := f.ledger.AreFriends(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		friendship, err := f.store.FriendshipBetween(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, friendship.CreatedAt.IsZero())

		assert.Equal(t, "Accepted your friend request", toSender.Content)
		assert.Equal(t, "Bob", toSender.SenderName)
		assert.Equal(t, "You have accepted a friend request", toResponder.Content)
		assert.Equal(t, models.DecisionAccepted, toSender.Status)
		require.NotNil(t, toSender.FriendsSince)
		assert.Equal(t, *toSender.FriendsSince, *toResponder.FriendsSince)

		// no double transition
		err = f.ledger.Respond(ctx, req.ID, bob.ID, models.DecisionAccepted)
		assert.ErrorIs(t, err, apperror.ErrRequestAlreadyAnswered)
	})

	t.Run("happy path - reject notifies the sender only", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.EXPECT().SendToUser(gomock.Any(), bob.ID, notify.DestRequests, gomock.Any())
		req, err := f.ledger.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		f.notifier.EXPECT().
			SendToUser(gomock.Any(), alice.ID, notify.DestRequestResponses, gomock.Any()).
			Do(func(_ context.Context, _ int64, _ notify.Destination, p any) {
				n := p.(models.RequestResponseNotification)
				assert.Equal(t, models.DecisionRejected, n.Status)
				assert.Nil(t, n.FriendsSince)
			})

		require.NoError(t, f.ledger.Respond(ctx, req.ID, bob.ID, models.DecisionRejected))

		ok, _ := f.ledger.AreFriends(ctx, alice.ID, bob.ID)
		assert.False(t, ok)

		err = f.ledger.Respond(ctx, req.ID, bob.ID, models.DecisionAccepted)
		assert.ErrorIs(t, err, apperror.ErrRequestAlreadyAnswered)
	})

	t.Run("happy path - accept settles the mirror request", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.EXPECT().SendToUser(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
		f.cache.EXPECT().Evict(gomock.Any(), gomock.Any()).AnyTimes()

		ab, err := f.ledger.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		ba, err := f.ledger.SendRequest(ctx, bob.ID, alice.ID)
		require.NoError(t, err)

		require.NoError(t, f.ledger.Respond(ctx, ab.ID, bob.ID, models.DecisionAccepted))

		pending, err := f.ledger.ListPendingRequestsFor(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, pending)

		err = f.ledger.Respond(ctx, ba.ID, alice.ID, models.DecisionAccepted)
		assert.ErrorIs(t, err, apperror.ErrRequestAlreadyAnswered)
	})

	t.Run("sad path - only the recipient may answer", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.EXPECT().SendToUser(gomock.Any(), bob.ID, notify.DestRequests, gomock.Any())
		req, err := f.ledger.SendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		for _, responder := range []int64{alice.ID, carol.ID} {
			err := f.ledger.Respond(ctx, req.ID, responder, models.DecisionAccepted)
			assert.ErrorIs(t, err, apperror.ErrWrongRecipient)
			assert.Equal(t, apperror.CodeForbidden, apperror.CodeOf(err))
		}
	})

	t.Run("sad path - unknown request", func(t *testing.T) {
		f := newFixture(t)
		err := f.ledger.Respond(ctx, 999, bob.ID, models.DecisionAccepted)
		assert.ErrorIs(t, err, apperror.ErrRequestNotFound)
		assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
	})

	t.Run("sad path - invalid decision", func(t *testing.T) {
		f := newFixture(t)
		err := f.ledger.Respond(ctx, 1, bob.ID, models.Decision("MAYBE"))
		assert.ErrorIs(t, err, apperror.ErrInvalidDecision)
	})

	t.Run("sad path - self request at response time", func(t *testing.T) {
		f := newFixture(t)
		req := &models.FriendRequest{
			SenderID: alice.ID, RecipientID: alice.ID,
			Status: models.FriendRequestStatusPending, SentAt: time.Now(),
		}
		require.NoError(t, f.store.CreateFriendRequest(ctx, req))

		err := f.ledger.Respond(ctx, req.ID, alice.ID, models.DecisionAccepted)
		assert.ErrorIs(t, err, apperror.ErrSelfRequest)

		ok, _ := f.store.FriendshipExists(ctx, alice.ID, alice.ID)
		assert.False(t, ok)
	})
}

func TestLedger_RemoveFriendship(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - deletes, evicts and notifies both", func(t *testing.T) {
		f := newFixture(t)
		f.befriend(t, alice, bob)

		f.cache.EXPECT().Evict(gomock.Any(), alice.Email)
		f.cache.EXPECT().Evict(gomock.Any(), bob.Email)
		f.notifier.EXPECT().SendToUser(gomock.Any(), alice.ID, notify.DestFriendRemoval,
			models.RemovalNotification{UserID: bob.ID, Message: "Friendship removed"})
		f.notifier.EXPECT().SendToUser(gomock.Any(), bob.ID, notify.DestFriendRemoval,
			models.RemovalNotification{UserID: alice.ID, Message: "Friendship removed"})

		require.NoError(t, f.ledger.RemoveFriendship(ctx, bob.ID, alice.ID))

		ok, err := f.ledger.AreFriends(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("sad path - not friends has no side effects", func(t *testing.T) {
		f := newFixture(t)
		f.befriend(t, alice, bob)

		// no further Evict or SendToUser expectations: any call fails the test
		err := f.ledger.RemoveFriendship(ctx, alice.ID, carol.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFriends)

		ok, _ := f.ledger.AreFriends(ctx, alice.ID, bob.ID)
		assert.True(t, ok)
	})

	t.Run("sad path - unknown other user", func(t *testing.T) {
		f := newFixture(t)
		err := f.ledger.RemoveFriendship(ctx, alice.ID, 404)
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	})
}

func TestLedger_ListFriends(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - no friends is an empty list", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), carol.Email).Return(nil, uint64(0), false, nil)
		f.cache.EXPECT().Set(gomock.Any(), carol.Email, uint64(0), gomock.Len(0)).Return(nil)

		friends, err := f.ledger.ListFriends(ctx, carol)
		require.NoError(t, err)
		assert.NotNil(t, friends)
		assert.Empty(t, friends)
	})

	t.Run("happy path - cache miss loads and stores, status is live", func(t *testing.T) {
		f := newFixture(t)
		f.befriend(t, alice, bob)
		f.befriend(t, carol, alice)
		f.presence.MarkOnline(carol.Email)

		f.cache.EXPECT().Get(gomock.Any(), alice.Email).Return(nil, uint64(4), false, nil)
		f.cache.EXPECT().Set(gomock.Any(), alice.Email, uint64(4), gomock.Len(2)).Return(nil)

		friends, err := f.ledger.ListFriends(ctx, alice)
		require.NoError(t, err)
		require.Len(t, friends, 2)
		assert.Equal(t, bob.ID, friends[0].ID, "oldest friendship first")
		assert.Equal(t, models.LiveStatusOffline, friends[0].LiveStatus)
		assert.Equal(t, carol.ID, friends[1].ID)
		assert.Equal(t, models.LiveStatusOnline, friends[1].LiveStatus)
	})

	t.Run("happy path - cache hit skips the store but not presence", func(t *testing.T) {
		f := newFixture(t)
		f.presence.MarkOnline(bob.Email)
		cached := []models.FriendEntry{{FriendID: bob.ID, FriendName: "Bob", FriendEmail: bob.Email, FriendsSince: time.Now()}}
		f.cache.EXPECT().Get(gomock.Any(), alice.Email).Return(cached, uint64(1), true, nil)

		friends, err := f.ledger.ListFriends(ctx, alice)
		require.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, models.LiveStatusOnline, friends[0].LiveStatus)
	})

	t.Run("happy path - cache failure falls back to the store without writing", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), alice.Email).Return(nil, uint64(0), false, errors.New("redis down"))

		friends, err := f.ledger.ListFriends(ctx, alice)
		require.NoError(t, err)
		assert.Empty(t, friends)
	})
}

func TestLedger_FriendDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.befriend(t, alice, bob)
	f.presence.MarkOnline(bob.Email)

	t.Run("happy path - friend detail", func(t *testing.T) {
		d, err := f.ledger.FriendDetail(ctx, alice, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", d.UserName)
		assert.Equal(t, bob.Email, d.Email)
		assert.Equal(t, models.LiveStatusOnline, d.LiveStatus)
	})

	t.Run("sad path - not friends", func(t *testing.T) {
		_, err := f.ledger.FriendDetail(ctx, alice, carol.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFriends)
	})

	t.Run("sad path - unknown user", func(t *testing.T) {
		_, err := f.ledger.FriendDetail(ctx, alice, 404)
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	})
}

func TestLedger_PendingLists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.notifier.EXPECT().SendToUser(gomock.Any(), gomock.Any(), notify.DestRequests, gomock.Any()).Times(2)

	_, err := f.ledger.SendRequest(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	_, err = f.ledger.SendRequest(ctx, bob.ID, carol.ID)
	require.NoError(t, err)

	incoming, err := f.ledger.ListPendingRequestsFor(ctx, carol.ID)
	require.NoError(t, err)
	assert.Len(t, incoming, 2)

	sent, err := f.ledger.ListSentRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "Carol", sent[0].RecipientName)

	empty, err := f.ledger.ListPendingRequestsFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLedger_CreateFriendship(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.cache.EXPECT().Evict(gomock.Any(), alice.Email)
	f.cache.EXPECT().Evict(gomock.Any(), carol.Email)

	friendship, err := f.ledger.CreateFriendship(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.NotZero(t, friendship.ID)

	_, err = f.ledger.CreateFriendship(ctx, carol.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrAlreadyFriends)

	_, err = f.ledger.CreateFriendship(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrSelfRequest)
}
