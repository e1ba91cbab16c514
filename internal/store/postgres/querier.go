package postgres

import (
	"context"

	"kawanchat/server/internal/models"
	"kawanchat/server/internal/store"

	"github.com/jackc/pgx/v5"
)

type querier struct {
	db dbtx
}

var _ store.Querier = (*querier)(nil)

func (q *querier) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := q.db.QueryRow(ctx, `SELECT id, email, name FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		return nil, translate(err, "postgres.UserByID")
	}
	return &u, nil
}

func (q *querier) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := q.db.QueryRow(ctx, `SELECT id, email, name FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		return nil, translate(err, "postgres.UserByEmail")
	}
	return &u, nil
}

func (q *querier) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, translate(err, "postgres.UserExists")
}

func (q *querier) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO friend_requests (sender_id, recipient_id, status, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, req.SenderID, req.RecipientID, req.Status, req.SentAt).Scan(&req.ID)
	return translate(err, "postgres.CreateFriendRequest")
}

// FriendRequestForUpdate locks every request between the same two users in
// id order and returns the one asked for. Two crossed requests accepted at
// once then queue on the same first row instead of deadlocking.
func (q *querier) FriendRequestForUpdate(ctx context.Context, id int64) (*models.FriendRequest, error) {
	rows, err := q.db.Query(ctx, `
		SELECT fr.id, fr.sender_id, fr.recipient_id, fr.status, fr.sent_at
		FROM friend_requests fr
		INNER JOIN friend_requests t ON t.id = $1
		WHERE (fr.sender_id = t.sender_id AND fr.recipient_id = t.recipient_id)
		   OR (fr.sender_id = t.recipient_id AND fr.recipient_id = t.sender_id)
		ORDER BY fr.id
		FOR UPDATE OF fr
	`, id)
	if err != nil {
		return nil, translate(err, "postgres.FriendRequestForUpdate")
	}
	defer rows.Close()

	var found *models.FriendRequest
	for rows.Next() {
		var r models.FriendRequest
		if err := rows.Scan(&r.ID, &r.SenderID, &r.RecipientID, &r.Status, &r.SentAt); err != nil {
			return nil, translate(err, "postgres.FriendRequestForUpdate")
		}
		if r.ID == id {
			found = &r
		}
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "postgres.FriendRequestForUpdate")
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (q *querier) PendingRequestExists(ctx context.Context, senderID, recipientID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE sender_id = $1 AND recipient_id = $2 AND status = 'PENDING'
		)
	`, senderID, recipientID).Scan(&exists)
	return exists, translate(err, "postgres.PendingRequestExists")
}

func (q *querier) UpdateFriendRequestStatus(ctx context.Context, id int64, status models.FriendRequestStatus) error {
	tag, err := q.db.Exec(ctx, `UPDATE friend_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return translate(err, "postgres.UpdateFriendRequestStatus")
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q *querier) SettlePendingRequest(ctx context.Context, senderID, recipientID int64, status models.FriendRequestStatus) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE friend_requests SET status = $1
		WHERE sender_id = $2 AND recipient_id = $3 AND status = 'PENDING'
	`, status, senderID, recipientID)
	if err != nil {
		return 0, translate(err, "postgres.SettlePendingRequest")
	}
	return tag.RowsAffected(), nil
}

const pendingRequestsQuery = `
	SELECT fr.id, fr.sender_id, s.name, fr.recipient_id, r.name, fr.sent_at
	FROM friend_requests fr
	INNER JOIN users s ON s.id = fr.sender_id
	INNER JOIN users r ON r.id = fr.recipient_id
	WHERE fr.status = 'PENDING' AND `

func (q *querier) pendingRequests(ctx context.Context, op, where string, userID int64) ([]models.PendingRequest, error) {
	rows, err := q.db.Query(ctx, pendingRequestsQuery+where+` ORDER BY fr.sent_at DESC, fr.id DESC`, userID)
	if err != nil {
		return nil, translate(err, op)
	}
	defer rows.Close()

	requests := []models.PendingRequest{}
	for rows.Next() {
		var r models.PendingRequest
		if err := rows.Scan(&r.ID, &r.SenderID, &r.SenderName, &r.RecipientID, &r.RecipientName, &r.SentAt); err != nil {
			return nil, translate(err, op)
		}
		requests = append(requests, r)
	}
	return requests, translate(rows.Err(), op)
}

func (q *querier) PendingRequestsTo(ctx context.Context, recipientID int64) ([]models.PendingRequest, error) {
	return q.pendingRequests(ctx, "postgres.PendingRequestsTo", "fr.recipient_id = $1", recipientID)
}

func (q *querier) PendingRequestsFrom(ctx context.Context, senderID int64) ([]models.PendingRequest, error) {
	return q.pendingRequests(ctx, "postgres.PendingRequestsFrom", "fr.sender_id = $1", senderID)
}

func (q *querier) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO friendships (user_a, user_b)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, f.UserA, f.UserB).Scan(&f.ID, &f.CreatedAt)
	return translate(err, "postgres.CreateFriendship")
}

func (q *querier) FriendshipExists(ctx context.Context, a, b int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_a = $1 AND user_b = $2) OR (user_a = $2 AND user_b = $1)
		)
	`, a, b).Scan(&exists)
	return exists, translate(err, "postgres.FriendshipExists")
}

func (q *querier) FriendshipBetween(ctx context.Context, a, b int64) (*models.Friendship, error) {
	var f models.Friendship
	err := q.db.QueryRow(ctx, `
		SELECT id, user_a, user_b, created_at FROM friendships
		WHERE (user_a = $1 AND user_b = $2) OR (user_a = $2 AND user_b = $1)
		LIMIT 1
	`, a, b).Scan(&f.ID, &f.UserA, &f.UserB, &f.CreatedAt)
	if err != nil {
		return nil, translate(err, "postgres.FriendshipBetween")
	}
	return &f, nil
}

func (q *querier) DeleteFriendshipsBetween(ctx context.Context, a, b int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM friendships
		WHERE (user_a = $1 AND user_b = $2) OR (user_a = $2 AND user_b = $1)
	`, a, b)
	if err != nil {
		return 0, translate(err, "postgres.DeleteFriendshipsBetween")
	}
	return tag.RowsAffected(), nil
}

func (q *querier) FriendsOf(ctx context.Context, userID int64) ([]models.FriendEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.name, u.email, f.created_at
		FROM friendships f
		INNER JOIN users u ON u.id = CASE WHEN f.user_a = $1 THEN f.user_b ELSE f.user_a END
		WHERE f.user_a = $1 OR f.user_b = $1
		ORDER BY f.created_at ASC, f.id ASC
	`, userID)
	if err != nil {
		return nil, translate(err, "postgres.FriendsOf")
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.FriendEntry, error) {
		var e models.FriendEntry
		err := row.Scan(&e.FriendID, &e.FriendName, &e.FriendEmail, &e.FriendsSince)
		return e, err
	})
	if err != nil {
		return nil, translate(err, "postgres.FriendsOf")
	}
	return entries, nil
}

func (q *querier) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := q.db.Query(ctx, `
		SELECT CASE WHEN user_a = $1 THEN user_b ELSE user_a END
		FROM friendships
		WHERE user_a = $1 OR user_b = $1
	`, userID)
	if err != nil {
		return nil, translate(err, "postgres.FriendIDs")
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, translate(err, "postgres.FriendIDs")
	}
	return ids, nil
}

func (q *querier) ChannelByKey(ctx context.Context, key string) (*models.ConversationChannel, error) {
	var ch models.ConversationChannel
	err := q.db.QueryRow(ctx, `
		SELECT id, channel_key, user_a, user_b FROM chat_channels WHERE channel_key = $1
	`, key).Scan(&ch.ID, &ch.ChannelKey, &ch.UserA, &ch.UserB)
	if err != nil {
		return nil, translate(err, "postgres.ChannelByKey")
	}
	return &ch, nil
}

func (q *querier) CreateChannel(ctx context.Context, ch *models.ConversationChannel) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO chat_channels (channel_key, user_a, user_b)
		VALUES ($1, $2, $3)
		RETURNING id
	`, ch.ChannelKey, ch.UserA, ch.UserB).Scan(&ch.ID)
	return translate(err, "postgres.CreateChannel")
}

func (q *querier) CreateMessage(ctx context.Context, msg *models.Message) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO messages (channel_id, sender_id, recipient_id, content, sent_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, msg.ChannelID, msg.SenderID, msg.RecipientID, msg.Content, msg.Timestamp, msg.Status).Scan(&msg.ID)
	return translate(err, "postgres.CreateMessage")
}

const messageColumns = `id, channel_id, sender_id, recipient_id, content, sent_at, status`

func scanMessage(row pgx.CollectableRow) (models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.ChannelID, &m.SenderID, &m.RecipientID, &m.Content, &m.Timestamp, &m.Status)
	return m, err
}

func (q *querier) MessagesByChannel(ctx context.Context, channelID int64) ([]models.Message, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE channel_id = $1
		ORDER BY sent_at ASC, id ASC
	`, channelID)
	if err != nil {
		return nil, translate(err, "postgres.MessagesByChannel")
	}

	messages, err := pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return nil, translate(err, "postgres.MessagesByChannel")
	}
	return messages, nil
}

func (q *querier) LastMessageByChannel(ctx context.Context, channelID int64) (*models.Message, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE channel_id = $1
		ORDER BY sent_at DESC, id DESC
		LIMIT 1
	`, channelID)
	if err != nil {
		return nil, translate(err, "postgres.LastMessageByChannel")
	}

	m, err := pgx.CollectExactlyOneRow(rows, scanMessage)
	if err != nil {
		return nil, translate(err, "postgres.LastMessageByChannel")
	}
	return &m, nil
}

func (q *querier) MarkMessagesSeen(ctx context.Context, channelID, senderID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE messages SET status = 'SEEN'
		WHERE channel_id = $1 AND sender_id = $2 AND status = 'UNSEEN'
	`, channelID, senderID)
	if err != nil {
		return 0, translate(err, "postgres.MarkMessagesSeen")
	}
	return tag.RowsAffected(), nil
}
