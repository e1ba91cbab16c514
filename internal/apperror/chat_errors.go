package apperror

import "fmt"

var (
	ErrUnauthenticated = Unauthenticated("UNAUTHENTICATED", "no authenticated user")

	// Presence
	ErrEmptyContact = InvalidArg("EMPTY_CONTACT", "contact address can not be empty")

	// Friendship ledger
	ErrUserNotFound           = NotFound("USER_NOT_FOUND", "user not found")
	ErrSelfRequest            = InvalidArg("SELF_REQUEST", "cannot send friend request to yourself")
	ErrAlreadyFriends         = Conflict("ALREADY_FRIENDS", "users are already friends")
	ErrDuplicateRequest       = Conflict("DUPLICATE_REQUEST", "friend request is already sent")
	ErrRequestNotFound        = NotFound("REQUEST_NOT_FOUND", "friend request not found")
	ErrWrongRecipient         = Forbidden("WRONG_RECIPIENT", "the request was not meant for you")
	ErrRequestAlreadyAnswered = Conflict("REQUEST_ALREADY_ANSWERED", "friend request was already answered")
	ErrNotFriends             = Forbidden("NOT_FRIENDS", "users are not friends")
	ErrInvalidDecision        = InvalidArg("INVALID_DECISION", "response must be ACCEPTED or REJECTED")

	// Conversations
	ErrChannelCreationFailed = New(CodeUnavailable, "CHANNEL_CREATION_FAILED", "chat channel creation failed")
	ErrEmptyMessage          = InvalidArg("EMPTY_MESSAGE", "message content can not be empty")
	ErrSelfMessage           = InvalidArg("SELF_MESSAGE", "cannot send a message to yourself")
	ErrMarkSeenForbidden     = Forbidden("MARK_SEEN_FORBIDDEN", "only the recipient can mark messages as seen")
	ErrConversationForbidden = Forbidden("CONVERSATION_FORBIDDEN", "you are not part of this conversation")
)

func UserNotFound(id int64) error {
	return NotFound("USER_NOT_FOUND", fmt.Sprintf("user with id %d not found", id))
}

func RequestNotFound(id int64) error {
	return NotFound("REQUEST_NOT_FOUND", fmt.Sprintf("friend request with id %d not found", id))
}

func ChannelCreationFailed(key string, cause error) error {
	return Wrap(CodeUnavailable, "CHANNEL_CREATION_FAILED", fmt.Sprintf("chat channel %s could not be created", key), cause)
}
