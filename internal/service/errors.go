package service

import "errors"

var (
	// ErrNotParticipant is returned for operations on a chat the caller is not
	// a member of. Missing chats surface as this error too, so existence is
	// not leaked to non-members.
	ErrNotParticipant = errors.New("access denied or chat not found")

	ErrChatIDRequired   = errors.New("chat ID is required")
	ErrContentRequired  = errors.New("text message content cannot be empty")
	ErrFileURLRequired  = errors.New("file URL is required for file messages")
	ErrUnsupportedType  = errors.New("unsupported message type")
	ErrMessagesRequired = errors.New("a non-empty list of message IDs is required")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already exists")
)
