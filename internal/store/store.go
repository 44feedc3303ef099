package store

import (
	"errors"

	"chat-sync-service/internal/models"
)

var (
	// ErrEmptyMessage rejects a send with neither body nor attachment.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrInvalidReply rejects a reply to an id that was never assigned.
	ErrInvalidReply = errors.New("reply target does not exist")
	// ErrMessageNotFound reports an unknown message id.
	ErrMessageNotFound = errors.New("message not found")
	// ErrForbidden reports a delete by someone who is neither the
	// author nor an admin.
	ErrForbidden = errors.New("not allowed to delete message")
)

// AppendInput carries everything needed to append one message.
type AppendInput struct {
	Author        models.Identity
	Body          string
	FileURL       string
	ReplyTo       *int64
	RecipientID   *int64
	RecipientName string
}

// MessageStore is the authoritative record of message identity,
// visibility, reply linkage and soft-deletion state. Implementations
// must assign strictly increasing ids under concurrent appends.
type MessageStore interface {
	// Append validates the input and stores a new message.
	Append(in AppendInput) (models.Message, error)
	// SoftDelete marks a message deleted on behalf of the requester.
	// The bool reports whether this call flipped the flag; deleting
	// an already-deleted message returns the current state with
	// flipped=false and no error.
	SoftDelete(messageID int64, requester models.Identity) (models.Message, bool, error)
	// Get looks up a message by id.
	Get(messageID int64) (models.Message, bool)
}
