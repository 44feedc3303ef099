package store

import (
	"strings"
	"sync"
	"time"

	"chat-sync-service/internal/models"
)

// MemoryStore keeps all message records in process memory. Durable
// history lives in the archive; this store only needs the identity
// and lifecycle state required for routing and delete propagation.
type MemoryStore struct {
	mu       sync.Mutex
	lastID   int64
	messages map[int64]models.Message
}

// NewMemoryStore creates an empty store. Ids start at 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[int64]models.Message)}
}

// Append assigns the next id and timestamp and stores the message.
// Validation happens before any id is assigned, so rejected sends
// never leave a gap.
func (s *MemoryStore) Append(in AppendInput) (models.Message, error) {
	if strings.TrimSpace(in.Body) == "" && in.FileURL == "" {
		return models.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ReplyTo != nil {
		// Reply links survive deletion of the target, so a deleted
		// but existing message is a valid target.
		if _, ok := s.messages[*in.ReplyTo]; !ok {
			return models.Message{}, ErrInvalidReply
		}
	}

	s.lastID++
	msg := models.Message{
		ID:            s.lastID,
		AuthorID:      in.Author.ID,
		AuthorName:    in.Author.Username,
		Avatar:        in.Author.Avatar,
		Body:          in.Body,
		FileURL:       in.FileURL,
		Private:       in.RecipientID != nil,
		RecipientID:   in.RecipientID,
		RecipientName: in.RecipientName,
		ReplyTo:       in.ReplyTo,
		CreatedAt:     time.Now().UTC(),
	}
	s.messages[msg.ID] = msg
	return msg, nil
}

// SoftDelete marks a message deleted. Only the author or an admin may
// delete; the check happens before any mutation so an unauthorized
// request leaks nothing and changes nothing.
func (s *MemoryStore) SoftDelete(messageID int64, requester models.Identity) (models.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return models.Message{}, false, ErrMessageNotFound
	}
	if msg.AuthorID != requester.ID && !requester.Admin {
		return models.Message{}, false, ErrForbidden
	}
	if msg.Deleted {
		return msg, false, nil
	}

	msg.Deleted = true
	s.messages[messageID] = msg
	return msg, true, nil
}

// Seed advances the id counter past ids already handed out by an
// earlier process, so ids stay unique across restarts. Lower seeds
// are ignored.
func (s *MemoryStore) Seed(lastID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lastID > s.lastID {
		s.lastID = lastID
	}
}

// Get looks up a message by id, deleted records included.
func (s *MemoryStore) Get(messageID int64) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	return msg, ok
}
