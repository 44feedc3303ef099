package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-sync-service/internal/models"
)

var (
	alice = models.Identity{ID: 1, Username: "alice"}
	bob   = models.Identity{ID: 2, Username: "bob"}
	admin = models.Identity{ID: 99, Username: "root", Admin: true}
)

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	s := NewMemoryStore()

	first, err := s.Append(AppendInput{Author: alice, Body: "one"})
	require.NoError(t, err)
	second, err := s.Append(AppendInput{Author: bob, Body: "two"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestAppendRejectsEmptyMessage(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Append(AppendInput{Author: alice, Body: "   "})
	require.ErrorIs(t, err, ErrEmptyMessage)

	// No ghost ids: the next append still gets id 1.
	msg, err := s.Append(AppendInput{Author: alice, Body: "real"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), msg.ID)
}

func TestAppendAcceptsAttachmentOnly(t *testing.T) {
	s := NewMemoryStore()

	msg, err := s.Append(AppendInput{Author: alice, FileURL: "/uploads/cat.png"})
	require.NoError(t, err)
	assert.Empty(t, msg.Body)
	assert.Equal(t, "/uploads/cat.png", msg.FileURL)
}

func TestAppendRejectsUnknownReplyTarget(t *testing.T) {
	s := NewMemoryStore()

	missing := int64(42)
	_, err := s.Append(AppendInput{Author: alice, Body: "hi", ReplyTo: &missing})
	require.ErrorIs(t, err, ErrInvalidReply)
}

func TestAppendAcceptsReplyToDeletedMessage(t *testing.T) {
	s := NewMemoryStore()

	target, err := s.Append(AppendInput{Author: alice, Body: "original"})
	require.NoError(t, err)
	_, flipped, err := s.SoftDelete(target.ID, alice)
	require.NoError(t, err)
	require.True(t, flipped)

	reply, err := s.Append(AppendInput{Author: bob, Body: "late reply", ReplyTo: &target.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, target.ID, *reply.ReplyTo)
}

func TestSoftDeleteByAuthor(t *testing.T) {
	s := NewMemoryStore()

	msg, err := s.Append(AppendInput{Author: alice, Body: "hi"})
	require.NoError(t, err)

	deleted, flipped, err := s.SoftDelete(msg.ID, alice)
	require.NoError(t, err)
	assert.True(t, flipped)
	assert.True(t, deleted.Deleted)

	stored, ok := s.Get(msg.ID)
	require.True(t, ok)
	assert.True(t, stored.Deleted)
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	s := NewMemoryStore()

	msg, err := s.Append(AppendInput{Author: alice, Body: "hi"})
	require.NoError(t, err)

	_, flipped, err := s.SoftDelete(msg.ID, alice)
	require.NoError(t, err)
	require.True(t, flipped)

	again, flipped, err := s.SoftDelete(msg.ID, alice)
	require.NoError(t, err)
	assert.False(t, flipped)
	assert.True(t, again.Deleted)
}

func TestSoftDeleteForbiddenForOthers(t *testing.T) {
	s := NewMemoryStore()

	msg, err := s.Append(AppendInput{Author: alice, Body: "hi"})
	require.NoError(t, err)

	_, _, err = s.SoftDelete(msg.ID, bob)
	require.ErrorIs(t, err, ErrForbidden)

	stored, ok := s.Get(msg.ID)
	require.True(t, ok)
	assert.False(t, stored.Deleted)
}

func TestSoftDeleteAllowedForAdmin(t *testing.T) {
	s := NewMemoryStore()

	msg, err := s.Append(AppendInput{Author: alice, Body: "hi"})
	require.NoError(t, err)

	_, flipped, err := s.SoftDelete(msg.ID, admin)
	require.NoError(t, err)
	assert.True(t, flipped)
}

func TestSoftDeleteNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, _, err := s.SoftDelete(7, alice)
	require.ErrorIs(t, err, ErrMessageNotFound)
}

func TestSeedAdvancesIDs(t *testing.T) {
	s := NewMemoryStore()
	s.Seed(100)

	msg, err := s.Append(AppendInput{Author: alice, Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int64(101), msg.ID)

	// Seeding backwards never reuses ids.
	s.Seed(5)
	next, err := s.Append(AppendInput{Author: alice, Body: "again"})
	require.NoError(t, err)
	assert.Equal(t, int64(102), next.ID)
}

func TestPrivateFlagFollowsRecipient(t *testing.T) {
	s := NewMemoryStore()

	recipient := int64(2)
	msg, err := s.Append(AppendInput{Author: alice, Body: "psst", RecipientID: &recipient, RecipientName: "bob"})
	require.NoError(t, err)
	assert.True(t, msg.Private)
	assert.Equal(t, "bob", msg.RecipientName)

	public, err := s.Append(AppendInput{Author: alice, Body: "hello all"})
	require.NoError(t, err)
	assert.False(t, public.Private)
}
