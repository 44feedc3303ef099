package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-sync-service/internal/models"
)

func TestJoinAndCount(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, 0, r.Count())
	assert.False(t, r.Join(models.Identity{ID: 1, Username: "alice"}, "conn-a"))
	assert.False(t, r.Join(models.Identity{ID: 2, Username: "bob"}, "conn-b"))
	assert.Equal(t, 2, r.Count())
}

func TestJoinReplacesExistingEntry(t *testing.T) {
	r := NewRegistry()

	r.Join(models.Identity{ID: 1, Username: "alice", Avatar: "old.png"}, "conn-a1")
	replaced := r.Join(models.Identity{ID: 1, Username: "alice", Avatar: "new.png"}, "conn-a2")

	assert.True(t, replaced)
	assert.Equal(t, 1, r.Count())

	identity, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, "new.png", identity.Avatar)
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Join(models.Identity{ID: 1, Username: "alice"}, "conn-a")
	assert.True(t, r.Leave(1, "conn-a"))
	assert.False(t, r.Leave(1, "conn-a"))
	assert.Equal(t, 0, r.Count())
}

func TestLeaveIgnoresStaleConnection(t *testing.T) {
	r := NewRegistry()

	r.Join(models.Identity{ID: 1, Username: "alice"}, "conn-a1")
	r.Join(models.Identity{ID: 1, Username: "alice"}, "conn-a2")

	// The first connection's teardown arrives after the reconnect;
	// the entry now belongs to conn-a2 and must survive.
	assert.False(t, r.Leave(1, "conn-a1"))
	assert.Equal(t, 1, r.Count())

	assert.True(t, r.Leave(1, "conn-a2"))
	assert.Equal(t, 0, r.Count())
}

func TestSnapshotOrderedByID(t *testing.T) {
	r := NewRegistry()

	r.Join(models.Identity{ID: 3, Username: "carol"}, "conn-c")
	r.Join(models.Identity{ID: 1, Username: "alice"}, "conn-a")
	r.Join(models.Identity{ID: 2, Username: "bob"}, "conn-b")

	users := r.Snapshot()
	require.Len(t, users, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{users[0].ID, users[1].ID, users[2].ID})
}
