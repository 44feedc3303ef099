package ws

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ConnInfo captures per-connection metadata for logging and audit.
type ConnInfo struct {
	ConnID      string
	UserID      int64
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// newConnID mints the random identifier that ties a connection's
// audit records together and stamps its presence entry.
func newConnID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
