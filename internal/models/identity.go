package models

// Identity is the authenticated principal behind a connection. It is
// produced once, at session establishment, from the verified token
// claims; the Admin capability is resolved there and never re-derived
// per event.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Admin    bool   `json:"-"`
}
