package models

import "encoding/json"

// Wire event names. Each event type has exactly one handler on either
// side of the connection.
const (
	EventSendMessage    = "send_message"
	EventDeleteMessage  = "delete_message"
	EventReceiveMessage = "receive_message"
	EventMessageDeleted = "message_deleted"
	EventUserCount      = "user_count"
	EventOnlineUsers    = "update_online_users"
	EventError          = "error"
)

// InboundEvent is a type-tagged frame read from a client connection.
// Data is decoded into the payload type matching Event.
type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SendMessagePayload is the client request to publish a message.
type SendMessagePayload struct {
	Message     string `json:"message"`
	FileURL     string `json:"file_url,omitempty"`
	ReplyTo     *int64 `json:"reply_to,omitempty"`
	RecipientID *int64 `json:"recipient_id,omitempty"`
}

// DeleteMessagePayload is the client request to delete a message.
type DeleteMessagePayload struct {
	MessageID int64 `json:"message_id"`
}

// OutboundEvent wraps a payload with its wire event name.
type OutboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ReceiveMessagePayload mirrors the fields the web client renders.
type ReceiveMessagePayload struct {
	ID                int64  `json:"id"`
	UserID            int64  `json:"user_id"`
	Username          string `json:"username"`
	Avatar            string `json:"avatar"`
	Message           string `json:"message"`
	Timestamp         string `json:"timestamp"`
	IsPrivate         bool   `json:"is_private"`
	RecipientID       *int64 `json:"recipient_id,omitempty"`
	RecipientUsername string `json:"recipient_username,omitempty"`
	FileURL           string `json:"file_url,omitempty"`
	ReplyTo           *int64 `json:"reply_to,omitempty"`
}

// MessageDeletedPayload notifies clients a message is gone.
type MessageDeletedPayload struct {
	MessageID int64 `json:"message_id"`
}

// UserCountPayload carries the current online count.
type UserCountPayload struct {
	Count int `json:"count"`
}

// OnlineUsersPayload carries the current presence roster.
type OnlineUsersPayload struct {
	Users []Identity `json:"users"`
}

// ErrorPayload is echoed to the acting connection only.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Wire converts a stored message to its client-facing shape. The
// timestamp keeps the HH:MM:SS format the web client renders.
func (m Message) Wire() ReceiveMessagePayload {
	return ReceiveMessagePayload{
		ID:                m.ID,
		UserID:            m.AuthorID,
		Username:          m.AuthorName,
		Avatar:            m.Avatar,
		Message:           m.Body,
		Timestamp:         m.CreatedAt.Format("15:04:05"),
		IsPrivate:         m.Private,
		RecipientID:       m.RecipientID,
		RecipientUsername: m.RecipientName,
		FileURL:           m.FileURL,
		ReplyTo:           m.ReplyTo,
	}
}

// NewReceiveMessage wraps a message in its outbound envelope.
func NewReceiveMessage(m Message) OutboundEvent {
	return OutboundEvent{Event: EventReceiveMessage, Data: m.Wire()}
}

// NewMessageDeleted builds the delete-confirmation event.
func NewMessageDeleted(messageID int64) OutboundEvent {
	return OutboundEvent{Event: EventMessageDeleted, Data: MessageDeletedPayload{MessageID: messageID}}
}

// NewUserCount builds the online-count event.
func NewUserCount(count int) OutboundEvent {
	return OutboundEvent{Event: EventUserCount, Data: UserCountPayload{Count: count}}
}

// NewOnlineUsers builds the presence-roster event.
func NewOnlineUsers(users []Identity) OutboundEvent {
	return OutboundEvent{Event: EventOnlineUsers, Data: OnlineUsersPayload{Users: users}}
}

// NewErrorEvent builds an error event for the acting connection.
func NewErrorEvent(code, message string) OutboundEvent {
	return OutboundEvent{Event: EventError, Data: ErrorPayload{Code: code, Message: message}}
}
