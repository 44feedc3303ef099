// Package routing decides, for every inbound chat event, exactly
// which connected identities receive which outbound event, and in
// what order.
package routing

import (
	"context"
	"log"
	"sync"
	"time"

	"chat-sync-service/internal/models"
	"chat-sync-service/internal/observability"
	"chat-sync-service/internal/presence"
	"chat-sync-service/internal/store"
)

const (
	archiveTimeout   = 5 * time.Second
	archiveQueueSize = 256
)

// Dispatcher enqueues an outbound event for one recipient. Deliver
// must never block: it is invoked under the engine's serialization
// lock, and a slow recipient must not stall anyone else.
type Dispatcher interface {
	Deliver(recipientID int64, event models.OutboundEvent)
}

// Archive mirrors appended and deleted messages into durable history.
// Archive failures are logged and never fail the triggering event. The
// engine applies archive writes one at a time in event order, so a
// MarkDeleted never races ahead of the RecordMessage for the same id.
type Archive interface {
	RecordMessage(ctx context.Context, msg models.Message) error
	MarkDeleted(ctx context.Context, messageID int64) error
}

// Engine owns the single mutual-exclusion boundary around message and
// presence mutation. Holding the lock through delivery enqueueing
// guarantees every recipient's FIFO stream observes events in apply
// order; the actual socket writes happen on per-connection pumps.
type Engine struct {
	mu          sync.Mutex
	store       store.MessageStore
	registry    *presence.Registry
	dispatcher  Dispatcher
	archive     Archive
	archiveJobs chan func(ctx context.Context) error
}

// NewEngine wires the engine. archive may be nil when durable history
// is disabled.
func NewEngine(messageStore store.MessageStore, registry *presence.Registry, dispatcher Dispatcher, archive Archive) *Engine {
	e := &Engine{
		store:      messageStore,
		registry:   registry,
		dispatcher: dispatcher,
		archive:    archive,
	}
	if archive != nil {
		e.archiveJobs = make(chan func(ctx context.Context) error, archiveQueueSize)
		go e.archiveLoop()
	}
	return e
}

// Connect registers an identity's connection as online and broadcasts
// the updated presence snapshot. A reconnect that replaces an existing
// entry is already counted and emits no duplicate presence broadcast.
func (e *Engine) Connect(identity models.Identity, connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	replaced := e.registry.Join(identity, connID)
	if !replaced {
		e.broadcastPresence()
	}
}

// Disconnect removes an identity and broadcasts the updated presence
// snapshot. The leave only takes effect while the identity's registry
// entry still belongs to connID: a teardown that lost a race with a
// reconnect is a no-op, as is a repeated disconnect.
func (e *Engine) Disconnect(id int64, connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registry.Leave(id, connID) {
		e.broadcastPresence()
	}
}

// Send appends a message and fans it out. Public messages go to every
// online identity, the sender included, so the sender sees its own
// message echoed with the server-assigned id and timestamp. Private
// messages go only to the sender and, when online, the recipient;
// offline recipients are fire-and-forget.
func (e *Engine) Send(sender models.Identity, p models.SendMessagePayload) (models.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	in := store.AppendInput{
		Author:      sender,
		Body:        p.Message,
		FileURL:     p.FileURL,
		ReplyTo:     p.ReplyTo,
		RecipientID: p.RecipientID,
	}
	if p.RecipientID != nil {
		if recipient, ok := e.registry.Get(*p.RecipientID); ok {
			in.RecipientName = recipient.Username
		}
	}

	msg, err := e.store.Append(in)
	if err != nil {
		return models.Message{}, err
	}

	event := models.NewReceiveMessage(msg)
	for _, id := range e.audienceOf(msg) {
		e.dispatcher.Deliver(id, event)
	}
	observability.IncWSEvent(models.EventSendMessage)

	e.archiveAsync(func(ctx context.Context) error {
		return e.archive.RecordMessage(ctx, msg)
	})
	return msg, nil
}

// Delete soft-deletes a message and broadcasts the confirmation to
// the audience that could see the original. Re-deleting an already
// deleted message returns the current state and broadcasts nothing.
func (e *Engine) Delete(requester models.Identity, messageID int64) (models.Message, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	msg, flipped, err := e.store.SoftDelete(messageID, requester)
	if err != nil {
		return models.Message{}, false, err
	}
	if !flipped {
		return msg, false, nil
	}

	event := models.NewMessageDeleted(messageID)
	for _, id := range e.audienceOf(msg) {
		e.dispatcher.Deliver(id, event)
	}
	observability.IncWSEvent(models.EventDeleteMessage)

	e.archiveAsync(func(ctx context.Context) error {
		return e.archive.MarkDeleted(ctx, messageID)
	})
	return msg, true, nil
}

// OnlineUsers returns the current presence snapshot.
func (e *Engine) OnlineUsers() []models.Identity {
	return e.registry.Snapshot()
}

// audienceOf computes who may see a message: everyone online for
// public, author plus recipient for private. Offline members of the
// audience are silently skipped by the dispatcher.
func (e *Engine) audienceOf(msg models.Message) []int64 {
	if !msg.Private {
		users := e.registry.Snapshot()
		ids := make([]int64, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		return ids
	}

	ids := []int64{msg.AuthorID}
	if msg.RecipientID != nil && *msg.RecipientID != msg.AuthorID {
		ids = append(ids, *msg.RecipientID)
	}
	return ids
}

func (e *Engine) broadcastPresence() {
	users := e.registry.Snapshot()
	countEvent := models.NewUserCount(len(users))
	rosterEvent := models.NewOnlineUsers(users)
	for _, u := range users {
		e.dispatcher.Deliver(u.ID, countEvent)
		e.dispatcher.Deliver(u.ID, rosterEvent)
	}
}

// archiveAsync hands a write to the archive worker. Enqueues happen
// under the engine lock, so the queue order matches apply order; the
// worker drains it sequentially. Archiving is best effort, so when the
// archive falls far enough behind to fill the queue the write is
// dropped rather than stalling the event.
func (e *Engine) archiveAsync(fn func(ctx context.Context) error) {
	if e.archive == nil {
		return
	}
	select {
	case e.archiveJobs <- fn:
	default:
		log.Printf("archive queue full, dropping write")
	}
}

func (e *Engine) archiveLoop() {
	for fn := range e.archiveJobs {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		err := fn(ctx)
		cancel()
		if err != nil {
			log.Printf("archive write failed: %v", err)
		}
	}
}
