package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-sync-service/internal/middleware"
	"chat-sync-service/internal/models"
	"chat-sync-service/internal/repositories"
	"chat-sync-service/internal/store"
	"chat-sync-service/internal/telemetry"
)

// MessageDeleter is the engine surface the admin endpoint needs: a
// soft delete that notifies connected clients.
type MessageDeleter interface {
	Delete(requester models.Identity, messageID int64) (models.Message, bool, error)
}

// HistoryHandler serves message history, stats and the admin delete
// endpoint.
type HistoryHandler struct {
	archive repositories.MessageArchive
	deleter MessageDeleter
	audit   *telemetry.AuditEmitter
	limit   int
}

// NewHistoryHandler builds a HistoryHandler.
func NewHistoryHandler(archive repositories.MessageArchive, deleter MessageDeleter, audit *telemetry.AuditEmitter, limit int) *HistoryHandler {
	if limit <= 0 {
		limit = 50
	}
	return &HistoryHandler{archive: archive, deleter: deleter, audit: audit, limit: limit}
}

// ListMessages returns the most recent messages visible to the caller
// in chronological order.
func (h *HistoryHandler) ListMessages(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	msgs, err := h.archive.ListRecentForUser(c.Request.Context(), identity.ID, h.limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	// Archive rows come back newest first; the client renders oldest
	// first.
	wire := make([]models.ReceiveMessagePayload, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		wire = append(wire, msgs[i].Wire())
	}

	c.JSON(http.StatusOK, gin.H{"messages": wire})
}

// Stats returns archive-wide aggregates.
func (h *HistoryHandler) Stats(c *gin.Context) {
	stats, err := h.archive.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AdminDeleteMessage soft-deletes any message on behalf of an admin.
// It routes through the engine so connected clients receive the same
// delete broadcast as a socket-initiated delete.
func (h *HistoryHandler) AdminDeleteMessage(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	if !identity.Admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}

	messageID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	_, _, err = h.deleter.Delete(identity, messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	h.audit.Emit(c.Request.Context(), "warn",
		fmt.Sprintf("admin deleted message id=%d", messageID),
		requestIDFromContext(c), &identity.ID)
	c.Status(http.StatusNoContent)
}
