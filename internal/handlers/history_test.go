package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-sync-service/internal/middleware"
	"chat-sync-service/internal/mocks"
	"chat-sync-service/internal/models"
	"chat-sync-service/internal/store"
)

func setupHistoryRouter(handler *HistoryHandler, identity models.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetIdentity(c, identity)
		c.Next()
	})
	r.GET("/messages", handler.ListMessages)
	r.GET("/stats", handler.Stats)
	r.DELETE("/admin/messages/:message_id", handler.AdminDeleteMessage)
	return r
}

func TestListMessagesSuccess(t *testing.T) {
	archive := new(mocks.MessageArchiveMock)
	handler := NewHistoryHandler(archive, nil, nil, 50)
	router := setupHistoryRouter(handler, models.Identity{ID: 1, Username: "alice"})

	newest := models.Message{ID: 2, AuthorID: 1, AuthorName: "alice", Body: "second", CreatedAt: time.Now()}
	oldest := models.Message{ID: 1, AuthorID: 2, AuthorName: "bob", Body: "first", CreatedAt: time.Now()}
	archive.On("ListRecentForUser", mock.Anything, int64(1), 50).
		Return([]models.Message{newest, oldest}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.ReceiveMessagePayload `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 2)
	// Oldest first for rendering.
	assert.Equal(t, int64(1), resp.Messages[0].ID)
	assert.Equal(t, int64(2), resp.Messages[1].ID)
	archive.AssertExpectations(t)
}

func TestListMessagesRepoError(t *testing.T) {
	archive := new(mocks.MessageArchiveMock)
	handler := NewHistoryHandler(archive, nil, nil, 50)
	router := setupHistoryRouter(handler, models.Identity{ID: 1})

	archive.On("ListRecentForUser", mock.Anything, int64(1), 50).
		Return(([]models.Message)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	archive.AssertExpectations(t)
}

func TestStatsSuccess(t *testing.T) {
	archive := new(mocks.MessageArchiveMock)
	handler := NewHistoryHandler(archive, nil, nil, 50)
	router := setupHistoryRouter(handler, models.Identity{ID: 1})

	archive.On("Stats", mock.Anything).Return(models.ArchiveStats{
		TotalMessages: 10,
		TotalPrivate:  3,
		PerDay:        []models.DayCount{{Day: "2026-08-28", Count: 4}},
		TopAuthor:     &models.TopAuthor{Username: "alice", Count: 6},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.ArchiveStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 10, stats.TotalMessages)
	require.NotNil(t, stats.TopAuthor)
	assert.Equal(t, "alice", stats.TopAuthor.Username)
	archive.AssertExpectations(t)
}

func TestAdminDeleteRequiresAdmin(t *testing.T) {
	deleter := new(mocks.MessageDeleterMock)
	handler := NewHistoryHandler(new(mocks.MessageArchiveMock), deleter, nil, 50)
	router := setupHistoryRouter(handler, models.Identity{ID: 1, Username: "alice"})

	req := httptest.NewRequest(http.MethodDelete, "/admin/messages/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	deleter.AssertNotCalled(t, "Delete")
}

func TestAdminDeleteSuccess(t *testing.T) {
	deleter := new(mocks.MessageDeleterMock)
	handler := NewHistoryHandler(new(mocks.MessageArchiveMock), deleter, nil, 50)
	admin := models.Identity{ID: 99, Username: "root", Admin: true}
	router := setupHistoryRouter(handler, admin)

	deleter.On("Delete", admin, int64(5)).
		Return(models.Message{ID: 5, Deleted: true}, true, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/admin/messages/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	deleter.AssertExpectations(t)
}

func TestAdminDeleteNotFound(t *testing.T) {
	deleter := new(mocks.MessageDeleterMock)
	handler := NewHistoryHandler(new(mocks.MessageArchiveMock), deleter, nil, 50)
	admin := models.Identity{ID: 99, Admin: true}
	router := setupHistoryRouter(handler, admin)

	deleter.On("Delete", admin, int64(5)).
		Return(models.Message{}, false, store.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/admin/messages/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	deleter.AssertExpectations(t)
}

func TestAdminDeleteInvalidID(t *testing.T) {
	handler := NewHistoryHandler(new(mocks.MessageArchiveMock), new(mocks.MessageDeleterMock), nil, 50)
	router := setupHistoryRouter(handler, models.Identity{ID: 99, Admin: true})

	req := httptest.NewRequest(http.MethodDelete, "/admin/messages/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
