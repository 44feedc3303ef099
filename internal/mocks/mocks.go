package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-sync-service/internal/models"
)

// MessageArchiveMock mocks repositories.MessageArchive.
type MessageArchiveMock struct {
	mock.Mock
}

func (m *MessageArchiveMock) RecordMessage(ctx context.Context, msg models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageArchiveMock) MarkDeleted(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageArchiveMock) ListRecentForUser(ctx context.Context, userID int64, limit int) ([]models.Message, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MessageArchiveMock) Stats(ctx context.Context) (models.ArchiveStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.ArchiveStats), args.Error(1)
}

func (m *MessageArchiveMock) MaxMessageID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MessageDeleterMock mocks handlers.MessageDeleter.
type MessageDeleterMock struct {
	mock.Mock
}

func (m *MessageDeleterMock) Delete(requester models.Identity, messageID int64) (models.Message, bool, error) {
	args := m.Called(requester, messageID)
	return args.Get(0).(models.Message), args.Bool(1), args.Error(2)
}
