package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orion-app/orion-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ChatThread{},
		&models.ChatMessage{},
		&models.Topic{},
		&models.StatsSummary{},
		&models.DailyCounter{},
		&models.QuestionTally{},
	))
	return db
}

func TestChatRepositoryUpsertThreadMergesLastUpdated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	thread, err := repo.UpsertThread(ctx, 1, "What is the deadline?", first)
	require.NoError(t, err)
	require.NotZero(t, thread.ID)

	later := first.Add(time.Hour)
	updated, err := repo.UpsertThread(ctx, 1, "What is the deadline?", later)
	require.NoError(t, err)
	require.Equal(t, thread.ID, updated.ID, "upsert must not create a second thread")
	require.WithinDuration(t, later, updated.LastUpdated, time.Second)

	threads, err := repo.ListThreads(ctx, 1)
	require.NoError(t, err)
	require.Len(t, threads, 1)
}

func TestChatRepositoryListThreadsOrdersByLastUpdatedDesc(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := repo.UpsertThread(ctx, 1, "older", base)
	require.NoError(t, err)
	_, err = repo.UpsertThread(ctx, 1, "newer", base.Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.UpsertThread(ctx, 2, "someone else", base.Add(2*time.Hour))
	require.NoError(t, err)

	threads, err := repo.ListThreads(ctx, 1)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	require.Equal(t, "newer", threads[0].Title)
	require.Equal(t, "older", threads[1].Title)
}

func TestChatRepositoryMessagesKeepAppendOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	thread, err := repo.UpsertThread(ctx, 1, "ordering", time.Now().UTC())
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	contents := []string{"first", "second", "third", "fourth"}
	for i, content := range contents {
		message := models.ChatMessage{
			ThreadID:  thread.ID,
			Role:      models.MessageRoleUser,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.AppendMessage(ctx, &message))
	}

	messages, err := repo.ListMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, messages, len(contents))
	for i, message := range messages {
		require.Equal(t, contents[i], message.Content)
		if i > 0 {
			require.False(t, message.CreatedAt.Before(messages[i-1].CreatedAt))
		}
	}
}

func TestChatRepositoryDeleteThreadIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	thread, err := repo.UpsertThread(ctx, 1, "keep me", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.AppendMessage(ctx, &models.ChatMessage{ThreadID: thread.ID, Role: models.MessageRoleUser, Content: "hello"}))

	deleted, err := repo.DeleteThread(ctx, 1, "does not exist")
	require.NoError(t, err)
	require.False(t, deleted)

	threads, err := repo.ListThreads(ctx, 1)
	require.NoError(t, err)
	require.Len(t, threads, 1, "unrelated threads must survive a no-op delete")

	deleted, err = repo.DeleteThread(ctx, 1, "keep me")
	require.NoError(t, err)
	require.True(t, deleted)

	messages, err := repo.ListMessages(ctx, thread.ID)
	require.NoError(t, err)
	require.Empty(t, messages, "messages must be removed with their thread")
}
