package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orion-app/orion-api/internal/models"
)

// ChatRepository persists chat threads and their messages.
type ChatRepository interface {
	ListThreads(ctx context.Context, userID uint) ([]models.ChatThread, error)
	FindThread(ctx context.Context, userID uint, title string) (models.ChatThread, error)
	UpsertThread(ctx context.Context, userID uint, title string, at time.Time) (models.ChatThread, error)
	AppendMessage(ctx context.Context, message *models.ChatMessage) error
	ListMessages(ctx context.Context, threadID uint) ([]models.ChatMessage, error)
	DeleteThread(ctx context.Context, userID uint, title string) (bool, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a chat repository backed by GORM.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) ListThreads(ctx context.Context, userID uint) ([]models.ChatThread, error) {
	var threads []models.ChatThread
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Find(&threads).Error
	return threads, err
}

func (r *chatRepository) FindThread(ctx context.Context, userID uint, title string) (models.ChatThread, error) {
	var thread models.ChatThread
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND title = ?", userID, title).
		First(&thread).Error
	return thread, err
}

// UpsertThread creates the thread on first use and only bumps last_updated on
// subsequent calls, leaving the rest of the row untouched (merge semantics).
func (r *chatRepository) UpsertThread(ctx context.Context, userID uint, title string, at time.Time) (models.ChatThread, error) {
	thread := models.ChatThread{UserID: userID, Title: title, LastUpdated: at}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "title"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_updated": at}),
	}).Create(&thread).Error
	if err != nil {
		return models.ChatThread{}, err
	}

	// On conflict the insert does not report the existing primary key.
	return r.FindThread(ctx, userID, title)
}

func (r *chatRepository) AppendMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *chatRepository) ListMessages(ctx context.Context, threadID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// DeleteThread removes the thread and all its messages. Returns false without
// error when the thread does not exist, so deletes are idempotent.
func (r *chatRepository) DeleteThread(ctx context.Context, userID uint, title string) (bool, error) {
	thread, err := r.FindThread(ctx, userID, title)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", thread.ID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ChatThread{}, thread.ID).Error
	})
	if err != nil {
		return false, err
	}

	return true, nil
}
