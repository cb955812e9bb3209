package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/orion-app/orion-api/internal/models"
)

// KnowledgeRepository provides access to knowledge topics.
type KnowledgeRepository interface {
	ListTopics(ctx context.Context) ([]models.Topic, error)
	GetTopic(ctx context.Context, id string) (models.Topic, error)
	TopicExists(ctx context.Context, id string) (bool, error)
	SaveTopic(ctx context.Context, topic *models.Topic) error
	DeleteTopic(ctx context.Context, id string) error
}

type knowledgeRepository struct {
	db *gorm.DB
}

// NewKnowledgeRepository constructs a knowledge repository backed by GORM.
func NewKnowledgeRepository(db *gorm.DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

func (r *knowledgeRepository) ListTopics(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.WithContext(ctx).Order("title ASC").Find(&topics).Error
	return topics, err
}

func (r *knowledgeRepository) GetTopic(ctx context.Context, id string) (models.Topic, error) {
	var topic models.Topic
	err := r.db.WithContext(ctx).First(&topic, "id = ?", id).Error
	return topic, err
}

func (r *knowledgeRepository) TopicExists(ctx context.Context, id string) (bool, error) {
	var topic models.Topic
	err := r.db.WithContext(ctx).Select("id").First(&topic, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *knowledgeRepository) SaveTopic(ctx context.Context, topic *models.Topic) error {
	return r.db.WithContext(ctx).Save(topic).Error
}

func (r *knowledgeRepository) DeleteTopic(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Topic{}, "id = ?", id).Error
}
