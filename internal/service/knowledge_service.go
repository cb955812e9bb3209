package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/models"
	"github.com/orion-app/orion-api/internal/repository"
)

// KnowledgeService serves the topic catalogue to the chat UI and lets
// admins manage the documents behind it.
type KnowledgeService interface {
	ListTopics(ctx context.Context) ([]dto.TopicSummary, error)
	GetTopic(ctx context.Context, id string) (dto.TopicDetail, error)
	Suggestions(ctx context.Context, id string, previous []string) ([]string, error)
	CreateTopic(ctx context.Context, req dto.CreateTopicRequest) (dto.TopicDetail, error)
	UpdateTopic(ctx context.Context, id string, req dto.UpdateTopicRequest) (dto.TopicDetail, error)
	DeleteTopic(ctx context.Context, id string) error
}

type knowledgeService struct {
	topics    repository.KnowledgeRepository
	counters  repository.CounterRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewKnowledgeService constructs the knowledge service.
func NewKnowledgeService(topics repository.KnowledgeRepository, counters repository.CounterRepository, validate *validator.Validate, logger zerolog.Logger) KnowledgeService {
	return &knowledgeService{
		topics:    topics,
		counters:  counters,
		validator: validate,
		logger:    logger.With().Str("component", "knowledge_service").Logger(),
	}
}

func (s *knowledgeService) ListTopics(ctx context.Context) ([]dto.TopicSummary, error) {
	topics, err := s.topics.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return dto.NewTopicSummarySlice(topics), nil
}

func (s *knowledgeService) GetTopic(ctx context.Context, id string) (dto.TopicDetail, error) {
	topic, err := s.loadTopic(ctx, id)
	if err != nil {
		return dto.TopicDetail{}, err
	}
	return dto.NewTopicDetail(topic), nil
}

// Suggestions draws a fresh batch of suggested questions for the topic,
// avoiding an exact repeat of the previous batch when the pool allows it.
func (s *knowledgeService) Suggestions(ctx context.Context, id string, previous []string) ([]string, error) {
	topic, err := s.loadTopic(ctx, id)
	if err != nil {
		return nil, err
	}
	return NextSuggestions(topic.QuestionList(), previous), nil
}

// CreateTopic stores a new knowledge document. Titles double as topic IDs,
// so a clashing title is disambiguated with a numeric suffix rather than
// rejected.
func (s *knowledgeService) CreateTopic(ctx context.Context, req dto.CreateTopicRequest) (dto.TopicDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TopicDetail{}, err
	}

	title, err := s.uniqueTitle(ctx, strings.TrimSpace(req.Title))
	if err != nil {
		return dto.TopicDetail{}, err
	}

	topic := models.Topic{
		ID:        title,
		Title:     title,
		Content:   req.Content,
		Questions: req.Questions,
	}
	if err := s.topics.SaveTopic(ctx, &topic); err != nil {
		return dto.TopicDetail{}, fmt.Errorf("save topic: %w", err)
	}

	if err := s.seedTally(ctx, topic); err != nil {
		s.logger.Warn().Err(err).Str("topic_id", topic.ID).Msg("failed to seed question tally")
	}

	return dto.NewTopicDetail(topic), nil
}

// UpdateTopic replaces the document content and question list. Tally counts
// follow the question positions: the count behind the old first question
// moves to the new first question, and so on. Questions added beyond the
// old list start at zero.
func (s *knowledgeService) UpdateTopic(ctx context.Context, id string, req dto.UpdateTopicRequest) (dto.TopicDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TopicDetail{}, err
	}

	topic, err := s.loadTopic(ctx, id)
	if err != nil {
		return dto.TopicDetail{}, err
	}

	oldQuestions := topic.QuestionList()
	topic.Content = req.Content
	topic.Questions = req.Questions
	if err := s.topics.SaveTopic(ctx, &topic); err != nil {
		return dto.TopicDetail{}, fmt.Errorf("save topic: %w", err)
	}

	if err := s.remapTally(ctx, topic, oldQuestions); err != nil {
		s.logger.Warn().Err(err).Str("topic_id", topic.ID).Msg("failed to remap question tally")
	}

	return dto.NewTopicDetail(topic), nil
}

func (s *knowledgeService) DeleteTopic(ctx context.Context, id string) error {
	if _, err := s.loadTopic(ctx, id); err != nil {
		return err
	}
	if err := s.topics.DeleteTopic(ctx, id); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if err := s.counters.DeleteTally(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("topic_id", id).Msg("failed to delete question tally")
	}
	return nil
}

func (s *knowledgeService) loadTopic(ctx context.Context, id string) (models.Topic, error) {
	topic, err := s.topics.GetTopic(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Topic{}, ErrTopicNotFound
		}
		return models.Topic{}, fmt.Errorf("load topic: %w", err)
	}
	return topic, nil
}

// uniqueTitle appends " (n)" until the title is free to use as an ID.
func (s *knowledgeService) uniqueTitle(ctx context.Context, base string) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		taken, err := s.topics.TopicExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check topic title: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)", base, n)
	}
}

func (s *knowledgeService) seedTally(ctx context.Context, topic models.Topic) error {
	counts := datatypes.JSONMap{models.OtherQuestionsBucket: int64(0)}
	for _, question := range topic.QuestionList() {
		counts[question] = int64(0)
	}
	return s.counters.SaveTally(ctx, &models.QuestionTally{TopicID: topic.ID, Counts: counts})
}

func (s *knowledgeService) remapTally(ctx context.Context, topic models.Topic, oldQuestions []string) error {
	tally, err := s.counters.GetTally(ctx, topic.ID)
	if err != nil {
		return err
	}

	counts := datatypes.JSONMap{
		models.OtherQuestionsBucket: repository.NumericCount(tally.Counts[models.OtherQuestionsBucket]),
	}
	for i, question := range topic.QuestionList() {
		var carried int64
		if i < len(oldQuestions) {
			carried = repository.NumericCount(tally.Counts[oldQuestions[i]])
		}
		counts[question] = carried
	}

	tally.TopicID = topic.ID
	tally.Counts = counts
	return s.counters.SaveTally(ctx, &tally)
}
