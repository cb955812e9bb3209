package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/models"
	"github.com/orion-app/orion-api/internal/observability"
	"github.com/orion-app/orion-api/internal/repository"
	"github.com/orion-app/orion-api/pkg/ai"
)

const (
	titleRuneBudget    = 100
	defaultThreadTitle = "Untitled Chat"

	// Shown in place of a bot reply when the completion endpoint could not
	// be reached. Not retried; the user simply sends again.
	completionFailureMessage = "Error: Failed to fetch response"
)

// Chat service errors surfaced to handlers.
var (
	ErrEmptyMessage  = errors.New("message must not be empty")
	ErrTopicNotFound = errors.New("knowledge topic not found")
)

// ChatService owns per-user chat threads and runs the send-message loop:
// thread upsert, message append, completion dispatch, counter updates.
type ChatService interface {
	ListThreads(ctx context.Context, userID uint) ([]dto.ThreadSummary, error)
	SendMessage(ctx context.Context, userID uint, req dto.SendMessageRequest) (dto.SendMessageResponse, error)
	LoadMessages(ctx context.Context, userID uint, title string) ([]dto.MessageResponse, error)
	DeleteThread(ctx context.Context, userID uint, title string) error
}

type chatService struct {
	chats     repository.ChatRepository
	knowledge repository.KnowledgeRepository
	counters  CounterService
	completer ai.Completer
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewChatService constructs the chat service.
func NewChatService(chats repository.ChatRepository, knowledge repository.KnowledgeRepository, counters CounterService, completer ai.Completer, validate *validator.Validate, logger zerolog.Logger) ChatService {
	return &chatService{
		chats:     chats,
		knowledge: knowledge,
		counters:  counters,
		completer: completer,
		validator: validate,
		// Messages render as plain text, so all markup is stripped.
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "chat_service").Logger(),
		now:       time.Now,
	}
}

func (s *chatService) ListThreads(ctx context.Context, userID uint) ([]dto.ThreadSummary, error) {
	threads, err := s.chats.ListThreads(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return dto.NewThreadSummarySlice(threads), nil
}

func (s *chatService) SendMessage(ctx context.Context, userID uint, req dto.SendMessageRequest) (dto.SendMessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SendMessageResponse{}, err
	}

	// The policy strips markup but entity-escapes what remains; messages are
	// stored and rendered as plain text, so the escaping is undone. The text
	// must stay byte-identical to what the user typed: it doubles as the
	// thread title and as the question-tally key seeded by the knowledge
	// service.
	text := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(req.Message)))
	if text == "" {
		return dto.SendMessageResponse{}, ErrEmptyMessage
	}

	topic, err := s.knowledge.GetTopic(ctx, req.TopicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SendMessageResponse{}, ErrTopicNotFound
		}
		return dto.SendMessageResponse{}, fmt.Errorf("load topic: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = deriveTitle(text)
	}

	sentAt := s.now().UTC()
	thread, err := s.chats.UpsertThread(ctx, userID, title, sentAt)
	if err != nil {
		return dto.SendMessageResponse{}, fmt.Errorf("upsert thread: %w", err)
	}

	userMessage := models.ChatMessage{
		ThreadID:  thread.ID,
		Role:      models.MessageRoleUser,
		Content:   text,
		CreatedAt: sentAt,
	}
	if err := s.chats.AppendMessage(ctx, &userMessage); err != nil {
		return dto.SendMessageResponse{}, fmt.Errorf("append user message: %w", err)
	}
	observability.ChatMessages().WithLabelValues(models.MessageRoleUser).Inc()

	// Analytics are best-effort; the counter service swallows failures.
	s.counters.RecordPrompt(ctx)
	s.counters.RecordQuestion(ctx, topic.ID, text, req.FromSuggestion)

	botContent := s.dispatchCompletion(ctx, topic.Content, text)

	botMessage := models.ChatMessage{
		ThreadID:  thread.ID,
		Role:      models.MessageRoleBot,
		Content:   botContent,
		CreatedAt: s.now().UTC(),
	}
	if !botMessage.CreatedAt.After(userMessage.CreatedAt) {
		botMessage.CreatedAt = userMessage.CreatedAt.Add(time.Millisecond)
	}
	if err := s.chats.AppendMessage(ctx, &botMessage); err != nil {
		return dto.SendMessageResponse{}, fmt.Errorf("append bot message: %w", err)
	}
	observability.ChatMessages().WithLabelValues(models.MessageRoleBot).Inc()

	return dto.SendMessageResponse{
		Title: title,
		Messages: []dto.MessageResponse{
			dto.NewMessageResponse(userMessage),
			dto.NewMessageResponse(botMessage),
		},
	}, nil
}

func (s *chatService) dispatchCompletion(ctx context.Context, topicContent, text string) string {
	raw, err := s.completer.Complete(ctx, topicContent, text)
	if err != nil {
		s.logger.Error().Err(err).Msg("completion request failed")
		return completionFailureMessage
	}
	return ai.Sanitize(raw)
}

func (s *chatService) LoadMessages(ctx context.Context, userID uint, title string) ([]dto.MessageResponse, error) {
	thread, err := s.chats.FindThread(ctx, userID, title)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []dto.MessageResponse{}, nil
		}
		return nil, fmt.Errorf("find thread: %w", err)
	}

	messages, err := s.chats.ListMessages(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return dto.NewMessageResponseSlice(messages), nil
}

// DeleteThread removes the thread and its messages. Deleting a title that
// does not exist is a logged no-op.
func (s *chatService) DeleteThread(ctx context.Context, userID uint, title string) error {
	deleted, err := s.chats.DeleteThread(ctx, userID, title)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	if !deleted {
		s.logger.Info().Uint("user_id", userID).Str("title", title).Msg("delete requested for missing thread")
	}
	return nil
}

// deriveTitle truncates the first message to the title budget, falling back
// to a default when the trimmed message is empty.
func deriveTitle(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return defaultThreadTitle
	}

	runes := []rune(message)
	if len(runes) > titleRuneBudget {
		return string(runes[:titleRuneBudget])
	}
	return message
}
