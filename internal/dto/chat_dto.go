package dto

import (
	"time"

	"github.com/orion-app/orion-api/internal/models"
)

// ThreadSummary lists one chat thread in the side panel.
type ThreadSummary struct {
	Title       string    `json:"title"`
	LastUpdated time.Time `json:"last_updated"`
}

// MessageResponse serializes a single chat message.
type MessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SendMessageRequest submits a user message into a thread. An empty Title
// starts a new thread whose title is derived from the message text.
type SendMessageRequest struct {
	Title          string `json:"title"`
	Message        string `json:"message" validate:"required"`
	TopicID        string `json:"topic_id" validate:"required"`
	FromSuggestion bool   `json:"from_suggestion"`
}

// SendMessageResponse returns the thread title plus the appended user and
// bot messages in order.
type SendMessageResponse struct {
	Title    string            `json:"title"`
	Messages []MessageResponse `json:"messages"`
}

// NewMessageResponse maps a chat message model to its response form.
func NewMessageResponse(message models.ChatMessage) MessageResponse {
	return MessageResponse{
		Role:      message.Role,
		Content:   message.Content,
		Timestamp: message.CreatedAt,
	}
}

// NewMessageResponseSlice maps a slice of chat message models.
func NewMessageResponseSlice(messages []models.ChatMessage) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, NewMessageResponse(message))
	}
	return responses
}

// NewThreadSummarySlice maps chat thread models to their list form.
func NewThreadSummarySlice(threads []models.ChatThread) []ThreadSummary {
	summaries := make([]ThreadSummary, 0, len(threads))
	for _, thread := range threads {
		summaries = append(summaries, ThreadSummary{Title: thread.Title, LastUpdated: thread.LastUpdated})
	}
	return summaries
}
