package dto

import "github.com/orion-app/orion-api/internal/models"

// TopicSummary lists one knowledge topic for the selector dropdown.
type TopicSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TopicDetail carries the full knowledge document.
type TopicDetail struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Questions []string `json:"questions"`
}

// SuggestionResponse carries the rotating question suggestions for a topic.
type SuggestionResponse struct {
	Questions []string `json:"questions"`
}

// CreateTopicRequest uploads a new knowledge document.
type CreateTopicRequest struct {
	Title     string `json:"title" validate:"required,max=255"`
	Content   string `json:"content" validate:"required"`
	Questions string `json:"questions" validate:"required"`
}

// UpdateTopicRequest edits an existing knowledge document.
type UpdateTopicRequest struct {
	Content   string `json:"content" validate:"required"`
	Questions string `json:"questions" validate:"required"`
}

// NewTopicDetail maps a topic model to its response form.
func NewTopicDetail(topic models.Topic) TopicDetail {
	return TopicDetail{
		ID:        topic.ID,
		Title:     topic.Title,
		Content:   topic.Content,
		Questions: topic.QuestionList(),
	}
}

// NewTopicSummarySlice maps topic models to their list form.
func NewTopicSummarySlice(topics []models.Topic) []TopicSummary {
	summaries := make([]TopicSummary, 0, len(topics))
	for _, topic := range topics {
		summaries = append(summaries, TopicSummary{ID: topic.ID, Title: topic.Title})
	}
	return summaries
}
