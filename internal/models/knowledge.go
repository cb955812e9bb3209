package models

import (
	"strings"
	"time"
)

// Topic is a knowledge document selectable as the context for chat
// completions. Questions holds the raw question blob as uploaded; one
// candidate question per line.
type Topic struct {
	ID        string    `gorm:"primaryKey;size:255" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Questions string    `gorm:"type:text" json:"questions"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionList splits the stored question blob into individual questions.
// Lines without a question mark are discarded, matching how the documents
// are authored (headings and blank lines between questions).
func (t Topic) QuestionList() []string {
	lines := strings.Split(t.Questions, "\n")
	questions := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "?") {
			questions = append(questions, line)
		}
	}
	return questions
}
