package models

import "time"

// Message roles within a chat thread.
const (
	MessageRoleUser = "user"
	MessageRoleBot  = "bot"
)

// ChatThread is a named conversation owned by a single user. The title is
// derived from the first message and never changes afterwards; only
// LastUpdated moves as messages are appended.
type ChatThread struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_thread_owner_title" json:"user_id"`
	Title       string    `gorm:"size:255;not null;uniqueIndex:idx_thread_owner_title" json:"title"`
	LastUpdated time.Time `gorm:"index" json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatMessage is a single utterance inside a thread. Messages are append-only
// and ordered by CreatedAt ascending.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"index;not null" json:"thread_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
