package models

import (
	"time"

	"gorm.io/datatypes"
)

// Counter metric families keyed by date.
const (
	MetricSignups = "signups"
	MetricPrompts = "prompts"
)

// OtherQuestionsBucket collects free-form prompts that did not come from a
// suggestion click.
const OtherQuestionsBucket = "other questions"

// StatsSummary is the singleton aggregate row behind the dashboard cards.
// NewUsersToday is reset to 1 whenever the stored day differs from the
// current one at increment time.
type StatsSummary struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	TotalUsers         int64     `gorm:"not null;default:0" json:"total_users"`
	NewUsersToday      int64     `gorm:"not null;default:0" json:"new_users_today"`
	NewUsersTodayDate  string    `gorm:"size:10" json:"new_users_today_date"`
	TotalPrompts       int64     `gorm:"not null;default:0" json:"total_prompts"`
	SuggestedQuestions int64     `gorm:"not null;default:0" json:"suggested_questions"`
	PromptedQuestions  int64     `gorm:"not null;default:0" json:"prompted_questions"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DailyCounter holds one day's tally for a metric family. DateKey uses the
// YYYY-MM-DD form so lexical and chronological order coincide.
type DailyCounter struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Metric  string `gorm:"size:32;not null;uniqueIndex:idx_counter_metric_date" json:"metric"`
	DateKey string `gorm:"size:10;not null;uniqueIndex:idx_counter_metric_date" json:"date_key"`
	Count   int64  `gorm:"not null;default:0" json:"count"`
}

// QuestionTally maps question text to click counts for one topic, including
// the "other questions" bucket. Counts only ever grow, except when an admin
// re-edits the question list and the counts are remapped onto it.
type QuestionTally struct {
	TopicID   string            `gorm:"primaryKey;size:255" json:"topic_id"`
	Counts    datatypes.JSONMap `gorm:"type:json" json:"counts"`
	UpdatedAt time.Time         `json:"updated_at"`
}
