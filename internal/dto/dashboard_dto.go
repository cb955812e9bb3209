package dto

// DashboardSummary backs the stat cards at the top of the admin dashboard.
type DashboardSummary struct {
	TotalUsers    int64 `json:"total_users"`
	NewUsersToday int64 `json:"new_users_today"`
	TotalPrompts  int64 `json:"total_prompts"`
	PromptsToday  int64 `json:"prompts_today"`
	CacheHit      bool  `json:"cache_hit,omitempty"`
}

// SeriesPoint is one labelled bucket in a weekly or monthly chart series.
type SeriesPoint struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// SeriesResponse wraps a chart series.
type SeriesResponse struct {
	Points   []SeriesPoint `json:"points"`
	CacheHit bool          `json:"cache_hit,omitempty"`
}

// QuestionCount is one slice of a per-topic question pie chart.
type QuestionCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// QuestionGroup collects the question counts for one topic.
type QuestionGroup struct {
	Topic     string          `json:"topic"`
	Questions []QuestionCount `json:"questions"`
}

// QuestionBreakdown backs the prompted-vs-suggested chart and the per-topic
// question groups.
type QuestionBreakdown struct {
	SuggestedQuestions int64           `json:"suggested_questions"`
	PromptedQuestions  int64           `json:"prompted_questions"`
	Groups             []QuestionGroup `json:"groups"`
	CacheHit           bool            `json:"cache_hit,omitempty"`
}
