package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/models"
	"github.com/orion-app/orion-api/internal/observability"
	"github.com/orion-app/orion-api/internal/repository"
)

const dateKeyLayout = "2006-01-02"

// Single-letter chart labels, indexed by time.Weekday and by month number.
var (
	weekdayLetters = [7]string{"S", "M", "T", "W", "T", "F", "S"}
	monthLetters   = [12]string{"J", "F", "M", "A", "M", "J", "J", "A", "S", "O", "N", "D"}
)

// CounterService updates and aggregates the analytics counters. All Record
// methods are best-effort: failures are logged and counted but never
// propagated, so a broken counter cannot fail a chat operation.
type CounterService interface {
	RecordSignup(ctx context.Context)
	RecordPrompt(ctx context.Context)
	RecordQuestion(ctx context.Context, topicID, question string, fromSuggestion bool)
	WeeklySeries(ctx context.Context, metric string) ([]dto.SeriesPoint, error)
	MonthlySeries(ctx context.Context, metric string) ([]dto.SeriesPoint, error)
	TodayCount(ctx context.Context, metric string) (int64, error)
}

type counterService struct {
	repo   repository.CounterRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewCounterService constructs the counter service.
func NewCounterService(repo repository.CounterRepository, logger zerolog.Logger) CounterService {
	return &counterService{
		repo:   repo,
		logger: logger.With().Str("component", "counter_service").Logger(),
		now:    time.Now,
	}
}

func (s *counterService) todayKey() string {
	return s.now().UTC().Format(dateKeyLayout)
}

func (s *counterService) RecordSignup(ctx context.Context) {
	if err := s.repo.RecordSignup(ctx, s.todayKey()); err != nil {
		s.countFailure("signups", err)
	}
}

func (s *counterService) RecordPrompt(ctx context.Context) {
	if err := s.repo.IncrementTotalPrompts(ctx); err != nil {
		s.countFailure("prompts_total", err)
	}
	if err := s.repo.IncrementDaily(ctx, models.MetricPrompts, s.todayKey()); err != nil {
		s.countFailure("prompts_daily", err)
	}
}

func (s *counterService) RecordQuestion(ctx context.Context, topicID, question string, fromSuggestion bool) {
	bucket := models.OtherQuestionsBucket
	if fromSuggestion {
		bucket = question
	}

	if err := s.repo.IncrementQuestionBucket(ctx, topicID, bucket); err != nil {
		s.countFailure("question_bucket", err)
	}
	if err := s.repo.IncrementQuestionSplit(ctx, fromSuggestion); err != nil {
		s.countFailure("question_split", err)
	}
}

func (s *counterService) countFailure(counter string, err error) {
	observability.CounterWriteErrors().WithLabelValues(counter).Inc()
	s.logger.Warn().Err(err).Str("counter", counter).Msg("analytics counter update failed")
}

// WeeklySeries returns today and the six prior days, labelled with
// single-letter day codes. Days without a stored counter read as zero.
func (s *counterService) WeeklySeries(ctx context.Context, metric string) ([]dto.SeriesPoint, error) {
	today := s.now().UTC()
	days := make([]time.Time, 0, 7)
	keys := make([]string, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		days = append(days, day)
		keys = append(keys, day.Format(dateKeyLayout))
	}

	counts, err := s.repo.GetDaily(ctx, metric, keys)
	if err != nil {
		return nil, fmt.Errorf("load weekly %s counters: %w", metric, err)
	}

	points := make([]dto.SeriesPoint, 0, 7)
	for i, day := range days {
		points = append(points, dto.SeriesPoint{
			Label: weekdayLetters[day.Weekday()],
			Count: counts[keys[i]],
		})
	}
	return points, nil
}

// MonthlySeries sums the daily counters of the current year into twelve
// month buckets. Months without data read as zero.
func (s *counterService) MonthlySeries(ctx context.Context, metric string) ([]dto.SeriesPoint, error) {
	year := s.now().UTC().Year()
	counters, err := s.repo.ListDailyByPrefix(ctx, metric, fmt.Sprintf("%d-", year))
	if err != nil {
		return nil, fmt.Errorf("load monthly %s counters: %w", metric, err)
	}

	totals := [12]int64{}
	for _, counter := range counters {
		if len(counter.DateKey) < 7 {
			continue
		}
		month, err := strconv.Atoi(counter.DateKey[5:7])
		if err != nil || month < 1 || month > 12 {
			continue
		}
		totals[month-1] += counter.Count
	}

	points := make([]dto.SeriesPoint, 0, 12)
	for i, total := range totals {
		points = append(points, dto.SeriesPoint{Label: monthLetters[i], Count: total})
	}
	return points, nil
}

func (s *counterService) TodayCount(ctx context.Context, metric string) (int64, error) {
	key := s.todayKey()
	counts, err := s.repo.GetDaily(ctx, metric, []string{key})
	if err != nil {
		return 0, fmt.Errorf("load today's %s counter: %w", metric, err)
	}
	return counts[key], nil
}
