package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/models"
	"github.com/orion-app/orion-api/internal/observability"
	"github.com/orion-app/orion-api/internal/repository"
)

// Chart series selectors accepted by the dashboard endpoints.
const (
	SeriesWeekly  = "weekly"
	SeriesMonthly = "monthly"
)

// ErrUnknownSeries is returned for a metric or period the dashboard does
// not chart.
var ErrUnknownSeries = errors.New("unknown dashboard series")

// DashboardService aggregates the analytics counters into the admin
// dashboard views. Reads go through a short-lived Redis cache so a dashboard
// left open on auto-refresh does not hammer the counters tables.
type DashboardService interface {
	Summary(ctx context.Context) (dto.DashboardSummary, error)
	Series(ctx context.Context, metric, period string) (dto.SeriesResponse, error)
	QuestionBreakdown(ctx context.Context) (dto.QuestionBreakdown, error)
}

type dashboardService struct {
	repo     repository.CounterRepository
	counters CounterService
	cache    *redis.Client
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewDashboardService constructs the dashboard service. A nil cache client
// disables caching.
func NewDashboardService(repo repository.CounterRepository, counters CounterService, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &dashboardService{
		repo:     repo,
		counters: counters,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) Summary(ctx context.Context) (dto.DashboardSummary, error) {
	const cacheKey = "dashboard:summary:v1"

	var cached dto.DashboardSummary
	if s.readCache(ctx, cacheKey, &cached) {
		cached.CacheHit = true
		return cached, nil
	}

	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return dto.DashboardSummary{}, fmt.Errorf("load stats summary: %w", err)
	}
	promptsToday, err := s.counters.TodayCount(ctx, models.MetricPrompts)
	if err != nil {
		return dto.DashboardSummary{}, err
	}

	response := dto.DashboardSummary{
		TotalUsers:    summary.TotalUsers,
		NewUsersToday: newUsersToday(summary, time.Now().UTC()),
		TotalPrompts:  summary.TotalPrompts,
		PromptsToday:  promptsToday,
	}
	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *dashboardService) Series(ctx context.Context, metric, period string) (dto.SeriesResponse, error) {
	if metric != models.MetricSignups && metric != models.MetricPrompts {
		return dto.SeriesResponse{}, ErrUnknownSeries
	}

	cacheKey := fmt.Sprintf("dashboard:series:v1:%s:%s", metric, period)
	var cached dto.SeriesResponse
	if s.readCache(ctx, cacheKey, &cached) {
		cached.CacheHit = true
		return cached, nil
	}

	var (
		points []dto.SeriesPoint
		err    error
	)
	switch period {
	case SeriesWeekly:
		points, err = s.counters.WeeklySeries(ctx, metric)
	case SeriesMonthly:
		points, err = s.counters.MonthlySeries(ctx, metric)
	default:
		return dto.SeriesResponse{}, ErrUnknownSeries
	}
	if err != nil {
		return dto.SeriesResponse{}, err
	}

	response := dto.SeriesResponse{Points: points}
	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *dashboardService) QuestionBreakdown(ctx context.Context) (dto.QuestionBreakdown, error) {
	const cacheKey = "dashboard:questions:v1"

	var cached dto.QuestionBreakdown
	if s.readCache(ctx, cacheKey, &cached) {
		cached.CacheHit = true
		return cached, nil
	}

	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return dto.QuestionBreakdown{}, fmt.Errorf("load stats summary: %w", err)
	}
	tallies, err := s.repo.ListTallies(ctx)
	if err != nil {
		return dto.QuestionBreakdown{}, fmt.Errorf("list question tallies: %w", err)
	}

	groups := make([]dto.QuestionGroup, 0, len(tallies))
	for _, tally := range tallies {
		group := dto.QuestionGroup{Topic: tally.TopicID}
		for question, raw := range tally.Counts {
			group.Questions = append(group.Questions, dto.QuestionCount{
				Label: question,
				Count: repository.NumericCount(raw),
			})
		}
		sort.Slice(group.Questions, func(i, j int) bool {
			if group.Questions[i].Count != group.Questions[j].Count {
				return group.Questions[i].Count > group.Questions[j].Count
			}
			return group.Questions[i].Label < group.Questions[j].Label
		})
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Topic < groups[j].Topic })

	response := dto.QuestionBreakdown{
		SuggestedQuestions: summary.SuggestedQuestions,
		PromptedQuestions:  summary.PromptedQuestions,
		Groups:             groups,
	}
	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *dashboardService) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	payload, err := s.cache.Get(ctx, key).Result()
	if err != nil || payload == "" {
		observability.DashboardCache().WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		observability.DashboardCache().WithLabelValues("miss").Inc()
		return false
	}
	observability.DashboardCache().WithLabelValues("hit").Inc()
	return true
}

func (s *dashboardService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache dashboard view")
	}
}

// newUsersToday zeroes the stored per-day signup count once the stored date
// falls behind the current day. The stored row itself is only rolled over on
// the next signup.
func newUsersToday(summary models.StatsSummary, now time.Time) int64 {
	if summary.NewUsersTodayDate != now.Format(dateKeyLayout) {
		return 0
	}
	return summary.NewUsersToday
}
