package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/orion-app/orion-api/internal/models"
)

// summaryCounterRepo wraps the daily-counter fake with a canned summary row.
type summaryCounterRepo struct {
	*fakeCounterRepo
	summary     models.StatsSummary
	summaryHits int
}

func (s *summaryCounterRepo) Summary(ctx context.Context) (models.StatsSummary, error) {
	s.summaryHits++
	return s.summary, nil
}

func newDashboardFixture(t *testing.T, summary models.StatsSummary) (*summaryCounterRepo, DashboardService) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	repo := &summaryCounterRepo{fakeCounterRepo: newFakeCounterRepo(), summary: summary}
	counters := NewCounterService(repo, testLogger())
	svc := NewDashboardService(repo, counters, redisClient, time.Minute, testLogger())
	return repo, svc
}

func TestDashboardSummaryCachesSecondRead(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")
	repo, svc := newDashboardFixture(t, models.StatsSummary{
		ID:                1,
		TotalUsers:        12,
		NewUsersToday:     3,
		NewUsersTodayDate: today,
		TotalPrompts:      40,
	})
	repo.daily["prompts|"+today] = 7

	first, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, int64(12), first.TotalUsers)
	require.Equal(t, int64(3), first.NewUsersToday)
	require.Equal(t, int64(40), first.TotalPrompts)
	require.Equal(t, int64(7), first.PromptsToday)

	second, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.TotalUsers, second.TotalUsers)
	require.Equal(t, 1, repo.summaryHits)
}

func TestDashboardSummaryZeroesStaleSignupCount(t *testing.T) {
	_, svc := newDashboardFixture(t, models.StatsSummary{
		ID:                1,
		TotalUsers:        12,
		NewUsersToday:     3,
		NewUsersTodayDate: "2020-01-01",
	})

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), summary.NewUsersToday)
}

func TestDashboardSeriesSelectsMetricAndPeriod(t *testing.T) {
	repo, svc := newDashboardFixture(t, models.StatsSummary{ID: 1})
	today := time.Now().UTC().Format("2006-01-02")
	repo.daily["signups|"+today] = 2

	weekly, err := svc.Series(context.Background(), models.MetricSignups, SeriesWeekly)
	require.NoError(t, err)
	require.Len(t, weekly.Points, 7)
	require.Equal(t, int64(2), weekly.Points[6].Count)

	monthly, err := svc.Series(context.Background(), models.MetricPrompts, SeriesMonthly)
	require.NoError(t, err)
	require.Len(t, monthly.Points, 12)

	cachedWeekly, err := svc.Series(context.Background(), models.MetricSignups, SeriesWeekly)
	require.NoError(t, err)
	require.True(t, cachedWeekly.CacheHit)

	_, err = svc.Series(context.Background(), "logins", SeriesWeekly)
	require.ErrorIs(t, err, ErrUnknownSeries)
	_, err = svc.Series(context.Background(), models.MetricSignups, "hourly")
	require.ErrorIs(t, err, ErrUnknownSeries)
}

func TestQuestionBreakdownGroupsAndSorts(t *testing.T) {
	repo, svc := newDashboardFixture(t, models.StatsSummary{
		ID:                 1,
		SuggestedQuestions: 10,
		PromptedQuestions:  4,
	})
	repo.tallies["Beta Topic"] = models.QuestionTally{
		TopicID: "Beta Topic",
		Counts: datatypes.JSONMap{
			"b?":                        int64(1),
			"a?":                        int64(5),
			models.OtherQuestionsBucket: int64(2),
		},
	}
	repo.tallies["Alpha Topic"] = models.QuestionTally{
		TopicID: "Alpha Topic",
		Counts:  datatypes.JSONMap{"x?": float64(3)},
	}

	breakdown, err := svc.QuestionBreakdown(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(10), breakdown.SuggestedQuestions)
	require.Equal(t, int64(4), breakdown.PromptedQuestions)
	require.Len(t, breakdown.Groups, 2)

	require.Equal(t, "Alpha Topic", breakdown.Groups[0].Topic)
	require.Equal(t, int64(3), breakdown.Groups[0].Questions[0].Count)

	beta := breakdown.Groups[1]
	require.Equal(t, "Beta Topic", beta.Topic)
	require.Equal(t, "a?", beta.Questions[0].Label)
	require.Equal(t, models.OtherQuestionsBucket, beta.Questions[1].Label)
	require.Equal(t, "b?", beta.Questions[2].Label)

	cached, err := svc.QuestionBreakdown(context.Background())
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
}

func TestDashboardWorksWithoutCache(t *testing.T) {
	repo := &summaryCounterRepo{fakeCounterRepo: newFakeCounterRepo(), summary: models.StatsSummary{ID: 1, TotalUsers: 2}}
	counters := NewCounterService(repo, testLogger())
	svc := NewDashboardService(repo, counters, nil, 0, testLogger())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.TotalUsers)
	require.False(t, summary.CacheHit)
}
