package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orion-app/orion-api/internal/models"
)

const statsSummaryID = 1

// CounterRepository persists analytics counters. Increments use the store's
// native upsert-with-increment so there is no separate create-on-missing
// round trip.
type CounterRepository interface {
	IncrementDaily(ctx context.Context, metric, dateKey string) error
	GetDaily(ctx context.Context, metric string, dateKeys []string) (map[string]int64, error)
	ListDailyByPrefix(ctx context.Context, metric, prefix string) ([]models.DailyCounter, error)
	Summary(ctx context.Context) (models.StatsSummary, error)
	RecordSignup(ctx context.Context, todayKey string) error
	IncrementTotalPrompts(ctx context.Context) error
	IncrementQuestionSplit(ctx context.Context, suggested bool) error
	IncrementQuestionBucket(ctx context.Context, topicID, question string) error
	GetTally(ctx context.Context, topicID string) (models.QuestionTally, error)
	ListTallies(ctx context.Context) ([]models.QuestionTally, error)
	SaveTally(ctx context.Context, tally *models.QuestionTally) error
	DeleteTally(ctx context.Context, topicID string) error
}

type counterRepository struct {
	db *gorm.DB
}

// NewCounterRepository constructs a counter repository backed by GORM.
func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) IncrementDaily(ctx context.Context, metric, dateKey string) error {
	counter := models.DailyCounter{Metric: metric, DateKey: dateKey, Count: 1}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "metric"}, {Name: "date_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
	}).Create(&counter).Error
}

func (r *counterRepository) GetDaily(ctx context.Context, metric string, dateKeys []string) (map[string]int64, error) {
	var counters []models.DailyCounter
	err := r.db.WithContext(ctx).
		Where("metric = ? AND date_key IN ?", metric, dateKeys).
		Find(&counters).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(counters))
	for _, counter := range counters {
		counts[counter.DateKey] = counter.Count
	}
	return counts, nil
}

func (r *counterRepository) ListDailyByPrefix(ctx context.Context, metric, prefix string) ([]models.DailyCounter, error) {
	var counters []models.DailyCounter
	err := r.db.WithContext(ctx).
		Where("metric = ? AND date_key LIKE ?", metric, prefix+"%").
		Order("date_key ASC").
		Find(&counters).Error
	return counters, err
}

func (r *counterRepository) Summary(ctx context.Context) (models.StatsSummary, error) {
	var summary models.StatsSummary
	err := r.db.WithContext(ctx).First(&summary, statsSummaryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StatsSummary{ID: statsSummaryID}, nil
	}
	return summary, err
}

// RecordSignup bumps the lifetime user total and the new-users-today counter,
// resetting the latter to 1 when the stored day differs from todayKey. The
// rollover is a single conditional UPDATE so concurrent signups cannot lose
// increments to a stale in-memory read.
func (r *counterRepository) RecordSignup(ctx context.Context, todayKey string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSummary(tx); err != nil {
			return err
		}

		return tx.Model(&models.StatsSummary{}).
			Where("id = ?", statsSummaryID).
			UpdateColumns(map[string]interface{}{
				"total_users":          gorm.Expr("total_users + 1"),
				"new_users_today":      gorm.Expr("CASE WHEN new_users_today_date = ? THEN new_users_today + 1 ELSE 1 END", todayKey),
				"new_users_today_date": todayKey,
			}).Error
	})
	if err != nil {
		return err
	}

	return r.IncrementDaily(ctx, models.MetricSignups, todayKey)
}

func (r *counterRepository) IncrementTotalPrompts(ctx context.Context) error {
	return r.incrementSummaryColumn(ctx, "total_prompts")
}

func (r *counterRepository) IncrementQuestionSplit(ctx context.Context, suggested bool) error {
	column := "prompted_questions"
	if suggested {
		column = "suggested_questions"
	}
	return r.incrementSummaryColumn(ctx, column)
}

func (r *counterRepository) incrementSummaryColumn(ctx context.Context, column string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSummary(tx); err != nil {
			return err
		}
		return tx.Model(&models.StatsSummary{}).
			Where("id = ?", statsSummaryID).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	})
}

func (r *counterRepository) IncrementQuestionBucket(ctx context.Context, topicID, question string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tally models.QuestionTally
		if err := tx.FirstOrCreate(&tally, models.QuestionTally{TopicID: topicID}).Error; err != nil {
			return err
		}

		if tally.Counts == nil {
			tally.Counts = datatypes.JSONMap{}
		}
		tally.Counts[question] = NumericCount(tally.Counts[question]) + 1

		return tx.Save(&tally).Error
	})
}

func (r *counterRepository) GetTally(ctx context.Context, topicID string) (models.QuestionTally, error) {
	var tally models.QuestionTally
	err := r.db.WithContext(ctx).First(&tally, "topic_id = ?", topicID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.QuestionTally{TopicID: topicID, Counts: datatypes.JSONMap{}}, nil
	}
	return tally, err
}

func (r *counterRepository) ListTallies(ctx context.Context) ([]models.QuestionTally, error) {
	var tallies []models.QuestionTally
	err := r.db.WithContext(ctx).Order("topic_id ASC").Find(&tallies).Error
	return tallies, err
}

func (r *counterRepository) SaveTally(ctx context.Context, tally *models.QuestionTally) error {
	return r.db.WithContext(ctx).Save(tally).Error
}

func (r *counterRepository) DeleteTally(ctx context.Context, topicID string) error {
	return r.db.WithContext(ctx).Delete(&models.QuestionTally{}, "topic_id = ?", topicID).Error
}

// ensureSummary creates the singleton summary row when it does not exist
// yet, so the increment statements always have a target.
func ensureSummary(tx *gorm.DB) error {
	summary := models.StatsSummary{ID: statsSummaryID}
	return tx.FirstOrCreate(&summary, models.StatsSummary{ID: statsSummaryID}).Error
}

// NumericCount coerces a JSON map value into an integer count. Values read
// back from the JSON column arrive as float64 or json.Number.
func NumericCount(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	}
	return 0
}
