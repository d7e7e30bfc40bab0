package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	dbm "tripcraft/internal/models/db_models"
	"tripcraft/pkg/utils"
)

type AnalyticsRepositoryInterface interface {
	CreateEvent(ctx context.Context, event *dbm.AnalyticsEvent) error
	CountByCategory(ctx context.Context, eventType dbm.AnalyticsEventType, start, end time.Time) ([]CategoryCount, error)
	CountActions(ctx context.Context, action string, start, end time.Time) (int64, error)
	TopDestinations(ctx context.Context, start, end time.Time, limit int) ([]DestinationCount, error)
}

type CategoryCount struct {
	Category string `gorm:"column:category"`
	Count    int64  `gorm:"column:count"`
}

type DestinationCount struct {
	Destination string `gorm:"column:destination"`
	Count       int64  `gorm:"column:count"`
}

type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func dbError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", utils.ErrDatabaseError, op, err)
}

func (r *AnalyticsRepository) CreateEvent(ctx context.Context, event *dbm.AnalyticsEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return dbError("create analytics event", err)
	}
	return nil
}

func (r *AnalyticsRepository) inRange(ctx context.Context, start, end time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&dbm.AnalyticsEvent{}).
		Where("created_at BETWEEN ? AND ?", start.Unix(), end.Unix())
}

func (r *AnalyticsRepository) CountByCategory(ctx context.Context, eventType dbm.AnalyticsEventType, start, end time.Time) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.inRange(ctx, start, end).
		Select("category, COUNT(*) AS count").
		Where("event_type = ?", eventType).
		Group("category").
		Order("count DESC, category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError("count by category", err)
	}
	return rows, nil
}

func (r *AnalyticsRepository) CountActions(ctx context.Context, action string, start, end time.Time) (int64, error) {
	var n int64
	err := r.inRange(ctx, start, end).
		Where("event_type = ? AND action = ?", dbm.EventUserAction, action).
		Count(&n).Error
	if err != nil {
		return 0, dbError("count actions", err)
	}
	return n, nil
}

func (r *AnalyticsRepository) TopDestinations(ctx context.Context, start, end time.Time, limit int) ([]DestinationCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []DestinationCount
	err := r.inRange(ctx, start, end).
		Select("destination, COUNT(*) AS count").
		Where("event_type = ? AND destination <> ''", dbm.EventRecommendation).
		Group("destination").
		Order("count DESC, destination ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, dbError("top destinations", err)
	}
	return rows, nil
}
