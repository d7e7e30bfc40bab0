package services

import (
	"context"
	"time"

	dbm "tripcraft/internal/models/db_models"
	resp "tripcraft/internal/models/response_models"
	"tripcraft/internal/repositories"
	"tripcraft/pkg/logger"
	"tripcraft/pkg/utils"
)

const summaryTopDestinations = 10

// AnalyticsServiceInterface records usage events. Tracking never fails the
// caller: storage errors are logged and dropped.
type AnalyticsServiceInterface interface {
	TrackCategoryUsage(ctx context.Context, userID int64, category string)
	TrackRecommendation(ctx context.Context, userID int64, category, destination string)
	TrackUserAction(ctx context.Context, userID int64, action, category string)
	Summary(ctx context.Context, rng resp.TimeRange) (*resp.AnalyticsSummary, error)
}

type AnalyticsService struct {
	repo repositories.AnalyticsRepositoryInterface
	log  *logger.Logger
}

// NewAnalyticsService accepts a nil repo, in which case events only go to the log.
func NewAnalyticsService(repo repositories.AnalyticsRepositoryInterface, log *logger.Logger) AnalyticsServiceInterface {
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalyticsService{repo: repo, log: log.With("service", "AnalyticsService")}
}

func (s *AnalyticsService) TrackCategoryUsage(ctx context.Context, userID int64, category string) {
	s.record(ctx, &dbm.AnalyticsEvent{
		EventType: dbm.EventCategoryUsage,
		Category:  category,
		UserID:    userID,
	})
}

func (s *AnalyticsService) TrackRecommendation(ctx context.Context, userID int64, category, destination string) {
	s.record(ctx, &dbm.AnalyticsEvent{
		EventType:   dbm.EventRecommendation,
		Category:    category,
		Destination: destination,
		UserID:      userID,
	})
}

func (s *AnalyticsService) TrackUserAction(ctx context.Context, userID int64, action, category string) {
	s.record(ctx, &dbm.AnalyticsEvent{
		EventType: dbm.EventUserAction,
		Category:  category,
		Action:    action,
		UserID:    userID,
	})
}

func (s *AnalyticsService) record(ctx context.Context, event *dbm.AnalyticsEvent) {
	s.log.Info("analytics event",
		"event_type", string(event.EventType),
		"category", event.Category,
		"action", event.Action,
		"destination", event.Destination,
		"user_id", event.UserID,
	)
	if s.repo == nil {
		return
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		s.log.Warn("failed to persist analytics event", "event_type", string(event.EventType), "error", err.Error())
	}
}

func normalizeRange(r resp.TimeRange) resp.TimeRange {
	out := r
	if out.End.IsZero() {
		out.End = time.Now().UTC()
	}
	if out.Start.IsZero() {
		out.Start = out.End.AddDate(0, 0, -30)
	}
	if out.Start.After(out.End) {
		out.Start, out.End = out.End, out.Start
	}
	return out
}

func (s *AnalyticsService) Summary(ctx context.Context, rng resp.TimeRange) (*resp.AnalyticsSummary, error) {
	if s.repo == nil {
		return nil, utils.ErrAnalyticsDisabled
	}
	rng = normalizeRange(rng)

	starts, err := s.repo.CountByCategory(ctx, dbm.EventCategoryUsage, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.CountByCategory(ctx, dbm.EventRecommendation, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	alternatives, err := s.repo.CountActions(ctx, dbm.ActionAlternativeRequest, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	fallbacks, err := s.repo.CountActions(ctx, dbm.ActionFallbackServed, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopDestinations(ctx, rng.Start, rng.End, summaryTopDestinations)
	if err != nil {
		return nil, err
	}

	out := &resp.AnalyticsSummary{
		Range:               rng,
		CategoryStarts:      toCategoryStats(starts),
		Recommendations:     toCategoryStats(recs),
		AlternativeRequests: alternatives,
		FallbacksServed:     fallbacks,
		TopDestinations:     make([]resp.TopDestination, 0, len(top)),
	}
	for _, t := range top {
		out.TopDestinations = append(out.TopDestinations, resp.TopDestination{Destination: t.Destination, Count: t.Count})
	}
	return out, nil
}

func toCategoryStats(rows []repositories.CategoryCount) []resp.CategoryStat {
	out := make([]resp.CategoryStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, resp.CategoryStat{Category: r.Category, Count: r.Count})
	}
	return out
}
