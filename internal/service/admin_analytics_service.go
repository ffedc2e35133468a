package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gradlink-api/internal/dto"
	"github.com/noah-isme/gradlink-api/internal/repository"
)

const (
	adminStatsCacheKey = "admin:stats"
	engagementWeeks    = 8
)

// AdminAnalyticsService aggregates platform counters for the admin dashboard.
type AdminAnalyticsService interface {
	Stats(ctx context.Context) (dto.AdminStatsResponse, error)
	Invalidate(ctx context.Context)
}

type adminAnalyticsService struct {
	repo     repository.AdminAnalyticsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAdminAnalyticsService constructs the analytics service. cache may be nil.
func NewAdminAnalyticsService(repo repository.AdminAnalyticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AdminAnalyticsService {
	return &adminAnalyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "admin_analytics_service").Logger(),
		now:      time.Now,
	}
}

func (s *adminAnalyticsService) Stats(ctx context.Context) (dto.AdminStatsResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gradlink-api/internal/service/admin_analytics")
	ctx, span := tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", adminStatsCacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, adminStatsCacheKey).Result()
		if err == nil {
			var response dto.AdminStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
	}

	stats, err := s.aggregate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate_failed")
		return dto.AdminStatsResponse{}, err
	}
	span.SetAttributes(
		attribute.Int64("analytics.total_users", stats.TotalUsers),
		attribute.Int64("analytics.total_projects", stats.TotalProjects),
	)

	if s.cache != nil && s.cacheTTL > 0 {
		payload, err := json.Marshal(stats)
		if err == nil {
			if err := s.cache.Set(ctx, adminStatsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return stats, nil
}

// Invalidate drops the cached stats after a moderation change.
func (s *adminAnalyticsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, adminStatsCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate analytics cache")
	}
}

func (s *adminAnalyticsService) aggregate(ctx context.Context) (dto.AdminStatsResponse, error) {
	now := s.now()

	users, err := s.repo.CountUsersByRole(ctx)
	if err != nil {
		return dto.AdminStatsResponse{}, err
	}
	projects, err := s.repo.CountProjectsByStatus(ctx)
	if err != nil {
		return dto.AdminStatsResponse{}, err
	}
	interactions, err := s.repo.CountInteractionsByType(ctx)
	if err != nil {
		return dto.AdminStatsResponse{}, err
	}
	messages, err := s.repo.CountMessages(ctx)
	if err != nil {
		return dto.AdminStatsResponse{}, err
	}
	views, err := s.repo.SumProjectViews(ctx)
	if err != nil {
		return dto.AdminStatsResponse{}, err
	}

	since := startOfWeek(now).AddDate(0, 0, -7*(engagementWeeks-1))
	times, err := s.repo.ListInteractionTimesSince(ctx, since)
	if err != nil {
		return dto.AdminStatsResponse{}, err
	}

	usersByRole, totalUsers := countMap(users)
	projectsByStatus, totalProjects := countMap(projects)
	interactionsByType, _ := countMap(interactions)

	return dto.AdminStatsResponse{
		UsersByRole:        usersByRole,
		ProjectsByStatus:   projectsByStatus,
		InteractionsByType: interactionsByType,
		TotalUsers:         totalUsers,
		TotalProjects:      totalProjects,
		TotalMessages:      messages,
		TotalViews:         views,
		WeeklyEngagement:   weeklyEngagement(times),
		GeneratedAt:        now,
		CacheHit:           false,
	}, nil
}

func countMap(counts []repository.GroupCount) (map[string]int64, int64) {
	out := make(map[string]int64, len(counts))
	var total int64
	for _, count := range counts {
		out[count.Label] += count.Total
		total += count.Total
	}
	return out, total
}

func weeklyEngagement(times []time.Time) []dto.WeeklyEngagementPoint {
	weekly := map[time.Time]int64{}
	for _, at := range times {
		weekly[startOfWeek(at)]++
	}

	weeks := make([]time.Time, 0, len(weekly))
	for week := range weekly {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	points := make([]dto.WeeklyEngagementPoint, 0, len(weeks))
	for _, week := range weeks {
		points = append(points, dto.WeeklyEngagementPoint{WeekStart: week, Interactions: weekly[week]})
	}
	return points
}

func startOfWeek(t time.Time) time.Time {
	utc := t.UTC()
	weekday := int(utc.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := utc.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
