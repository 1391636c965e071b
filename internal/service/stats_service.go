package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/tat"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// statsFetchLimit bounds how many tickets feed one stats computation.
const statsFetchLimit = 1000

// StatsService produces role-scoped dashboard aggregates, cached in
// Redis for a short TTL since they are recomputed on every read
// otherwise.
type StatsService struct {
	tickets  repository.TicketRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewStatsService constructs the service. A nil cache client disables
// caching.
func NewStatsService(tickets repository.TicketRepository, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{tickets: tickets, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// DashboardStats computes the actor's ticket stats: students over their
// own tickets, committee members over their queue, admins over all.
func (s *StatsService) DashboardStats(ctx context.Context, actor *domain.User) (*tat.Stats, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("account required")
	}

	cacheKey := fmt.Sprintf("helpdesk:stats:%s:%s", actor.Role, actor.ID)
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	filter := repository.TicketFilter{Limit: statsFetchLimit}
	switch actor.Role {
	case domain.RoleStudent:
		filter.CreatorID = &actor.ID
	case domain.RoleCommittee:
		filter.AssigneeID = &actor.ID
	}

	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := tat.ComputeStats(tickets)
	s.toCache(ctx, cacheKey, &stats)
	return &stats, nil
}

func (s *StatsService) fromCache(ctx context.Context, key string) *tat.Stats {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var stats tat.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, key string, stats *tat.Stats) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
}
