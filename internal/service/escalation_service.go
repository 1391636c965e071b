package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/escalation"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// lastRunKey stores the most recent run summary for operators.
const lastRunKey = "helpdesk:escalation:last_run"

// EscalationService wraps the runner with run-level observability: it
// tallies metrics and records the latest summary in Redis. The summary
// is operational convenience only; the durable effects live on the
// ticket rows.
type EscalationService struct {
	runner  *escalation.Runner
	metrics *observability.Metrics
	cache   *redis.Client
	logger  *zap.Logger
}

// NewEscalationService constructs the service.
func NewEscalationService(runner *escalation.Runner, metrics *observability.Metrics, cache *redis.Client, logger *zap.Logger) *EscalationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationService{runner: runner, metrics: metrics, cache: cache, logger: logger}
}

// RunEscalations executes one batch pass and returns its summary.
func (s *EscalationService) RunEscalations(ctx context.Context) (*escalation.RunResult, error) {
	result, err := s.runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEscalationRun(result.Escalated, result.Failed)
	s.storeSummary(ctx, result)
	return result, nil
}

// LastRunSummary returns the recorded summary of the most recent run,
// or nil when none is available.
func (s *EscalationService) LastRunSummary(ctx context.Context) *escalation.RunResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, lastRunKey).Bytes()
	if err != nil {
		return nil
	}
	var result escalation.RunResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return &result
}

func (s *EscalationService) storeSummary(ctx context.Context, result *escalation.RunResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, lastRunKey, raw, 24*time.Hour).Err(); err != nil {
		s.logger.Debug("run summary write failed", zap.Error(err))
	}
}
