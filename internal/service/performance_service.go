package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pmp_prep_backend/internal/exam"
	"pmp_prep_backend/internal/repository"
	"pmp_prep_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const perfCacheTTL = 15 * time.Minute

// PerformanceService computes a user's historical accuracy per domain from
// completed-exam answers (weight 0.7) and standalone practice attempts
// (weight 0.3). It has no failure mode of its own: missing data yields
// neutral zeros and the cache is strictly best-effort.
type PerformanceService struct {
	Sessions *repository.ExamSessionRepository
	Practice *repository.PracticeRepository
	Redis    *redis.Client
}

func NewPerformanceService(sessions *repository.ExamSessionRepository, practice *repository.PracticeRepository, rdb *redis.Client) *PerformanceService {
	return &PerformanceService{Sessions: sessions, Practice: practice, Redis: rdb}
}

func perfCacheKey(userID uint) string {
	return fmt.Sprintf("perf:user:%d", userID)
}

func (s *PerformanceService) GetUserDomainPerformance(ctx context.Context, userID uint) (map[string]exam.DomainPerformance, error) {
	if cached := s.fromCache(ctx, userID); cached != nil {
		return cached, nil
	}

	examStats, err := s.Sessions.ExamHistoryByDomain(userID)
	if err != nil {
		return nil, err
	}
	practiceStats, err := s.Practice.PracticeHistoryByDomain(userID)
	if err != nil {
		return nil, err
	}

	byDomain := make(map[string][2]exam.AttemptStats)
	for _, st := range examStats {
		entry := byDomain[st.DomainName]
		entry[0] = exam.AttemptStats{Correct: st.Correct, Total: st.Total, TotalTimeSeconds: st.TotalTimeSeconds}
		byDomain[st.DomainName] = entry
	}
	for _, st := range practiceStats {
		entry := byDomain[st.DomainName]
		entry[1] = exam.AttemptStats{Correct: st.Correct, Total: st.Total, TotalTimeSeconds: st.TotalTimeSeconds}
		byDomain[st.DomainName] = entry
	}

	perf := make(map[string]exam.DomainPerformance, len(byDomain))
	for name, entry := range byDomain {
		perf[name] = exam.BlendPerformance(entry[0], entry[1])
	}

	s.toCache(ctx, userID, perf)
	return perf, nil
}

// InvalidateUser drops the cached blend after new answers arrive. Called from
// a goroutine; never part of the critical path.
func (s *PerformanceService) InvalidateUser(userID uint) {
	if s.Redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Redis.Del(ctx, perfCacheKey(userID)).Err(); err != nil {
		logger.Log.Warn("performance cache invalidation failed", zap.Uint("userID", userID), zap.Error(err))
	}
}

func (s *PerformanceService) fromCache(ctx context.Context, userID uint) map[string]exam.DomainPerformance {
	if s.Redis == nil {
		return nil
	}
	raw, err := s.Redis.Get(ctx, perfCacheKey(userID)).Bytes()
	if err != nil {
		return nil
	}
	var perf map[string]exam.DomainPerformance
	if err := json.Unmarshal(raw, &perf); err != nil {
		return nil
	}
	return perf
}

func (s *PerformanceService) toCache(ctx context.Context, userID uint, perf map[string]exam.DomainPerformance) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(perf)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, perfCacheKey(userID), raw, perfCacheTTL).Err(); err != nil {
		logger.Log.Debug("performance cache write failed", zap.Error(err))
	}
}
