package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"finanzas/internal/cache"
	"finanzas/internal/logger"
	"finanzas/internal/models"
	"finanzas/internal/period"
	"finanzas/internal/stats"
)

// MaxDashboardRows bounds the rows loaded for one dashboard.
const MaxDashboardRows = 10000

// StatsOptions configures the stats service.
type StatsOptions struct {
	Cache    cache.Store // optional
	CacheTTL time.Duration
	Location *time.Location
	Locale   string
}

// cachedStats is a dashboard stamped with the owner's invalidation
// generation it was computed under.
type cachedStats struct {
	Generation int64                `json:"generation"`
	Stats      stats.DashboardStats `json:"stats"`
}

// statsService computes and caches dashboard statistics.
type statsService struct {
	db    *gorm.DB
	cache cache.Store
	ttl   time.Duration
	opts  stats.Options
	now   func() time.Time
	log   *zap.SugaredLogger
}

// NewStatsService creates a new StatsServicer.
func NewStatsService(db *gorm.DB, opts StatsOptions) StatsServicer {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &statsService{
		db:    db,
		cache: opts.Cache,
		ttl:   opts.CacheTTL,
		opts:  stats.Options{Location: loc, Locale: opts.Locale},
		now:   time.Now,
		log:   logger.Named("stats"),
	}
}

// GetDashboardStats returns the statistics of p for the owner. An empty
// owner gets zeroed statistics.
func (s *statsService) GetDashboardStats(ctx context.Context, ownerID string, p period.Period) (*stats.DashboardStats, error) {
	if p.IsZero() {
		p = period.Current(s.now(), s.opts.Location)
	}
	if _, err := period.New(p.Year, p.Month); err != nil {
		return nil, err
	}
	if ownerID == "" {
		empty := stats.Empty(p)
		return &empty, nil
	}

	key := cache.StatsKey(ownerID, p)
	gen, cacheable := s.generation(ctx, ownerID)
	if cacheable {
		var cached cachedStats
		found, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.Warnw("stats cache read failed", "error", err, "key", key)
		} else if found && cached.Generation == gen {
			return &cached.Stats, nil
		}
	}

	start, end := p.Bounds(s.opts.Location)

	var (
		txs     []models.Transaction
		allTime int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Preload("Category").
			Where("user_id = ? AND created_at BETWEEN ? AND ?", ownerID, start.UTC(), end.UTC()).
			Order("created_at ASC, id ASC").
			Limit(MaxDashboardRows).
			Find(&txs).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Model(&models.Transaction{}).
			Where("user_id = ?", ownerID).
			Count(&allTime).Error
	})
	if err := g.Wait(); err != nil {
		return nil, storeError("dashboard stats", err)
	}
	if len(txs) == MaxDashboardRows {
		s.log.Warnw("dashboard row limit reached", "owner_id", ownerID, "period", p.String())
	}

	result := stats.Aggregate(p, txs, allTime, s.opts)

	if cacheable {
		// An invalidation during the queries means result may predate a write.
		if current, ok := s.generation(ctx, ownerID); ok && current == gen {
			if err := s.cache.SetJSON(ctx, key, cachedStats{Generation: gen, Stats: result}, s.ttl); err != nil {
				s.log.Warnw("stats cache write failed", "error", err, "key", key)
			}
		}
	}
	return &result, nil
}

// generation reads the owner's invalidation counter. ok is false when there
// is no cache or the counter cannot be read.
func (s *statsService) generation(ctx context.Context, ownerID string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Counter(ctx, cache.GenerationKey(ownerID))
	if err != nil {
		s.log.Warnw("stats cache generation read failed", "error", err, "owner_id", ownerID)
		return 0, false
	}
	return gen, true
}

// InvalidateOwner bumps the owner's generation, which retires every cached
// dashboard including ones being filled concurrently, then drops the entries.
func (s *statsService) InvalidateOwner(ctx context.Context, ownerID string) {
	if s.cache == nil || ownerID == "" {
		return
	}
	if _, err := s.cache.Incr(ctx, cache.GenerationKey(ownerID)); err != nil {
		s.log.Warnw("stats cache generation bump failed", "error", err, "owner_id", ownerID)
	}
	if err := s.cache.DeletePrefix(ctx, cache.OwnerPrefix(ownerID)); err != nil {
		s.log.Warnw("stats cache invalidation failed", "error", err, "owner_id", ownerID)
	}
}
