package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"finanzas/internal/cache"
	"finanzas/internal/logger"
	"finanzas/internal/middleware"
	"finanzas/internal/notify"
	"finanzas/internal/period"
)

func init() {
	logger.Init("test", "")
}

var bogota = mustLoad("America/Bogota")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// newTestStats returns a stats service backed by an in-memory cache.
func newTestStats(db *gorm.DB) (StatsServicer, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	svc := NewStatsService(db, StatsOptions{
		Cache:    store,
		CacheTTL: time.Minute,
		Location: bogota,
		Locale:   "es",
	})
	return svc, store
}

// closeStore closes the connection pool so every later query fails.
func closeStore(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying DB: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("failed to close DB: %v", err)
	}
}

// failInserts makes every INSERT into table fail until the test ends.
func failInserts(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	const name = "test:fail_inserts"
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}
	t.Cleanup(func() { _ = db.Callback().Create().Remove(name) })
}

// warmCache computes a dashboard so the owner has a cached entry.
func warmCache(t *testing.T, svc StatsServicer, ownerID string, p period.Period) {
	t.Helper()
	if _, err := svc.GetDashboardStats(context.Background(), ownerID, p); err != nil {
		t.Fatalf("failed to warm cache: %v", err)
	}
}

// recordingPublisher captures published jobs.
type recordingPublisher struct {
	mu   sync.Mutex
	jobs []notify.EmailJob
	err  error
}

func (p *recordingPublisher) PublishEmail(_ context.Context, job notify.EmailJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingPublisher) sent() []notify.EmailJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.EmailJob(nil), p.jobs...)
}

func newTestTokens() *middleware.TokenManager {
	return middleware.NewTokenManager("test-secret", 15*time.Minute, time.Hour, time.Hour)
}
