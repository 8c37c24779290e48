package app

import (
	"context"
	"time"

	"github.com/clinicdesk/availability_bot/internal/schedule"
	"go.uber.org/zap"
)

// Reaper управляет фоновой очисткой неактивных сессий
type Reaper struct {
	sessions *schedule.Registry
	ttl      time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewReaper создаёт новый очиститель сессий
func NewReaper(sessions *schedule.Registry, ttl time.Duration, logger *zap.Logger) *Reaper {
	return &Reaper{
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновую очистку
func (r *Reaper) Start(ctx context.Context) {
	r.logger.Info("Starting session reaper", zap.Duration("ttl", r.ttl))

	go r.run(ctx)
}

// Stop останавливает фоновую очистку
func (r *Reaper) Stop() {
	r.logger.Info("Stopping session reaper")
	close(r.stopChan)
}

func (r *Reaper) run(ctx context.Context) {
	// Проверяем вдвое чаще, чем живёт сессия
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evict()
		case <-r.stopChan:
			r.logger.Info("Session reaper stopped")
			return
		case <-ctx.Done():
			r.logger.Info("Session reaper cancelled")
			return
		}
	}
}

func (r *Reaper) evict() {
	evicted := r.sessions.EvictIdle(r.ttl)
	if evicted > 0 {
		r.logger.Info("Idle sessions evicted", zap.Int("count", evicted))
	}
}
