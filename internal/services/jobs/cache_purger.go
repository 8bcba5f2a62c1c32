package jobs

import (
	"context"
	"log/slog"
	"time"
)

const cachePurgerName = "cache-purger"

// IPurger кэш в памяти процесса, который сам не удаляет протухшие ключи
type IPurger interface {
	Purge() int
}

// CachePurger периодически чистит кэш курсов и маркеров дублей,
// когда Redis не подключён
type CachePurger struct {
	cache    IPurger
	interval time.Duration
	log      *slog.Logger
}

func NewCachePurger(cache IPurger, interval time.Duration, log *slog.Logger) *CachePurger {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CachePurger{
		cache:    cache,
		interval: interval,
		log:      log.With("job", cachePurgerName),
	}
}

func (j *CachePurger) Name() string {
	return cachePurgerName
}

func (j *CachePurger) NextRun(now time.Time) time.Time {
	return now.Add(j.interval)
}

func (j *CachePurger) Run(_ context.Context) error {
	if removed := j.cache.Purge(); removed > 0 {
		j.log.Debug("expired cache entries removed", "removed", removed)
	}
	return nil
}
