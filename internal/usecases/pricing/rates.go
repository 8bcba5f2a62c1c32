package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/N1seb/Render/internal/ports/cache"
	"github.com/N1seb/Render/internal/ports/payment"
	"github.com/shopspring/decimal"
)

// CachedRates кэширует курсы источника на ttl
type CachedRates struct {
	source payment.IRateSource
	cache  cache.Cache
	ttl    time.Duration
	log    *slog.Logger
}

func NewCachedRates(source payment.IRateSource, c cache.Cache, ttl time.Duration, log *slog.Logger) *CachedRates {
	return &CachedRates{
		source: source,
		cache:  c,
		ttl:    ttl,
		log:    log.With("component", "rates_cache"),
	}
}

func rateKey(asset, fiat string) string {
	return "rate:" + strings.ToUpper(asset) + ":" + strings.ToUpper(fiat)
}

func (r *CachedRates) Rate(ctx context.Context, asset, fiat string) (decimal.Decimal, error) {
	key := rateKey(asset, fiat)

	cached, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		if rate, perr := decimal.NewFromString(cached); perr == nil {
			return rate, nil
		}
		r.log.Warn("malformed cached rate", "key", key, "value", cached)
	case !errors.Is(err, cache.ErrCacheMiss):
		r.log.Warn("rate cache unavailable", "key", key, "error", err)
	}

	rate, err := r.source.Rate(ctx, asset, fiat)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate %s/%s: %w", asset, fiat, err)
	}

	if err := r.cache.Set(ctx, key, rate.String(), r.ttl); err != nil {
		r.log.Warn("failed to cache rate", "key", key, "error", err)
	}
	return rate, nil
}
