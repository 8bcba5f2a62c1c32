package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/metrics"
	"github.com/N1seb/Render/internal/ports/payment"
	"github.com/shopspring/decimal"
)

const (
	fiatPlaces  = 2
	assetPlaces = 6
)

type Config struct {
	StableAsset string        `envconfig:"STABLE_ASSET" default:"USDT"`
	Fiat        string        `envconfig:"FIAT" default:"USD"`
	Assets      []string      `envconfig:"ASSETS" default:"USDT,TON,TRX"`
	RateTimeout time.Duration `envconfig:"RATE_TIMEOUT" default:"5s"`
}

// Engine считает цены по каталогу и переводит их в криптовалюту оплаты
type Engine struct {
	catalog *Catalog
	rates   payment.IRateSource
	cfg     Config
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewEngine(catalog *Catalog, rates payment.IRateSource, cfg Config, m *metrics.Metrics, log *slog.Logger) *Engine {
	if cfg.StableAsset == "" {
		cfg.StableAsset = "USDT"
	}
	if cfg.Fiat == "" {
		cfg.Fiat = "USD"
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = []string{cfg.StableAsset}
	}
	if cfg.RateTimeout <= 0 {
		cfg.RateTimeout = 5 * time.Second
	}

	return &Engine{
		catalog: catalog,
		rates:   rates,
		cfg:     cfg,
		metrics: m,
		log:     log.With("component", "pricing"),
	}
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Assets валюты, которые предлагаются пользователю
func (e *Engine) Assets() []string {
	out := make([]string, len(e.cfg.Assets))
	copy(out, e.cfg.Assets)
	return out
}

func (e *Engine) IsSupportedAsset(asset string) bool {
	for _, a := range e.cfg.Assets {
		if strings.EqualFold(a, asset) {
			return true
		}
	}
	return false
}

// Price цена в USD: pricePerUnit * quantity / unit, округление до центов
func (e *Engine) Price(network domain.Network, service domain.ServiceKey, quantity int64) (decimal.Decimal, error) {
	entry, err := e.catalog.Lookup(network, service)
	if err != nil {
		return decimal.Zero, err
	}
	return PriceOf(entry, quantity)
}

// PriceOf цена позиции каталога для количества
func PriceOf(entry domain.CatalogEntry, quantity int64) (decimal.Decimal, error) {
	if quantity < entry.Min {
		return decimal.Zero, fmt.Errorf("%w: %d is below minimum %d", domain.ErrInvalidQuantity, quantity, entry.Min)
	}

	return entry.PricePerUnit.
		Mul(decimal.NewFromInt(quantity)).
		Div(decimal.NewFromInt(entry.Unit)).
		Round(fiatPlaces), nil
}

// ConvertToAsset переводит сумму в USD в asset. При недоступном курсе
// возвращает исходную сумму, пишет Warn и метрику rate_fallback
func (e *Engine) ConvertToAsset(ctx context.Context, amount decimal.Decimal, asset string) decimal.Decimal {
	if strings.EqualFold(asset, e.cfg.StableAsset) {
		return amount.Round(assetPlaces)
	}

	rate, err := e.lookupRate(ctx, asset)
	if err != nil {
		e.log.Warn("rate lookup failed, using raw amount",
			"asset", asset,
			"amount", amount.String(),
			"error", err,
		)
		e.metrics.RateFallback(asset)
		return amount.Round(assetPlaces)
	}

	return amount.Div(rate).Round(assetPlaces)
}

func (e *Engine) lookupRate(ctx context.Context, asset string) (decimal.Decimal, error) {
	if e.rates == nil {
		return decimal.Zero, fmt.Errorf("%w: no rate source", domain.ErrRateLookup)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.RateTimeout)
	defer cancel()

	rate, err := e.rates.Rate(ctx, strings.ToUpper(asset), e.cfg.Fiat)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrRateLookup, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s", domain.ErrRateLookup, rate)
	}
	return rate, nil
}

// ParseQuantity количество из текста пользователя
func ParseQuantity(text string) (int64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	q, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidQuantity, text)
	}
	if q <= 0 {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, q)
	}
	return q, nil
}

// ValidateLink ссылка должна быть абсолютным http(s) URL
func ValidateLink(text string) (string, error) {
	link := strings.TrimSpace(text)
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidLink, link)
	}

	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidLink, link)
	}
	return link, nil
}
