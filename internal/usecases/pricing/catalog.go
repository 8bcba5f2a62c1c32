package pricing

import (
	"fmt"

	"github.com/N1seb/Render/internal/domain"
	"github.com/shopspring/decimal"
)

// Catalog статический прайс. Порядок сетей и услуг сохраняется для меню
type Catalog struct {
	entries  map[domain.CatalogKey]domain.CatalogEntry
	networks []domain.Network
	services map[domain.Network][]domain.CatalogEntry
}

// NewCatalog проверяет позиции и собирает каталог. Ошибка означает,
// что приложение не должно стартовать
func NewCatalog(entries []domain.CatalogEntry) (*Catalog, error) {
	c := &Catalog{
		entries:  make(map[domain.CatalogKey]domain.CatalogEntry, len(entries)),
		services: make(map[domain.Network][]domain.CatalogEntry),
	}

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.entries[e.Key()]; exists {
			return nil, fmt.Errorf("catalog entry %s/%s is duplicated", e.Network, e.Service)
		}

		c.entries[e.Key()] = e
		if _, seen := c.services[e.Network]; !seen {
			c.networks = append(c.networks, e.Network)
		}
		c.services[e.Network] = append(c.services[e.Network], e)
	}

	if len(c.entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return c, nil
}

// Lookup позиция по сети и услуге
func (c *Catalog) Lookup(network domain.Network, service domain.ServiceKey) (domain.CatalogEntry, error) {
	e, ok := c.entries[domain.CatalogKey{Network: network, Service: service}]
	if !ok {
		return domain.CatalogEntry{}, fmt.Errorf("%w: %s/%s", domain.ErrUnknownService, network, service)
	}
	return e, nil
}

func (c *Catalog) Networks() []domain.Network {
	out := make([]domain.Network, len(c.networks))
	copy(out, c.networks)
	return out
}

func (c *Catalog) Services(network domain.Network) []domain.CatalogEntry {
	src := c.services[network]
	out := make([]domain.CatalogEntry, len(src))
	copy(out, src)
	return out
}

func usd(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultEntries прайс по умолчанию, цены в USD за Unit штук
func DefaultEntries() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{Network: domain.NetworkTelegram, Service: domain.ServiceSubscribers, Label: "Подписчики", Min: 100, Unit: 1000, PricePerUnit: usd("2.20")},
		{Network: domain.NetworkTelegram, Service: domain.ServiceViews, Label: "Просмотры", Min: 100, Unit: 1000, PricePerUnit: usd("0.30")},
		{Network: domain.NetworkTelegram, Service: domain.ServiceLikes, Label: "Реакции", Min: 50, Unit: 1000, PricePerUnit: usd("0.80")},

		{Network: domain.NetworkInstagram, Service: domain.ServiceSubscribers, Label: "Подписчики", Min: 100, Unit: 1000, PricePerUnit: usd("2.90")},
		{Network: domain.NetworkInstagram, Service: domain.ServiceLikes, Label: "Лайки", Min: 50, Unit: 1000, PricePerUnit: usd("0.90")},
		{Network: domain.NetworkInstagram, Service: domain.ServiceViews, Label: "Просмотры", Min: 100, Unit: 1000, PricePerUnit: usd("0.25")},
		{Network: domain.NetworkInstagram, Service: domain.ServiceComments, Label: "Комментарии", Min: 10, Unit: 1, PricePerUnit: usd("0.10")},

		{Network: domain.NetworkTikTok, Service: domain.ServiceSubscribers, Label: "Подписчики", Min: 100, Unit: 1000, PricePerUnit: usd("3.50")},
		{Network: domain.NetworkTikTok, Service: domain.ServiceViews, Label: "Просмотры", Min: 500, Unit: 1000, PricePerUnit: usd("0.15")},
		{Network: domain.NetworkTikTok, Service: domain.ServiceLikes, Label: "Лайки", Min: 50, Unit: 1000, PricePerUnit: usd("1.10")},

		{Network: domain.NetworkYouTube, Service: domain.ServiceSubscribers, Label: "Подписчики", Min: 50, Unit: 1000, PricePerUnit: usd("12.00")},
		{Network: domain.NetworkYouTube, Service: domain.ServiceViews, Label: "Просмотры", Min: 500, Unit: 1000, PricePerUnit: usd("1.80")},
		{Network: domain.NetworkYouTube, Service: domain.ServiceLikes, Label: "Лайки", Min: 50, Unit: 1000, PricePerUnit: usd("1.50")},
		{Network: domain.NetworkYouTube, Service: domain.ServiceComments, Label: "Комментарии", Min: 10, Unit: 1, PricePerUnit: usd("0.20")},
	}
}
