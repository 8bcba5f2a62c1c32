package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Network социальная сеть, для которой продаётся услуга
type Network string

const (
	NetworkTelegram  Network = "tg"
	NetworkInstagram Network = "ig"
	NetworkTikTok    Network = "tt"
	NetworkYouTube   Network = "yt"
)

// ServiceKey вид услуги внутри сети
type ServiceKey string

const (
	ServiceSubscribers ServiceKey = "sub"
	ServiceViews       ServiceKey = "view"
	ServiceLikes       ServiceKey = "like"
	ServiceComments    ServiceKey = "com"
)

// CatalogEntry позиция прайса. Цена указана в USD за Unit штук
type CatalogEntry struct {
	Network      Network
	Service      ServiceKey
	Label        string
	Min          int64
	Unit         int64
	PricePerUnit decimal.Decimal
}

func (e CatalogEntry) Validate() error {
	if e.Unit <= 0 {
		return fmt.Errorf("catalog entry %s/%s: unit must be positive", e.Network, e.Service)
	}
	if e.Min <= 0 {
		return fmt.Errorf("catalog entry %s/%s: min must be positive", e.Network, e.Service)
	}
	if e.PricePerUnit.IsNegative() {
		return fmt.Errorf("catalog entry %s/%s: price must not be negative", e.Network, e.Service)
	}
	return nil
}

// Key ключ позиции для поиска в каталоге
func (e CatalogEntry) Key() CatalogKey {
	return CatalogKey{Network: e.Network, Service: e.Service}
}

type CatalogKey struct {
	Network Network
	Service ServiceKey
}
