package orders

import (
	"context"
	"fmt"

	"github.com/N1seb/Render/internal/domain"
	"github.com/shopspring/decimal"
)

// Invoice выставленный инвойс и заказы, которые он оплачивает
type Invoice struct {
	InvoiceID string
	PayURL    string
	Asset     string
	Amount    decimal.Decimal
	TotalUSD  decimal.Decimal
	Orders    []domain.Order
	CartID    *int64
}

// PayOrder выставляет инвойс на одиночный заказ. Связка инвойса сохраняется
// только после успешного ответа шлюза, вместе с записью инвойса в заказ
func (s *Service) PayOrder(ctx context.Context, chatID, orderID int64, asset string) (*Invoice, error) {
	asset, err := s.normalizeAsset(asset)
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(ctx, chatID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CanTransition(domain.OrderStatusPaid); err != nil {
		return nil, fmt.Errorf("order %d is %s: %w", order.ID, order.Status, err)
	}

	amount := s.Pricing.ConvertToAsset(ctx, order.PriceUSD, asset)
	token := domain.NewReferenceToken(domain.ReferenceOrder, chatID, order.ID, s.now())

	result, err := s.createInvoice(ctx, domain.CreateInvoiceRequest{
		Amount:         amount,
		Asset:          asset,
		ReferenceToken: token.String(),
		Description:    fmt.Sprintf("%s #%d", s.cfg.InvoiceDescription, order.ID),
		CallbackURL:    s.cfg.CallbackURL,
	})
	if err != nil {
		return nil, err
	}

	orderID = order.ID
	mapping := &domain.InvoiceMapping{
		InvoiceID:  result.InvoiceID,
		ChatID:     chatID,
		OrderID:    &orderID,
		OrderIDs:   domain.Int64List{orderID},
		RawPayload: result.Raw,
		Reference:  token.String(),
	}

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.InvoiceRepo.Create(ctx, mapping); err != nil {
			return err
		}
		return s.OrderRepo.AttachInvoice(ctx, []int64{orderID}, result.InvoiceID, result.PayURL, asset)
	})
	if err != nil {
		s.Log.Error("invoice created but not persisted",
			"error", err,
			"order_id", orderID,
			"invoice_id", result.InvoiceID,
		)
		return nil, fmt.Errorf("attach invoice to order %d: %w", orderID, err)
	}

	order.InvoiceID = &result.InvoiceID
	order.PayURL = &result.PayURL
	order.Asset = &asset

	s.Log.Info("order invoiced",
		"order_id", orderID,
		"invoice_id", result.InvoiceID,
		"asset", asset,
		"amount", amount.String(),
	)

	return &Invoice{
		InvoiceID: result.InvoiceID,
		PayURL:    result.PayURL,
		Asset:     asset,
		Amount:    amount,
		TotalUSD:  order.PriceUSD,
		Orders:    []domain.Order{*order},
	}, nil
}

// createInvoice вызывает шлюз. При ошибке шлюза пишет метрику и алерт,
// ничего не сохраняет
func (s *Service) createInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (*domain.InvoiceResult, error) {
	result, err := s.Gateway.CreateInvoice(ctx, req)
	if err != nil {
		s.Metrics.Invoice("error")
		s.Log.Error("failed to create invoice",
			"error", err,
			"reference", req.ReferenceToken,
			"asset", req.Asset,
			"amount", req.Amount.String(),
		)
		s.alert(ctx, fmt.Sprintf("Не удалось создать инвойс %s (%s %s): %v",
			req.ReferenceToken, req.Amount.String(), req.Asset, err))
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.Metrics.Invoice("created")
	return result, nil
}

func (s *Service) alert(ctx context.Context, message string) {
	if s.Alerter == nil {
		return
	}
	if err := s.Alerter.SendAlert(ctx, message); err != nil {
		s.Log.Warn("failed to send alert", "error", err)
	}
}
