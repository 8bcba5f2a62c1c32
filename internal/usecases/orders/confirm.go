package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/N1seb/Render/internal/domain"
)

// SettlementOutcome итог обработки платёжного события
type SettlementOutcome string

const (
	OutcomePaid           SettlementOutcome = "paid"
	OutcomeDuplicate      SettlementOutcome = "duplicate"
	OutcomeNotPaid        SettlementOutcome = "not_paid"
	OutcomeUnknownInvoice SettlementOutcome = "unknown_invoice"
	OutcomeAnomaly        SettlementOutcome = "paid_after_cancel"
)

// Settlement результат ConfirmPayment
type Settlement struct {
	Outcome      SettlementOutcome
	InvoiceID    string
	Transitioned []domain.Order
	AlreadyPaid  int
	Cancelled    int
}

// ConfirmPayment применяет событие оплаты. Повторная доставка того же события
// ничего не меняет: в paid переводятся только заказы в awaiting_payment,
// и уведомления уходят только по ним
func (s *Service) ConfirmPayment(ctx context.Context, event domain.PaymentEvent) (*Settlement, error) {
	mapping, err := s.resolveMapping(ctx, event)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownInvoice) {
			s.Metrics.Webhook(string(OutcomeUnknownInvoice))
			s.Log.Warn("payment event for unknown invoice",
				"invoice_id", event.InvoiceID,
				"reference", event.Reference,
				"status", event.Status,
				"raw", string(event.Raw),
			)
			return &Settlement{Outcome: OutcomeUnknownInvoice, InvoiceID: event.InvoiceID}, err
		}
		return nil, err
	}

	settlement := &Settlement{InvoiceID: mapping.InvoiceID}

	if !domain.IsPaidStatus(event.Status, s.cfg.PaidTokens) {
		settlement.Outcome = OutcomeNotPaid
		s.Metrics.Webhook(string(OutcomeNotPaid))
		s.Log.Info("payment event is not a settlement",
			"invoice_id", mapping.InvoiceID,
			"status", event.Status,
		)
		return settlement, nil
	}

	ids := mapping.TargetOrderIDs()
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		transitioned, err := s.OrderRepo.MarkPaid(ctx, ids)
		if err != nil {
			return err
		}
		settlement.Transitioned = transitioned

		current, err := s.OrderRepo.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, o := range current {
			switch o.Status {
			case domain.OrderStatusCancelled:
				settlement.Cancelled++
			case domain.OrderStatusPaid:
				settlement.AlreadyPaid++
			}
		}
		settlement.AlreadyPaid -= len(transitioned)

		if mapping.CartID != nil && len(transitioned) > 0 {
			return s.settleCart(ctx, *mapping.CartID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settle invoice %s: %w", mapping.InvoiceID, err)
	}

	if settlement.Cancelled > 0 {
		s.Log.Warn("invoice paid for cancelled orders",
			"invoice_id", mapping.InvoiceID,
			"chat_id", mapping.ChatID,
			"cancelled", settlement.Cancelled,
		)
		s.alert(ctx, fmt.Sprintf("Оплата инвойса %s пришла для отменённых заказов (%d шт.), чат %d",
			mapping.InvoiceID, settlement.Cancelled, mapping.ChatID))
	}

	switch {
	case len(settlement.Transitioned) > 0:
		settlement.Outcome = OutcomePaid
		s.afterPaid(ctx, mapping, settlement.Transitioned)
	case settlement.Cancelled > 0:
		settlement.Outcome = OutcomeAnomaly
	default:
		settlement.Outcome = OutcomeDuplicate
		s.noticeDuplicate(ctx, mapping.InvoiceID)
	}

	s.Metrics.Webhook(string(settlement.Outcome))
	return settlement, nil
}

// resolveMapping ищет связку по invoice id, затем по токену из payload.
// Токен принимается, только если совпадает с выданным при создании инвойса
func (s *Service) resolveMapping(ctx context.Context, event domain.PaymentEvent) (*domain.InvoiceMapping, error) {
	if event.InvoiceID != "" {
		mapping, err := s.InvoiceRepo.GetByID(ctx, event.InvoiceID)
		if err == nil {
			if event.Reference != "" && mapping.IssuedReference() != "" && !mapping.MatchesReference(event.Reference) {
				return nil, s.referenceMismatch(event, mapping)
			}
			return mapping, nil
		}
		if !errors.Is(err, domain.ErrUnknownInvoice) {
			return nil, err
		}
	}

	if event.Reference == "" {
		return nil, fmt.Errorf("invoice %q: %w", event.InvoiceID, domain.ErrUnknownInvoice)
	}

	token, err := domain.ParseReferenceToken(event.Reference)
	if err != nil {
		return nil, fmt.Errorf("invoice %q, reference %q: %w", event.InvoiceID, event.Reference, domain.ErrUnknownInvoice)
	}

	orders, err := s.referencedOrders(ctx, token)
	if err != nil {
		return nil, err
	}

	// без invoice id в событии берём инвойс, записанный в заказ
	invoiceID := event.InvoiceID
	if invoiceID == "" {
		for _, o := range orders {
			if o.HasInvoice() {
				invoiceID = *o.InvoiceID
				break
			}
		}
		if invoiceID == "" {
			return nil, fmt.Errorf("reference %q has no invoice: %w", event.Reference, domain.ErrUnknownInvoice)
		}
		mapping, err := s.InvoiceRepo.GetByID(ctx, invoiceID)
		if err == nil {
			if !mapping.MatchesReference(event.Reference) {
				return nil, s.referenceMismatch(event, mapping)
			}
			s.Log.Info("invoice resolved by reference", "invoice_id", invoiceID, "reference", event.Reference)
			return mapping, nil
		}
		if !errors.Is(err, domain.ErrUnknownInvoice) {
			return nil, err
		}
	}

	var matched []int64
	for _, o := range orders {
		if o.HasInvoice() && *o.InvoiceID == invoiceID {
			matched = append(matched, o.ID)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("invoice %q, reference %q: %w", invoiceID, event.Reference, domain.ErrUnknownInvoice)
	}

	// выданный токен не сохранился вместе со связкой, сверить его не с чем:
	// оплату подтверждает сам платёжный сервис
	status, err := s.Gateway.GetInvoiceStatus(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("verify invoice %s: %w", invoiceID, err)
	}
	if status != domain.InvoiceStatusPaid {
		s.Log.Warn("unmapped invoice is not paid at gateway",
			"invoice_id", invoiceID,
			"reference", event.Reference,
			"gateway_status", status,
		)
		return nil, fmt.Errorf("invoice %q is %s at gateway: %w", invoiceID, status, domain.ErrUnknownInvoice)
	}

	s.Log.Warn("invoice mapping missing, resolved by reference",
		"invoice_id", invoiceID,
		"reference", event.Reference,
		"orders", matched,
	)

	mapping := &domain.InvoiceMapping{
		InvoiceID: invoiceID,
		ChatID:    token.ChatID,
		OrderIDs:  domain.Int64List(matched),
	}
	entityID := token.EntityID
	if token.Kind == domain.ReferenceCart {
		mapping.CartID = &entityID
	} else {
		mapping.OrderID = &entityID
	}
	return mapping, nil
}

func (s *Service) referenceMismatch(event domain.PaymentEvent, mapping *domain.InvoiceMapping) error {
	s.Log.Warn("payment event reference does not match issued token",
		"invoice_id", mapping.InvoiceID,
		"reference", event.Reference,
		"chat_id", mapping.ChatID,
	)
	return fmt.Errorf("invoice %q, reference %q: %w", mapping.InvoiceID, event.Reference, domain.ErrUnknownInvoice)
}

func (s *Service) referencedOrders(ctx context.Context, token domain.ReferenceToken) ([]domain.Order, error) {
	var orders []domain.Order
	switch token.Kind {
	case domain.ReferenceCart:
		list, err := s.OrderRepo.ListByCart(ctx, token.EntityID)
		if err != nil {
			return nil, err
		}
		orders = list
	default:
		order, err := s.OrderRepo.GetByID(ctx, token.EntityID)
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("reference order %d: %w", token.EntityID, domain.ErrUnknownInvoice)
			}
			return nil, err
		}
		orders = []domain.Order{*order}
	}

	owned := orders[:0]
	for _, o := range orders {
		if o.ChatID == token.ChatID {
			owned = append(owned, o)
		}
	}
	return owned, nil
}

// settleCart помечает корзину оплаченной, когда оплачены все её заказы и позиций не осталось
func (s *Service) settleCart(ctx context.Context, cartID int64) error {
	cart, err := s.CartRepo.GetByID(ctx, cartID)
	if err != nil {
		return err
	}

	items, err := s.CartRepo.ListItems(ctx, cartID)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}

	orders, err := s.OrderRepo.ListByCart(ctx, cartID)
	if err != nil {
		return err
	}

	next := domain.DeriveCartStatus(cart.Status, invoiced(orders))
	if next == cart.Status {
		return nil
	}
	if err := s.CartRepo.SetStatus(ctx, cartID, next); err != nil {
		return err
	}
	s.Log.Info("cart settled", "cart_id", cartID, "status", next)
	return nil
}

// invoiced заказы корзины, на которые выставлялся инвойс. Отменённые при очистке
// корзины заказы без инвойса на её статус не влияют
func invoiced(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.HasInvoice() {
			out = append(out, o)
		}
	}
	return out
}

// afterPaid уведомления и события после коммита. Ошибки доставки только логируются
func (s *Service) afterPaid(ctx context.Context, mapping *domain.InvoiceMapping, paid []domain.Order) {
	s.Metrics.OrdersPaid(len(paid))
	s.Log.Info("orders paid",
		"invoice_id", mapping.InvoiceID,
		"chat_id", mapping.ChatID,
		"orders", domain.OrderIDs(paid),
	)

	if s.Notifier != nil {
		if err := s.Notifier.NotifyOrdersPaid(ctx, mapping.ChatID, paid); err != nil {
			s.Log.Warn("failed to notify user about payment", "error", err, "chat_id", mapping.ChatID)
		}
	}

	if s.Publisher == nil {
		return
	}
	paidAt := s.now()
	for _, o := range paid {
		if err := s.Publisher.PublishOrderPaid(ctx, domain.NewOrderPaidEvent(o, mapping.InvoiceID, paidAt)); err != nil {
			s.Log.Error("failed to publish order paid event", "error", err, "order_id", o.ID)
		}
	}
}

// noticeDuplicate повторная доставка: одна запись Info на инвойс за TTL
func (s *Service) noticeDuplicate(ctx context.Context, invoiceID string) {
	if s.Cache != nil {
		first, err := s.Cache.SetNX(ctx, "webhook:duplicate:"+invoiceID, "1", s.cfg.DuplicateNoticeTTL)
		if err == nil && !first {
			s.Log.Debug("duplicate payment event", "invoice_id", invoiceID)
			return
		}
	}
	s.Log.Info("duplicate payment event, orders already paid", "invoice_id", invoiceID)
}
