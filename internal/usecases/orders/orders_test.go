package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/N1seb/Render/internal/adapters/secondary/storage/inmemory"
	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/N1seb/Render/internal/usecases/orders/orderstest"
	"github.com/N1seb/Render/internal/usecases/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID int64 = 1001

type harness struct {
	svc       *Service
	store     *orderstest.Store
	gateway   *orderstest.Gateway
	notifier  *orderstest.Notifier
	publisher *orderstest.Publisher
	alerter   *orderstest.Alerter
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	entries := append(pricing.DefaultEntries(), domain.CatalogEntry{
		Network:      "n",
		Service:      domain.ServiceSubscribers,
		Label:        "Подписчики",
		Min:          10,
		Unit:         1,
		PricePerUnit: decimal.RequireFromString("0.10"),
	})
	catalog, err := pricing.NewCatalog(entries)
	require.NoError(t, err)

	engine := pricing.NewEngine(catalog, orderstest.FixedRates{"TON": decimal.RequireFromString("2")}, pricing.Config{
		StableAsset: "USDT",
		Fiat:        "USD",
		Assets:      []string{"USDT", "TON", "TRX"},
		RateTimeout: time.Second,
	}, nil, logger.Nop())

	h := &harness{
		store:     orderstest.NewStore(),
		gateway:   &orderstest.Gateway{},
		notifier:  &orderstest.Notifier{},
		publisher: &orderstest.Publisher{},
		alerter:   &orderstest.Alerter{},
	}
	orderRepo, cartRepo, invoiceRepo := h.store.Repos()
	h.svc = New(
		Config{},
		orderstest.PassTx{},
		orderRepo,
		cartRepo,
		invoiceRepo,
		h.gateway,
		engine,
		h.notifier,
		h.publisher,
		h.alerter,
		inmemory.NewCache(),
		nil,
		logger.Nop(),
	)
	return h
}

func (h *harness) order(t *testing.T, id int64) domain.Order {
	t.Helper()
	o, ok := h.store.Order(id)
	require.True(t, ok, "order %d", id)
	return o
}

func sel(quantity int64) Selection {
	return Selection{
		ChatID:   chatID,
		Network:  "n",
		Service:  domain.ServiceSubscribers,
		Quantity: quantity,
		Link:     "https://example.com/p",
	}
}

func paidEvent(invoiceID, reference string) domain.PaymentEvent {
	return domain.PaymentEvent{
		InvoiceID: invoiceID,
		Status:    "paid",
		Reference: reference,
		Raw:       domain.RawPayload(`{"invoiceId":"` + invoiceID + `","status":"paid"}`),
	}
}

func TestWorkedExample_CartCheckoutAndIdempotentWebhook(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	item, err := h.svc.AddToCart(ctx, sel(15))
	require.NoError(t, err)
	assert.Equal(t, int64(15), item.Quantity)
	assert.Equal(t, "1.50", item.PriceUSD.StringFixed(2))

	invoice, err := h.svc.CheckoutCart(ctx, chatID, "USDT")
	require.NoError(t, err)
	require.Len(t, h.gateway.Requests, 1)
	assert.True(t, h.gateway.Requests[0].Amount.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, "USDT", h.gateway.Requests[0].Asset)

	require.Len(t, invoice.Orders, 1)
	orderID := invoice.Orders[0].ID
	stored := h.order(t, orderID)
	assert.Equal(t, domain.OrderStatusAwaitingPayment, stored.Status)
	assert.Equal(t, "1.50", stored.PriceUSD.StringFixed(2))
	require.NotNil(t, stored.InvoiceID)
	assert.Equal(t, invoice.InvoiceID, *stored.InvoiceID)

	event := paidEvent(invoice.InvoiceID, h.gateway.Requests[0].ReferenceToken)
	settlement, err := h.svc.ConfirmPayment(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, settlement.Outcome)
	assert.Equal(t, domain.OrderStatusPaid, h.order(t, orderID).Status)
	assert.Len(t, h.notifier.Paid, 1)
	assert.Len(t, h.publisher.Events, 1)

	again, err := h.svc.ConfirmPayment(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, again.Outcome)
	assert.Empty(t, again.Transitioned)
	assert.Equal(t, domain.OrderStatusPaid, h.order(t, orderID).Status)
	assert.Len(t, h.notifier.Paid, 1, "redelivery must not notify again")
	assert.Len(t, h.publisher.Events, 1)
}

func TestPayOrder_GatewayErrorPersistsNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(20))
	require.NoError(t, err)

	h.gateway.Err = errors.New("timeout")
	_, err = h.svc.PayOrder(ctx, chatID, order.ID, "TON")
	require.Error(t, err)
	assert.True(t, domain.IsGatewayError(err))

	assert.Empty(t, h.store.Invoices)
	stored := h.order(t, order.ID)
	assert.False(t, stored.HasInvoice())
	assert.Equal(t, domain.OrderStatusAwaitingPayment, stored.Status)
	assert.Len(t, h.alerter.Alerts, 1)

	h.gateway.Err = nil
	invoice, err := h.svc.PayOrder(ctx, chatID, order.ID, "ton")
	require.NoError(t, err)
	assert.Equal(t, "TON", invoice.Asset)
	// 2.00 USD / 2 USD за TON
	assert.Equal(t, "1", invoice.Amount.String())
	assert.Len(t, h.store.Invoices, 1)
}

func TestCheckoutCart_GatewayErrorKeepsItemsAndRetryReusesOrders(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.AddToCart(ctx, sel(10))
	require.NoError(t, err)
	_, err = h.svc.AddToCart(ctx, sel(30))
	require.NoError(t, err)

	h.gateway.Err = errors.New("503")
	_, err = h.svc.CheckoutCart(ctx, chatID, "USDT")
	require.Error(t, err)
	assert.True(t, domain.IsGatewayError(err))
	assert.Empty(t, h.store.Invoices)
	assert.Len(t, h.store.Items, 2)
	assert.Len(t, h.store.Orders, 2)

	h.gateway.Err = nil
	invoice, err := h.svc.CheckoutCart(ctx, chatID, "USDT")
	require.NoError(t, err)
	assert.Len(t, h.store.Orders, 2, "retry must reuse orders from the failed attempt")
	assert.Len(t, invoice.Orders, 2)
	assert.Empty(t, h.store.Items)

	for _, o := range h.store.Orders {
		require.True(t, o.HasInvoice())
		assert.Equal(t, invoice.InvoiceID, *o.InvoiceID)
	}
}

func TestCheckoutCart_Conservation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	for _, q := range []int64{10, 15, 123} {
		_, err := h.svc.AddToCart(ctx, sel(q))
		require.NoError(t, err)
	}
	view, err := h.svc.GetCart(ctx, chatID)
	require.NoError(t, err)
	total := view.Total
	cartID := view.Cart.ID

	invoice, err := h.svc.CheckoutCart(ctx, chatID, "USDT")
	require.NoError(t, err)
	assert.True(t, invoice.TotalUSD.Equal(total))

	_, err = h.svc.ConfirmPayment(ctx, paidEvent(invoice.InvoiceID, ""))
	require.NoError(t, err)

	sum := decimal.Zero
	paid := 0
	for _, o := range h.store.Orders {
		assert.Equal(t, domain.OrderStatusPaid, o.Status)
		sum = sum.Add(o.PriceUSD)
		paid++
	}
	assert.Equal(t, 3, paid)
	assert.True(t, sum.Equal(total), "%s != %s", sum, total)
	assert.Equal(t, domain.CartStatusPaid, h.store.Carts[cartID].Status)
	assert.Equal(t, [][]int64{domain.OrderIDs(invoice.Orders)}, h.notifier.Paid)
}

func TestCheckoutCart_Empty(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.CheckoutCart(context.Background(), chatID, "USDT")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, h.gateway.Requests)
}

func TestCheckout_UnsupportedAsset(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.AddToCart(context.Background(), sel(10))
	require.NoError(t, err)

	_, err = h.svc.CheckoutCart(context.Background(), chatID, "DOGE")
	assert.ErrorIs(t, err, domain.ErrUnsupportedAsset)
}

func TestCreateOrder_QuantityFloor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.CreateOrder(ctx, sel(9))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = h.svc.AddToCart(ctx, sel(9))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Empty(t, h.store.Orders)
	assert.Empty(t, h.store.Items)

	_, err = h.svc.CreateOrder(ctx, sel(10))
	assert.NoError(t, err)
}

func TestCreateOrder_InvalidLink(t *testing.T) {
	s := sel(10)
	s.Link = "example.com"

	_, err := newHarness(t).svc.CreateOrder(context.Background(), s)
	assert.ErrorIs(t, err, domain.ErrInvalidLink)
}

func TestCancelOrder_Guard(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)
	invoice, err := h.svc.PayOrder(ctx, chatID, order.ID, "USDT")
	require.NoError(t, err)
	_, err = h.svc.ConfirmPayment(ctx, paidEvent(invoice.InvoiceID, ""))
	require.NoError(t, err)

	_, err = h.svc.CancelOrder(ctx, chatID, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.OrderStatusPaid, h.order(t, order.ID).Status)
	assert.Empty(t, h.notifier.Cancelled)

	other, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)
	cancelled, err := h.svc.CancelOrder(ctx, chatID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, []int64{other.ID}, h.notifier.Cancelled)

	_, err = h.svc.CancelOrder(ctx, chatID, other.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelOrder_ForeignOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)

	_, err = h.svc.CancelOrder(ctx, chatID+1, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirmPayment_PaidAfterCancelIsAnomaly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)
	invoice, err := h.svc.PayOrder(ctx, chatID, order.ID, "USDT")
	require.NoError(t, err)
	_, err = h.svc.CancelOrder(ctx, chatID, order.ID)
	require.NoError(t, err)

	settlement, err := h.svc.ConfirmPayment(ctx, paidEvent(invoice.InvoiceID, ""))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnomaly, settlement.Outcome)
	assert.Equal(t, 1, settlement.Cancelled)
	assert.Equal(t, domain.OrderStatusCancelled, h.order(t, order.ID).Status)
	assert.Empty(t, h.notifier.Paid)
	assert.NotEmpty(t, h.alerter.Alerts)
}

func TestConfirmPayment_UnknownInvoice(t *testing.T) {
	h := newHarness(t)

	settlement, err := h.svc.ConfirmPayment(context.Background(), paidEvent("nope", ""))
	assert.ErrorIs(t, err, domain.ErrUnknownInvoice)
	require.NotNil(t, settlement)
	assert.Equal(t, OutcomeUnknownInvoice, settlement.Outcome)
}

func TestConfirmPayment_NotPaidStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)
	invoice, err := h.svc.PayOrder(ctx, chatID, order.ID, "USDT")
	require.NoError(t, err)

	event := paidEvent(invoice.InvoiceID, "")
	event.Status = "expired"
	settlement, err := h.svc.ConfirmPayment(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotPaid, settlement.Outcome)
	assert.Equal(t, domain.OrderStatusAwaitingPayment, h.order(t, order.ID).Status)
}

func TestConfirmPayment_StatusTokensMatchWholeWordsIgnoringCase(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)
	invoice, err := h.svc.PayOrder(ctx, chatID, order.ID, "USDT")
	require.NoError(t, err)

	for _, status := range []string{"unpaid", "incomplete", "not_confirmed"} {
		event := paidEvent(invoice.InvoiceID, "")
		event.Status = status
		settlement, err := h.svc.ConfirmPayment(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotPaid, settlement.Outcome, status)
		assert.Equal(t, domain.OrderStatusAwaitingPayment, h.order(t, order.ID).Status, status)
	}

	event := paidEvent(invoice.InvoiceID, "")
	event.Status = "PAYMENT_CONFIRMED"
	settlement, err := h.svc.ConfirmPayment(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, settlement.Outcome)
}

func TestConfirmPayment_ResolvesByReference(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)
	invoice, err := h.svc.PayOrder(ctx, chatID, order.ID, "USDT")
	require.NoError(t, err)
	reference := h.gateway.Requests[0].ReferenceToken

	// событие без invoice id, только с эхом токена
	settlement, err := h.svc.ConfirmPayment(ctx, paidEvent("", reference))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, settlement.Outcome)
	assert.Equal(t, invoice.InvoiceID, settlement.InvoiceID)
	assert.Equal(t, domain.OrderStatusPaid, h.order(t, order.ID).Status)
}

func TestConfirmPayment_ReferenceOfAnotherChatIsIgnored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)
	_, err = h.svc.PayOrder(ctx, chatID, order.ID, "USDT")
	require.NoError(t, err)

	forged := domain.NewReferenceToken(domain.ReferenceOrder, chatID+1, order.ID, time.Now()).String()
	_, err = h.svc.ConfirmPayment(ctx, paidEvent("", forged))
	assert.ErrorIs(t, err, domain.ErrUnknownInvoice)
	assert.Equal(t, domain.OrderStatusAwaitingPayment, h.order(t, order.ID).Status)
}

func TestConfirmPayment_ForgedReferenceIsIgnored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)
	invoice, err := h.svc.PayOrder(ctx, chatID, order.ID, "USDT")
	require.NoError(t, err)
	issued := h.gateway.Requests[0].ReferenceToken

	// тот же чат и заказ, но не тот токен, что ушёл в платёжный сервис
	forged := domain.ReferenceToken{Kind: domain.ReferenceOrder, ChatID: chatID, EntityID: order.ID}.String()
	require.NotEqual(t, issued, forged)

	_, err = h.svc.ConfirmPayment(ctx, paidEvent("", forged))
	assert.ErrorIs(t, err, domain.ErrUnknownInvoice)
	assert.Equal(t, domain.OrderStatusAwaitingPayment, h.order(t, order.ID).Status)

	_, err = h.svc.ConfirmPayment(ctx, paidEvent(invoice.InvoiceID, forged))
	assert.ErrorIs(t, err, domain.ErrUnknownInvoice)
	assert.Equal(t, domain.OrderStatusAwaitingPayment, h.order(t, order.ID).Status)
	assert.Empty(t, h.notifier.Paid)
}

func TestConfirmPayment_UnmappedInvoiceIsCheckedAtGateway(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)
	invoice, err := h.svc.PayOrder(ctx, chatID, order.ID, "USDT")
	require.NoError(t, err)
	reference := h.gateway.Requests[0].ReferenceToken

	// связка потерялась, остался только инвойс на заказе
	delete(h.store.Invoices, invoice.InvoiceID)

	_, err = h.svc.ConfirmPayment(ctx, paidEvent(invoice.InvoiceID, reference))
	assert.ErrorIs(t, err, domain.ErrUnknownInvoice)
	assert.Equal(t, domain.OrderStatusAwaitingPayment, h.order(t, order.ID).Status)

	h.gateway.SetStatus(invoice.InvoiceID, domain.InvoiceStatusPaid)
	settlement, err := h.svc.ConfirmPayment(ctx, paidEvent(invoice.InvoiceID, reference))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, settlement.Outcome)
	assert.Equal(t, domain.OrderStatusPaid, h.order(t, order.ID).Status)
}

func TestSetStatus_AdminOverride(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order, err := h.svc.CreateOrder(ctx, sel(10))
	require.NoError(t, err)

	paid, err := h.svc.SetStatus(ctx, order.ID, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, paid.Status)
	assert.Len(t, h.notifier.Paid, 1)

	_, err = h.svc.SetStatus(ctx, order.ID, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = h.svc.SetStatus(ctx, order.ID, domain.OrderStatusAwaitingPayment)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.AddToCart(ctx, sel(10))
	require.NoError(t, err)
	view, err := h.svc.GetCart(ctx, chatID)
	require.NoError(t, err)
	cartID := view.Cart.ID

	require.NoError(t, h.svc.ClearCart(ctx, chatID))
	assert.Empty(t, h.store.Items)
	assert.Equal(t, domain.CartStatusCancelled, h.store.Carts[cartID].Status)

	view, err = h.svc.GetCart(ctx, chatID)
	require.NoError(t, err)
	assert.True(t, view.IsEmpty())
}

func TestClearCart_SettlesCartPaidWhileItemsWereAdded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.AddToCart(ctx, sel(10))
	require.NoError(t, err)
	invoice, err := h.svc.CheckoutCart(ctx, chatID, "USDT")
	require.NoError(t, err)
	require.NotNil(t, invoice.CartID)
	cartID := *invoice.CartID

	// новая позиция в той же корзине до прихода оплаты
	_, err = h.svc.AddToCart(ctx, sel(20))
	require.NoError(t, err)

	settlement, err := h.svc.ConfirmPayment(ctx, paidEvent(invoice.InvoiceID, h.gateway.Requests[0].ReferenceToken))
	require.NoError(t, err)
	require.Equal(t, OutcomePaid, settlement.Outcome)
	assert.Equal(t, domain.CartStatusOpen, h.store.Carts[cartID].Status)

	require.NoError(t, h.svc.ClearCart(ctx, chatID))
	assert.Equal(t, domain.CartStatusPaid, h.store.Carts[cartID].Status)

	view, err := h.svc.GetCart(ctx, chatID)
	require.NoError(t, err)
	assert.True(t, view.IsEmpty())
}

func TestClearCart_KeepsCartWithUnpaidInvoiceOpen(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.AddToCart(ctx, sel(10))
	require.NoError(t, err)
	invoice, err := h.svc.CheckoutCart(ctx, chatID, "USDT")
	require.NoError(t, err)
	require.NotNil(t, invoice.CartID)
	cartID := *invoice.CartID

	_, err = h.svc.AddToCart(ctx, sel(20))
	require.NoError(t, err)
	require.NoError(t, h.svc.ClearCart(ctx, chatID))
	assert.Equal(t, domain.CartStatusOpen, h.store.Carts[cartID].Status)

	_, err = h.svc.ConfirmPayment(ctx, paidEvent(invoice.InvoiceID, h.gateway.Requests[0].ReferenceToken))
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusPaid, h.store.Carts[cartID].Status)
}

func TestRemoveFromCart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	item, err := h.svc.AddToCart(ctx, sel(10))
	require.NoError(t, err)

	assert.ErrorIs(t, h.svc.RemoveFromCart(ctx, chatID+1, item.ID), domain.ErrNotFound)
	require.NoError(t, h.svc.RemoveFromCart(ctx, chatID, item.ID))
	assert.ErrorIs(t, h.svc.RemoveFromCart(ctx, chatID, item.ID), domain.ErrNotFound)
}
