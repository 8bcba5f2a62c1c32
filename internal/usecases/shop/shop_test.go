package shop

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/N1seb/Render/internal/adapters/secondary/storage/inmemory"
	"github.com/N1seb/Render/internal/adapters/secondary/telegram/telegramtest"
	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/N1seb/Render/internal/usecases/admin"
	"github.com/N1seb/Render/internal/usecases/orders"
	"github.com/N1seb/Render/internal/usecases/orders/orderstest"
	"github.com/N1seb/Render/internal/usecases/pricing"
	"github.com/N1seb/Render/internal/usecases/session"
	"github.com/N1seb/Render/internal/usecases/support"
	"github.com/N1seb/Render/internal/usecases/support/supporttest"
	"github.com/N1seb/Render/internal/usecases/texts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userID     = int64(7)
	operatorID = int64(800)
	adminID    = int64(900)
)

type memUsers struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

func (m *memUsers) Upsert(_ context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[user.ChatID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else {
		user.CreatedAt = time.Now()
	}
	m.users[user.ChatID] = user
	return user, nil
}

func (m *memUsers) GetByChatID(_ context.Context, chatID int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[chatID]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

type fakeQR struct {
	invoices []string
}

func (q *fakeQR) SendPaymentQR(_ context.Context, _ int64, invoiceID, _ string) error {
	q.invoices = append(q.invoices, invoiceID)
	return nil
}

type harness struct {
	svc      *Service
	gateway  *telegramtest.Gateway
	store    *orderstest.Store
	payments *orderstest.Gateway
	notifier *orderstest.Notifier
	requests *supporttest.Requests
	users    *memUsers
	qr       *fakeQR
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	catalog, err := pricing.NewCatalog(pricing.DefaultEntries())
	require.NoError(t, err)
	engine := pricing.NewEngine(catalog, orderstest.FixedRates{"TON": decimal.RequireFromString("2")}, pricing.Config{
		StableAsset: "USDT",
		Fiat:        "USD",
		Assets:      []string{"USDT", "TON"},
		RateTimeout: time.Second,
	}, nil, logger.Nop())

	h := &harness{
		gateway:  telegramtest.NewGateway(),
		store:    orderstest.NewStore(),
		payments: &orderstest.Gateway{},
		notifier: &orderstest.Notifier{},
		requests: supporttest.NewRequests(),
		users:    &memUsers{users: map[int64]*domain.User{}},
		qr:       &fakeQR{},
	}

	orderRepo, cartRepo, invoiceRepo := h.store.Repos()
	ordersService := orders.New(orders.Config{}, orderstest.PassTx{}, orderRepo, cartRepo, invoiceRepo,
		h.payments, engine, h.notifier, nil, &orderstest.Alerter{}, inmemory.NewCache(), nil, logger.Nop())

	operators := supporttest.NewOperators(domain.Operator{ChatID: operatorID, DisplayName: "op"})
	supportService := support.New(support.Config{PageSize: 5}, h.requests, operators, h.gateway, []int64{adminID}, logger.Nop())
	adminService := admin.New(admin.Config{AdminIDs: []int64{adminID}}, operators, h.users, ordersService, logger.Nop())

	h.svc = New(
		Config{SupportUsernames: []string{"@help_desk"}},
		h.users,
		ordersService,
		supportService,
		adminService,
		session.NewManager(session.Config{}, logger.Nop()),
		h.gateway,
		h.qr,
		logger.Nop(),
	)
	return h
}

func user(chatID int64) *domain.User {
	return &domain.User{ChatID: chatID}
}

func (h *harness) command(t *testing.T, chatID int64, command, args string) telegramtest.Outbound {
	t.Helper()
	require.NoError(t, h.svc.HandleCommand(context.Background(), user(chatID), command, args))
	return h.last(t, chatID)
}

func (h *harness) text(t *testing.T, chatID int64, text string) telegramtest.Outbound {
	t.Helper()
	msg := &domain.Message{Chat: &domain.Chat{ID: chatID, Type: "private"}, Text: &text}
	require.NoError(t, h.svc.HandleMessage(context.Background(), user(chatID), msg))
	return h.last(t, chatID)
}

func (h *harness) press(t *testing.T, chatID int64, data string) telegramtest.Outbound {
	t.Helper()
	callback := &domain.CallbackQuery{ID: "cb", Data: &data}
	require.NoError(t, h.svc.HandleCallback(context.Background(), user(chatID), callback))
	return h.last(t, chatID)
}

func (h *harness) last(t *testing.T, chatID int64) telegramtest.Outbound {
	t.Helper()
	out, ok := h.gateway.Last(chatID)
	require.True(t, ok, "no message to chat %d", chatID)
	return out
}

func (h *harness) state(chatID int64) session.State {
	return h.svc.Sessions.Get(chatID).State
}

// selectService проводит диалог до выбора buy/add
func (h *harness) selectService(t *testing.T, chatID int64) {
	t.Helper()
	h.press(t, chatID, "svc:tg:sub")
	h.text(t, chatID, "1000")
	out := h.text(t, chatID, "https://t.me/channel")
	require.Equal(t, []string{"buy", "add", "x"}, out.Buttons())
}

func TestStart_ShowsMainMenu(t *testing.T) {
	h := newHarness(t)

	out := h.command(t, userID, "start", "")
	assert.Equal(t, texts.Start, out.Text)
	buttons := out.Buttons()
	assert.Equal(t, []string{"net:tg", "net:ig", "net:tt", "net:yt"}, buttons[:4])
	assert.Contains(t, buttons, "cart")
	assert.Contains(t, buttons, "prof")
	assert.Contains(t, buttons, "sup")
	assert.Contains(t, buttons, "https://t.me/help_desk")
}

func TestNetwork_EditsMenuMessage(t *testing.T) {
	h := newHarness(t)
	data := "net:ig"
	callback := &domain.CallbackQuery{ID: "cb", Data: &data, Message: &domain.Message{MessageID: 55}}

	require.NoError(t, h.svc.HandleCallback(context.Background(), user(userID), callback))
	out := h.last(t, userID)
	assert.Equal(t, int64(55), out.EditedID)
	assert.Contains(t, out.Buttons(), "svc:ig:com")
	assert.Equal(t, []string{"cb:"}, h.gateway.Answers())
}

func TestBuyNow_FullFlow(t *testing.T) {
	h := newHarness(t)

	out := h.press(t, userID, "svc:tg:sub")
	assert.Contains(t, out.Text, "минимум 100")
	assert.Equal(t, session.StateAwaitingQuantity, h.state(userID))

	out = h.text(t, userID, "50")
	assert.Equal(t, texts.FormatInvalidQuantity(100), out.Text)
	assert.Equal(t, session.StateAwaitingQuantity, h.state(userID), "invalid quantity keeps the step")

	out = h.text(t, userID, "много")
	assert.Equal(t, texts.FormatInvalidQuantity(100), out.Text)

	out = h.text(t, userID, "1000")
	assert.Equal(t, texts.AskLink, out.Text)
	assert.Equal(t, session.StateAwaitingLink, h.state(userID))

	out = h.text(t, userID, "t.me/channel")
	assert.Equal(t, texts.InvalidLink, out.Text)
	assert.Equal(t, session.StateAwaitingLink, h.state(userID))

	out = h.text(t, userID, "https://t.me/channel")
	assert.Contains(t, out.Text, "$2.20")
	assert.Equal(t, session.StateAwaitingDecision, h.state(userID))

	out = h.press(t, userID, "buy")
	assert.Equal(t, texts.ChooseAsset, out.Text)
	assert.Equal(t, []string{"pay:1:USDT", "pay:1:TON", "x"}, out.Buttons())
	assert.True(t, h.svc.Sessions.Get(userID).IsIdle())

	out = h.press(t, userID, "pay:1:USDT")
	assert.Contains(t, out.Text, "заказ #1")
	assert.Contains(t, out.Text, "USDT")
	assert.Equal(t, []string{"https://pay.example/IV1"}, out.Buttons())
	assert.Equal(t, []string{"IV1"}, h.qr.invoices)

	order, ok := h.store.Order(1)
	require.True(t, ok)
	require.NotNil(t, order.InvoiceID)
	assert.Equal(t, "IV1", *order.InvoiceID)
}

func TestPay_GatewayFailure(t *testing.T) {
	h := newHarness(t)
	h.selectService(t, userID)
	h.press(t, userID, "buy")

	h.payments.Err = errors.New("connection reset")
	out := h.press(t, userID, "pay:1:USDT")
	assert.Equal(t, texts.InvoiceFailed, out.Text)
	assert.Empty(t, h.store.Invoices)
	assert.Empty(t, h.qr.invoices)
}

func TestPay_UnsupportedAsset(t *testing.T) {
	h := newHarness(t)
	h.selectService(t, userID)
	h.press(t, userID, "buy")

	out := h.press(t, userID, "pay:1:DOGE")
	assert.Equal(t, texts.UnsupportedAsset, out.Text)
}

func TestPay_ForeignOrder(t *testing.T) {
	h := newHarness(t)
	h.selectService(t, userID)
	h.press(t, userID, "buy")

	out := h.press(t, 12345, "pay:1:USDT")
	assert.Equal(t, texts.OrderNotFound, out.Text)
}

func TestCart_AddCheckout(t *testing.T) {
	h := newHarness(t)

	h.selectService(t, userID)
	out := h.press(t, userID, "add")
	assert.Equal(t, texts.FormatAddedToCart(1, decimal.RequireFromString("2.20")), out.Text)

	h.selectService(t, userID)
	h.press(t, userID, "add")

	out = h.press(t, userID, "cart")
	assert.Contains(t, out.Text, "$4.40")
	buttons := out.Buttons()
	assert.Equal(t, "crm:2", buttons[0])
	assert.Equal(t, "crm:3", buttons[1])
	assert.Contains(t, buttons, "chk")

	out = h.press(t, userID, "chk")
	assert.Equal(t, []string{"cpay:USDT", "cpay:TON", "x"}, out.Buttons())

	out = h.press(t, userID, "cpay:TON")
	assert.Contains(t, out.Text, "заказы #4, #5")
	require.Len(t, h.payments.Requests, 1)
	assert.True(t, h.payments.Requests[0].Amount.Equal(decimal.RequireFromString("2.2")))
	assert.Empty(t, h.store.Items)

	out = h.press(t, userID, "cart")
	assert.Equal(t, texts.CartEmpty, out.Text)
}

func TestCart_RemoveAndClear(t *testing.T) {
	h := newHarness(t)
	h.selectService(t, userID)
	h.press(t, userID, "add")
	h.selectService(t, userID)
	h.press(t, userID, "add")

	out := h.press(t, userID, "crm:2")
	assert.Contains(t, out.Text, "$2.20")
	assert.Len(t, h.store.Items, 1)

	out = h.press(t, userID, "crm:2")
	assert.Equal(t, texts.ItemNotFound, out.Text)

	out = h.press(t, userID, "cclr")
	assert.Equal(t, texts.CartCleared, out.Text)
	assert.Empty(t, h.store.Items)
}

func TestCheckout_EmptyCart(t *testing.T) {
	h := newHarness(t)

	out := h.press(t, userID, "cpay:USDT")
	assert.Equal(t, texts.CartEmpty, out.Text)
	assert.Empty(t, h.payments.Requests)
}

func TestStaleDecisionButton(t *testing.T) {
	h := newHarness(t)

	out := h.press(t, userID, "buy")
	assert.Equal(t, texts.ButtonExpired, out.Text)
	assert.Empty(t, h.store.Orders)
}

func TestInvalidCallbackData(t *testing.T) {
	h := newHarness(t)
	data := "pay:1"

	require.NoError(t, h.svc.HandleCallback(context.Background(), user(userID), &domain.CallbackQuery{ID: "q1", Data: &data}))
	assert.Equal(t, []string{"q1:" + texts.ButtonExpired}, h.gateway.Answers())
	assert.Empty(t, h.gateway.To(userID))
}

func TestCancel(t *testing.T) {
	h := newHarness(t)

	out := h.command(t, userID, "cancel", "")
	assert.Equal(t, texts.NothingToCancel, out.Text)

	h.press(t, userID, "svc:tg:view")
	out = h.command(t, userID, "cancel", "")
	assert.Equal(t, texts.Cancelled, out.Text)
	assert.True(t, h.svc.Sessions.Get(userID).IsIdle())

	h.press(t, userID, "svc:tg:view")
	out = h.press(t, userID, "x")
	assert.Equal(t, texts.Cancelled, out.Text)
	assert.True(t, h.svc.Sessions.Get(userID).IsIdle())
}

func TestStartResetsFlow(t *testing.T) {
	h := newHarness(t)
	h.press(t, userID, "svc:tg:view")

	h.command(t, userID, "start", "")
	assert.True(t, h.svc.Sessions.Get(userID).IsIdle())
}

func TestIdleTextAndUnknownCommand(t *testing.T) {
	h := newHarness(t)

	out := h.text(t, userID, "привет")
	assert.Equal(t, texts.UnknownInput, out.Text)
	assert.NotEmpty(t, out.Keyboard)

	out = h.command(t, userID, "foo", "")
	assert.Equal(t, texts.FormatUnknownCommand("foo"), out.Text)
}

func TestProfile_CancelOrder(t *testing.T) {
	h := newHarness(t)

	out := h.press(t, userID, "prof")
	assert.Equal(t, texts.NoOrders, out.Text)

	h.selectService(t, userID)
	h.press(t, userID, "buy")
	h.press(t, userID, "pay:1:USDT")

	out = h.press(t, userID, "prof")
	assert.Contains(t, out.Text, "#1")
	assert.Equal(t, []string{"https://pay.example/IV1", "ocnl:1", "menu"}, out.Buttons())

	out = h.press(t, userID, "ocnl:1")
	assert.Equal(t, texts.FormatOrderCancelled(1), out.Text)
	assert.Equal(t, []int64{1}, h.notifier.Cancelled)

	out = h.press(t, userID, "ocnl:1")
	assert.Equal(t, texts.FormatCannotCancel(1), out.Text)

	out = h.press(t, userID, "prof")
	assert.Equal(t, []string{"menu"}, out.Buttons())
}

func TestSupport_RoundTrip(t *testing.T) {
	h := newHarness(t)

	out := h.press(t, userID, "sup")
	assert.Equal(t, texts.SupportPrompt, out.Text)

	sticker := &domain.Message{Chat: &domain.Chat{ID: userID}}
	require.NoError(t, h.svc.HandleMessage(context.Background(), user(userID), sticker))
	assert.Equal(t, texts.SupportUnsupportedContent, h.last(t, userID).Text)
	assert.Equal(t, session.StateAwaitingSupportMessage, h.state(userID))

	out = h.text(t, userID, "заказ не пришёл")
	assert.Equal(t, texts.FormatSupportAccepted(1), out.Text)
	assert.True(t, h.svc.Sessions.Get(userID).IsIdle())

	for _, op := range []int64{operatorID, adminID} {
		got := h.last(t, op)
		assert.Contains(t, got.Text, "заказ не пришёл")
		assert.Equal(t, []string{"rep:1", "cls:1"}, got.Buttons())
	}

	out = h.press(t, 555, "rep:1")
	assert.Equal(t, texts.NotOperator, out.Text)

	out = h.press(t, operatorID, "rep:1")
	assert.Equal(t, texts.FormatReplyPrompt(1), out.Text)

	out = h.text(t, operatorID, "уже проверяем")
	assert.Equal(t, texts.ReplySent, out.Text)
	assert.Equal(t, texts.FormatReplyForUser(1, "уже проверяем"), h.last(t, userID).Text)

	out = h.press(t, adminID, "cls:1")
	assert.Equal(t, texts.FormatRequestClosed(1), out.Text)
	assert.Equal(t, texts.FormatRequestClosedForUser(1), h.last(t, userID).Text)

	out = h.press(t, operatorID, "rep:1")
	assert.Equal(t, texts.RequestAlreadyClosed, out.Text)

	out = h.press(t, operatorID, "cls:1")
	assert.Equal(t, texts.RequestAlreadyClosed, out.Text)
}

func TestSupport_Attachment(t *testing.T) {
	h := newHarness(t)
	h.press(t, userID, "sup")

	caption := "скрин"
	photo := &domain.Message{
		Chat:    &domain.Chat{ID: userID},
		Caption: &caption,
		Photo:   []domain.PhotoSize{{FileID: "small"}, {FileID: "big"}},
	}
	require.NoError(t, h.svc.HandleMessage(context.Background(), user(userID), photo))

	got := h.gateway.To(operatorID)
	require.Len(t, got, 2)
	assert.Equal(t, domain.MessageKindPhoto, got[1].Kind)
	assert.Equal(t, "big", got[1].FileID)

	messages := h.requests.Messages(1)
	require.Len(t, messages, 1)
	require.NotNil(t, messages[0].Text)
	assert.Equal(t, "скрин", *messages[0].Text)
}

func TestTickets(t *testing.T) {
	h := newHarness(t)

	out := h.command(t, operatorID, "tickets", "")
	assert.Equal(t, texts.TicketsEmpty, out.Text)

	for chat := int64(1); chat <= 6; chat++ {
		h.press(t, chat, "sup")
		h.text(t, chat, "вопрос")
	}

	out = h.command(t, operatorID, "tickets", "")
	assert.True(t, strings.HasPrefix(out.Text, "Открытые обращения (1-5 из 6)"))
	buttons := out.Buttons()
	assert.Equal(t, "rep:1", buttons[0])
	assert.Equal(t, "tix:1", buttons[len(buttons)-1])

	out = h.press(t, operatorID, "tix:1")
	assert.Equal(t, []string{"rep:6", "cls:6", "tix:0"}, out.Buttons())

	out = h.command(t, operatorID, "tickets", "abc")
	assert.Equal(t, texts.TicketsUsage, out.Text)

	out = h.command(t, userID, "tickets", "")
	assert.Equal(t, texts.NotOperator, out.Text)
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t)

	out := h.command(t, userID, "addop", "555 Bob")
	assert.Equal(t, texts.NotAdmin, out.Text)

	out = h.command(t, adminID, "addop", "")
	assert.Equal(t, texts.AddOpUsage, out.Text)

	out = h.command(t, adminID, "addop", "555 Bob Smith")
	assert.Equal(t, texts.FormatOperatorAdded(555, true), out.Text)

	out = h.command(t, adminID, "ops", "")
	assert.Contains(t, out.Text, "555 Bob Smith")

	out = h.command(t, adminID, "delop", "555")
	assert.Equal(t, texts.FormatOperatorRemoved(555, true), out.Text)

	out = h.command(t, adminID, "delop", "x")
	assert.Equal(t, texts.DelOpUsage, out.Text)
}

func TestAdminOrders_ManualStatus(t *testing.T) {
	h := newHarness(t)

	out := h.command(t, adminID, "orders", "")
	assert.Equal(t, texts.NoRecentOrders, out.Text)

	h.selectService(t, userID)
	h.press(t, userID, "buy")

	out = h.command(t, adminID, "orders", "5")
	assert.Contains(t, out.Text, "#1")
	assert.Equal(t, []string{"apd:1", "acn:1"}, out.Buttons())

	out = h.press(t, userID, "apd:1")
	assert.Equal(t, texts.NotAdmin, out.Text)

	out = h.press(t, adminID, "apd:1")
	assert.Contains(t, out.Text, "оплачен")
	assert.Equal(t, [][]int64{{1}}, h.notifier.Paid)

	out = h.press(t, adminID, "acn:1")
	assert.Equal(t, texts.OrderNotPayable, out.Text)

	out = h.command(t, userID, "orders", "")
	assert.Contains(t, out.Text, "Ваши заказы")
}

func TestGetOrCreateUser(t *testing.T) {
	h := newHarness(t)
	username := "alice"

	u, err := h.svc.GetOrCreateUser(context.Background(),
		&domain.TelegramUser{ID: userID, FirstName: "Alice", Username: &username},
		&domain.Chat{ID: userID, Type: "private"})
	require.NoError(t, err)
	assert.Equal(t, "@alice", u.DisplayName())

	_, err = h.svc.GetOrCreateUser(context.Background(), nil, nil)
	assert.Error(t, err)
}
