package orderRepo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/N1seb/Render/internal/adapters/secondary/storage/pg"
	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderRowColumns = []string{
	"id", "chat_id", "network", "service", "quantity", "price_usd", "asset", "link",
	"status", "invoice_id", "pay_url", "cart_id", "created_at", "updated_at",
}

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	db := pg.NewDB(sqlx.NewDb(raw, "sqlmock"))
	return New(db, logger.Nop()).(*Repository), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(int64(7), "tg", "subscribers", int64(100), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"https://t.me/x", "awaiting_payment", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	order := &domain.Order{
		ChatID:   7,
		Network:  "tg",
		Service:  "subscribers",
		Quantity: 100,
		PriceUSD: decimal.RequireFromString("1.00"),
		Link:     "https://t.me/x",
	}
	require.NoError(t, repo.Create(context.Background(), order))

	assert.Equal(t, int64(11), order.ID)
	assert.Equal(t, domain.OrderStatusAwaitingPayment, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM orders WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(orderRowColumns))

	_, err := repo.GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_ScansOrder(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM orders WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow(int64(5), int64(7), "ig", "likes", int64(250), "2.50", "TON", "https://instagram.com/p/1",
				"paid", "IV9", "https://pay/IV9", int64(3), now, now))

	order, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, domain.Network("ig"), order.Network)
	assert.True(t, order.PriceUSD.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	require.NotNil(t, order.InvoiceID)
	assert.Equal(t, "IV9", *order.InvoiceID)
	require.NotNil(t, order.CartID)
	assert.Equal(t, int64(3), *order.CartID)
}

func TestMarkPaid_OnlyAwaiting(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE orders SET status = \$1`).
		WithArgs("paid", "{1,2}", "awaiting_payment").
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow(int64(1), int64(7), "tg", "views", int64(1000), "0.50", "USDT", "https://t.me/x/1",
				"paid", "IV1", "https://pay/IV1", nil, now, now))

	orders, err := repo.MarkPaid(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1), orders[0].ID)
	assert.Nil(t, orders[0].CartID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid_Empty(t *testing.T) {
	repo, mock := newTestRepo(t)

	orders, err := repo.MarkPaid(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachInvoice_PartialIsRejected(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE orders SET invoice_id = \$1`).
		WithArgs("IV1", "https://pay/IV1", "USDT", "{1,2}", "awaiting_payment").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AttachInvoice(context.Background(), []int64{1, 2}, "IV1", "https://pay/IV1", "USDT")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE orders SET status = \$1`).
		WithArgs("cancelled", int64(4), "awaiting_payment").
		WillReturnResult(sqlmock.NewResult(0, 0))

	cancelled, err := repo.Cancel(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueriesRunInsideTransaction(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE orders SET status = \$1`).
		WithArgs("cancelled", int64(4), "awaiting_payment").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.db.WithTransaction(context.Background(), func(ctx context.Context) error {
		ok, err := repo.Cancel(ctx, 4)
		assert.True(t, ok)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInt64Array(t *testing.T) {
	assert.Equal(t, "{}", int64Array(nil))
	assert.Equal(t, "{3,1,2}", int64Array([]int64{3, 1, 2}))
}
