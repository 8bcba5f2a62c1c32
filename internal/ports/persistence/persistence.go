package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Querier общий набор запросов для соединения и транзакции
type Querier interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) error
	ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// Transaction открытая транзакция
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// Persistence соединение с БД. Внутри WithTransaction транзакция лежит в контексте,
// репозитории берут её через Conn
type Persistence interface {
	Querier
	BeginTx(ctx context.Context) (Transaction, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Conn(ctx context.Context) Querier
	Ping(ctx context.Context) error
}

// Transactor то, что нужно use case'ам для атомарных переходов
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// ContextWithTx кладёт транзакцию в контекст
func ContextWithTx(ctx context.Context, tx Transaction) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext достаёт транзакцию из контекста
func TxFromContext(ctx context.Context) (Transaction, bool) {
	tx, ok := ctx.Value(txKey{}).(Transaction)
	return tx, ok
}
