package supportRepo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/N1seb/Render/internal/adapters/secondary/storage/pg"
	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requestRowColumns = []string{"id", "chat_id", "text", "status", "created_at", "updated_at"}

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	return New(pg.NewDB(sqlx.NewDb(raw, "sqlmock")), logger.Nop()).(*Repository), mock
}

func TestCreateRequest(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO support_requests`).
		WithArgs(int64(7), "не пришли подписчики", "open").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(3), now, now))

	request := &domain.SupportRequest{ChatID: 7, Text: "не пришли подписчики"}
	require.NoError(t, repo.CreateRequest(context.Background(), request))
	assert.Equal(t, int64(3), request.ID)
	assert.Equal(t, domain.SupportStatusOpen, request.Status)
}

func TestGetOpenByChat_None(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM support_requests WHERE chat_id = \$1 AND status = \$2`).
		WithArgs(int64(7), "open").
		WillReturnRows(sqlmock.NewRows(requestRowColumns))

	_, err := repo.GetOpenByChat(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOpen(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM support_requests`).
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT .+ FROM support_requests WHERE status = \$1 ORDER BY id LIMIT \$2 OFFSET \$3`).
		WithArgs("open", 5, 10).
		WillReturnRows(sqlmock.NewRows(requestRowColumns).
			AddRow(int64(11), int64(7), "a", "open", now, now).
			AddRow(int64(12), int64(8), "b", "open", now, now))

	requests, total, err := repo.ListOpen(context.Background(), 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, requests, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOpen_Empty(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	requests, total, err := repo.ListOpen(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, requests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose_AlreadyClosed(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectExec(`UPDATE support_requests SET status = \$1`).
		WithArgs("closed", int64(3), "open").
		WillReturnResult(sqlmock.NewResult(0, 0))

	closed, err := repo.Close(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, closed)
}

func TestAddMessage_DefaultsToText(t *testing.T) {
	repo, mock := newTestRepo(t)
	text := "здравствуйте"

	mock.ExpectQuery(`INSERT INTO support_messages`).
		WithArgs(int64(3), int64(7), nil, "user_to_operator", "text", text, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

	message := &domain.SupportMessage{
		RequestID:  3,
		FromChatID: 7,
		Direction:  domain.DirectionUserToOperator,
		Text:       &text,
	}
	require.NoError(t, repo.AddMessage(context.Background(), message))
	assert.Equal(t, domain.MessageKindText, message.Kind)
}
