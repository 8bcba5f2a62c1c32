package userRepo

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

func newTestRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	return New(pg.NewDB(sqlx.NewDb(raw, "sqlmock")), logger.Nop()).(*Repository), mock
}

func TestUpsert(t *testing.T) {
	repo, mock := newTestRepo(t)
	username := "alice"

	mock.ExpectQuery(`INSERT INTO users .+ ON CONFLICT \(chat_id\) DO UPDATE`).
		WithArgs(int64(7), username, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"chat_id", "username", "first_name", "last_name", "created_at"}).
			AddRow(int64(7), username, "Alice", nil, time.Now()))

	user, err := repo.Upsert(context.Background(), &domain.User{ChatID: 7, Username: &username})
	require.NoError(t, err)
	require.NotNil(t, user.FirstName)
	assert.Equal(t, "Alice", *user.FirstName, "stored name is kept when the update carries none")
	assert.Equal(t, "@alice", user.DisplayName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByChatID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE chat_id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"chat_id"}))

	_, err := repo.GetByChatID(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
