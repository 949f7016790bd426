package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionUserCols = []string{
	"s.id", "s.user_id", "s.created_at",
	"u.id", "u.name", "u.email", "u.password_hash", "u.location", "u.created_at",
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestSessionRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 500, time.UTC)
	repo := NewSessionRepo(db, 0)
	repo.Now = fixedClock(now)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions (id, user_id, created_at) VALUES (?,?,?)")).
		WithArgs(sqlmock.AnyArg(), uint64(9), now.Truncate(time.Second)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s, err := repo.Create(context.Background(), 9)
	require.NoError(t, err)
	assert.Len(t, s.ID, 64)
	assert.Equal(t, uint64(9), s.UserID)
	assert.Equal(t, DefaultSessionTTL, repo.TTL)
}

func TestSessionRepo_Resolve_TTLBoundary(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(sessionUserCols).
			AddRow("tok", 1, created, 1, "Eve", "eve@example.com", "h", "Rome", created)
	}

	t.Run("valid at exactly ttl", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewSessionRepo(db, 24*time.Hour)
		repo.Now = fixedClock(created.Add(24 * time.Hour))
		mock.ExpectQuery("FROM sessions s").WithArgs("tok").WillReturnRows(row())

		u, err := repo.Resolve(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "Eve", u.Name)
	})

	t.Run("expired after ttl is deleted", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewSessionRepo(db, 24*time.Hour)
		repo.Now = fixedClock(created.Add(24*time.Hour + time.Second))
		mock.ExpectQuery("FROM sessions s").WithArgs("tok").WillReturnRows(row())
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id=?")).
			WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := repo.Resolve(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("unknown token", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewSessionRepo(db, time.Hour)
		mock.ExpectQuery("FROM sessions s").WillReturnError(sql.ErrNoRows)

		_, err := repo.Resolve(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("empty token skips the query", func(t *testing.T) {
		db, _ := newMock(t)
		repo := NewSessionRepo(db, time.Hour)
		_, err := repo.Resolve(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})
}

func TestSessionRepo_DeleteIsIdempotent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSessionRepo(db, time.Hour)
	mock.ExpectExec("DELETE FROM sessions").WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "gone"))
}

func TestSessionRepo_DeleteExpired(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	repo := NewSessionRepo(db, 24*time.Hour)
	repo.Now = fixedClock(now)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE created_at < ?")).
		WithArgs(now.Add(-24 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
