package repository

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testCost keeps bcrypt fast in tests.
const testCost = bcrypt.MinCost

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

// bcryptOf matches a bcrypt hash of plain.
type bcryptOf string

func (p bcryptOf) Match(v driver.Value) bool {
	var h []byte
	switch x := v.(type) {
	case string:
		h = []byte(x)
	case []byte:
		h = x
	default:
		return false
	}
	return string(h) != string(p) && bcrypt.CompareHashAndPassword(h, []byte(p)) == nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), testCost)
	require.NoError(t, err)
	return string(h)
}
