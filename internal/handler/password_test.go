package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/weatherwear/weatherwear/internal/model"
	"github.com/weatherwear/weatherwear/internal/repository"
	"github.com/weatherwear/weatherwear/internal/utils"
)

// multiByte is 40 characters but 80 bytes in UTF-8: within the max=72 tag,
// beyond what bcrypt accepts.
var multiByte = strings.Repeat("é", 40)

func userRepo(t *testing.T) (*repository.UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return repository.NewUserRepo(db, bcrypt.MinCost), mock
}

func TestSignup_MultiByteLongPassword(t *testing.T) {
	repo, _ := userRepo(t)
	sessions := &fakeSessions{}
	e := newEcho()
	h := NewAuthHandler(repo, sessions, time.Hour, false, nil)
	e.POST("/signup", h.Signup)

	rec := do(e, http.MethodPost, "/signup", echo.MIMEApplicationForm, url.Values{
		"name": {"Ann"}, "email": {"ann@example.com"}, "password": {multiByte}, "location": {"Oslo"},
	}.Encode())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"password must be at most 72 bytes"}`, rec.Body.String())
	assert.Empty(t, sessions.created)
}

func TestProfileUpdate_MultiByteLongPassword(t *testing.T) {
	repo, mock := userRepo(t)
	current, err := utils.HashPassword("old-password", bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT password_hash FROM users WHERE id=\? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow(current))
	mock.ExpectRollback()

	e := newEcho()
	h := NewProfileHandler(repo, NewAuthHandler(repo, &fakeSessions{}, time.Hour, false, nil), nil)
	e.POST("/api/profile", h.Update, asUser(model.User{ID: 3}))

	body, err := json.Marshal(map[string]string{
		"name":             "Cy",
		"location":         "Rome",
		"current_password": "old-password",
		"new_password":     multiByte,
		"confirm_password": multiByte,
	})
	require.NoError(t, err)

	rec := do(e, http.MethodPost, "/api/profile", echo.MIMEApplicationJSON, string(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at most 72 bytes")
}
