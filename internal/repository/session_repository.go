package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weatherwear/weatherwear/internal/model"
	"github.com/weatherwear/weatherwear/internal/utils"
)

// DefaultSessionTTL is the session lifetime used when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionRepo persists opaque session tokens.  Expiry is evaluated lazily
// when a token is resolved; there is no background sweep.
type SessionRepo struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewSessionRepo(db *sql.DB, ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRepo{DB: db, TTL: ttl, Now: func() time.Time { return time.Now().UTC() }}
}

// Create issues a new random token for the user and stores it.
func (r *SessionRepo) Create(ctx context.Context, userID uint64) (model.Session, error) {
	token, err := utils.NewSessionToken()
	if err != nil {
		return model.Session{}, err
	}
	s := model.Session{ID: token, UserID: userID, CreatedAt: r.Now().Truncate(time.Second)}
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at) VALUES (?,?,?)",
		s.ID, s.UserID, s.CreatedAt); err != nil {
		return model.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// Resolve returns the user owning token.  Unknown and expired tokens yield
// ErrSessionInvalid; expired rows are removed on the way out.
func (r *SessionRepo) Resolve(ctx context.Context, token string) (model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.User{}, ErrSessionInvalid
	}
	var (
		s model.Session
		u model.User
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT s.id, s.user_id, s.created_at,
		        u.id, u.name, u.email, u.password_hash, u.location, u.created_at
		   FROM sessions s
		   JOIN users u ON u.id = s.user_id
		  WHERE s.id = ? LIMIT 1`, token).
		Scan(&s.ID, &s.UserID, &s.CreatedAt,
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Location, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrSessionInvalid
	}
	if err != nil {
		return model.User{}, fmt.Errorf("resolve session: %w", err)
	}
	if s.Expired(r.Now(), r.TTL) {
		_ = r.Delete(ctx, token)
		return model.User{}, ErrSessionInvalid
	}
	return u, nil
}

// Delete removes a session.  Deleting an unknown token is not an error.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE id=?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session older than the TTL and returns the
// number of rows removed.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE created_at < ?", r.Now().Add(-r.TTL))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
