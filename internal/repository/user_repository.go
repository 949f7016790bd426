package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/weatherwear/weatherwear/internal/model"
	"github.com/weatherwear/weatherwear/internal/utils"
)

// UserRepo persists users and their bcrypt password hashes.
type UserRepo struct {
	DB   *sql.DB
	Cost int // bcrypt cost

	dummyOnce sync.Once
	dummyHash string
}

func NewUserRepo(db *sql.DB, cost int) *UserRepo { return &UserRepo{DB: db, Cost: cost} }

// ProfileUpdate carries the editable profile fields.  A password change is
// requested by a non-empty NewPassword, which requires CurrentPassword.
type ProfileUpdate struct {
	Name            string
	Location        string
	CurrentPassword string
	NewPassword     string
}

const userColumns = "id, name, email, password_hash, location, created_at"

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create hashes the password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, password, location string) (uint64, error) {
	hash, err := utils.HashPassword(password, r.Cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, location) VALUES (?,?,?,?)",
		strings.TrimSpace(name), NormalizeEmail(email), hash, strings.TrimSpace(location))
	if err != nil {
		if mysqlErrNo(err) == mysqlDuplicateEntry {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// VerifyCredentials returns the user when password matches the stored hash.
// Unknown emails still run one bcrypt comparison so both failure paths take
// comparable time.
func (r *UserRepo) VerifyCredentials(ctx context.Context, email, password string) (model.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		utils.VerifyPassword(r.dummy(), password)
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// UpdateProfile changes name and location and, when requested, the
// password.  The current hash is locked and re-verified in the same
// transaction as the write.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			"SELECT password_hash FROM users WHERE id=? FOR UPDATE", id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		name, location := strings.TrimSpace(p.Name), strings.TrimSpace(p.Location)
		if p.NewPassword == "" {
			_, err = tx.ExecContext(ctx,
				"UPDATE users SET name=?, location=? WHERE id=?", name, location, id)
			return err
		}
		if !utils.VerifyPassword(current, p.CurrentPassword) {
			return ErrInvalidCredentials
		}
		hash, err := utils.HashPassword(p.NewPassword, r.Cost)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET name=?, location=?, password_hash=? WHERE id=?", name, location, hash, id)
		return err
	})
}

// Delete removes the user; sessions, devices, wardrobe items and readings
// of the user's devices go with it through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) dummy() string {
	r.dummyOnce.Do(func() {
		r.dummyHash, _ = utils.HashPassword("weatherwear-dummy-password", r.Cost)
	})
	return r.dummyHash
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Location, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
