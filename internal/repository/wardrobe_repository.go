package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/weatherwear/weatherwear/internal/model"
)

// WardrobeRepo stores clothing items.  Every mutation is filtered by owner
// so one user cannot touch another user's items.
type WardrobeRepo struct{ DB *sql.DB }

func NewWardrobeRepo(db *sql.DB) *WardrobeRepo { return &WardrobeRepo{DB: db} }

// Add inserts the item and fills in its ID.
func (r *WardrobeRepo) Add(ctx context.Context, item *model.WardrobeItem) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO wardrobe (name, user_id, type, color) VALUES (?,?,?,?)",
		item.Name, item.UserID, item.Type, item.Color)
	if err != nil {
		return fmt.Errorf("insert wardrobe item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	item.ID = uint64(id)
	return nil
}

// Remove deletes the item when it belongs to ownerID.  A non-matching id
// affects no rows and returns false without error.
func (r *WardrobeRepo) Remove(ctx context.Context, id, ownerID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM wardrobe WHERE id=? AND user_id=?", id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete wardrobe item: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Update rewrites name, type and color of an item owned by item.UserID.
func (r *WardrobeRepo) Update(ctx context.Context, item model.WardrobeItem) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE wardrobe SET name=?, type=?, color=? WHERE id=? AND user_id=?",
		item.Name, item.Type, item.Color, item.ID, item.UserID)
	if err != nil {
		return false, fmt.Errorf("update wardrobe item: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// List returns all items of ownerID ordered by id.
func (r *WardrobeRepo) List(ctx context.Context, ownerID uint64) ([]model.WardrobeItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, user_id, type, color FROM wardrobe WHERE user_id=? ORDER BY id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list wardrobe: %w", err)
	}
	defer rows.Close()
	items := []model.WardrobeItem{}
	for rows.Next() {
		var it model.WardrobeItem
		if err := rows.Scan(&it.ID, &it.Name, &it.UserID, &it.Type, &it.Color); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
