package model

// WardrobeItem is a piece of clothing owned by a user.  The wardrobe page
// reads the kind as "type"; requests may also send it as "clothes_type".
type WardrobeItem struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	UserID uint64 `json:"user_id"`
	Type   string `json:"type"`
	Color  string `json:"color"`
}
