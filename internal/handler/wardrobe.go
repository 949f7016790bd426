package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/model"
)

// WardrobeHandler exposes the clothing items of the signed-in user.
type WardrobeHandler struct {
	Items  WardrobeStore
	Logger *slog.Logger
}

func NewWardrobeHandler(items WardrobeStore, logger *slog.Logger) *WardrobeHandler {
	return &WardrobeHandler{Items: items, Logger: orDefault(logger)}
}

// itemReq accepts the item type as clothes_type or type; the wardrobe form
// posts the short name.
type itemReq struct {
	ID          flexID `json:"id" form:"id"`
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	ClothesType string `json:"clothes_type" form:"clothes_type" validate:"max=50"`
	Type        string `json:"type" form:"type" validate:"max=50"`
	Color       string `json:"color" form:"color" validate:"max=50"`
}

func (r itemReq) item(owner uint64) model.WardrobeItem {
	kind := r.ClothesType
	if kind == "" {
		kind = r.Type
	}
	return model.WardrobeItem{ID: uint64(r.ID), Name: r.Name, UserID: owner, Type: kind, Color: r.Color}
}

type idReq struct {
	ID flexID `json:"id" form:"id"`
}

// List returns every item of the caller as a JSON array.
func (h *WardrobeHandler) List(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	items, err := h.Items.List(ctx, u.ID)
	if err != nil {
		return internalError(c, h.Logger, "list wardrobe failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

// Add stores a new item from a JSON body and returns its id.
func (h *WardrobeHandler) Add(c echo.Context) error {
	item, err := h.add(c)
	if err != nil || item == nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": item.ID})
}

// AddForm is the page variant of Add; the browser returns to /wardrobe.
func (h *WardrobeHandler) AddForm(c echo.Context) error {
	item, err := h.add(c)
	if err != nil || item == nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/wardrobe")
}

// add writes the error response itself and returns a nil item when it did.
func (h *WardrobeHandler) add(c echo.Context) (*model.WardrobeItem, error) {
	u, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	var req itemReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return nil, badRequest(c, msg)
	}
	item := req.item(u.ID)
	item.ID = 0
	if item.Type == "" {
		return nil, badRequest(c, "clothes_type is required")
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Items.Add(ctx, &item); err != nil {
		return nil, internalError(c, h.Logger, "add wardrobe item failed", err)
	}
	return &item, nil
}

// Remove deletes one of the caller's items.  An id belonging to somebody
// else reports success=false.
func (h *WardrobeHandler) Remove(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req idReq
	if err := c.Bind(&req); err != nil || req.ID == 0 {
		return badRequest(c, "id is required")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	ok, err := h.Items.Remove(ctx, uint64(req.ID), u.ID)
	if err != nil {
		return internalError(c, h.Logger, "remove wardrobe item failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": ok})
}

// Update rewrites name, type and color of one of the caller's items.
func (h *WardrobeHandler) Update(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req itemReq
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	if req.ID == 0 {
		return badRequest(c, "id is required")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	ok, err := h.Items.Update(ctx, req.item(u.ID))
	if err != nil {
		return internalError(c, h.Logger, "update wardrobe item failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": ok})
}
