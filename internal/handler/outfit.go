package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/weatherwear/weatherwear/internal/outfit"
)

// OutfitHandler asks the outfit service for a suggestion built from the
// caller's wardrobe.
type OutfitHandler struct {
	Items   WardrobeStore
	Outfits OutfitGenerator
	Logger  *slog.Logger
}

func NewOutfitHandler(items WardrobeStore, outfits OutfitGenerator, logger *slog.Logger) *OutfitHandler {
	return &OutfitHandler{Items: items, Outfits: outfits, Logger: orDefault(logger)}
}

// Generate serves GET /api/generate-outfit/:temperature/:condition.
// Service failures are reported in the body with status 200 so the
// dashboard can show them inline.
func (h *OutfitHandler) Generate(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	temp, err := strconv.ParseFloat(c.Param("temperature"), 64)
	if err != nil {
		return badRequest(c, "invalid temperature")
	}
	condition := strings.TrimSpace(c.Param("condition"))
	if condition == "" {
		return badRequest(c, "condition is required")
	}

	dbCtx, cancel := dbContext(c)
	items, err := h.Items.List(dbCtx, u.ID)
	cancel()
	if err != nil {
		return internalError(c, h.Logger, "list wardrobe failed", err)
	}

	text, err := h.Outfits.Generate(c.Request().Context(), items, temp, condition)
	if err != nil {
		h.Logger.Warn("outfit generation failed", "user_id", u.ID, "err", err)
		msg := "outfit service error"
		if errors.Is(err, outfit.ErrTimeout) {
			msg = "outfit service timed out"
		}
		return c.JSON(http.StatusOK, echo.Map{"error": msg})
	}
	return c.JSON(http.StatusOK, echo.Map{"outfit": text})
}
