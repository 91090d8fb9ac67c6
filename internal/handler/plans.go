package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storage-booking/internal/money"
	"github.com/iliyamo/storage-booking/internal/pricing"
	"github.com/iliyamo/storage-booking/internal/service"
)

// PlanHandler serves the public storage plan catalog and price quotes.
type PlanHandler struct {
	Catalog  *service.Catalog
	Currency string
}

// ListPlans returns the active plans ordered by size.
func (h *PlanHandler) ListPlans(c echo.Context) error {
	plans, err := h.Catalog.ListActivePlans(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "storagePlans": plans})
}

type quoteRequest struct {
	BasePrice float64        `json:"basePrice"`
	Size      string         `json:"size"`
	SqFt      int            `json:"sqFt"`
	AddOns    pricing.AddOns `json:"addOns"`
}

// Quote prices a plan with add-ons.  sqFt falls back to the number in the
// size label.
func (h *PlanHandler) Quote(c echo.Context) error {
	var req quoteRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	if req.BasePrice < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "basePrice must not be negative"})
	}
	sqFt := req.SqFt
	if sqFt <= 0 {
		sqFt = pricing.ParseSquareFeet(req.Size)
	}
	breakdown := pricing.Price(sqFt, req.AddOns)
	total := pricing.ComputeTotal(req.BasePrice, sqFt, req.AddOns)
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"sqFt":          sqFt,
		"basePrice":     req.BasePrice,
		"addOns":        breakdown,
		"addOnLines":    pricing.Summary(req.AddOns),
		"total":         total,
		"total_display": money.Format(h.Currency, total),
	})
}
