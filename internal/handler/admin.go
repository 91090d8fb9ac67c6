package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/iliyamo/storage-booking/internal/logger"
	"github.com/iliyamo/storage-booking/internal/middleware"
	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/money"
	"github.com/iliyamo/storage-booking/internal/service"
)

// AdminHandler serves the admin console: login, plan management and the
// read-only listings.
type AdminHandler struct {
	Admin       *service.Admin
	Catalog     *service.Catalog
	Redis       *redis.Client // optional; plan changes purge the catalog cache
	CachePrefix string
	Currency    string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/auth.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	tok, err := h.Admin.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    "Login successful",
		"token":      tok.Token,
		"expires_at": tok.Exp,
	})
}

// ListPlans handles GET /api/admin/storage-options, inactive plans included.
func (h *AdminHandler) ListPlans(c echo.Context) error {
	plans, err := h.Catalog.ListPlans(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "storageOptions": plans})
}

// CreatePlan handles POST /api/admin/storage-options.
func (h *AdminHandler) CreatePlan(c echo.Context) error {
	var in service.PlanInput
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	p, err := h.Catalog.CreatePlan(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c.Request().Context())
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "storageOption": p})
}

type planUpdate struct {
	ID string `json:"id"`
	service.PlanInput
}

// UpdatePlan handles PUT with the plan id in the body.
func (h *AdminHandler) UpdatePlan(c echo.Context) error {
	var in planUpdate
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	if strings.TrimSpace(in.ID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Storage option ID is required"})
	}
	p, err := h.Catalog.UpdatePlan(c.Request().Context(), in.ID, in.PlanInput)
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"success": true, "storageOption": p})
}

// DeletePlan handles DELETE ?id=.  Plans referenced by bookings are
// refused with 409.
func (h *AdminHandler) DeletePlan(c echo.Context) error {
	id := strings.TrimSpace(c.QueryParam("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Storage option ID is required"})
	}
	if err := h.Catalog.DeletePlan(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	h.purge(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Storage option deleted successfully"})
}

func (h *AdminHandler) purge(ctx context.Context) {
	if _, err := middleware.PurgeCache(ctx, h.Redis, h.CachePrefix); err != nil {
		logger.GetLogger(ctx).WithError(err).Warn("catalog cache purge failed")
	}
}

// statusBadge is the colour the console shows for a status.
func statusBadge(status string) string {
	switch status {
	case "confirmed", "completed":
		return "green"
	case "pending":
		return "yellow"
	case "active":
		return "blue"
	case "cancelled", "failed":
		return "red"
	default:
		return "gray"
	}
}

type adminBooking struct {
	model.BookingDetail
	TotalDisplay string `json:"total_display"`
	StatusBadge  string `json:"status_badge"`
}

type adminPayment struct {
	model.PaymentDetail
	AmountDisplay string `json:"amount_display"`
	StatusBadge   string `json:"status_badge"`
}

// ListBookings handles GET /api/admin/bookings.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	bookings, err := h.Admin.ListBookings(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	out := lo.Map(bookings, func(b model.BookingDetail, _ int) adminBooking {
		return adminBooking{
			BookingDetail: b,
			TotalDisplay:  money.Format(h.Currency, b.TotalAmount),
			StatusBadge:   statusBadge(string(b.Status)),
		}
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": out, "count": len(out)})
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Admin.ListUsers(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "users": users})
}

// ListPayments handles GET /api/admin/payments.
func (h *AdminHandler) ListPayments(c echo.Context) error {
	payments, err := h.Admin.ListPayments(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	out := lo.Map(payments, func(p model.PaymentDetail, _ int) adminPayment {
		return adminPayment{
			PaymentDetail: p,
			AmountDisplay: money.Format(p.Currency, p.Amount),
			StatusBadge:   statusBadge(string(p.Status)),
		}
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "payments": out})
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	st, err := h.Admin.Stats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":               true,
		"stats":                 st,
		"total_revenue_display": money.Format(h.Currency, st.TotalRevenue),
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateBookingStatus handles PATCH /api/admin/bookings/:id/status.
func (h *AdminHandler) UpdateBookingStatus(c echo.Context) error {
	var req statusRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	b, err := h.Admin.UpdateBookingStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": b})
}
