package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storage-booking/internal/service"
)

// BookingHandler exposes the customer side of the booking workflow:
// booking creation, the confirmation page and the invoice.
type BookingHandler struct {
	Bookings *service.Bookings
}

// CreateBooking handles POST /api/booking/create.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req service.CreateBookingRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	res, err := h.Bookings.CreateBooking(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"booking": res.Booking,
		"customer": echo.Map{
			"id":    res.Customer.ID,
			"name":  res.Customer.Name,
			"email": res.Customer.Email,
			"phone": res.Customer.Phone,
		},
		"storagePlan": res.Plan,
		"message":     "Booking created successfully",
	})
}

// GetBooking returns a booking with its customer, plan and payments.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	d, err := h.Bookings.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": d})
}

func (h *BookingHandler) Invoice(c echo.Context) error {
	inv, err := h.Bookings.Invoice(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "invoice": inv})
}
