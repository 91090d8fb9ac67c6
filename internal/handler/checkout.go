package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storage-booking/internal/service"
)

// CheckoutHandler exposes payment intent creation and confirmation.
type CheckoutHandler struct {
	Bookings *service.Bookings
}

// CreatePaymentIntent handles POST /api/checkout/create-payment-intent.
func (h *CheckoutHandler) CreatePaymentIntent(c echo.Context) error {
	var req service.IntentRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	res, err := h.Bookings.CreatePaymentIntent(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"clientSecret": res.ClientSecret,
		"paymentId":    res.PaymentID,
		"bookingId":    res.BookingID,
	})
}

type confirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	PaymentID       string `json:"paymentId"`
}

// ConfirmPayment handles POST /api/checkout/confirm-payment.  A payment
// still processing answers 200 so the client polls again; a failed one
// answers 400 with success=false.
func (h *CheckoutHandler) ConfirmPayment(c echo.Context) error {
	var req confirmRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}
	res, err := h.Bookings.ConfirmPayment(c.Request().Context(), req.PaymentIntentID, req.PaymentID)
	if err != nil {
		return respondError(c, err)
	}

	switch res.Status {
	case service.OutcomeSucceeded:
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"status":  res.Status,
			"payment": res.Payment,
			"booking": res.Booking,
			"message": res.Message,
		})
	case service.OutcomeProcessing:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "status": res.Status, "message": res.Message})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success":         false,
			"status":          res.Status,
			"processorStatus": res.ProcessorStatus,
			"message":         res.Message,
		})
	}
}

// PaymentStatus handles GET /api/checkout/payments/:id.
func (h *CheckoutHandler) PaymentStatus(c echo.Context) error {
	v, err := h.Bookings.PaymentStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "payment": v})
}
