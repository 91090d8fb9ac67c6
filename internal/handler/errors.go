package handler // handler holds the echo HTTP handlers of the booking API

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storage-booking/internal/logger"
	"github.com/iliyamo/storage-booking/internal/repository"
	"github.com/iliyamo/storage-booking/internal/service"
)

const msgInternal = "something went wrong, please try again"

// respondError maps a service or repository error to a status code and an
// {error} body.  Validation and not-found errors carry their message;
// everything unexpected is logged and answered with a generic 500.
func respondError(c echo.Context, err error) error {
	log := logger.GetLogger(c.Request().Context())
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	case errors.Is(err, service.ErrAmountMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Amount mismatch"})
	case errors.Is(err, service.ErrIntentMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Payment intent does not match payment"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Booking not found"})
	case errors.Is(err, repository.ErrPaymentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Payment not found"})
	case errors.Is(err, repository.ErrPlanNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Storage plan not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
	case errors.Is(err, repository.ErrPlanInUse):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Storage option is referenced by bookings; deactivate it instead"})
	case errors.Is(err, repository.ErrPlanExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "A storage option with this size and price already exists"})
	case errors.Is(err, service.ErrBookingNotPending):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Booking is not awaiting payment"})
	case errors.Is(err, service.ErrAlreadyPaid):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Booking is already paid"})
	case errors.Is(err, service.ErrPaidAfterCancel):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Payment received for a cancelled booking; our team will issue a refund",
		})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrEmailExists):
		log.WithError(err).Warn("conflicting update")
		return c.JSON(http.StatusConflict, echo.Map{"error": "The record was changed by another request"})
	case errors.Is(err, service.ErrUpstream):
		log.WithError(err).Error("payment processor failure")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable, please try again"})
	default:
		log.WithError(err).Error("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgInternal})
	}
}

// bindJSON decodes the request body into v and answers 400 on malformed
// input.  The returned bool is false when a response was already written.
func bindJSON(c echo.Context, v any) (bool, error) {
	if err := c.Bind(v); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	return true, nil
}
