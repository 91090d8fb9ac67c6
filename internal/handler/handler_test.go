package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storage-booking/internal/config"
	"github.com/iliyamo/storage-booking/internal/handler"
	"github.com/iliyamo/storage-booking/internal/model"
	"github.com/iliyamo/storage-booking/internal/processor"
	"github.com/iliyamo/storage-booking/internal/repository/memory"
	"github.com/iliyamo/storage-booking/internal/router"
	"github.com/iliyamo/storage-booking/internal/service"
	"github.com/iliyamo/storage-booking/internal/utils"
)

const jwtSecret = "handler-secret"

type app struct {
	e     *echo.Echo
	store *memory.Store
	proc  *processor.Memory
	token string
}

func newApp(t *testing.T) *app {
	t.Helper()
	store := memory.New()
	proc := processor.NewMemory()
	bookings := service.NewBookings(store, proc, nil, "AED")
	catalog := service.NewCatalog(store)
	hash, err := utils.HashPassword("s3cret!", 4)
	require.NoError(t, err)
	admin := service.NewAdmin(store, service.AdminAuth{Email: "admin@example.com", PasswordHash: hash, JWTSecret: jwtSecret})

	e := echo.New()
	router.RegisterRoutes(e, nil)
	router.RegisterPublic(e,
		&handler.PlanHandler{Catalog: catalog, Currency: "AED"},
		&handler.BookingHandler{Bookings: bookings},
		&handler.CheckoutHandler{Bookings: bookings},
		config.CacheConfig{}, config.RateLimitConfig{}, nil)
	router.RegisterAdmin(e, &handler.AdminHandler{Admin: admin, Catalog: catalog, Currency: "AED"}, jwtSecret, config.RateLimitConfig{}, nil)

	tok, err := utils.NewAccessToken(jwtSecret, "admin@example.com", utils.RoleAdmin, 5)
	require.NoError(t, err)
	return &app{e: e, store: store, proc: proc, token: tok.Token}
}

func (a *app) do(t *testing.T, method, path string, body any, admin bool) (int, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		bs, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(bs))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if admin {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

var createBody = map[string]any{
	"customer": map[string]any{"name": "Jane Doe", "email": "jane@example.com", "phone": "+971500000000", "companyName": "Acme"},
	"booking": map[string]any{
		"size": "1000 SQ FT", "moveInDate": "2026-11-01", "totalPrice": 5700, "basePrice": 4500,
		"addOns": map[string]any{
			"forklift":      map[string]any{"selected": true, "hours": 3},
			"cctvRemote":    map[string]any{"selected": true},
			"dedicatedDock": map[string]any{"selected": true},
			"racking":       map[string]any{"selected": true, "bays": 2},
		},
	},
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	code, _ := a.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, code)
	code, body := a.do(t, http.MethodGet, "/readyz", nil, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
}

func TestQuote(t *testing.T) {
	a := newApp(t)
	code, body := a.do(t, http.MethodPost, "/api/quote", map[string]any{
		"basePrice": 4500, "size": "1000 SQ FT",
		"addOns": createBody["booking"].(map[string]any)["addOns"],
	}, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5700.0, body["total"])
	assert.Equal(t, 1000.0, body["sqFt"])
	assert.Equal(t, "AED 5,700.00", body["total_display"])
}

func TestBookingCheckoutFlow(t *testing.T) {
	a := newApp(t)

	code, body := a.do(t, http.MethodPost, "/api/booking/create", createBody, false)
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Booking created successfully", body["message"])
	booking := body["booking"].(map[string]any)
	bookingID := booking["id"].(string)
	assert.Equal(t, "pending", booking["status"])
	assert.Equal(t, "jane@example.com", body["customer"].(map[string]any)["email"])

	intentBody := map[string]any{
		"bookingId": bookingID, "amount": 5700,
		"customer": map[string]any{"email": "jane@example.com", "name": "Jane Doe"},
	}
	code, body = a.do(t, http.MethodPost, "/api/checkout/create-payment-intent", intentBody, false)
	require.Equal(t, http.StatusOK, code, body)
	paymentID := body["paymentId"].(string)
	secret := body["clientSecret"].(string)
	assert.NotEmpty(t, secret)

	code, again := a.do(t, http.MethodPost, "/api/checkout/create-payment-intent", intentBody, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, paymentID, again["paymentId"])
	assert.Equal(t, secret, again["clientSecret"])

	pay, err := a.store.GetPayment(context.Background(), paymentID)
	require.NoError(t, err)
	confirm := map[string]any{"paymentIntentId": pay.Transaction(), "paymentId": paymentID}

	code, body = a.do(t, http.MethodPost, "/api/checkout/confirm-payment", confirm, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "failed", body["status"])

	require.NoError(t, a.proc.SetStatus(pay.Transaction(), processor.StatusProcessing))
	code, body = a.do(t, http.MethodPost, "/api/checkout/confirm-payment", confirm, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "processing", body["status"])

	require.NoError(t, a.proc.SetStatus(pay.Transaction(), processor.StatusSucceeded))
	code, body = a.do(t, http.MethodPost, "/api/checkout/confirm-payment", confirm, false)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "succeeded", body["status"])
	assert.Equal(t, "completed", body["payment"].(map[string]any)["status"])
	assert.Equal(t, "confirmed", body["booking"].(map[string]any)["status"])

	code, body = a.do(t, http.MethodGet, "/api/checkout/payments/"+paymentID, nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "confirmed", body["payment"].(map[string]any)["booking_status"])

	code, body = a.do(t, http.MethodGet, "/api/bookings/"+bookingID, nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["booking"].(map[string]any)["payments"], 1)

	code, body = a.do(t, http.MethodGet, "/api/bookings/"+bookingID+"/invoice", nil, false)
	require.Equal(t, http.StatusOK, code)
	inv := body["invoice"].(map[string]any)
	assert.Equal(t, true, inv["paid"])
	assert.Equal(t, "AED 5,700.00", inv["total_display"])
	assert.Equal(t, strings.ToUpper(bookingID[:8]), inv["invoice_number"])

	code, _ = a.do(t, http.MethodPost, "/api/checkout/create-payment-intent", intentBody, false)
	assert.Equal(t, http.StatusConflict, code)
}

func TestCheckoutErrors(t *testing.T) {
	a := newApp(t)
	code, body := a.do(t, http.MethodPost, "/api/booking/create", map[string]any{"customer": map[string]any{"name": "x"}}, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "missing required customer fields: name, email, phone", body["error"])

	code, _ = a.do(t, http.MethodPost, "/api/checkout/create-payment-intent", map[string]any{
		"bookingId": "missing", "amount": 10, "customer": map[string]any{"email": "a@b.c", "name": "A"},
	}, false)
	assert.Equal(t, http.StatusNotFound, code)

	_, created := a.do(t, http.MethodPost, "/api/booking/create", createBody, false)
	id := created["booking"].(map[string]any)["id"].(string)
	code, body = a.do(t, http.MethodPost, "/api/checkout/create-payment-intent", map[string]any{
		"bookingId": id, "amount": 5700.02, "customer": map[string]any{"email": "a@b.c", "name": "A"},
	}, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Amount mismatch", body["error"])

	code, _ = a.do(t, http.MethodPost, "/api/checkout/confirm-payment", map[string]any{"paymentIntentId": "pi_x", "paymentId": "missing"}, false)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.do(t, http.MethodGet, "/api/bookings/missing", nil, false)
	assert.Equal(t, http.StatusNotFound, code)

	req := httptest.NewRequest(http.MethodPost, "/api/booking/create", strings.NewReader("{"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmPaymentForCancelledBooking(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	_, created := a.do(t, http.MethodPost, "/api/booking/create", createBody, false)
	id := created["booking"].(map[string]any)["id"].(string)
	code, intent := a.do(t, http.MethodPost, "/api/checkout/create-payment-intent", map[string]any{
		"bookingId": id, "amount": 5700, "customer": map[string]any{"email": "jane@example.com", "name": "Jane Doe"},
	}, false)
	require.Equal(t, http.StatusOK, code)
	paymentID := intent["paymentId"].(string)

	pay, err := a.store.GetPayment(ctx, paymentID)
	require.NoError(t, err)
	require.NoError(t, a.store.UpdateBookingStatus(ctx, id, model.BookingPending, model.BookingCancelled))
	require.NoError(t, a.proc.SetStatus(pay.Transaction(), processor.StatusSucceeded))

	code, body := a.do(t, http.MethodPost, "/api/checkout/confirm-payment", map[string]any{
		"paymentIntentId": pay.Transaction(), "paymentId": paymentID,
	}, false)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Payment received for a cancelled booking; our team will issue a refund", body["error"])
}

func TestAdminLogin(t *testing.T) {
	a := newApp(t)
	code, body := a.do(t, http.MethodPost, "/api/admin/auth", map[string]any{"email": "admin@example.com", "password": "s3cret!"}, false)
	require.Equal(t, http.StatusOK, code)
	claims, err := utils.ParseAccessToken(jwtSecret, body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, utils.RoleAdmin, claims.Role)

	code, body = a.do(t, http.MethodPost, "/api/admin/auth", map[string]any{"email": "admin@example.com", "password": "nope"}, false)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", body["error"])

	code, _ = a.do(t, http.MethodGet, "/api/admin/bookings", nil, false)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminStorageOptions(t *testing.T) {
	a := newApp(t)
	plan := map[string]any{
		"name": "Small", "size": "100 SQ FT", "size_value": 100, "price": 900,
		"dimensions": "10 x 10 ft", "features": []string{"24/7 Access"},
	}
	code, body := a.do(t, http.MethodPost, "/api/admin/storage-options", plan, true)
	require.Equal(t, http.StatusCreated, code, body)
	id := body["storageOption"].(map[string]any)["id"].(string)

	code, body = a.do(t, http.MethodPost, "/api/admin/storage-options", map[string]any{"price": 1}, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "size")

	plan["id"] = id
	plan["price"] = 950
	plan["is_active"] = false
	code, body = a.do(t, http.MethodPut, "/api/admin/storage-options", plan, true)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 950.0, body["storageOption"].(map[string]any)["price"])

	code, body = a.do(t, http.MethodGet, "/api/storage-plans", nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["storagePlans"])

	code, body = a.do(t, http.MethodGet, "/api/admin/storage-options", nil, true)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["storageOptions"], 1)

	code, _ = a.do(t, http.MethodPut, "/api/admin/storage-options", map[string]any{"size": "x"}, true)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodDelete, "/api/admin/storage-options", nil, true)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodDelete, "/api/admin/storage-options?id="+id, nil, true)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(t, http.MethodDelete, "/api/admin/storage-options?id="+id, nil, true)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminDeleteReferencedPlan(t *testing.T) {
	a := newApp(t)
	_, created := a.do(t, http.MethodPost, "/api/booking/create", createBody, false)
	planID := created["booking"].(map[string]any)["plan_id"].(string)

	code, _ := a.do(t, http.MethodDelete, "/api/admin/storage-options?id="+planID, nil, true)
	assert.Equal(t, http.StatusConflict, code)
}

func TestAdminListings(t *testing.T) {
	a := newApp(t)
	_, created := a.do(t, http.MethodPost, "/api/booking/create", createBody, false)
	id := created["booking"].(map[string]any)["id"].(string)

	code, body := a.do(t, http.MethodGet, "/api/admin/bookings", nil, true)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1.0, body["count"])
	row := body["bookings"].([]any)[0].(map[string]any)
	assert.Equal(t, "AED 5,700.00", row["total_display"])
	assert.Equal(t, "yellow", row["status_badge"])
	assert.Equal(t, "jane@example.com", row["user"].(map[string]any)["email"])

	code, body = a.do(t, http.MethodGet, "/api/admin/users", nil, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["users"].([]any)[0].(map[string]any)["booking_count"])

	code, body = a.do(t, http.MethodGet, "/api/admin/payments", nil, true)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["payments"])

	code, body = a.do(t, http.MethodPatch, "/api/admin/bookings/"+id+"/status", map[string]any{"status": "active"}, true)
	assert.Equal(t, http.StatusConflict, code)
	code, body = a.do(t, http.MethodPatch, "/api/admin/bookings/"+id+"/status", map[string]any{"status": "cancelled"}, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(model.BookingCancelled), body["booking"].(map[string]any)["status"])

	code, body = a.do(t, http.MethodGet, "/api/admin/stats", nil, true)
	require.Equal(t, http.StatusOK, code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, 1.0, stats["total_bookings"])
	assert.Equal(t, 0.0, stats["pending_bookings"])
	assert.Equal(t, "AED 0.00", body["total_revenue_display"])
}
