package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayengine/internal/app/dto"
	"stayengine/internal/infra/config"
	ginserver "stayengine/internal/infra/http/gin"
	"stayengine/internal/infra/obs"
	"stayengine/internal/infra/storage/memory"
)

type harness struct {
	t      *testing.T
	app    *application
	router *gin.Engine
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{t: t, now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	cfg := config.Config{
		Env:                "test",
		StoreBackend:       config.StoreMemory,
		Broker:             config.BrokerNone,
		OutboxPollInterval: time.Second,
		SchedulerEnabled:   true,
		ScheduleInterval:   time.Minute,
		IdempotencyTTL:     time.Hour,
		ServiceFeeRate:     0.14,
		TaxRate:            0.18,
		DefaultPageSize:    10,
	}
	app, err := buildApplication(context.Background(), cfg, obs.Discard(), func() time.Time { return h.now })
	require.NoError(t, err)
	h.app = app
	h.router = ginserver.NewRouter(cfg, obs.Middleware{Logger: obs.Discard()}, app.health, app.handlers)
	return h
}

func (h *harness) do(method, path, user, role string, body any, headers ...string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
		req.Header.Set("X-User-Role", role)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func stay(listing, in, out string) map[string]any {
	return map[string]any{
		"listing_id":     listing,
		"check_in":       in,
		"check_out":      out,
		"guests":         map[string]int{"adults": 2},
		"payment_method": "card",
	}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	goa := stay("lst-goa-villa", "2025-03-10", "2025-03-17")

	rec := h.do(http.MethodPost, "/api/v1/quotes", "guest-priya", "guest", goa)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[dto.Quote](t, rec)
	require.True(t, quote.Available)
	require.NotNil(t, quote.Price)
	// 7 x 2000 + 500 cleaning + 14% fee + 18% tax - 10% weekly discount.
	want := int64(17580 * math.Pow10(quote.Price.TotalPrice.Precision))
	assert.Equal(t, want, quote.Price.TotalPrice.Amount)

	rec = h.do(http.MethodPost, "/api/v1/bookings", "guest-priya", "guest", goa, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dto.BookingDTO](t, rec)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "host-anita", created.HostID)
	assert.Equal(t, want, created.Price.TotalPrice.Amount)

	rec = h.do(http.MethodPost, "/api/v1/bookings", "guest-priya", "guest", goa, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, created.ID, decode[dto.BookingDTO](t, rec).ID)

	rec = h.do(http.MethodPost, "/api/v1/bookings", "guest-arjun", "guest", goa, "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	bookingPath := "/api/v1/bookings/" + created.ID
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, bookingPath, "guest-arjun", "guest", nil).Code)
	rec = h.do(http.MethodGet, bookingPath, "host-anita", "host", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[dto.BookingDTO](t, rec)

	confirm := map[string]any{"to": "confirmed", "expected_version": stored.Version}
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, bookingPath+"/transitions", "guest-priya", "guest", confirm).Code)
	rec = h.do(http.MethodPost, bookingPath+"/transitions", "host-anita", "host", confirm)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	confirmed := decode[dto.TransitionResult](t, rec)
	assert.Equal(t, "pending", confirmed.From)
	assert.Equal(t, "confirmed", confirmed.Booking.Status)
	assert.Equal(t, stored.Version+1, confirmed.Booking.Version)

	rec = h.do(http.MethodPost, bookingPath+"/transitions", "host-anita", "host", confirm)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/me/bookings", "guest-priya", "guest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[dto.BookingPage](t, rec).TotalItems)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/v1/host/bookings", "guest-priya", "guest", nil).Code)
	rec = h.do(http.MethodGet, "/api/v1/host/bookings?status=confirmed", "host-anita", "host", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[dto.BookingPage](t, rec).TotalItems)

	rec = h.do(http.MethodGet, "/api/v1/listings/lst-goa-villa/calendar?from=2025-03-09&to=2025-03-11", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cal := decode[dto.Calendar](t, rec)
	require.Len(t, cal.Days, 2)
	assert.True(t, cal.Days[0].Available)
	assert.False(t, cal.Days[1].Available)

	payment := map[string]any{"booking_id": created.ID, "status": "paid", "transaction_id": "tx-1"}
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/v1/payments/events", "guest-priya", "guest", payment).Code)
	rec = h.do(http.MethodPost, "/api/v1/payments/events", "payment-gateway", "system", payment)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[dto.PaymentResult](t, rec).Changed)

	cancel := map[string]any{"to": "cancelled_by_guest", "reason": "change_of_plans"}
	rec = h.do(http.MethodPost, bookingPath+"/transitions", "guest-priya", "guest", cancel)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cancelled := decode[dto.TransitionResult](t, rec)
	assert.Equal(t, "cancelled", cancelled.Booking.StatusCategory)
	require.NotNil(t, cancelled.Booking.Cancellation)
	// Nine days ahead under the moderate policy refunds in full.
	assert.Equal(t, want, cancelled.Booking.Cancellation.RefundAmount.Amount)
	assert.Equal(t, "paid", cancelled.Booking.Payment.Status)

	rec = h.do(http.MethodGet, "/api/v1/listings/lst-goa-villa/calendar?from=2025-03-09&to=2025-03-11", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.Calendar](t, rec).Days[1].Available)

	box, ok := h.app.stores.outbox.(*memory.Outbox)
	require.True(t, ok)
	assert.Len(t, box.Records(), 3)
	n, err := h.app.worker.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Zero(t, box.Pending())
}

func TestRequestValidationOverHTTP(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/v1/bookings", "", "", stay("lst-goa-villa", "2025-03-10", "2025-03-12"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/bookings", "host-anita", "host", stay("lst-goa-villa", "2025-03-10", "2025-03-12"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/bookings", "guest-priya", "guest", stay("lst-missing", "2025-03-10", "2025-03-12"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/bookings", "guest-priya", "guest", stay("lst-goa-villa", "2025-03-12", "2025-03-10"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/bookings", "guest-priya", "guest", stay("lst-goa-villa", "10/03/2025", "2025-03-12"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := stay("lst-manali-cabin", "2025-03-10", "2025-03-12")
	body["guests"] = map[string]int{"adults": 5}
	rec = h.do(http.MethodPost, "/api/v1/bookings", "guest-priya", "guest", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/readyz", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/livez", "", "", nil).Code)
}

func TestSchedulerStartsAndCompletesInstantBookings(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/v1/bookings", "guest-priya", "guest", stay("lst-manali-cabin", "2025-03-05", "2025-03-07"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dto.BookingDTO](t, rec)
	assert.Equal(t, "confirmed", created.Status)

	res, err := h.app.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Started)

	h.now = time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC)
	res, err = h.app.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Started)

	h.now = time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC)
	res, err = h.app.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)

	rec = h.do(http.MethodGet, "/api/v1/bookings/"+created.ID, "guest-priya", "guest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decode[dto.BookingDTO](t, rec).Status)
}

func TestBuildApplicationRejectsBrokenFixtures(t *testing.T) {
	path := t.TempDir() + "/listings.json"
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644))
	cfg := config.Config{StoreBackend: config.StoreMemory, Broker: config.BrokerNone, ListingsFixtures: path, DefaultPageSize: 10}
	_, err := buildApplication(context.Background(), cfg, obs.Discard(), nil)
	assert.Error(t, err)

	cfg.ListingsFixtures = t.TempDir() + "/missing.json"
	app, err := buildApplication(context.Background(), cfg, obs.Discard(), nil)
	require.NoError(t, err)
	_, err = app.stores.listings.ByID(context.Background(), "lst-goa-villa")
	assert.NoError(t, err)
}
