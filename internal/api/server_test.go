package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"playslot/internal/booking"
	"playslot/internal/hold"
	"playslot/internal/slots"
	"playslot/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*HTTPServer, *store.Store) {
	t.Helper()
	logger := zerolog.Nop()
	st, err := store.Open(filepath.Join(t.TempDir(), "bookings.json"), &logger)
	require.NoError(t, err)
	svc := booking.NewService(st, hold.NewMemoryStore(), slots.FirstFitPicker{}, booking.PolicyDirect, &logger)
	s := NewHTTPServer(svc, 0, &logger)
	s.now = func() time.Time { return time.Date(2030, 3, 14, 14, 5, 0, 0, time.Local) }
	return s, st
}

func TestBookingsEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	require.NoError(t, st.Append("u1", "2030-03-14", "gameA", "14:30:00"))
	require.NoError(t, st.Append("u1", "2030-03-14", "gameB", "16:00:00"))
	require.NoError(t, st.Append("u1", "2030-03-15", "gameA", "09:00:00"))

	req := httptest.NewRequest(http.MethodGet, "/bookings/u1", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp BookingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "2030-03-14", resp.Date)
	assert.Equal(t, 10, resp.SlotLengthMinutes)
	assert.Equal(t, 2, resp.MaxPerDay)
	assert.Equal(t, []string{"14:30:00"}, resp.Games["gameA"])
	assert.Equal(t, []string{"16:00:00"}, resp.Games["gameB"])
	// Only the current date's bookings are reported.
	assert.Len(t, resp.Games, 2)
}

func TestBookingsEndpointUnknownUser(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/bookings/nobody", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp BookingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "nobody", resp.UserID)
	assert.Empty(t, resp.Games)
}

func TestBookingsEndpointMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/bookings/u1", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
