// Package api exposes the read-only booking query surface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"playslot/internal/booking"
	"playslot/internal/metrics"
	"playslot/internal/slots"
	"playslot/internal/store"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

// BookingsResponse is the response for GET /bookings/:userId.
type BookingsResponse struct {
	UserID            string              `json:"user_id"`
	Date              string              `json:"date"` // Format: YYYY-MM-DD
	SlotLengthMinutes int                 `json:"slot_length_minutes"`
	MaxPerDay         int                 `json:"max_per_day"`
	Games             map[string][]string `json:"games"`
}

// HTTPServer serves booking queries.
type HTTPServer struct {
	service *booking.Service
	logger  *zerolog.Logger
	srv     *http.Server

	// now is swappable for tests.
	now func() time.Time
}

func NewHTTPServer(service *booking.Service, port int, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		service: service,
		logger:  logger,
		now:     time.Now,
	}

	router := httprouter.New()
	router.GET("/bookings/:userId", s.handleBookings)
	router.GET("/healthz", s.handleHealth)

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("query API listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

// handleBookings returns the user's bookings for the current date, one
// bucket per game. Unknown users get an empty response, not a 404: an
// absent user and a user with no bookings are the same thing here.
// GET /bookings/:userId
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	metrics.IncHTTP("bookings")

	userID := ps.ByName("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	now := s.now()
	games := s.service.TodayBookings(userID, now)

	writeJSON(w, http.StatusOK, BookingsResponse{
		UserID:            userID,
		Date:              slots.DateKey(now),
		SlotLengthMinutes: int(slots.SlotLength.Minutes()),
		MaxPerDay:         store.MaxPerDay,
		Games:             games,
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
