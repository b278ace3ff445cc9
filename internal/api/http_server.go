package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tradepost/internal/config"
	"tradepost/internal/domain"
	"tradepost/internal/httpclient"
	"tradepost/internal/logging"
	"tradepost/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	healthPath      = "/healthz"
	requestIDHeader = "X-Request-ID"
	bookingsPrefix  = "/api/v1/{entity}/bookings"
)

// HTTPServer exposes the booking adapters over a small JSON API.
type HTTPServer struct {
	cfg    config.APIConfig
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc domain.BookingService, logger *zerolog.Logger) *HTTPServer {
	logger = logging.Component(logger, "http")
	srv := &HTTPServer{cfg: cfg, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	h := &bookingHandlers{svc: svc, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+healthPath, handleHealth)
	mux.HandleFunc("GET "+bookingsPrefix+"/buyer/{id}", h.buyerBookings)
	mux.HandleFunc("GET "+bookingsPrefix+"/entity/{id}", h.entityBookings)
	mux.HandleFunc("GET "+bookingsPrefix+"/seller/{id}", h.sellerBookings)
	mux.HandleFunc("GET "+bookingsPrefix+"/pending", h.pendingBookings)
	mux.HandleFunc("GET "+bookingsPrefix+"/{bookingId}", h.thread)
	mux.HandleFunc("POST "+bookingsPrefix, h.createBooking)
	mux.HandleFunc("POST "+bookingsPrefix+"/{bookingId}/messages", h.sendMessage)
	mux.HandleFunc("PATCH "+bookingsPrefix+"/{bookingId}/status", h.updateStatus)
	mux.HandleFunc("POST "+bookingsPrefix+"/{bookingId}/accept", h.accept)
	mux.HandleFunc("POST "+bookingsPrefix+"/{bookingId}/reject", h.reject)
	mux.HandleFunc("POST "+bookingsPrefix+"/{bookingId}/approve", h.approve)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.loggingMiddleware(srv.auth.Wrap(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		if wantsFreshRead(r) {
			r = r.WithContext(httpclient.WithFreshRead(r.Context()))
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTP(route, recorder.status)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// wantsFreshRead reports whether the client asked to bypass the backend
// response cache.
func wantsFreshRead(r *http.Request) bool {
	for _, directive := range strings.Split(r.Header.Get("Cache-Control"), ",") {
		switch strings.ToLower(strings.TrimSpace(directive)) {
		case "no-cache", "no-store", "max-age=0":
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
