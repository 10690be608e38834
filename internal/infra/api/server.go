package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/domain/model"
	"p24-gateway/internal/infra/logging"
	"p24-gateway/internal/infra/metrics"
	"p24-gateway/internal/usecase"
)

const (
	DefaultNotifyPath = "/api/p24/notify"
	maxNotifyBody     = 64 << 10
	requestTimeout    = 30 * time.Second
)

// Options tunes the router. Zero values fall back to defaults.
type Options struct {
	NotifyPath string
	Limiter    Limiter
	RateLimit  int // register calls per client per minute
	Health     func(ctx context.Context) error
}

// Server exposes the payment use case over HTTP.
type Server struct {
	payUC usecase.PaymentUseCase
	opts  Options
	log   *zerolog.Logger
}

func NewServer(payUC usecase.PaymentUseCase, opts Options, logger *zerolog.Logger) *Server {
	if opts.NotifyPath == "" {
		opts.NotifyPath = DefaultNotifyPath
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{payUC: payUC, opts: opts, log: logger}
}

// Router builds the chi router with the middleware chain applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log), Timeout(requestTimeout))

	r.Post(s.opts.NotifyPath, s.handleNotify)
	r.Route("/api/p24/payments", func(r chi.Router) {
		r.With(RateLimit(s.opts.Limiter, "register", s.opts.RateLimit, time.Minute, s.log)).
			Post("/", s.handleRegister)
		r.Get("/{sessionID}", s.handleGet)
	})
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotifyBody))
	if err != nil {
		metrics.IncNotification(metrics.NotificationBadJSON)
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
		return
	}

	p, err := s.payUC.HandleNotification(r.Context(), body)
	l := logging.With(r.Context(), s.log)
	if err != nil {
		status, result := notifyOutcome(err)
		metrics.IncNotification(result)
		if status >= http.StatusInternalServerError {
			l.Error().Err(err).Msg("notification not settled")
		} else {
			l.Warn().Err(err).Str("result", result).Msg("notification rejected")
		}
		if status == http.StatusOK {
			writeJSON(w, status, map[string]string{"status": result})
			return
		}
		writeError(w, status, result)
		return
	}

	metrics.IncPayment(string(p.Status))
	if p.Status == model.PaymentStatusSucceeded {
		metrics.IncNotification(metrics.NotificationVerified)
		metrics.AddPaymentRevenue(p.Currency, p.Amount)
	} else {
		metrics.IncNotification(metrics.NotificationVerifyError)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(p.Status)})
}

// notifyOutcome maps a use-case error to the HTTP status and metric result.
// Duplicates answer 200 so the gateway stops redelivering.
func notifyOutcome(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDecode):
		return http.StatusBadRequest, metrics.NotificationBadJSON
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusBadRequest, metrics.NotificationBadSign
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return http.StatusOK, metrics.NotificationDuplicate
	case errors.Is(err, domain.ErrAmountMismatch):
		return http.StatusConflict, metrics.NotificationMismatch
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, metrics.NotificationVerifyError
	default:
		return http.StatusInternalServerError, metrics.NotificationVerifyError
	}
}

type registerRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Language    string `json:"language"`
}

type registerResponse struct {
	SessionID   string `json:"session_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotifyBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	p, redirectURL, err := s.payUC.Register(r.Context(), usecase.RegisterPaymentInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Email:       req.Email,
		Country:     req.Country,
		Language:    req.Language,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrGateway):
			logging.With(r.Context(), s.log).Error().Err(err).Msg("gateway rejected register")
			writeError(w, http.StatusBadGateway, "gateway_error")
		default:
			logging.With(r.Context(), s.log).Error().Err(err).Msg("register payment")
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}
	metrics.IncPayment(string(p.Status))
	writeJSON(w, http.StatusCreated, registerResponse{
		SessionID:   p.SessionID,
		Token:       p.Token,
		RedirectURL: redirectURL,
	})
}

type paymentView struct {
	SessionID string     `json:"session_id"`
	Status    string     `json:"status"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	OrderID   *int64     `json:"order_id,omitempty"`
	MethodID  *int64     `json:"method_id,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.payUC.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("get payment")
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, paymentView{
		SessionID: p.SessionID,
		Status:    string(p.Status),
		Amount:    p.Amount,
		Currency:  p.Currency,
		OrderID:   p.OrderID,
		MethodID:  p.MethodID,
		PaidAt:    p.PaidAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health != nil {
		if err := s.opts.Health(r.Context()); err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("health check failed")
			writeError(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
