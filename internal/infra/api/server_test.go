//go:build !integration

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"p24-gateway/internal/infra/adapters/payment"
	"p24-gateway/internal/infra/adapters/payment/p24"
	"p24-gateway/internal/infra/api"
	"p24-gateway/internal/infra/memory"
	"p24-gateway/internal/infra/metrics"
	"p24-gateway/internal/usecase"
)

const testCRC = "test-crc"

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func newTestServer(t *testing.T, opts api.Options) http.Handler {
	t.Helper()
	uc := usecase.NewPaymentUseCase(
		memory.NewPaymentRepo(),
		memory.NewLedger(time.Hour),
		memory.NewTxManager(),
		payment.NewNoopPaymentGateway(testCRC),
		nil,
		newLogger(),
	)
	return api.NewServer(uc, opts, newLogger()).Router()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, h http.Handler, amount int64) string {
	t.Helper()
	rec := do(h, http.MethodPost, "/api/p24/payments",
		`{"amount":`+jsonInt(amount)+`,"currency":"PLN","description":"Order 1","email":"buyer@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: want 201, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		SessionID   string `json:"session_id"`
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.SessionID == "" || out.Token == "" || !strings.HasSuffix(out.RedirectURL, "/trnRequest/"+out.Token) {
		t.Fatalf("unexpected register response: %+v", out)
	}
	return out.SessionID
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func ptr[T any](v T) *T { return &v }

func notification(t *testing.T, session string, amount, orderID int64, crc string) string {
	t.Helper()
	n := p24.TransactionNotification{
		MerchantID:   ptr(int64(123456)),
		PosID:        ptr(int64(123456)),
		SessionID:    ptr(session),
		Amount:       ptr(amount),
		OriginAmount: ptr(amount),
		Currency:     ptr("PLN"),
		OrderID:      ptr(orderID),
		MethodID:     ptr(int64(25)),
		Statement:    ptr("p24-A1-B2-C3"),
	}.Signed(crc)
	b, err := n.Wire()
	if err != nil {
		t.Fatalf("wire: %v", err)
	}
	return string(b)
}

func statusOf(t *testing.T, rec *httptest.ResponseRecorder, key string) string {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	s, _ := m[key].(string)
	return s
}

func TestNotify_SettlesOnceAndAcknowledgesReplays(t *testing.T) {
	h := newTestServer(t, api.Options{})
	session := register(t, h, 10000)
	body := notification(t, session, 10000, 987654321, testCRC)

	rec := do(h, http.MethodPost, api.DefaultNotifyPath, body)
	if rec.Code != http.StatusOK || statusOf(t, rec, "status") != "succeeded" {
		t.Fatalf("first delivery: got %d, body=%s", rec.Code, rec.Body.String())
	}

	rec = do(h, http.MethodPost, api.DefaultNotifyPath, body)
	if rec.Code != http.StatusOK || statusOf(t, rec, "status") != "duplicate" {
		t.Fatalf("replay: got %d, body=%s", rec.Code, rec.Body.String())
	}

	rec = do(h, http.MethodGet, "/api/p24/payments/"+session, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got %d, body=%s", rec.Code, rec.Body.String())
	}
	var view struct {
		Status  string `json:"status"`
		OrderID int64  `json:"order_id"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &view)
	if view.Status != "succeeded" || view.OrderID != 987654321 {
		t.Fatalf("unexpected payment view: %+v", view)
	}
}

func TestNotify_Rejections(t *testing.T) {
	h := newTestServer(t, api.Options{})
	session := register(t, h, 10000)

	tampered := strings.Replace(notification(t, session, 10000, 1, testCRC), `"amount":10000`, `"amount":1`, 1)

	cases := []struct {
		name string
		body string
		code int
		want string
	}{
		{"malformed json", `{"sessionId":`, http.StatusBadRequest, "bad_json"},
		{"wrong type", `{"amount":"10000"}`, http.StatusBadRequest, "bad_json"},
		{"signed with another secret", notification(t, session, 10000, 2, "other"), http.StatusBadRequest, "bad_sign"},
		{"tampered amount", tampered, http.StatusBadRequest, "bad_sign"},
		{"unsigned", `{"sessionId":"` + session + `","amount":10000}`, http.StatusBadRequest, "bad_sign"},
		{"amount differs from registration", notification(t, session, 5000, 3, testCRC), http.StatusConflict, "mismatch"},
		{"unknown session", notification(t, "nope", 10000, 4, testCRC), http.StatusNotFound, "verify_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, api.DefaultNotifyPath, tc.body)
			if rec.Code != tc.code {
				t.Fatalf("want %d, got %d, body=%s", tc.code, rec.Code, rec.Body.String())
			}
			if got := statusOf(t, rec, "error"); got != tc.want {
				t.Fatalf("want error %q, got %q", tc.want, got)
			}
		})
	}

	rec := do(h, http.MethodGet, "/api/p24/payments/"+session, "")
	if statusOf(t, rec, "status") != "pending" {
		t.Fatalf("rejected notifications must leave the payment pending, body=%s", rec.Body.String())
	}
}

func TestNotify_BodyLimit(t *testing.T) {
	h := newTestServer(t, api.Options{})
	big := `{"statement":"` + strings.Repeat("x", 70<<10) + `"}`
	rec := do(h, http.MethodPost, api.DefaultNotifyPath, big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}
}

func TestNotify_CustomPath(t *testing.T) {
	h := newTestServer(t, api.Options{NotifyPath: "/hooks/p24"})
	if rec := do(h, http.MethodPost, "/hooks/p24", `{`); rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 on custom path, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPost, api.DefaultNotifyPath, `{}`); rec.Code != http.StatusNotFound {
		t.Fatalf("default path should not be routed, got %d", rec.Code)
	}
}

func TestRegister_Errors(t *testing.T) {
	h := newTestServer(t, api.Options{})

	if rec := do(h, http.MethodPost, "/api/p24/payments", `{"amount":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed: want 400, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/api/p24/payments", `{"amount":1,"bogus":true}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: want 400, got %d", rec.Code)
	}
	rec := do(h, http.MethodPost, "/api/p24/payments", `{"amount":100,"currency":"ZL","description":"d","email":"e@x"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad currency: want 422, got %d, body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(h, http.MethodGet, "/api/p24/payments/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing payment: want 404, got %d", rec.Code)
	}
}

type denyLimiter struct{ err error }

func (d denyLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, d.err
}

func TestRegister_RateLimit(t *testing.T) {
	h := newTestServer(t, api.Options{Limiter: denyLimiter{}, RateLimit: 5})
	rec := do(h, http.MethodPost, "/api/p24/payments", `{"amount":100,"currency":"PLN","description":"d","email":"e@x"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", rec.Code)
	}

	// A failing limiter lets traffic through.
	h = newTestServer(t, api.Options{Limiter: denyLimiter{err: errors.New("redis down")}, RateLimit: 5})
	register(t, h, 100)
}

func TestHealthAndMetrics(t *testing.T) {
	metrics.MustRegister()
	h := newTestServer(t, api.Options{})
	if rec := do(h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}

	do(h, http.MethodPost, api.DefaultNotifyPath, `{`)
	rec := do(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("p24_notifications_total")) {
		t.Fatalf("metrics: %d", rec.Code)
	}

	sick := newTestServer(t, api.Options{Health: func(context.Context) error { return errors.New("db down") }})
	if rec := do(sick, http.MethodGet, "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: want 503, got %d", rec.Code)
	}
}

func TestTraceIDHeader(t *testing.T) {
	h := newTestServer(t, api.Options{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") != "abc" {
		t.Fatalf("trace id not echoed: %q", rec.Header().Get("X-Request-Id"))
	}
}
