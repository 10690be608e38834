//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/domain/model"
	"p24-gateway/internal/domain/ports/adapter"
	"p24-gateway/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Payment gateway ----

type MockPaymentGateway struct {
	RegisterFunc          func(ctx context.Context, in adapter.RegisterInput) (string, string, error)
	ParseNotificationFunc func(body []byte) (adapter.Notification, error)
	ConfirmFunc           func(ctx context.Context, n adapter.Notification) (bool, error)

	mu        sync.Mutex
	confirmed []adapter.Notification
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) Register(ctx context.Context, in adapter.RegisterInput) (string, string, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	return "token-" + in.SessionID, "https://pay.example/trnRequest/token-" + in.SessionID, nil
}

func (m *MockPaymentGateway) ParseNotification(body []byte) (adapter.Notification, error) {
	if m.ParseNotificationFunc != nil {
		return m.ParseNotificationFunc(body)
	}
	return adapter.Notification{}, domain.ErrInvalidSignature
}

func (m *MockPaymentGateway) Confirm(ctx context.Context, n adapter.Notification) (bool, error) {
	m.mu.Lock()
	m.confirmed = append(m.confirmed, n)
	m.mu.Unlock()
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, n)
	}
	return true, nil
}

func (m *MockPaymentGateway) Confirmed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.confirmed)
}

// ---- Payment repository ----

type MockPaymentRepo struct {
	mu     sync.Mutex
	data   map[string]*model.Payment // by id
	bySess map[string]string         // sessionId -> id

	SaveFunc          func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	MarkSucceededFunc func(ctx context.Context, tx repository.Tx, id string, orderID int64) error

	// tx handles seen by FindBySessionID, in call order
	lookups []repository.Tx
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}, bySess: map[string]string{}}
}

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
	r.bySess[p.SessionID] = p.ID
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, tx)
	if id, ok := r.bySess[sessionID]; ok {
		cp := *r.data[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) MarkSucceeded(ctx context.Context, tx repository.Tx, id string, orderID int64, methodID *int64, statement *string, paidAt time.Time) error {
	if r.MarkSucceededFunc != nil {
		return r.MarkSucceededFunc(ctx, tx, id, orderID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = model.PaymentStatusSucceeded
	p.OrderID = &orderID
	p.MethodID = methodID
	p.Statement = statement
	p.PaidAt = &paidAt
	return nil
}

func (r *MockPaymentRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = model.PaymentStatusFailed
	p.OrderID = &orderID
	return nil
}

func (r *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockPaymentRepo) Expire(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return domain.ErrNotFound
	}
	p.Status = model.PaymentStatusFailed
	return nil
}

// ---- Notification ledger ----

type MockLedger struct {
	mu       sync.Mutex
	claimed  map[string]bool
	Released []string
	ClaimErr error
}

var _ repository.NotificationLedger = (*MockLedger)(nil)

func NewMockLedger() *MockLedger {
	return &MockLedger{claimed: map[string]bool{}}
}

func (l *MockLedger) Claim(ctx context.Context, key string) (bool, error) {
	if l.ClaimErr != nil {
		return false, l.ClaimErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimed[key] {
		return false, nil
	}
	l.claimed[key] = true
	return true, nil
}

func (l *MockLedger) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claimed, key)
	l.Released = append(l.Released, key)
	return nil
}

// ---- Alerter ----

type MockAlerter struct {
	mu   sync.Mutex
	Sent []*model.Payment
	Err  error
}

func (a *MockAlerter) PaymentSucceeded(ctx context.Context, p *model.Payment) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Sent = append(a.Sent, p)
	return a.Err
}

// ---- Tx manager ----

// txMarker stands in for a real transaction handle.
type txMarker struct{}

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with a marker handle unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, txMarker{})
}
