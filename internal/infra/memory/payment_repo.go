// Package memory holds process-local stores used when no database or redis
// is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/domain/model"
	"p24-gateway/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

type PaymentRepo struct {
	mu        sync.RWMutex
	byID      map[string]*model.Payment
	bySession map[string]string
}

func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{
		byID:      make(map[string]*model.Payment),
		bySession: make(map[string]string),
	}
}

func (r *PaymentRepo) Save(ctx context.Context, qx repository.Tx, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.bySession[p.SessionID]; ok && id != p.ID {
		return domain.ErrAlreadyExists
	}
	cp := *p
	r.byID[p.ID] = &cp
	r.bySession[p.SessionID] = p.ID
	return nil
}

func (r *PaymentRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PaymentRepo) FindBySessionID(ctx context.Context, qx repository.Tx, sessionID string) (*model.Payment, error) {
	r.mu.RLock()
	id, ok := r.bySession[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, qx, id)
}

func (r *PaymentRepo) MarkSucceeded(ctx context.Context, qx repository.Tx, id string, orderID int64, methodID *int64, statement *string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.Status == model.PaymentStatusSucceeded {
		return domain.ErrNotFound
	}
	p.Status = model.PaymentStatusSucceeded
	p.OrderID = &orderID
	p.MethodID = methodID
	p.Statement = statement
	p.PaidAt = &paidAt
	p.UpdatedAt = paidAt
	return nil
}

func (r *PaymentRepo) MarkFailed(ctx context.Context, qx repository.Tx, id string, orderID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return domain.ErrNotFound
	}
	p.Status = model.PaymentStatusFailed
	p.OrderID = &orderID
	p.UpdatedAt = time.Now()
	return nil
}

func (r *PaymentRepo) ListPendingOlderThan(ctx context.Context, qx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Payment
	for _, p := range r.byID {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *PaymentRepo) Expire(ctx context.Context, qx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return domain.ErrNotFound
	}
	p.Status = model.PaymentStatusFailed
	p.UpdatedAt = time.Now()
	return nil
}
