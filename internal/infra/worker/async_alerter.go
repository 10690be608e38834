package worker

import (
	"context"
	"time"

	"p24-gateway/internal/domain/model"
	"p24-gateway/internal/domain/ports/adapter"
)

var _ adapter.PaymentAlerter = (*AsyncAlerter)(nil)

const alertTimeout = 10 * time.Second

// AsyncAlerter hands alerts to the pool so a slow chat API never delays the
// answer to the gateway.
type AsyncAlerter struct {
	next adapter.PaymentAlerter
	pool *Pool
}

func NewAsyncAlerter(next adapter.PaymentAlerter, pool *Pool) *AsyncAlerter {
	return &AsyncAlerter{next: next, pool: pool}
}

// PaymentSucceeded queues the alert; it only fails when the queue is full.
func (a *AsyncAlerter) PaymentSucceeded(_ context.Context, p *model.Payment) error {
	cp := *p
	return a.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, alertTimeout)
		defer cancel()
		return a.next.PaymentSucceeded(ctx, &cp)
	})
}
