package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"p24-gateway/internal/usecase"
)

const expireBatch = 200

// PaymentExpirer periodically fails pending payments whose buyer never came
// back, so they stop looking open in reports.
type PaymentExpirer struct {
	uc         usecase.PaymentUseCase
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to expire
	log        *zerolog.Logger
	now        func() time.Time
}

func NewPaymentExpirer(uc usecase.PaymentUseCase, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentExpirer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &PaymentExpirer{uc: uc, interval: interval, staleAfter: staleAfter, log: logger, now: time.Now}
}

func (w *PaymentExpirer) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

// tick drains every stale batch so a backlog clears in one pass.
func (w *PaymentExpirer) tick(ctx context.Context) {
	cutoff := w.now().Add(-w.staleAfter)
	for ctx.Err() == nil {
		n, err := w.uc.ExpireStale(ctx, cutoff, expireBatch)
		if err != nil {
			w.log.Error().Err(err).Msg("payment-expirer: expire stale")
			return
		}
		if n > 0 {
			w.log.Info().Int("expired", n).Msg("payment-expirer: expired pending payments")
		}
		if n < expireBatch {
			return
		}
	}
}
