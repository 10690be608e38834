// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/domain/model"
	"p24-gateway/internal/domain/ports/adapter"
	"p24-gateway/internal/domain/ports/repository"
	"p24-gateway/internal/infra/logging"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// RegisterPaymentInput is what a shop submits to start a payment.
type RegisterPaymentInput struct {
	Amount      int64
	Currency    string
	Description string
	Email       string
	Country     string
	Language    string
}

type PaymentUseCase interface {
	// Register opens a gateway transaction under a fresh session id and stores it as pending.
	Register(ctx context.Context, in RegisterPaymentInput) (*model.Payment, string, error)
	// HandleNotification authenticates a gateway callback, matches it to the
	// registered payment and confirms the transaction with the gateway.
	HandleNotification(ctx context.Context, body []byte) (*model.Payment, error)
	// Get returns a payment by its session id.
	Get(ctx context.Context, sessionID string) (*model.Payment, error)
	// ExpireStale fails up to limit pending payments registered before cutoff.
	// A genuine notification arriving later still settles them.
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	ledger   repository.NotificationLedger
	tm       repository.TransactionManager
	gateway  adapter.PaymentGateway
	alerter  adapter.PaymentAlerter
	log      *zerolog.Logger

	newSessionID func() string
}

// NewPaymentUseCase wires the payment flow. alerter may be nil.
func NewPaymentUseCase(
	payments repository.PaymentRepository,
	ledger repository.NotificationLedger,
	tm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	alerter adapter.PaymentAlerter,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		payments:     payments,
		ledger:       ledger,
		tm:           tm,
		gateway:      gateway,
		alerter:      alerter,
		log:          logger,
		newSessionID: func() string { return ulid.Make().String() },
	}
}

func (u *paymentUC) Register(ctx context.Context, in RegisterPaymentInput) (*model.Payment, string, error) {
	p, err := model.NewPayment(u.newSessionID(), in.Amount, in.Currency, in.Description, in.Email)
	if err != nil {
		return nil, "", err
	}
	token, redirectURL, err := u.gateway.Register(ctx, adapter.RegisterInput{
		SessionID:   p.SessionID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Description: p.Description,
		Email:       p.Email,
		Country:     in.Country,
		Language:    in.Language,
	})
	if err != nil {
		return nil, "", fmt.Errorf("register transaction: %w", err)
	}
	p.Token = token
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, "", fmt.Errorf("save payment: %w", err)
	}
	logging.With(ctx, u.log).Info().Str("session_id", p.SessionID).Int64("amount", p.Amount).Str("currency", p.Currency).Msg("payment registered")
	return p, redirectURL, nil
}

func (u *paymentUC) Get(ctx context.Context, sessionID string) (*model.Payment, error) {
	return u.payments.FindBySessionID(ctx, repository.NoTX, sessionID)
}

func (u *paymentUC) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := u.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}
	expired := 0
	for _, p := range stale {
		err := u.payments.Expire(ctx, repository.NoTX, p.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue // settled meanwhile
		}
		if err != nil {
			return expired, fmt.Errorf("expire payment %s: %w", p.ID, err)
		}
		expired++
		logging.With(logging.WithSessID(ctx, p.SessionID), u.log).Info().Time("created_at", p.CreatedAt).Msg("pending payment expired")
	}
	return expired, nil
}

func (u *paymentUC) HandleNotification(ctx context.Context, body []byte) (*model.Payment, error) {
	n, err := u.gateway.ParseNotification(body)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithOrderID(logging.WithSessID(ctx, n.SessionID), n.OrderID)
	key := fmt.Sprintf("%d:%s", n.OrderID, n.Sign)
	claimed, err := u.ledger.Claim(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("claim notification: %w", err)
	}
	if !claimed {
		return nil, domain.ErrAlreadyProcessed
	}

	p, err := u.settle(ctx, n)
	if err != nil && retryable(err) {
		// Let the gateway's next delivery of this notification try again.
		if rerr := u.ledger.Release(ctx, key); rerr != nil {
			logging.With(ctx, u.log).Error().Err(rerr).Msg("release notification claim")
		}
	}
	return p, err
}

func (u *paymentUC) settle(ctx context.Context, n adapter.Notification) (*model.Payment, error) {
	p, err := u.payments.FindBySessionID(ctx, repository.NoTX, n.SessionID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.PaymentStatusSucceeded {
		return p, domain.ErrAlreadyProcessed
	}
	if !p.Matches(n.Amount, n.Currency) {
		return p, fmt.Errorf("%w: registered %d %s, notified %d %s",
			domain.ErrAmountMismatch, p.Amount, p.Currency, n.Amount, n.Currency)
	}

	accepted, err := u.gateway.Confirm(ctx, n)
	if err != nil {
		return p, fmt.Errorf("verify transaction: %w", err)
	}

	now := time.Now()
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := u.payments.FindBySessionID(ctx, tx, n.SessionID)
		if err != nil {
			return err
		}
		if cur.Status == model.PaymentStatusSucceeded {
			return domain.ErrAlreadyProcessed
		}
		if accepted {
			return u.payments.MarkSucceeded(ctx, tx, cur.ID, n.OrderID, n.MethodID, n.Statement, now)
		}
		return u.payments.MarkFailed(ctx, tx, cur.ID, n.OrderID)
	})
	if err != nil {
		return p, err
	}

	orderID := n.OrderID
	p.OrderID = &orderID
	p.UpdatedAt = now
	if !accepted {
		p.Status = model.PaymentStatusFailed
		logging.With(ctx, u.log).Warn().Msg("gateway refused transaction verify")
		return p, nil
	}
	p.Status = model.PaymentStatusSucceeded
	p.MethodID = n.MethodID
	p.Statement = n.Statement
	p.PaidAt = &now
	logging.With(ctx, u.log).Info().Msg("payment succeeded")

	if u.alerter != nil {
		if err := u.alerter.PaymentSucceeded(ctx, p); err != nil {
			logging.With(ctx, u.log).Warn().Err(err).Msg("payment alert failed")
		}
	}
	return p, nil
}

// retryable reports whether a failed notification may succeed on redelivery.
func retryable(err error) bool {
	return !errors.Is(err, domain.ErrAmountMismatch) && !errors.Is(err, domain.ErrAlreadyProcessed)
}
