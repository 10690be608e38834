package repository

import (
	"context"
	"time"

	"p24-gateway/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, qx Tx, p *model.Payment) error
	FindByID(ctx context.Context, qx Tx, id string) (*model.Payment, error)
	// FindBySessionID locks the row when qx is a transaction.
	FindBySessionID(ctx context.Context, qx Tx, sessionID string) (*model.Payment, error)
	MarkSucceeded(ctx context.Context, qx Tx, id string, orderID int64, methodID *int64, statement *string, paidAt time.Time) error
	MarkFailed(ctx context.Context, qx Tx, id string, orderID int64) error
	// ListPendingOlderThan returns at most limit pending payments created before cutoff, oldest first.
	ListPendingOlderThan(ctx context.Context, qx Tx, cutoff time.Time, limit int) ([]*model.Payment, error)
	// Expire marks a pending payment failed without an order id.
	Expire(ctx context.Context, qx Tx, id string) error
}

// -----------------------------
// Notification ledger
// -----------------------------

// NotificationLedger suppresses replays of a notification already acted on.
type NotificationLedger interface {
	// Claim records key and reports false when it was already recorded.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a later retry of the same notification is processed.
	Release(ctx context.Context, key string) error
}
