package adapter

import (
	"context"

	"p24-gateway/internal/domain/model"
)

// RegisterInput is what a payment provider needs to open a transaction.
type RegisterInput struct {
	SessionID   string
	Amount      int64 // minor units
	Currency    string
	Description string
	Email       string
	Country     string // empty uses the provider default
	Language    string // empty uses the provider default
}

// Notification is a provider callback whose signature has already been checked.
type Notification struct {
	SessionID    string
	OrderID      int64
	Amount       int64
	OriginAmount *int64
	Currency     string
	MethodID     *int64
	Statement    *string
	Sign         string
}

// PaymentGateway is the hex port for the payment provider.
type PaymentGateway interface {
	Name() string

	// Register opens a transaction and returns its token and the buyer redirect URL.
	Register(ctx context.Context, in RegisterInput) (token string, redirectURL string, err error)
	// ParseNotification authenticates a raw callback body. A malformed body is a
	// *domain.DecodeError; a bad signature is domain.ErrInvalidSignature.
	ParseNotification(body []byte) (Notification, error)
	// Confirm verifies the notified transaction with the provider. accepted is
	// false when the provider refused it.
	Confirm(ctx context.Context, n Notification) (accepted bool, err error)
}

// PaymentAlerter tells operators about settled payments.
type PaymentAlerter interface {
	PaymentSucceeded(ctx context.Context, p *model.Payment) error
}
