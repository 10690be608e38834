package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"p24-gateway/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // registered at the gateway; buyer redirected
	PaymentStatusSucceeded PaymentStatus = "succeeded" // notification verified and transaction confirmed
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway refused the transaction verify
)

// Payment is the integrator's record of one registered gateway transaction.
type Payment struct {
	ID          string // UUID
	SessionID   string // ULID, sent as sessionId; stable between register and verify
	Amount      int64  // minor units
	Currency    string
	Description string
	Email       string
	Token       string // register token used for the redirect
	OrderID     *int64 // gateway-assigned, known once notified
	MethodID    *int64
	Statement   *string
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time
}

// NewPayment creates a pending payment for a transaction about to be registered.
func NewPayment(sessionID string, amount int64, currency, description, email string) (*Payment, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidArgument)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrInvalidArgument)
	}
	now := time.Now()
	return &Payment{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Amount:      amount,
		Currency:    currency,
		Description: description,
		Email:       email,
		Status:      PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Matches reports whether a notified amount and currency are the ones registered.
func (p *Payment) Matches(amount int64, currency string) bool {
	return p.Amount == amount && p.Currency == currency
}

func (p *Payment) IsFinal() bool {
	return p.Status == PaymentStatusSucceeded || p.Status == PaymentStatusFailed
}
