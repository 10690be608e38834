//go:build !integration

package model

import (
	"errors"
	"testing"

	"p24-gateway/internal/domain"
)

func TestNewPayment(t *testing.T) {
	t.Run("should create a pending payment", func(t *testing.T) {
		p, err := NewPayment("01J0000000000000000000000", 10000, " pln ", "Order #1", "buyer@example.com")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if p.ID == "" {
			t.Error("expected payment ID to be non-empty")
		}
		if p.Currency != "PLN" {
			t.Errorf("expected currency to be normalized to PLN, got %s", p.Currency)
		}
		if p.Status != PaymentStatusPending {
			t.Errorf("expected status pending, got %s", p.Status)
		}
		if p.OrderID != nil || p.PaidAt != nil {
			t.Error("expected order id and paid at to be unset")
		}
	})

	cases := []struct {
		name      string
		sessionID string
		amount    int64
		currency  string
	}{
		{"empty session", "", 100, "PLN"},
		{"zero amount", "s1", 0, "PLN"},
		{"negative amount", "s1", -1, "PLN"},
		{"bad currency", "s1", 100, "ZLOTY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPayment(tc.sessionID, tc.amount, tc.currency, "", "")
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestPayment_Matches(t *testing.T) {
	p := &Payment{Amount: 10000, Currency: "PLN"}
	if !p.Matches(10000, "PLN") {
		t.Error("expected registered amount and currency to match")
	}
	if p.Matches(9999, "PLN") || p.Matches(10000, "EUR") {
		t.Error("expected a different amount or currency not to match")
	}
}

func TestPayment_IsFinal(t *testing.T) {
	for status, want := range map[PaymentStatus]bool{
		PaymentStatusPending:   false,
		PaymentStatusSucceeded: true,
		PaymentStatusFailed:    true,
	} {
		p := &Payment{Status: status}
		if got := p.IsFinal(); got != want {
			t.Errorf("IsFinal(%s) = %v, want %v", status, got, want)
		}
	}
}
