//go:build !integration

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/domain/model"
	"p24-gateway/internal/domain/ports/repository"
)

func newPayment(t *testing.T, session string) *model.Payment {
	t.Helper()
	p, err := model.NewPayment(session, 10000, "PLN", "Order", "buyer@example.com")
	if err != nil {
		t.Fatalf("NewPayment: %v", err)
	}
	return p
}

func TestPaymentRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewPaymentRepo()
	p := newPayment(t, "s1")

	if err := r.Save(ctx, repository.NoTX, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := r.Save(ctx, repository.NoTX, newPayment(t, "s1")); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for duplicate session, got %v", err)
	}

	got, err := r.FindBySessionID(ctx, repository.NoTX, "s1")
	if err != nil || got.ID != p.ID {
		t.Fatalf("FindBySessionID: %+v, %v", got, err)
	}
	got.Amount = 1
	if again, _ := r.FindByID(ctx, repository.NoTX, p.ID); again.Amount != 10000 {
		t.Fatal("returned payments must be copies")
	}

	method := int64(154)
	if err := r.MarkSucceeded(ctx, repository.NoTX, p.ID, 987, &method, nil, time.Now()); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}
	if err := r.MarkSucceeded(ctx, repository.NoTX, p.ID, 987, &method, nil, time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second MarkSucceeded should be ErrNotFound, got %v", err)
	}
	if err := r.MarkFailed(ctx, repository.NoTX, p.ID, 987); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("MarkFailed after success should be ErrNotFound, got %v", err)
	}
	got, _ = r.FindByID(ctx, repository.NoTX, p.ID)
	if got.Status != model.PaymentStatusSucceeded || got.OrderID == nil || *got.OrderID != 987 || got.PaidAt == nil {
		t.Fatalf("unexpected state: %+v", got)
	}

	if _, err := r.FindBySessionID(ctx, repository.NoTX, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if ok, _ := l.Claim(ctx, "k"); !ok {
		t.Fatal("first claim must succeed")
	}
	if ok, _ := l.Claim(ctx, "k"); ok {
		t.Fatal("second claim must fail")
	}
	now = now.Add(2 * time.Hour)
	if ok, _ := l.Claim(ctx, "k"); !ok {
		t.Fatal("expired claim must be claimable")
	}
	_ = l.Release(ctx, "k")
	if ok, _ := l.Claim(ctx, "k"); !ok {
		t.Fatal("released claim must be claimable")
	}
}

func TestTxManagerPassesNilTx(t *testing.T) {
	m := NewTxManager()
	want := errors.New("boom")
	err := m.WithTx(context.Background(), pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if tx != nil {
			t.Errorf("expected nil tx, got %T", tx)
		}
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}
}
