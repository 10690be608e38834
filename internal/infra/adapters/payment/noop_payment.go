package payment

import (
	"context"
	"fmt"
	"sync"

	"p24-gateway/internal/domain/ports/adapter"
	"p24-gateway/internal/infra/adapters/payment/p24"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is an in-memory gateway for dev runs and tests. It still
// checks notification signatures, so callbacks signed with crc (e.g. by
// p24ctl sign-notification) flow through the service unchanged.
type NoopPaymentGateway struct {
	crc string

	mu      sync.Mutex
	seq     int64
	intents map[string]adapter.RegisterInput // sessionId -> registered transaction
}

func NewNoopPaymentGateway(crc string) *NoopPaymentGateway {
	return &NoopPaymentGateway{
		crc:     crc,
		intents: make(map[string]adapter.RegisterInput),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopPaymentGateway) Register(ctx context.Context, in adapter.RegisterInput) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	token := g.next()
	g.intents[in.SessionID] = in
	return token, p24.RedirectURL("https://example.test", token), nil
}

func (g *NoopPaymentGateway) ParseNotification(body []byte) (adapter.Notification, error) {
	n, err := p24.DecodeNotification(body)
	if err != nil {
		return adapter.Notification{}, err
	}
	return authenticated(n, n.Verify(g.crc))
}

func (g *NoopPaymentGateway) Confirm(ctx context.Context, n adapter.Notification) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[n.SessionID]
	if !ok {
		return false, fmt.Errorf("noop: session %s not registered", n.SessionID)
	}
	return in.Amount == n.Amount && in.Currency == n.Currency, nil
}
