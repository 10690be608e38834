package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"p24-gateway/internal/domain/model"
	"p24-gateway/internal/domain/ports/adapter"
)

var _ adapter.PaymentAlerter = (*NoopAlerter)(nil)

// NoopAlerter logs the alert instead of sending it. Used when no bot token is configured.
type NoopAlerter struct {
	log *zerolog.Logger
}

func NewNoopAlerter(logger *zerolog.Logger) *NoopAlerter {
	return &NoopAlerter{log: logger}
}

func (a *NoopAlerter) PaymentSucceeded(ctx context.Context, p *model.Payment) error {
	a.log.Info().Str("session_id", p.SessionID).Str("alert", paymentText(p)).Msg("[noop-telegram] payment alert")
	return nil
}
