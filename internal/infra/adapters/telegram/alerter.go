package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"p24-gateway/internal/config"
	"p24-gateway/internal/domain/model"
	"p24-gateway/internal/domain/ports/adapter"
)

var _ adapter.PaymentAlerter = (*Alerter)(nil)

// sender is the part of *tgbotapi.BotAPI the alerter needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Alerter messages every configured admin when a payment settles.
type Alerter struct {
	bot    sender
	admins []int64
}

func NewAlerter(cfg config.TelegramConfig) (*Alerter, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if len(cfg.AdminIDs) == 0 {
		return nil, errors.New("telegram admin_ids is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newAlerter(bot, cfg.AdminIDs), nil
}

func newAlerter(bot sender, admins []int64) *Alerter {
	return &Alerter{bot: bot, admins: admins}
}

// PaymentSucceeded tries every admin and returns the joined delivery errors.
func (a *Alerter) PaymentSucceeded(ctx context.Context, p *model.Payment) error {
	text := paymentText(p)
	var errs []error
	for _, id := range a.admins {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
			errs = append(errs, fmt.Errorf("admin %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func paymentText(p *model.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Payment received\n")
	fmt.Fprintf(&b, "Amount: %s %s\n", formatMinor(p.Amount), p.Currency)
	fmt.Fprintf(&b, "Session: %s\n", p.SessionID)
	if p.OrderID != nil {
		fmt.Fprintf(&b, "Order: %d\n", *p.OrderID)
	}
	if p.Statement != nil {
		fmt.Fprintf(&b, "Statement: %s\n", *p.Statement)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s", p.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatMinor renders an amount in minor units, 12345 -> "123.45".
func formatMinor(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
