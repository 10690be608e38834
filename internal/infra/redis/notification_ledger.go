package redis

import (
	"context"
	"fmt"
	"time"

	"p24-gateway/internal/domain/ports/repository"
)

var _ repository.NotificationLedger = (*NotificationLedger)(nil)

const ledgerPrefix = "p24:notification:"

// NotificationLedger remembers handled notifications for ttl with SETNX.
type NotificationLedger struct {
	client RedisClient
	ttl    time.Duration
}

func NewNotificationLedger(client RedisClient, ttl time.Duration) *NotificationLedger {
	return &NotificationLedger{client: client, ttl: ttl}
}

func (l *NotificationLedger) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, ledgerPrefix+key, time.Now().Unix(), l.ttl)
	if err != nil {
		return false, fmt.Errorf("ledger claim: %w", err)
	}
	return ok, nil
}

func (l *NotificationLedger) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, ledgerPrefix+key); err != nil {
		return fmt.Errorf("ledger release: %w", err)
	}
	return nil
}
