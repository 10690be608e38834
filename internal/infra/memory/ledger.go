package memory

import (
	"context"
	"sync"
	"time"

	"p24-gateway/internal/domain/ports/repository"
)

var _ repository.NotificationLedger = (*Ledger)(nil)

// Ledger is an in-process NotificationLedger. Claims expire after ttl; a zero
// ttl keeps them for the life of the process.
type Ledger struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewLedger(ttl time.Duration) *Ledger {
	return &Ledger{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (l *Ledger) Claim(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if at, ok := l.seen[key]; ok && (l.ttl == 0 || now.Sub(at) < l.ttl) {
		return false, nil
	}
	l.seen[key] = now
	return true, nil
}

func (l *Ledger) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, key)
	return nil
}
