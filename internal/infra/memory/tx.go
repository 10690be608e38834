package memory

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"

	"p24-gateway/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*TxManager)(nil)

// TxManager serializes fn calls and hands repositories a nil tx.
type TxManager struct {
	mu sync.Mutex
}

func NewTxManager() *TxManager { return &TxManager{} }

func (m *TxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}
