package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX Tx

// TransactionManager runs fn inside a storage transaction and hands the
// transaction handle to repositories as qx.
//
// The concrete type of qx is infra-defined (pgx.Tx for Postgres). Repositories
// must accept a nil qx and run non-transactionally.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
