package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/domain/model"
	"p24-gateway/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

const uniqueViolation = "23505"

const paymentColumns = `id, session_id, amount, currency, description, email, token, order_id, method_id, statement, status, created_at, updated_at, paid_at`

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  amount=$3, currency=$4, description=$5, email=$6, token=$7, order_id=$8, method_id=$9, statement=$10, status=$11, updated_at=$13, paid_at=$14;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.SessionID, p.Amount, p.Currency, p.Description, p.Email, p.Token,
		p.OrderID, p.MethodID, p.Statement, string(p.Status), p.CreatedAt, p.UpdatedAt, p.PaidAt)
	return mapExecErr(err)
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return r.findOne(ctx, tx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id)
}

func (r *paymentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Payment, error) {
	return r.findOne(ctx, tx, `SELECT `+paymentColumns+` FROM payments WHERE session_id=$1`, sessionID)
}

func (r *paymentRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg any) (*model.Payment, error) {
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", arg)
	if err != nil {
		return nil, err
	}

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var status string
	if err := row.Scan(&p.ID, &p.SessionID, &p.Amount, &p.Currency, &p.Description, &p.Email, &p.Token,
		&p.OrderID, &p.MethodID, &p.Statement, &status, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatus(status)
	return p, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	const q = `
SELECT ` + paymentColumns + `
  FROM payments
 WHERE status='pending' AND created_at < $1
 ORDER BY created_at
 LIMIT $2;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, cutoff, limit)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapExecErr(err)
	}
	return out, nil
}

func (r *paymentRepo) Expire(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE payments SET status='failed', updated_at=NOW() WHERE id=$1 AND status='pending';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return mapExecErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepo) MarkSucceeded(ctx context.Context, tx repository.Tx, id string, orderID int64, methodID *int64, statement *string, paidAt time.Time) error {
	const q = `
UPDATE payments
   SET status='succeeded', order_id=$2, method_id=$3, statement=$4, paid_at=$5, updated_at=NOW()
 WHERE id=$1 AND status <> 'succeeded';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, orderID, methodID, statement, paidAt)
	if err != nil {
		return mapExecErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, orderID int64) error {
	const q = `UPDATE payments SET status='failed', order_id=$2, updated_at=NOW() WHERE id=$1 AND status='pending';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, orderID)
	if err != nil {
		return mapExecErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapExecErr(err error) error {
	if err == nil {
		return nil
	}
	if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyExists
	}
	return domain.ErrOperationFailed
}
