package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db Querier
}

func NewPgRepository(db Querier) *PgRepository {
	return &PgRepository{db: db}
}

const paymentColumns = `id, appointment_id, amount_cents, currency, status, method, transaction_id, metadata, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment

	err := row.Scan(
		&p.ID,
		&p.AppointmentID,
		&p.AmountCents,
		&p.Currency,
		&p.Status,
		&p.Method,
		&p.TransactionID,
		&p.Metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) Create(ctx context.Context, p *Payment) (*Payment, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+paymentColumns,
		id, p.AppointmentID, p.AmountCents, p.Currency, p.Status, p.Method,
		p.TransactionID, p.Metadata)

	created, err := scanPayment(row)
	if err != nil {
		return nil, wrapStore("create payment", err)
	}
	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1
	`, id)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapStore("get payment", err)
	}
	return p, nil
}

func (r *PgRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE appointment_id = $1
		ORDER BY created_at DESC
	`, appointmentID)
	if err != nil {
		return nil, wrapStore("list payments", err)
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, wrapStore("scan payment", err)
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapStore("list payments", err)
	}

	return result, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, transactionID *string) (*Payment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE payments
		SET status = $2,
		    transaction_id = COALESCE($3, transaction_id),
		    updated_at = now()
		WHERE id = $1
		  AND status = $4
		RETURNING `+paymentColumns,
		id, to, transactionID, from)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No row matched: either the id is unknown or the row moved on
			// from the expected status. Tell the two apart.
			var exists bool
			if checkErr := r.db.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, id).Scan(&exists); checkErr != nil {
				return nil, wrapStore("update payment status", checkErr)
			}
			if !exists {
				return nil, ErrNotFound
			}
			return nil, ErrInvalidTransition
		}
		return nil, wrapStore("update payment status", err)
	}
	return p, nil
}

func (r *PgRepository) FindStalePending(ctx context.Context, cutoff time.Time) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE status = 'pending'
		  AND created_at < $1
	`, cutoff)
	if err != nil {
		return nil, wrapStore("find stale pending payments", err)
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, wrapStore("scan payment", err)
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapStore("find stale pending payments", err)
	}

	return result, nil
}
