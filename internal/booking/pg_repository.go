package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository needs. Tests inject a
// pgxmock pool through it.
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

// appointmentColumns is derived from the field translation table so the
// select list can never drift from it.
var appointmentColumns = func() string {
	cols := []string{"id"}
	for _, fc := range fieldColumns {
		cols = append(cols, fc.Column)
	}
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}()

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.Nom,
		&a.Telephone,
		&a.Email,
		&a.Service,
		&a.Date,
		&a.Heure,
		&a.Message,
		&a.UserID,
		&a.Status,
		&a.PaymentStatus,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) CountActiveForSlot(ctx context.Context, date, heure string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE date = $1 AND heure = $2 AND status <> 'cancelled'
	`, date, heure).Scan(&count)
	if err != nil {
		return 0, wrapStore("count slot", err)
	}
	return count, nil
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING `+appointmentColumns,
		id, a.Nom, a.Telephone, a.Email, a.Service, a.Date, a.Heure,
		a.Message, a.UserID, a.Status, a.PaymentStatus)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, wrapStore("create appointment", err)
	}
	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapStore("get appointment", err)
	}
	return a, nil
}

func (r *PgRepository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	var (
		where []string
		args  []any
	)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d OR service ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStore("list appointments", err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, wrapStore("scan appointment", err)
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapStore("list appointments", err)
	}

	return result, nil
}

func (r *PgRepository) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Appointment, error) {
	columns, values := patch.assignments()
	if len(columns) == 0 {
		return r.GetByID(ctx, id)
	}

	set := make([]string, 0, len(columns)+1)
	args := []any{id}
	for i, col := range columns {
		args = append(args, values[i])
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	set = append(set, "updated_at = now()")

	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE appointments
		SET %s
		WHERE id = $1
		RETURNING %s
	`, strings.Join(set, ", "), appointmentColumns), args...)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapStore("update appointment", err)
	}
	return a, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return wrapStore("delete appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
