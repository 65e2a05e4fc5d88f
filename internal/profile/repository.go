package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("profile not found")

// Profile mirrors an identity at the auth provider. Created lazily at signup
// and read-only from the booking flow.
type Profile struct {
	ID        uuid.UUID
	Name      string
	Phone     *string
	Email     *string
	CreatedAt time.Time
}

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

const profileColumns = `id, name, phone, email, created_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Ensure upserts a profile keyed by the auth identity id, so repeated
// signups stay idempotent.
func (r *PgRepository) Ensure(ctx context.Context, p *Profile) (*Profile, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    phone = EXCLUDED.phone,
		    email = EXCLUDED.email
		RETURNING `+profileColumns,
		p.ID, p.Name, p.Phone, p.Email)

	saved, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return saved, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, id)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}
