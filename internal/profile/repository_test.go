package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PgRepository) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPgRepository(mock)
}

func TestEnsureUpserts(t *testing.T) {
	mock, repo := newMockRepo(t)

	id := uuid.New()
	phone := "+237699000001"
	now := time.Now()
	var email *string

	mock.ExpectQuery(`INSERT INTO profiles`).
		WithArgs(id, "Mme Ngo", &phone, email).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "email", "created_at"}).
			AddRow(id, "Mme Ngo", &phone, email, now))

	saved, err := repo.Ensure(context.Background(), &Profile{ID: id, Name: "Mme Ngo", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, id, saved.ID)
	assert.Equal(t, "Mme Ngo", saved.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT (.+)\s+FROM profiles\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
}
