package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/retail-inventory/internal/domain"
)

func TestMapError_CodigosPostgres(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{codeUniqueViolation, domain.ErrConflict},
		{codeSerializationFailure, domain.ErrConflict},
		{codeDeadlockDetected, domain.ErrConflict},
		{codeCheckViolation, domain.ErrInsufficientStock},
		{"42P01", domain.ErrPersistence},
	}
	for _, tc := range cases {
		pgErr := &pgconn.PgError{Code: tc.code}
		err := mapError("op", pgErr)
		assert.ErrorIs(t, err, tc.want, tc.code)
		assert.ErrorAs(t, err, new(*pgconn.PgError), "conserva el error original")
	}
}

func TestMapError_ErroresDeContexto(t *testing.T) {
	err := mapError("query", context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = mapError("query", errors.New("conn reset"))
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, err.Error(), "query")
}

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", pgx5URL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u@h/db", pgx5URL("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://x", pgx5URL("pgx5://x"))
}
