package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/stock-control-api/internal/domain/repository"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// mapError traduce violaciones de constraint a las condiciones del puerto; el resto se envuelve con op.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return repository.ErrUniqueViolation
		case codeForeignKeyViolation:
			return repository.ErrForeignKeyViolation
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affectedOne devuelve ErrNotFound si el comando no tocó filas.
func affectedOne(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
