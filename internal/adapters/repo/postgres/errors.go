package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translate maps store errors onto the domain taxonomy. what names the
// entity in the resulting message.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundf("%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Conflictf("%s already exists", what)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.Conflictf("%s violates a reference constraint", what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.Conflictf("%s already exists", what)
		case pgForeignKeyViolation:
			return domain.Conflictf("%s violates a reference constraint", what)
		case pgCheckViolation:
			return domain.InvalidArgumentf("%s violates constraint %s", what, pgErr.ConstraintName)
		}
	}

	// sqlite
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return domain.Conflictf("%s already exists", what)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return domain.Conflictf("%s violates a reference constraint", what)
	case strings.Contains(msg, "CHECK constraint failed"):
		return domain.InvalidArgumentf("%s violates a check constraint", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
