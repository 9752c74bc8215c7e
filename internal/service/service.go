package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/database"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// lookupError maps a repository read failure to 404 or 500.
func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

// writeError maps constraint violations raised by PostgreSQL to 400 responses.
func writeError(err error, duplicate, referenced, internal string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "Ressource introuvable")
	case duplicate != "" && database.IsUniqueViolation(err):
		return appErrors.Clone(appErrors.ErrDuplicate, duplicate)
	case referenced != "" && database.IsForeignKeyViolation(err):
		return appErrors.Clone(appErrors.ErrReferenced, referenced)
	case database.IsCheckViolation(err):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Valeur hors des limites autorisées")
	}
	return appErrors.Internal(err, internal)
}

func pagination(page, size, total int) *models.Pagination {
	return models.NewPagination(page, size, total)
}

func rollback(tx *sqlx.Tx, errp *error) {
	if *errp != nil {
		_ = tx.Rollback()
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
