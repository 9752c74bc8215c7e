package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// sqlDateLayout formats a time as a DATE literal for comparisons with DATE columns.
const sqlDateLayout = "2006-01-02"

// pageWindow turns page/size inputs into LIMIT and OFFSET values.
func pageWindow(page, size int) (int, int) {
	page, size = models.NormalisePage(page, size)
	return size, (page - 1) * size
}

// execAffectingOne runs a write and maps zero affected rows to sql.ErrNoRows.
func execAffectingOne(ctx context.Context, exec sqlx.ExecerContext, label, query string, args ...interface{}) error {
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", label, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
