// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/taqyimhq/taqyim/core"
)

// getExec resolves the executor for a repository call. An override must be
// sqlx-compatible (*sqlx.DB or *sqlx.Tx); anything else falls back to the
// repository's own DB.
func getExec(db *sqlx.DB, exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 && exec[0] != nil {
		if ext, ok := exec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return db
}

// transact runs fn in a transaction, unless the caller already provided an
// executor override; then fn runs on that executor and the caller owns the
// transaction boundaries.
func transact(ctx context.Context, db *sqlx.DB, exec []core.DBExecutor, fn func(ext sqlx.ExtContext) error) error {
	if len(exec) > 0 && exec[0] != nil {
		return fn(getExec(db, exec))
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func orderBy(ordering []core.DBOrdering, fallback core.DBOrdering) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback.String()
	}
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// boolVal treats a missing is_active pointer as active; the column is NOT NULL.
func boolVal(ptr *bool) bool {
	return ptr == nil || *ptr
}

func boolPtr(b bool) *bool { return &b }
