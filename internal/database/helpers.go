package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// inQuery expands an IN (?) clause for the given id set and rebinds the
// placeholders for the active driver.
func inQuery(query string, ids []int64) (string, []interface{}, error) {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return "", nil, err
	}
	return DB.Rebind(q), args, nil
}

// insertReturningID runs an INSERT and reports the generated id. SQLite
// exposes it through LastInsertId, postgres needs a RETURNING clause.
// q may be the global DB or an open transaction.
func insertReturningID(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	if q.DriverName() == "postgres" {
		var id int64
		err := sqlx.GetContext(ctx, q, &id, q.Rebind(query+" RETURNING id"), args...)
		return id, err
	}
	result, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
