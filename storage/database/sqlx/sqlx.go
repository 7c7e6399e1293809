// Package sqlxrepos implements the core repositories on top of PostgreSQL with jmoiron/sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// NewDB wraps an opened postgres connection pool.
func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

// pgError returns the postgres error code & constraint name of err, if any.
func pgError(err error) (code, constraint string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

func isUniqueViolation(err error, constraint string) bool {
	code, cons := pgError(err)
	return code == pgUniqueViolation && (constraint == "" || cons == constraint)
}

func isForeignKeyViolation(err error) bool {
	code, _ := pgError(err)
	return code == pgForeignKeyViolation
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// psql builds the dynamic queries with postgres ($n) placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// validIDs drops the ids which are not uuids, no row can match them.
func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

// selectAll runs the select built by qb and scans the rows into dest.
func selectAll(ctx context.Context, db *sqlx.DB, dest interface{}, qb sq.SelectBuilder, msg string) error {
	q, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	return errors.Wrap(db.SelectContext(ctx, dest, q, args...), msg)
}

// selectOne runs the select built by qb and scans the first row into dest.
func selectOne(ctx context.Context, db *sqlx.DB, dest interface{}, qb sq.SelectBuilder, msg string) error {
	q, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	return db.GetContext(ctx, dest, q, args...)
}

// namedGet runs a named query returning a single row and scans it into dest.
func namedGet(ctx context.Context, db *sqlx.DB, dest interface{}, query string, arg interface{}) error {
	q, args, err := db.BindNamed(query, arg)
	if err != nil {
		return err
	}
	return db.GetContext(ctx, dest, q, args...)
}

// deleteByID deletes the row of table having id, notFound is returned when there is none.
func deleteByID(ctx context.Context, db *sqlx.DB, table, id string, notFound error, msg string) error {
	if !isUUID(id) {
		return notFound
	}
	q, args, err := psql.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if cnt, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, msg)
	} else if cnt == 0 {
		return notFound
	}
	return nil
}
