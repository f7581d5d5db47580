package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/myfeedback/core"
)

// Context levels of the platform's context table.
const (
	contextUser   = 30
	contextCourse = 50
)

// DB runs platform queries: it expands `{table}` placeholders with the table prefix,
// expands `IN (?)` slice arguments and rebinds `?` placeholders for the driver.
type DB struct {
	db     *sqlx.DB
	tables core.Tables
}

func NewDB(db *sqlx.DB, prefix string) *DB {
	return &DB{db: db, tables: core.Tables(prefix)}
}

func (d *DB) prepare(query string, args []interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.In(d.tables.Expand(query), args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding query arguments")
	}
	return d.db.Rebind(query), args, nil
}

func (d *DB) selectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	query, args, err := d.prepare(query, args)
	if err != nil {
		return err
	}
	return d.db.SelectContext(ctx, dest, query, args...)
}

// getContext returns sql.ErrNoRows when nothing matches.
func (d *DB) getContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	query, args, err := d.prepare(query, args)
	if err != nil {
		return err
	}
	return d.db.GetContext(ctx, dest, query, args...)
}

func isNoRows(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}
