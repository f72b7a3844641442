package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ekklesia/core"
)

// Queries are written with "?" placeholders and rebound for the driver in use (postgres or sqlite).

type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// search matches term case-insensitively against any of cols.
func (w *where) search(term string, cols ...string) {
	if term == "" || len(cols) == 0 {
		return
	}
	pattern := "%" + strings.ToLower(term) + "%"
	parts := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE ?", col))
		args = append(args, pattern)
	}
	w.add("("+strings.Join(parts, " OR ")+")", args...)
}

func (w where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// bind expands slice arguments of IN (?) clauses and rebinds q for exec's driver.
func bind(exec sqlx.ExtContext, q string, args ...interface{}) (string, []interface{}, error) {
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "binding query")
	}
	return exec.Rebind(q), args, nil
}

func selectContext(ctx context.Context, exec core.DBExecutor, dest interface{}, q string, args ...interface{}) error {
	q, args, err := bind(exec, q, args...)
	if err != nil {
		return err
	}
	return checkConn(ctx, exec, exec.SelectContext(ctx, dest, q, args...))
}

func getContext(ctx context.Context, exec core.DBExecutor, dest interface{}, q string, args ...interface{}) error {
	q, args, err := bind(exec, q, args...)
	if err != nil {
		return err
	}
	return checkConn(ctx, exec, exec.GetContext(ctx, dest, q, args...))
}

func execContext(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) (sql.Result, error) {
	q, args, err := bind(exec, q, args...)
	if err != nil {
		return nil, err
	}
	res, err := exec.ExecContext(ctx, q, args...)
	return res, checkConn(ctx, exec, err)
}

// checkConn turns err into a shutdown error when the database no longer answers pings.
// Transactions are not pinged; their errors surface through the pool on the next statement.
func checkConn(ctx context.Context, exec core.DBExecutor, err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) || ctx.Err() != nil {
		return err
	}
	db, ok := exec.(interface{ PingContext(context.Context) error })
	if !ok {
		return err
	}
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return core.NewShutdownError("database unreachable: " + pingErr.Error())
	}
	return err
}

// execOne runs q and returns notFound when no row was affected.
func execOne(ctx context.Context, exec core.DBExecutor, notFound error, q string, args ...interface{}) error {
	res, err := execContext(ctx, exec, q, args...)
	if err != nil {
		return errors.Wrap(err, "executing statement")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// trapNoRowsErr maps "no rows" errors to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// link is a row of an association table.
type link struct {
	OwnerID string `db:"owner_id"`
	Value   string `db:"value"`
}

// assoc describes an association table mapping an owner row to a set (or a list) of values.
type assoc struct {
	table    string
	ownerCol string
	valueCol string
	ordered  bool // keeps insertion order in a position column
}

// load returns the values of each owner in ownerIDs.
func (a assoc) load(ctx context.Context, exec core.DBExecutor, ownerIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	order := a.valueCol
	if a.ordered {
		order = "position"
	}
	q := fmt.Sprintf(
		"SELECT %s AS owner_id, %s AS value FROM %s WHERE %s IN (?) ORDER BY %s, %s",
		a.ownerCol, a.valueCol, a.table, a.ownerCol, a.ownerCol, order,
	)
	var links []link
	if err := selectContext(ctx, exec, &links, q, ownerIDs); err != nil {
		return nil, errors.Wrapf(err, "loading %s", a.table)
	}
	for _, l := range links {
		out[l.OwnerID] = append(out[l.OwnerID], l.Value)
	}
	return out, nil
}

// replace swaps the values of ownerID for values. Must run inside a transaction.
func (a assoc) replace(ctx context.Context, exec core.DBExecutor, ownerID string, values []string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", a.table, a.ownerCol)
	if _, err := execContext(ctx, exec, q, ownerID); err != nil {
		return errors.Wrapf(err, "clearing %s", a.table)
	}

	for i, v := range values {
		var err error
		if a.ordered {
			q = fmt.Sprintf("INSERT INTO %s (%s, %s, position) VALUES (?, ?, ?)", a.table, a.ownerCol, a.valueCol)
			_, err = execContext(ctx, exec, q, ownerID, v, i)
		} else {
			q = fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)", a.table, a.ownerCol, a.valueCol)
			_, err = execContext(ctx, exec, q, ownerID, v)
		}
		if err != nil {
			return errors.Wrapf(err, "inserting into %s", a.table)
		}
	}
	return nil
}

// nullable stores empty strings as NULL.
func nullable(s string) null.String {
	return null.NewString(s, s != "")
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
