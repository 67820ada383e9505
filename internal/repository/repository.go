package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/filter"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/pagination"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/relayid"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

func (r *Repos) DB() Querier { return r.db }

// InTx runs fn inside a single transaction. Any error from fn rolls the
// transaction back, so a failed mutation leaves no partial row.
func (r *Repos) InTx(ctx context.Context, fn func(tx Querier) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return translate(tx.Commit())
}

func notFound(t *Table, id int64) error {
	return fmt.Errorf("%w: %s %s", domain.ErrNotFound, t.Kind, relayid.Encode(t.Kind, id))
}

func Get[E domain.Entity](ctx context.Context, q Querier, t *Table, id int64) (*E, error) {
	return get[E](ctx, q, t, id, "")
}

// GetForUpdate locks the row until the surrounding transaction ends.
func GetForUpdate[E domain.Entity](ctx context.Context, q Querier, t *Table, id int64) (*E, error) {
	return get[E](ctx, q, t, id, " FOR UPDATE")
}

func get[E domain.Entity](ctx context.Context, q Querier, t *Table, id int64, suffix string) (*E, error) {
	query := q.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?%s", t.selectList(), t.Name, suffix))
	var e E
	if err := q.GetContext(ctx, &e, query, id); err != nil {
		if err = translate(err); err == domain.ErrNotFound {
			return nil, notFound(t, id)
		}
		return nil, err
	}
	return &e, nil
}

// Exists reports whether t has a row with id.
func Exists(ctx context.Context, q Querier, t *Table, id int64) (bool, error) {
	query := q.Rebind(fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = ?)", t.Name))
	var ok bool
	if err := q.GetContext(ctx, &ok, query, id); err != nil {
		return false, translate(err)
	}
	return ok, nil
}

// Insert writes e and refreshes it with the stored row, including its new id.
func Insert[E domain.Entity](ctx context.Context, q Querier, t *Table, e *E) error {
	query, args, err := sqlx.Named(t.insertSQL(), e)
	if err != nil {
		return translate(err)
	}
	return translate(q.GetContext(ctx, e, q.Rebind(query), args...))
}

// Update overwrites every writable column of the row identified by e's id.
func Update[E domain.Entity](ctx context.Context, q Querier, t *Table, e *E) error {
	query, args, err := sqlx.Named(t.updateSQL(), e)
	if err != nil {
		return translate(err)
	}
	if err := q.GetContext(ctx, e, q.Rebind(query), args...); err != nil {
		if err = translate(err); err == domain.ErrNotFound {
			id, _ := (*e).RowKey()
			return notFound(t, id)
		}
		return err
	}
	return nil
}

// Delete removes the row. Dependent rows go with it through ON DELETE CASCADE.
func Delete(ctx context.Context, q Querier, t *Table, id int64) error {
	query := q.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.Name))
	res, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return notFound(t, id)
	}
	return nil
}

// List returns up to limit+1 rows matching preds that come after the cursor,
// ordered by creation time then id.
func List[E domain.Entity](ctx context.Context, q Querier, t *Table, preds []filter.Predicate, limit int, after *pagination.Cursor) ([]E, error) {
	where, args := filter.Where(preds)
	if after != nil {
		keyset := "(created_at, id) > (?, ?)"
		if where == "" {
			where = keyset
		} else {
			where += " AND " + keyset
		}
		args = append(args, after.CreatedAt, after.ID)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", t.selectList(), t.Name)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at, id LIMIT ?"
	args = append(args, limit+1)

	out := []E{}
	if err := q.SelectContext(ctx, &out, q.Rebind(query), args...); err != nil {
		return nil, translate(err)
	}
	return out, nil
}
