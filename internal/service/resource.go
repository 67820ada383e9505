package service

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/filter"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/metrics"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/pagination"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/relayid"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/repository"
)

// Resource implements read, create, update and delete for one entity kind.
// All six kinds share this code and differ only in their table metadata
// and input type.
//
// Every call checks the gate first. A denied call returns before any id is
// decoded or any query is sent.
type Resource[E domain.Entity, I Input[E]] struct {
	table *repository.Table
	repos *repository.Repos
	gate  auth.Gate
	log   zerolog.Logger
}

func newResource[E domain.Entity, I Input[E]](t *repository.Table, repos *repository.Repos, log zerolog.Logger) *Resource[E, I] {
	return &Resource[E, I]{
		table: t,
		repos: repos,
		log:   log.With().Str("kind", string(t.Kind)).Logger(),
	}
}

func (r *Resource[E, I]) Kind() domain.Kind { return r.table.Kind }

// Allowed runs only the gate check for action. Transports use it to report
// a denial ahead of a malformed request body.
func (r *Resource[E, I]) Allowed(caller *auth.Identity, action auth.Action) error {
	return r.gate.Authorize(caller, r.table.Kind, action)
}

func (r *Resource[E, I]) observe(op string, err error) {
	code := "OK"
	if err != nil {
		code = domain.Code(err)
	}
	metrics.Operations.WithLabelValues(string(r.table.Kind), op, code).Inc()
}

// Read returns one page of rows matching the filter criteria.
func (r *Resource[E, I]) Read(ctx context.Context, caller *auth.Identity, criteria url.Values, page pagination.PageSpec) (p pagination.Page[E], err error) {
	defer func() { r.observe("read", err) }()

	if err = r.gate.Authorize(caller, r.table.Kind, auth.View); err != nil {
		return p, err
	}
	preds, err := filter.Parse(r.table.Fields, criteria)
	if err != nil {
		return p, err
	}
	limit, after, err := page.Resolve()
	if err != nil {
		return p, err
	}
	rows, err := repository.List[E](ctx, r.repos.DB(), r.table, preds, limit, after)
	if err != nil {
		return p, err
	}
	return pagination.Build(rows, limit), nil
}

// Get reads one row by its opaque id.
func (r *Resource[E, I]) Get(ctx context.Context, caller *auth.Identity, id string) (e *E, err error) {
	defer func() { r.observe("get", err) }()

	if err = r.gate.Authorize(caller, r.table.Kind, auth.View); err != nil {
		return nil, err
	}
	rowID, err := relayid.DecodeAs(r.table.Kind, id)
	if err != nil {
		return nil, err
	}
	return repository.Get[E](ctx, r.repos.DB(), r.table, rowID)
}

func (r *Resource[E, I]) Create(ctx context.Context, caller *auth.Identity, in I) (e *E, err error) {
	defer func() { r.observe("create", err) }()

	if err = r.gate.Authorize(caller, r.table.Kind, auth.Add); err != nil {
		return nil, err
	}
	if err = validateInput(in); err != nil {
		return nil, err
	}
	row := new(E)
	err = r.repos.InTx(ctx, func(tx repository.Querier) error {
		if err := in.apply(ctx, tx, row); err != nil {
			return err
		}
		return repository.Insert(ctx, tx, r.table, row)
	})
	if err != nil {
		r.log.Warn().Err(err).Str("user", caller.Username).Msg("create failed")
		return nil, err
	}
	r.logMutation("created", caller, row)
	return row, nil
}

// Update replaces every mutable field of the row with the input.
func (r *Resource[E, I]) Update(ctx context.Context, caller *auth.Identity, id string, in I) (e *E, err error) {
	defer func() { r.observe("update", err) }()

	if err = r.gate.Authorize(caller, r.table.Kind, auth.Change); err != nil {
		return nil, err
	}
	rowID, err := relayid.DecodeAs(r.table.Kind, id)
	if err != nil {
		return nil, err
	}
	if err = validateInput(in); err != nil {
		return nil, err
	}
	var row *E
	err = r.repos.InTx(ctx, func(tx repository.Querier) error {
		var err error
		if row, err = repository.GetForUpdate[E](ctx, tx, r.table, rowID); err != nil {
			return err
		}
		if err := in.apply(ctx, tx, row); err != nil {
			return err
		}
		return repository.Update(ctx, tx, r.table, row)
	})
	if err != nil {
		r.log.Warn().Err(err).Str("id", id).Str("user", caller.Username).Msg("update failed")
		return nil, err
	}
	r.logMutation("updated", caller, row)
	return row, nil
}

// Delete removes the row and, through the foreign keys, every row that
// depends on it. It returns the row as it was just before deletion.
func (r *Resource[E, I]) Delete(ctx context.Context, caller *auth.Identity, id string) (e *E, err error) {
	defer func() { r.observe("delete", err) }()

	if err = r.gate.Authorize(caller, r.table.Kind, auth.Delete); err != nil {
		return nil, err
	}
	rowID, err := relayid.DecodeAs(r.table.Kind, id)
	if err != nil {
		return nil, err
	}
	var row *E
	err = r.repos.InTx(ctx, func(tx repository.Querier) error {
		var err error
		if row, err = repository.GetForUpdate[E](ctx, tx, r.table, rowID); err != nil {
			return err
		}
		return repository.Delete(ctx, tx, r.table, rowID)
	})
	if err != nil {
		r.log.Warn().Err(err).Str("id", id).Str("user", caller.Username).Msg("delete failed")
		return nil, err
	}
	r.logMutation("deleted", caller, row)
	return row, nil
}

func (r *Resource[E, I]) logMutation(what string, caller *auth.Identity, row *E) {
	id, _ := (*row).RowKey()
	r.log.Info().
		Str("id", relayid.Encode(r.table.Kind, id)).
		Str("user", caller.Username).
		Msg(what)
}
