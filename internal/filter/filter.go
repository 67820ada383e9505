// Package filter turns Django style query criteria (field, field__lookup)
// into a conjunctive SQL WHERE fragment.
package filter

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/relayid"
)

type Class int

const (
	Text Class = iota
	DateTime
	Date
	Number
	Decimal
	Enum
	Ref
)

type Lookup string

const (
	Exact      Lookup = "exact"
	IContains  Lookup = "icontains"
	IStartWith Lookup = "istartswith"
	Range      Lookup = "range"
	Year       Lookup = "year"
	Month      Lookup = "month"
	Day        Lookup = "day"
)

var lookups = map[Class][]Lookup{
	Text:     {Exact, IContains, IStartWith},
	DateTime: {Exact, Range, Year, Month, Day},
	Date:     {Exact, Range, Year, Month, Day},
	Number:   {Exact, Range},
	Decimal:  {Exact, Range},
	Enum:     {Exact},
	Ref:      {Exact},
}

// Field describes one filterable attribute. Ref names the target kind of a
// foreign key field.
type Field struct {
	Name   string
	Column string
	Class  Class
	Ref    domain.Kind
}

func (f Field) allows(l Lookup) bool {
	for _, allowed := range lookups[f.Class] {
		if allowed == l {
			return true
		}
	}
	return false
}

type Predicate struct {
	Field  Field
	Lookup Lookup
	Args   []any
}

// Reserved query keys that belong to pagination, not filtering.
var Reserved = map[string]bool{"first": true, "after": true}

// Parse builds predicates from query values. Keys are processed in sorted
// order so the generated SQL is deterministic.
func Parse(fields []Field, q url.Values) ([]Predicate, error) {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		if !Reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, key := range keys {
		name, lk, found := strings.Cut(key, "__")
		lookup := Exact
		if found {
			lookup = Lookup(lk)
		}
		field, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown filter field %q", domain.ErrValidation, name)
		}
		if !field.allows(lookup) {
			return nil, fmt.Errorf("%w: lookup %q not supported on %s", domain.ErrValidation, lookup, name)
		}
		if len(q[key]) > 1 {
			return nil, fmt.Errorf("%w: filter %q given more than once", domain.ErrValidation, key)
		}
		args, err := parseArgs(field, lookup, q.Get(key))
		if err != nil {
			return nil, err
		}
		preds = append(preds, Predicate{Field: field, Lookup: lookup, Args: args})
	}
	return preds, nil
}

func parseArgs(f Field, l Lookup, raw string) ([]any, error) {
	switch l {
	case Range:
		lo, hi, ok := strings.Cut(raw, ",")
		if !ok {
			return nil, fmt.Errorf("%w: %s__range needs two comma separated values", domain.ErrValidation, f.Name)
		}
		a, err := parseValue(f, strings.TrimSpace(lo))
		if err != nil {
			return nil, err
		}
		b, err := parseValue(f, strings.TrimSpace(hi))
		if err != nil {
			return nil, err
		}
		return []any{a, b}, nil
	case Year, Month, Day:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || (l == Month && n > 12) || (l == Day && n > 31) {
			return nil, fmt.Errorf("%w: invalid %s__%s %q", domain.ErrValidation, f.Name, l, raw)
		}
		return []any{n}, nil
	case IContains:
		return []any{"%" + escapeLike(raw) + "%"}, nil
	case IStartWith:
		return []any{escapeLike(raw) + "%"}, nil
	}
	v, err := parseValue(f, raw)
	if err != nil {
		return nil, err
	}
	return []any{v}, nil
}

func parseValue(f Field, raw string) (any, error) {
	invalid := func() error {
		return fmt.Errorf("%w: invalid value %q for %s", domain.ErrValidation, raw, f.Name)
	}
	switch f.Class {
	case Text:
		return raw, nil
	case DateTime:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t, nil
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, invalid()
		}
		return t, nil
	case Date:
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, invalid()
		}
		return t, nil
	case Number:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, invalid()
		}
		return n, nil
	case Decimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, invalid()
		}
		return d, nil
	case Enum:
		u, err := domain.ParseUnitOfMeasure(raw)
		if err != nil {
			return nil, err
		}
		return string(u), nil
	case Ref:
		return relayid.DecodeRef(f.Ref, raw)
	}
	return nil, invalid()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Where renders the predicates joined with AND, using ? bindvars. It
// returns an empty string when there is nothing to filter on.
func Where(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		col := p.Field.Column
		switch p.Lookup {
		case Exact:
			clauses = append(clauses, col+" = ?")
		case IContains, IStartWith:
			clauses = append(clauses, col+" ILIKE ?")
		case Range:
			clauses = append(clauses, col+" BETWEEN ? AND ?")
		case Year, Month, Day:
			clauses = append(clauses, fmt.Sprintf("EXTRACT(%s FROM %s) = ?", strings.ToUpper(string(p.Lookup)), col))
		}
		args = append(args, p.Args...)
	}
	return strings.Join(clauses, " AND "), args
}
