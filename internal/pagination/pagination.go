package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 100
)

// Cursor is the keyset position of the last row on a page.
type Cursor struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func DecodeCursor(token string) (Cursor, error) {
	var c Cursor
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("%w: malformed cursor", domain.ErrValidation)
	}
	if err := json.Unmarshal(raw, &c); err != nil || c.ID <= 0 {
		return c, fmt.Errorf("%w: malformed cursor", domain.ErrValidation)
	}
	return c, nil
}

// PageSpec selects a forward page: First rows after the After cursor.
type PageSpec struct {
	First int
	After string
}

// Resolve validates the spec and returns the limit and optional start position.
func (p PageSpec) Resolve() (int, *Cursor, error) {
	limit := p.First
	switch {
	case limit == 0:
		limit = DefaultPageSize
	case limit < 0:
		return 0, nil, fmt.Errorf("%w: first must be positive", domain.ErrValidation)
	case limit > MaxPageSize:
		return 0, nil, fmt.Errorf("%w: first may not exceed %d", domain.ErrValidation, MaxPageSize)
	}
	if p.After == "" {
		return limit, nil, nil
	}
	c, err := DecodeCursor(p.After)
	if err != nil {
		return 0, nil, err
	}
	return limit, &c, nil
}

type Edge[T any] struct {
	Cursor string
	Node   T
}

type PageInfo struct {
	StartCursor string
	EndCursor   string
	HasNextPage bool
}

type Page[T any] struct {
	Edges    []Edge[T]
	PageInfo PageInfo
}

// Build turns up to limit+1 fetched rows into a page. The extra row only
// signals that another page exists.
func Build[T domain.Entity](rows []T, limit int) Page[T] {
	page := Page[T]{Edges: make([]Edge[T], 0, min(len(rows), limit))}
	if len(rows) > limit {
		page.PageInfo.HasNextPage = true
		rows = rows[:limit]
	}
	for _, row := range rows {
		id, created := row.RowKey()
		page.Edges = append(page.Edges, Edge[T]{
			Cursor: EncodeCursor(Cursor{ID: id, CreatedAt: created}),
			Node:   row,
		})
	}
	if n := len(page.Edges); n > 0 {
		page.PageInfo.StartCursor = page.Edges[0].Cursor
		page.PageInfo.EndCursor = page.Edges[n-1].Cursor
	}
	return page
}
