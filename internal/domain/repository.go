// Package domain provides types shared by the reconciliation domain packages.
package domain

import (
	"context"
	"fmt"
)

// DefaultPageSize bounds a single read of line records.
const DefaultPageSize = 1000

// Cursor is the position of a line record in a source: its line id, then the
// store's insertion sequence, so rows sharing a line id still have distinct
// positions. Line ids compare bytewise; stores must order them the same way.
type Cursor struct {
	LineID string
	Seq    int64
}

// IsZero reports whether c is the start of the source.
func (c Cursor) IsZero() bool {
	return c.LineID == "" && c.Seq == 0
}

// Less reports whether c sorts before o.
func (c Cursor) Less(o Cursor) bool {
	if c.LineID != o.LineID {
		return c.LineID < o.LineID
	}
	return c.Seq < o.Seq
}

func (c Cursor) String() string {
	return fmt.Sprintf("%q#%d", c.LineID, c.Seq)
}

// PageRequest asks for at most Limit rows positioned strictly after After.
type PageRequest struct {
	After Cursor
	Limit int
}

// PageFetcher returns one page of rows.
type PageFetcher[T any] func(ctx context.Context, page PageRequest) ([]T, error)

// FetchAll walks every page returned by fetch and hands each row to visit.
// A page shorter than limit ends the walk. The caller never sees a truncated
// result: either every row is visited or an error is returned.
func FetchAll[T any](
	ctx context.Context,
	limit int,
	fetch PageFetcher[T],
	key func(T) Cursor,
	visit func(T),
) error {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	page := PageRequest{Limit: limit}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows, err := fetch(ctx, page)
		if err != nil {
			return fmt.Errorf("fetch page after %s: %w", page.After, err)
		}
		for _, row := range rows {
			visit(row)
		}
		if len(rows) < limit {
			return nil
		}

		next := key(rows[len(rows)-1])
		if !page.After.Less(next) {
			return fmt.Errorf("page cursor did not advance past %s", page.After)
		}
		page.After = next
	}
}
