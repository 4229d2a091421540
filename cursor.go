package keyset

import (
	"fmt"

	"github.com/samber/lo"
)

// CursorValue is the sort-key position a page is taken relative to. It is
// either a single scalar, usable with a one-column ordering, or a tuple
// aligned with the ordering columns. The values do not have to belong to an
// existing row.
//
// The zero value is the empty cursor: no position, so the page starts at the
// corresponding end of the dataset.
type CursorValue struct {
	values []any
	tuple  bool
}

// Scalar returns a single-value cursor.
func Scalar(v any) CursorValue {
	return CursorValue{values: []any{v}}
}

// Tuple returns a multi-value cursor. Values follow the ordering columns.
func Tuple(values ...any) CursorValue {
	return CursorValue{values: values, tuple: true}
}

// IsEmpty reports whether the cursor holds no position. Only the zero
// value is empty: Tuple() without values is a position of zero columns.
func (c CursorValue) IsEmpty() bool {
	return !c.tuple && len(c.values) == 0
}

func (c CursorValue) IsTuple() bool {
	return c.tuple
}

// Values returns a copy of the cursor components.
func (c CursorValue) Values() []any {
	return append([]any(nil), c.values...)
}

// Components returns one value per ordered column. A scalar cursor is only
// accepted for a single column, a tuple must match the column count exactly.
func (c CursorValue) Components(columns int) ([]any, error) {
	switch {
	case !c.tuple && columns != 1:
		return nil, fmt.Errorf("%w: scalar cursor for %d columns", ErrCursorArityMismatch, columns)
	case len(c.values) != columns:
		return nil, fmt.Errorf("%w: %d values for %d columns", ErrCursorArityMismatch, len(c.values), columns)
	}

	return c.Values(), nil
}

func (c CursorValue) String() string {
	switch {
	case c.IsEmpty():
		return "<empty>"
	case c.tuple:
		return fmt.Sprintf("%v", c.values)
	default:
		return fmt.Sprintf("%v", c.values[0])
	}
}

// Getters - dictionary of value getters for a row type. Provide the columns
// that take part in the ordering.
// Example:
//
//	keyset.Getters[models.Reply]{
//		"likes_count": func(r models.Reply) any { return r.LikesCount },
//		"id":          func(r models.Reply) any { return r.ID },
//	}
type Getters[T any] map[string]func(T) any

// CursorFromRow builds the cursor pointing at row. A single-column ordering
// yields a scalar cursor, otherwise a tuple.
func CursorFromRow[T any](row T, orderings Orderings, getters Getters[T]) (CursorValue, error) {
	if err := orderings.validate(); err != nil {
		return CursorValue{}, fmt.Errorf("cannot build cursor: %w", err)
	}

	columns := orderings.Columns()
	if missing := lo.Without(columns, lo.Keys(getters)...); len(missing) > 0 {
		return CursorValue{}, fmt.Errorf("cannot find getters for columns %v met in ordering", missing)
	}

	values := lo.Map(columns, func(column string, _ int) any {
		return getters[column](row)
	})

	if len(values) == 1 {
		return Scalar(values[0]), nil
	}

	return Tuple(values...), nil
}

// PageCursors returns the cursors of the neighbouring pages of a page
// returned in declared order: before points at the first row, after at the
// last one. An empty page yields empty cursors.
func PageCursors[T any](rows []T, orderings Orderings, getters Getters[T]) (before, after CursorValue, err error) {
	if len(rows) == 0 {
		return CursorValue{}, CursorValue{}, nil
	}

	before, err = CursorFromRow(lo.FirstOrEmpty(rows), orderings, getters)
	if err != nil {
		return CursorValue{}, CursorValue{}, err
	}

	after, err = CursorFromRow(lo.LastOrEmpty(rows), orderings, getters)
	if err != nil {
		return CursorValue{}, CursorValue{}, err
	}

	return before, after, nil
}
