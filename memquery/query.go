// Package memquery is an in-memory query engine over slices of rows. It
// implements keyset.Query, so keyset pages can be taken from data that
// never touches a database, and serves as the reference engine in tests.
package memquery

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/samber/lo"

	"github.com/Alp4ka/keyset"
)

// ErrUnknownColumn is returned when a row has no value for a referenced column.
var ErrUnknownColumn = errors.New("unknown column")

// Row is a single record keyed by column name.
type Row map[string]any

type filter func(q *Query, row Row) (bool, error)

// Query is an immutable query over a shared set of rows. Builder methods
// return a new Query and never modify the receiver or the rows.
type Query struct {
	rows     []Row
	computed map[string]func(Row) any
	filters  []filter
	order    keyset.Orderings
	limit    int
}

var _ keyset.Query[*Query] = (*Query)(nil)

// From starts a query over rows. The rows are read, never written.
func From(rows []Row) *Query {
	return &Query{rows: rows, limit: -1}
}

func (q *Query) clone() *Query {
	return &Query{
		rows:     q.rows,
		computed: maps.Clone(q.computed),
		filters:  slices.Clone(q.filters),
		order:    slices.Clone(q.order),
		limit:    q.limit,
	}
}

// OrderBy appends a sort column.
func (q *Query) OrderBy(column string, direction keyset.Direction) *Query {
	ret := q.clone()
	ret.order = append(ret.order, keyset.OrderBy{Column: column, Direction: direction})

	return ret
}

// Filter keeps rows for which fn returns true.
func (q *Query) Filter(fn func(Row) bool) *Query {
	ret := q.clone()
	ret.filters = append(ret.filters, func(_ *Query, row Row) (bool, error) {
		return fn(row), nil
	})

	return ret
}

// WhereIn keeps rows whose column equals one of values.
func (q *Query) WhereIn(column string, values ...any) *Query {
	ret := q.clone()
	ret.filters = append(ret.filters, func(q *Query, row Row) (bool, error) {
		v, err := q.value(row, column)
		if err != nil {
			return false, err
		}

		for _, candidate := range values {
			c, err := Compare(v, candidate)
			if err != nil {
				return false, err
			}
			if c == 0 {
				return true, nil
			}
		}

		return false, nil
	})

	return ret
}

// Computed declares a derived column. It can be referenced by OrderBy and by
// keyset predicates exactly like a stored column, and shadows a stored
// column of the same name.
func (q *Query) Computed(name string, fn func(Row) any) *Query {
	ret := q.clone()
	if ret.computed == nil {
		ret.computed = make(map[string]func(Row) any)
	}
	ret.computed[name] = fn

	return ret
}

// OrderColumns - implements keyset.Query.
func (q *Query) OrderColumns() (keyset.Orderings, error) {
	return slices.Clone(q.order), nil
}

// Clone - implements keyset.Query.
func (q *Query) Clone() *Query {
	return q.clone()
}

// ReplaceOrder - implements keyset.Query.
func (q *Query) ReplaceOrder(orderings keyset.Orderings) *Query {
	ret := q.clone()
	ret.order = slices.Clone(orderings)

	return ret
}

// Where - implements keyset.Query.
func (q *Query) Where(predicate keyset.Predicate) *Query {
	ret := q.clone()
	if len(predicate) == 0 {
		return ret
	}

	ret.filters = append(ret.filters, func(q *Query, row Row) (bool, error) {
		return q.matches(row, predicate)
	})

	return ret
}

// Limit - implements keyset.Query. A negative limit removes the bound.
func (q *Query) Limit(limit int) *Query {
	ret := q.clone()
	ret.limit = limit

	return ret
}

// Rows executes the query: filters, stable sort by the ordering, limit.
func (q *Query) Rows(ctx context.Context) ([]Row, error) {
	ret := make([]Row, 0, len(q.rows))
	for i, row := range q.rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		ok, err := q.keep(row)
		if err != nil {
			return nil, err
		}
		if ok {
			ret = append(ret, row)
		}
	}

	var sortErr error
	slices.SortStableFunc(ret, func(a, b Row) int {
		c, err := q.compareRows(a, b)
		if err != nil && sortErr == nil {
			sortErr = err
		}

		return c
	})
	if sortErr != nil {
		return nil, sortErr
	}

	if q.limit >= 0 && len(ret) > q.limit {
		ret = ret[:q.limit]
	}

	return ret, nil
}

// Pluck returns the values of column for the rows of the query.
func (q *Query) Pluck(ctx context.Context, column string) ([]any, error) {
	rows, err := q.Rows(ctx)
	if err != nil {
		return nil, err
	}

	return Values(q, rows, column)
}

// Values returns column of every row, resolving computed columns of q.
func Values(q *Query, rows []Row, column string) ([]any, error) {
	ret := make([]any, 0, len(rows))
	for _, row := range rows {
		v, err := q.value(row, column)
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}

	return ret, nil
}

// Page assembles the page next to cursor, runs it and returns the rows in
// the declared order of the original query.
func Page(ctx context.Context, s *keyset.Strategy[*Query], cursor keyset.CursorValue) ([]Row, error) {
	q, err := s.Process(cursor)
	if err != nil {
		return nil, err
	}

	rows, err := q.Rows(ctx)
	if err != nil {
		return nil, err
	}

	return keyset.FixOrder(rows, s.Mode()), nil
}

func (q *Query) value(row Row, column string) (any, error) {
	if fn, ok := q.computed[column]; ok {
		return fn(row), nil
	}

	v, ok := row[column]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownColumn, column)
	}

	return v, nil
}

func (q *Query) keep(row Row) (bool, error) {
	for _, f := range q.filters {
		ok, err := f(q, row)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func (q *Query) matches(row Row, predicate keyset.Predicate) (bool, error) {
	for _, conjunction := range predicate {
		ok, err := q.matchesAll(row, conjunction)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}

func (q *Query) matchesAll(row Row, conjunction keyset.Conjunction) (bool, error) {
	for _, condition := range conjunction {
		v, err := q.value(row, condition.Column)
		if err != nil {
			return false, err
		}

		c, err := Compare(v, condition.Value)
		if err != nil {
			return false, err
		}
		ok, err := condition.Satisfied(c)
		if err != nil || !ok {
			return false, err
		}
	}

	return len(conjunction) > 0, nil
}

func (q *Query) compareRows(a, b Row) (int, error) {
	for _, o := range q.order {
		va, err := q.value(a, o.Column)
		if err != nil {
			return 0, err
		}
		vb, err := q.value(b, o.Column)
		if err != nil {
			return 0, err
		}

		c, err := Compare(va, vb)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return lo.Ternary(o.Direction == keyset.DirectionDESC, -c, c), nil
		}
	}

	return 0, nil
}
