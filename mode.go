package keyset

import (
	"fmt"

	"github.com/samber/lo"
)

// Mode selects the side of the cursor a page is taken from.
type Mode int

const (
	// ModeAfter selects rows following the cursor in the declared order,
	// closest first.
	ModeAfter Mode = iota + 1
	// ModeBefore selects rows preceding the cursor. They are fetched nearest
	// first and returned in the declared order after FixOrder.
	ModeBefore
)

func (m Mode) Valid() bool {
	return m == ModeAfter || m == ModeBefore
}

func (m Mode) String() string {
	switch m {
	case ModeAfter:
		return "after"
	case ModeBefore:
		return "before"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

type (
	// EffectiveOrder is a declared ordering column resolved for a mode.
	//
	//   - Query is the direction the engine sorts by before LIMIT is applied.
	//   - Compare is the strict operator used against the cursor value.
	EffectiveOrder struct {
		Column   string
		Declared Direction
		Query    Direction
		Compare  Operator
	}

	EffectiveOrderings []EffectiveOrder
)

// ResolveDirections maps every declared column to its query direction and
// comparison operator:
//
//	mode    declared  query  compare
//	after   ASC       ASC    >
//	after   DESC      DESC   <
//	before  ASC       DESC   <
//	before  DESC      ASC    >
//
// Columns are resolved independently, so mixed directions are allowed.
func ResolveDirections(orderings Orderings, mode Mode) (EffectiveOrderings, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}

	if err := orderings.validate(); err != nil {
		return nil, err
	}

	ret := make(EffectiveOrderings, 0, len(orderings))
	for _, o := range orderings {
		query := lo.Ternary(mode == ModeBefore, o.Direction.Reverse(), o.Direction)
		ret = append(ret, EffectiveOrder{
			Column:   o.Column,
			Declared: o.Direction,
			Query:    query,
			Compare:  query.ForOperator(),
		})
	}

	return ret, nil
}

// QueryOrderings returns the ordering the engine must sort by.
func (e EffectiveOrderings) QueryOrderings() Orderings {
	return lo.Map(e, func(item EffectiveOrder, _ int) OrderBy {
		return OrderBy{Column: item.Column, Direction: item.Query}
	})
}

// Flipped reports whether the query order differs from the declared one.
func (e EffectiveOrderings) Flipped() bool {
	return lo.SomeBy(e, func(item EffectiveOrder) bool {
		return item.Query != item.Declared
	})
}
