package keyset

import "fmt"

// Query is the capability set a query abstraction needs to be paginated.
// Q is the concrete query type, so assembled queries keep their type:
//
//	var _ keyset.Query[*keyset.GormQuery] = (*keyset.GormQuery)(nil)
//
// Every method except OrderColumns returns a new query and must leave the
// receiver unchanged. Execution is not part of the contract: the caller
// runs the assembled query against its engine.
type Query[Q any] interface {
	// OrderColumns returns the ordering as declared, primary column first.
	OrderColumns() (Orderings, error)
	// Clone returns an independent copy of the query.
	Clone() Q
	// ReplaceOrder drops the current ordering and sorts by orderings.
	ReplaceOrder(orderings Orderings) Q
	// Where ANDs the predicate with the existing filters. A nil predicate
	// leaves the filters as they are.
	Where(predicate Predicate) Q
	// Limit bounds the number of returned rows.
	Limit(limit int) Q
}

// extractOrderings reads the declared ordering of q. A query without an
// ordering yields ErrNoOrderDefined.
func extractOrderings[Q Query[Q]](q Q) (Orderings, error) {
	orderings, err := q.OrderColumns()
	if err != nil {
		return nil, err
	}

	if err = orderings.validate(); err != nil {
		return nil, fmt.Errorf("invalid query ordering: %w", err)
	}

	return orderings, nil
}
