package keyset

import "errors"

var (
	// ErrNoOrderDefined is returned when the paginated query declares no
	// ordering. Without an order there is no position to page from.
	ErrNoOrderDefined = errors.New("query has no ordering defined")
	// ErrCursorArityMismatch is returned when the cursor does not supply
	// exactly one value per ordered column.
	ErrCursorArityMismatch = errors.New("cursor arity does not match ordering")
	ErrInvalidMode         = errors.New("invalid pagination mode")
	ErrInvalidPageSize     = errors.New("page size must be positive")
	// ErrUnsupportedOrder is returned when the ordering of a query cannot be
	// read back as a list of columns, e.g. ORDER BY built from an opaque
	// expression.
	ErrUnsupportedOrder = errors.New("query ordering cannot be introspected")
	// ErrInvalidOperator is returned for a condition whose operator is not
	// one of the keyset comparison operators.
	ErrInvalidOperator = errors.New("invalid condition operator")
)
