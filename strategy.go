package keyset

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Strategy assembles the page of Q adjacent to a cursor. It never modifies
// the query it was created for, so one Strategy may serve concurrent
// requests once configured.
type Strategy[Q Query[Q]] struct {
	query    Q
	mode     Mode
	limit    int
	maxLimit int
	logger   logrus.FieldLogger
}

// NewStrategy creates a strategy taking pageSize rows on the given side of
// the cursor.
func NewStrategy[Q Query[Q]](query Q, mode Mode, pageSize int) *Strategy[Q] {
	return &Strategy[Q]{
		query:  query,
		mode:   mode,
		limit:  pageSize,
		logger: logrus.StandardLogger(),
	}
}

// QueryBefore creates a strategy for the page preceding the cursor.
func QueryBefore[Q Query[Q]](query Q, pageSize int) *Strategy[Q] {
	return NewStrategy(query, ModeBefore, pageSize)
}

// QueryAfter creates a strategy for the page following the cursor.
func QueryAfter[Q Query[Q]](query Q, pageSize int) *Strategy[Q] {
	return NewStrategy(query, ModeAfter, pageSize)
}

// WithLimit sets the page size from untrusted input. NormalizeLimitMax is
// applied against the configured maximum, MaxLimit by default.
func (s *Strategy[Q]) WithLimit(limit int) *Strategy[Q] {
	s.limit = NormalizeLimitMax(limit, lo.Ternary(s.maxLimit > 0, s.maxLimit, MaxLimit))

	return s
}

// WithMaxLimit clamps the page size to maxLimit. Zero disables the clamp.
func (s *Strategy[Q]) WithMaxLimit(maxLimit int) *Strategy[Q] {
	s.maxLimit = maxLimit

	return s
}

// WithLogger sets the logger. A nil logger restores the logrus standard
// logger.
func (s *Strategy[Q]) WithLogger(logger logrus.FieldLogger) *Strategy[Q] {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s.logger = logger

	return s
}

// Mode returns the side of the cursor the strategy pages to.
func (s *Strategy[Q]) Mode() Mode {
	return s.mode
}

// GetLimit returns the page size applied to assembled queries.
func (s *Strategy[Q]) GetLimit() int {
	if s.maxLimit > 0 && s.limit > s.maxLimit {
		return s.maxLimit
	}

	return s.limit
}

// Query returns the original query.
func (s *Strategy[Q]) Query() Q {
	return s.query
}

// Process assembles the query selecting the page next to cursor. An empty
// cursor selects the first page (ModeAfter) or the last page (ModeBefore).
//
// Results of the assembled query must go through FixOrder before they are
// returned to the caller.
func (s *Strategy[Q]) Process(cursor CursorValue) (Q, error) {
	q, err := s.process(cursor)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"mode":   s.mode.String(),
			"cursor": cursor.String(),
		}).WithError(err).Warn("keyset page rejected")

		return lo.Empty[Q](), fmt.Errorf("cannot paginate: %w", err)
	}

	return q, nil
}

func (s *Strategy[Q]) process(cursor CursorValue) (Q, error) {
	limit := s.GetLimit()
	if limit <= 0 {
		return lo.Empty[Q](), fmt.Errorf("%w: %d", ErrInvalidPageSize, limit)
	}

	orderings, err := extractOrderings(s.query)
	if err != nil {
		return lo.Empty[Q](), err
	}

	effective, err := ResolveDirections(orderings, s.mode)
	if err != nil {
		return lo.Empty[Q](), err
	}

	predicate, err := BuildPredicate(effective, cursor)
	if err != nil {
		return lo.Empty[Q](), err
	}

	s.logger.WithFields(logrus.Fields{
		"mode":    s.mode.String(),
		"columns": orderings.ToSQL(),
		"limit":   limit,
		"flipped": effective.Flipped(),
	}).Debug("keyset page assembled")

	return assemble(s.query, effective, predicate, limit), nil
}

// assemble applies the resolved order, the predicate and the limit to a
// clone of original.
func assemble[Q Query[Q]](original Q, effective EffectiveOrderings, predicate Predicate, limit int) Q {
	return original.Clone().
		ReplaceOrder(effective.QueryOrderings()).
		Where(predicate).
		Limit(limit)
}

// FixOrder restores the declared order of rows fetched for mode. Rows of a
// ModeBefore page come from the engine nearest-first and are reversed in
// place; ModeAfter rows are returned unchanged.
func FixOrder[T any](rows []T, mode Mode) []T {
	if mode == ModeBefore {
		slices.Reverse(rows)
	}

	return rows
}
