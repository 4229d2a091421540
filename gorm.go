package keyset

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	_orderByClause = "ORDER BY"
	_whereClause   = "WHERE"
)

// GormQuery adapts a *gorm.DB chain, built on a model (db.Model(&Reply{}))
// or on a plain table (db.Table("replies")), to Query.
//
// Every method starts from a new session, so the wrapped statement is
// copied before it is changed and the caller's *gorm.DB stays intact.
type GormQuery struct {
	db *gorm.DB
}

var _ Query[*GormQuery] = (*GormQuery)(nil)

// FromGORM wraps db. The ordering must be declared on db beforehand:
//
//	keyset.FromGORM(db.Model(&Reply{}).Where("topic_id = ?", 3).Order("likes_count, id desc"))
func FromGORM(db *gorm.DB) *GormQuery {
	return &GormQuery{db: db}
}

// DB returns the wrapped chain, ready to be executed.
func (q *GormQuery) DB() *gorm.DB {
	return q.db
}

func (q *GormQuery) session() *gorm.DB {
	return q.db.Session(&gorm.Session{})
}

// OrderColumns - implements Query. Reads the ORDER BY clause of the
// statement. Raw orders like "a desc, b" are parsed item by item.
func (q *GormQuery) OrderColumns() (Orderings, error) {
	c, ok := q.db.Statement.Clauses[_orderByClause]
	if !ok {
		return nil, nil
	}

	orderBy, ok := c.Expression.(clause.OrderBy)
	if !ok || orderBy.Expression != nil {
		return nil, ErrUnsupportedOrder
	}

	var ret Orderings
	for _, column := range orderBy.Columns {
		if column.Column.Raw {
			parsed, err := parseRawOrder(column.Column.Name)
			if err != nil {
				return nil, err
			}

			// A raw item may carry its own direction, Desc applies on top.
			if column.Desc {
				for i := range parsed {
					parsed[i].Direction = DirectionDESC
				}
			}

			ret = append(ret, parsed...)
			continue
		}

		name, err := columnName(column.Column)
		if err != nil {
			return nil, err
		}

		direction := DirectionASC
		if column.Desc {
			direction = DirectionDESC
		}

		ret = append(ret, OrderBy{Column: name, Direction: direction})
	}

	return ret, nil
}

// Clone - implements Query.
func (q *GormQuery) Clone() *GormQuery {
	return &GormQuery{db: q.session()}
}

// ReplaceOrder - implements Query.
func (q *GormQuery) ReplaceOrder(orderings Orderings) *GormQuery {
	// Clauses() forces the session to copy the statement, so deleting from
	// the copied clause map does not touch q.
	tx := q.session().Clauses()
	delete(tx.Statement.Clauses, _orderByClause)

	return &GormQuery{db: orderings.Apply(tx)}
}

// Where - implements Query.
func (q *GormQuery) Where(predicate Predicate) *GormQuery {
	exp := predicate.GORMExpression()
	if exp == nil {
		return q.Clone()
	}

	// Clauses() copies the statement before the existing filters are
	// grouped, as in ReplaceOrder.
	tx := q.session().Clauses()
	groupWhere(tx.Statement)

	return &GormQuery{db: tx.Clauses(exp)}
}

// groupWhere turns the filters of stmt into a single expression when one of
// them is joined with OR (db.Or(...)). Otherwise gorm would join the next
// condition to the last OR operand only: "a OR b AND c".
func groupWhere(stmt *gorm.Statement) {
	c, ok := stmt.Clauses[_whereClause]
	if !ok {
		return
	}

	where, ok := c.Expression.(clause.Where)
	if !ok || !lo.SomeBy(where.Exprs, isOrJoined) {
		return
	}

	exprs := slices.Clone(where.Exprs)
	if len(exprs) == 1 {
		exprs[0] = clause.And(exprs[0].(clause.OrConditions).Exprs...)
	}

	// clause.Where moves the first expression not joined with OR to the
	// front when rendering. The group is rendered as is, so do it here.
	if idx := slices.IndexFunc(exprs, func(e clause.Expression) bool { return !isOrJoined(e) }); idx > 0 {
		exprs[0], exprs[idx] = exprs[idx], exprs[0]
	}

	c.Expression = clause.Where{Exprs: []clause.Expression{clause.And(exprs...)}}
	stmt.Clauses[_whereClause] = c
}

func isOrJoined(exp clause.Expression) bool {
	or, ok := exp.(clause.OrConditions)

	return ok && len(or.Exprs) == 1
}

// Limit - implements Query.
func (q *GormQuery) Limit(limit int) *GormQuery {
	return &GormQuery{db: q.session().Limit(limit)}
}

// FindPage assembles the page next to cursor, runs it with ctx and returns
// the rows in the declared order of the original query. Engine errors are
// returned as is.
func FindPage[T any](ctx context.Context, s *Strategy[*GormQuery], cursor CursorValue) ([]T, error) {
	q, err := s.Process(cursor)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err = q.DB().WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	return FixOrder(rows, s.Mode()), nil
}

func columnName(column clause.Column) (string, error) {
	if column.Name == clause.PrimaryKey {
		return "", fmt.Errorf("%w: primary key placeholder", ErrUnsupportedOrder)
	}

	if column.Table == "" || column.Table == clause.CurrentTable {
		return column.Name, nil
	}

	return column.Table + "." + column.Name, nil
}

// parseRawOrder parses "expr [ASC|DESC][, ...]". Commas inside parentheses
// or quotes do not split items, so function calls survive.
func parseRawOrder(raw string) (Orderings, error) {
	var ret Orderings
	for _, item := range splitTopLevel(raw) {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("%w: empty item in '%s'", ErrUnsupportedOrder, raw)
		}

		if strings.Contains(strings.ToUpper(item), " NULLS ") {
			return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedOrder, item)
		}

		column, direction := item, DirectionASC
		if idx := strings.LastIndexAny(item, " \t\n"); idx != -1 {
			switch Direction(strings.ToUpper(item[idx+1:])) {
			case DirectionASC:
				column = strings.TrimSpace(item[:idx])
			case DirectionDESC:
				column, direction = strings.TrimSpace(item[:idx]), DirectionDESC
			}
		}

		ret = append(ret, OrderBy{Column: column, Direction: direction})
	}

	return ret, nil
}

func splitTopLevel(s string) []string {
	var (
		ret   []string
		depth int
		quote rune
		start int
	)

	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			ret = append(ret, s[start:i])
			start = i + 1
		}
	}

	return append(ret, s[start:])
}
