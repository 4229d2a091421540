package keyset

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

type (
	// Condition is the leaf comparison "Column Operator Value".
	Condition struct {
		Column   string
		Operator Operator
		Value    any
	}

	// Conjunction is a list of conditions joined by AND.
	Conjunction []Condition

	// Predicate is a boolean expression in disjunctive normal form (DNF).
	// Each conjunction is joined by OR, and each conjunction consists of a
	// list of conditions which are joined by AND.
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	//	DNF = (A11 AND A12 AND A13) OR (A21 AND A22 AND A23), for n=2, m=3.
	//
	// A nil Predicate selects every row.
	Predicate []Conjunction
)

// BuildPredicate builds the tie-safe keyset predicate for the resolved
// ordering [(C1, O1), ..., (Cn, On)] and cursor (V1, ..., Vn):
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ... OR (C1 = V1 AND ... AND Cn On Vn)
//
// A row qualifies when it lies strictly on the operator side of the cursor
// in the lexicographic order of the columns. A row equal to the cursor on
// every column never qualifies. An empty cursor yields a nil Predicate.
func BuildPredicate(effective EffectiveOrderings, cursor CursorValue) (Predicate, error) {
	if len(effective) == 0 {
		return nil, ErrNoOrderDefined
	}

	if cursor.IsEmpty() {
		return nil, nil
	}

	values, err := cursor.Components(len(effective))
	if err != nil {
		return nil, err
	}

	dnf := make(Predicate, 0, len(effective))
	for i := range effective {
		if !effective[i].Compare.Valid() {
			return nil, fmt.Errorf("%w '%s' for column '%s'", ErrInvalidOperator, effective[i].Compare, effective[i].Column)
		}

		equalities := lo.Map(effective[:i], func(item EffectiveOrder, j int) Condition {
			return Condition{Column: item.Column, Operator: operatorEq, Value: values[j]}
		})

		conjunction := make(Conjunction, 0, len(equalities)+1)
		conjunction = append(conjunction, equalities...)
		conjunction = append(conjunction, Condition{
			Column:   effective[i].Column,
			Operator: effective[i].Compare,
			Value:    values[i],
		})

		dnf = append(dnf, conjunction)
	}

	return dnf, nil
}

// Satisfied reports whether the condition holds, given cmp, the result of
// comparing the column value with Value (negative, zero or positive).
func (c Condition) Satisfied(cmp int) (bool, error) {
	switch c.Operator {
	case OperatorGT:
		return cmp > 0, nil
	case OperatorLT:
		return cmp < 0, nil
	case operatorEq:
		return cmp == 0, nil
	default:
		return false, fmt.Errorf("%w '%s'", ErrInvalidOperator, c.Operator)
	}
}

// GORMExpression converts a condition of the form Operator(Column, Value)
// into an SQL condition "Column Operator ?" represented as a clause.Expression.
//
// Example:
//
//	Condition = { Column: "id", Operator: ">", Value: 123}
//
// Result:
//
//	"id > 123"
func (c Condition) GORMExpression() clause.Expression {
	sqlClause, arg := c.ToSQL()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

// ToSQL converts a condition to "Column Operator ?" with the value for the
// placeholder.
//
// Example:
//
//	Condition = { Column: "id", Operator: ">", Value: 123}
//
// Result:
//
//	("id > ?", 123)
func (c Condition) ToSQL() (string, driver.Value) {
	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), c.Value
}

// GORMExpression converts a conjunction (K1, K2, K3) into a gorm expression
// "K1 AND K2 AND K3".
func (d Conjunction) GORMExpression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(d))
	for _, condition := range d {
		andExpressions = append(andExpressions, condition.GORMExpression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// ToSQL converts a conjunction (K1, K2, K3) into "(K1 AND K2 AND K3)" with
// the values for its placeholders.
//
// Example:
//
//	Conjunction = {
//		{Column: "id", Operator: ">", Value: 5},
//		{Column: "name", Operator: "<", Value: "abc"}
//	}
//
// Result:
//
//	("(id > ? AND name < ?)", [5, "abc"])
func (d Conjunction) ToSQL() (string, []driver.Value) {
	andClauses := make([]string, 0, len(d))
	andValues := make([]driver.Value, 0, len(d))

	for _, condition := range d {
		andClause, andValue := condition.ToSQL()
		andClauses = append(andClauses, andClause)
		andValues = append(andValues, andValue)
	}

	if len(andClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
	}

	return "", nil
}

// GORMExpression converts the predicate into a clause.Expression joining
// conjunctions with OR. Returns nil for an empty predicate.
func (d Predicate) GORMExpression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, conjunction := range d {
		andExpressions := conjunction.GORMExpression()
		if andExpressions == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpressions)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}

// ToSQL converts the predicate into an SQL condition with the values for its
// placeholders. An empty predicate renders as "TRUE".
//
// Example:
//
//	Predicate = {
//		{{Column: "id", Operator: "<", Value: 10}},
//		{{Column: "id", Operator: "=", Value: 10}, {Column: "name", Operator: "<", Value: "abc"}},
//	}
//
// Result:
//
//	("((id < ?) OR (id = ? AND name < ?))", [10, 10, "abc"])
func (d Predicate) ToSQL() (string, []driver.Value) {
	orClauses := make([]string, 0, len(d))
	values := make([]driver.Value, 0, len(d))

	for _, conjunction := range d {
		orClause, orValues := conjunction.ToSQL()
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
	}

	return "TRUE", nil
}
