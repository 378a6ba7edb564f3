package criteria

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain/operators"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

type ComparisonNode struct {
	operator operators.Operator
	left     Expression
	right    Expression
}

func newComparison(op operators.Operator, left, right Expression) (Predicate, error) {
	if left == nil || right == nil {
		return nil, errors.Wrapf(ErrIllegalArgument, "nil operand of %s", op)
	}
	if err := checkComparable(left, right); err != nil {
		return nil, errors.Wrapf(err, "operands of %s", op)
	}
	return ComparisonNode{operator: op, left: left, right: right}, nil
}

func Eq(left, right Expression) (Predicate, error) {
	return newComparison(operators.OperatorEq, left, right)
}

func Ne(left, right Expression) (Predicate, error) {
	return newComparison(operators.OperatorNe, left, right)
}

func Lt(left, right Expression) (Predicate, error) {
	return newComparison(operators.OperatorLt, left, right)
}

func Le(left, right Expression) (Predicate, error) {
	return newComparison(operators.OperatorLte, left, right)
}

func Gt(left, right Expression) (Predicate, error) {
	return newComparison(operators.OperatorGt, left, right)
}

func Ge(left, right Expression) (Predicate, error) {
	return newComparison(operators.OperatorGte, left, right)
}

func (n ComparisonNode) Operator() operators.Operator {
	return n.operator
}
func (n ComparisonNode) Left() Expression {
	return n.left
}
func (n ComparisonNode) Right() Expression {
	return n.right
}

// Not returns the comparison with the inverse operator.
func (n ComparisonNode) Not() Predicate {
	inverse, _ := operators.Inverse(n.operator)
	return ComparisonNode{operator: inverse, left: n.left, right: n.right}
}
func (n ComparisonNode) Kind() Kind    { return KindComparison }
func (n ComparisonNode) Type() Type    { return metamodel.TypeBool }
func (n ComparisonNode) Priority() int { return operators.PriorityComparison }
func (ComparisonNode) expression()     {}

type CompoundNode struct {
	operator operators.Operator
	operands []Predicate
}

// And drops nil operands. It returns nil when nothing is left and the single
// operand itself when only one is left.
func And(predicates ...Predicate) Predicate {
	return newCompound(operators.OperatorAnd, predicates)
}

// Or follows the same rules as And.
func Or(predicates ...Predicate) Predicate {
	return newCompound(operators.OperatorOr, predicates)
}

func newCompound(op operators.Operator, predicates []Predicate) Predicate {
	operands := make([]Predicate, 0, len(predicates))
	add := func(p Predicate) {
		for _, existing := range operands {
			if Equal(existing, p) {
				return
			}
		}
		operands = append(operands, p)
	}
	for _, p := range predicates {
		if isNilPredicate(p) {
			continue
		}
		if compound, ok := p.(CompoundNode); ok && compound.operator == op {
			for _, nested := range compound.operands {
				add(nested)
			}
			continue
		}
		add(p)
	}
	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	}
	return CompoundNode{operator: op, operands: operands}
}

func isNilPredicate(p Predicate) bool {
	if p == nil {
		return true
	}
	in, ok := p.(*InPredicate)
	return ok && in == nil
}

func (n CompoundNode) Operator() operators.Operator {
	return n.operator
}
func (n CompoundNode) Operands() []Predicate {
	return n.operands
}

// Not applies De Morgan's law.
func (n CompoundNode) Not() Predicate {
	inverse, _ := operators.Inverse(n.operator)
	operands := make([]Predicate, len(n.operands))
	for i, operand := range n.operands {
		operands[i] = operand.Not()
	}
	return CompoundNode{operator: inverse, operands: operands}
}
func (n CompoundNode) Kind() Kind    { return KindCompound }
func (n CompoundNode) Type() Type    { return metamodel.TypeBool }
func (n CompoundNode) Priority() int { return operators.Priority(n.operator) }
func (CompoundNode) expression()     {}

type BetweenNode struct {
	operand Expression
	lower   Expression
	upper   Expression
	negated bool
}

// Between degrades to a single comparison when one bound is nil and fails
// when both are.
func Between(operand, lower, upper Expression) (Predicate, error) {
	if operand == nil {
		return nil, errors.Wrap(ErrIllegalArgument, "nil operand of between")
	}
	switch {
	case lower == nil && upper == nil:
		return nil, errors.Wrap(ErrIllegalArgument, "both bounds of between are nil")
	case lower == nil:
		return Le(operand, upper)
	case upper == nil:
		return Ge(operand, lower)
	}
	if err := checkComparable(operand, lower); err != nil {
		return nil, err
	}
	if err := checkComparable(operand, upper); err != nil {
		return nil, err
	}
	return BetweenNode{operand: operand, lower: lower, upper: upper}, nil
}

// BetweenOrNil returns a nil predicate for two nil bounds, so the result can be
// passed to And directly.
func BetweenOrNil(operand, lower, upper Expression) (Predicate, error) {
	if lower == nil && upper == nil {
		return nil, nil
	}
	return Between(operand, lower, upper)
}

func (n BetweenNode) Operand() Expression {
	return n.operand
}
func (n BetweenNode) Lower() Expression {
	return n.lower
}
func (n BetweenNode) Upper() Expression {
	return n.upper
}
func (n BetweenNode) IsNegated() bool {
	return n.negated
}
func (n BetweenNode) Not() Predicate {
	n.negated = !n.negated
	return n
}
func (n BetweenNode) Kind() Kind    { return KindBetween }
func (n BetweenNode) Type() Type    { return metamodel.TypeBool }
func (n BetweenNode) Priority() int { return operators.PriorityComparison }
func (BetweenNode) expression()     {}

type NullNode struct {
	operand Expression
	negated bool
}

func IsNull(operand Expression) (Predicate, error) {
	if operand == nil {
		return nil, errors.Wrap(ErrIllegalArgument, "nil operand of is null")
	}
	return NullNode{operand: operand}, nil
}

func IsNotNull(operand Expression) (Predicate, error) {
	p, err := IsNull(operand)
	if err != nil {
		return nil, err
	}
	return p.Not(), nil
}

func (n NullNode) Operand() Expression {
	return n.operand
}
func (n NullNode) IsNegated() bool {
	return n.negated
}
func (n NullNode) Not() Predicate {
	n.negated = !n.negated
	return n
}
func (n NullNode) Kind() Kind    { return KindNull }
func (n NullNode) Type() Type    { return metamodel.TypeBool }
func (n NullNode) Priority() int { return operators.PriorityComparison }
func (NullNode) expression()     {}

type LikeNode struct {
	operand Expression
	pattern Expression
	escape  Expression
	negated bool
}

// Like takes at most one escape expression.
func Like(operand, pattern Expression, escape ...Expression) (Predicate, error) {
	if operand == nil || pattern == nil {
		return nil, errors.Wrap(ErrIllegalArgument, "nil operand of like")
	}
	if len(escape) > 1 {
		return nil, errors.Wrap(ErrIllegalArgument, "more than one escape of like")
	}
	for _, e := range append([]Expression{operand, pattern}, escape...) {
		if e == nil {
			return nil, errors.Wrap(ErrIllegalArgument, "nil escape of like")
		}
		if !comparableTypes(e.Type(), metamodel.TypeString) {
			return nil, errors.Wrapf(ErrIncompatibleType, "like over %q", e.Type())
		}
	}
	n := LikeNode{operand: operand, pattern: pattern}
	if len(escape) == 1 {
		n.escape = escape[0]
	}
	return n, nil
}

func (n LikeNode) Operand() Expression {
	return n.operand
}
func (n LikeNode) Pattern() Expression {
	return n.pattern
}

// Escape is nil when no escape character is set.
func (n LikeNode) Escape() Expression {
	return n.escape
}
func (n LikeNode) IsNegated() bool {
	return n.negated
}
func (n LikeNode) Not() Predicate {
	n.negated = !n.negated
	return n
}
func (n LikeNode) Kind() Kind    { return KindLike }
func (n LikeNode) Type() Type    { return metamodel.TypeBool }
func (n LikeNode) Priority() int { return operators.PriorityComparison }
func (LikeNode) expression()     {}

type ExistsNode struct {
	subquery *Query
	negated  bool
}

func Exists(subquery *Query) (Predicate, error) {
	if subquery == nil {
		return nil, errors.Wrap(ErrIllegalArgument, "nil subquery of exists")
	}
	if !subquery.IsSubquery() {
		return nil, errors.Wrap(ErrIllegalArgument, "exists over a top-level query")
	}
	return ExistsNode{subquery: subquery}, nil
}

func (n ExistsNode) Subquery() *Query {
	return n.subquery
}
func (n ExistsNode) IsNegated() bool {
	return n.negated
}
func (n ExistsNode) Not() Predicate {
	n.negated = !n.negated
	return n
}
func (n ExistsNode) Kind() Kind { return KindExists }
func (n ExistsNode) Type() Type { return metamodel.TypeBool }
func (n ExistsNode) Priority() int {
	if n.negated {
		return operators.PriorityNot
	}
	return operators.PriorityHighest
}
func (ExistsNode) expression() {}

type BooleanNode struct {
	path    *Path
	negated bool
}

// IsTrue turns a boolean attribute path into a predicate.
func IsTrue(path *Path) (Predicate, error) {
	if path == nil {
		return nil, errors.Wrap(ErrIllegalArgument, "nil boolean path")
	}
	if path.Type() != metamodel.TypeBool {
		return nil, errors.Wrapf(ErrIncompatibleType, "%s is %q", path, path.Type())
	}
	return BooleanNode{path: path}, nil
}

func (n BooleanNode) Path() *Path {
	return n.path
}
func (n BooleanNode) IsNegated() bool {
	return n.negated
}
func (n BooleanNode) Not() Predicate {
	n.negated = !n.negated
	return n
}
func (n BooleanNode) Kind() Kind { return KindBooleanPath }
func (n BooleanNode) Type() Type { return metamodel.TypeBool }
func (n BooleanNode) Priority() int {
	if n.negated {
		return operators.PriorityNot
	}
	return operators.PriorityHighest
}
func (BooleanNode) expression() {}
