package criteria

import (
	"reflect"
	"slices"
)

// Walk visits e and its operands in pre-order. Returning false from fn skips
// the operands of the visited node. Subqueries are visited but not entered.
func Walk(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, child := range Operands(e) {
		Walk(child, fn)
	}
}

// Operands returns the direct children of a node in rendering order.
func Operands(e Expression) []Expression {
	switch n := e.(type) {
	case ArithmeticNode:
		return []Expression{n.left, n.right}
	case NegationNode:
		return []Expression{n.operand}
	case AggregationNode:
		return []Expression{n.operand}
	case FunctionNode:
		return n.arguments
	case CaseNode:
		var result []Expression
		if n.operand != nil {
			result = append(result, n.operand)
		}
		for _, w := range n.whens {
			result = append(result, w.condition, w.result)
		}
		if n.otherwise != nil {
			result = append(result, n.otherwise)
		}
		return result
	case CoalesceNode:
		return n.values
	case ComparisonNode:
		return []Expression{n.left, n.right}
	case CompoundNode:
		result := make([]Expression, len(n.operands))
		for i, operand := range n.operands {
			result[i] = operand
		}
		return result
	case BetweenNode:
		return []Expression{n.operand, n.lower, n.upper}
	case *InPredicate:
		return append([]Expression{n.operand}, n.values...)
	case NullNode:
		return []Expression{n.operand}
	case LikeNode:
		if n.escape != nil {
			return []Expression{n.operand, n.pattern, n.escape}
		}
		return []Expression{n.operand, n.pattern}
	case BooleanNode:
		return []Expression{n.path}
	case ExistsNode:
		return []Expression{n.subquery}
	case SubqueryModifierNode:
		return []Expression{n.subquery}
	}
	return nil
}

// Equal compares two trees structurally. Paths are equal when they start at
// the same From and navigate the same attributes; subqueries only equal
// themselves.
func Equal(a, b Expression) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case LiteralNode:
		y := b.(LiteralNode)
		return x.typ == y.typ && reflect.DeepEqual(x.value, y.value)
	case ConstantNode:
		y := b.(ConstantNode)
		return x.typ == y.typ && reflect.DeepEqual(x.value, y.value)
	case ParameterNode:
		return x == b.(ParameterNode)
	case *Path:
		y := b.(*Path)
		return x.source == y.source && slices.Equal(x.steps, y.steps)
	case *Query:
		return x == b.(*Query)
	case ArithmeticNode:
		y := b.(ArithmeticNode)
		return x.operator == y.operator && x.typ == y.typ && equalAll(Operands(x), Operands(y))
	case AggregationNode:
		y := b.(AggregationNode)
		return x.function == y.function && x.distinct == y.distinct && Equal(x.operand, y.operand)
	case FunctionNode:
		y := b.(FunctionNode)
		return x.name == y.name && x.typ == y.typ && equalAll(x.arguments, y.arguments)
	case CaseNode:
		y := b.(CaseNode)
		return (x.operand == nil) == (y.operand == nil) &&
			len(x.whens) == len(y.whens) &&
			(x.otherwise == nil) == (y.otherwise == nil) &&
			equalAll(Operands(x), Operands(y))
	case SubqueryModifierNode:
		y := b.(SubqueryModifierNode)
		return x.modifier == y.modifier && x.subquery == y.subquery
	case ComparisonNode:
		y := b.(ComparisonNode)
		return x.operator == y.operator && Equal(x.left, y.left) && Equal(x.right, y.right)
	case CompoundNode:
		y := b.(CompoundNode)
		return x.operator == y.operator && equalAll(Operands(x), Operands(y))
	case BetweenNode:
		y := b.(BetweenNode)
		return x.negated == y.negated && equalAll(Operands(x), Operands(y))
	case *InPredicate:
		y := b.(*InPredicate)
		return x.negated == y.negated && equalAll(Operands(x), Operands(y))
	case NullNode:
		y := b.(NullNode)
		return x.negated == y.negated && Equal(x.operand, y.operand)
	case LikeNode:
		y := b.(LikeNode)
		return x.negated == y.negated && equalAll(Operands(x), Operands(y))
	case ExistsNode:
		y := b.(ExistsNode)
		return x.negated == y.negated && x.subquery == y.subquery
	case BooleanNode:
		y := b.(BooleanNode)
		return x.negated == y.negated && Equal(x.path, y.path)
	}
	return equalAll(Operands(a), Operands(b))
}

func equalAll(a, b []Expression) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
