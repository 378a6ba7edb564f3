package operators

// Rendering priorities. A child expression is parenthesized when its priority
// is lower than the priority of the context it is rendered in.
const (
	PriorityLowest      = 0
	PriorityOr          = 10
	PriorityAnd         = 20
	PriorityNot         = 30
	PriorityComparison  = 40
	PrioritySumDiff     = 50
	PriorityProdQuotMod = 60
	PriorityUnary       = 70
	PriorityHighest     = 100
)

var priorities = map[Operator]int{
	OperatorOr:      PriorityOr,
	OperatorAnd:     PriorityAnd,
	OperatorNot:     PriorityNot,
	OperatorEq:      PriorityComparison,
	OperatorNe:      PriorityComparison,
	OperatorGt:      PriorityComparison,
	OperatorGte:     PriorityComparison,
	OperatorLt:      PriorityComparison,
	OperatorLte:     PriorityComparison,
	OperatorBetween: PriorityComparison,
	OperatorIn:      PriorityComparison,
	OperatorLike:    PriorityComparison,
	OperatorIsNull:  PriorityComparison,
	OperatorAdd:     PrioritySumDiff,
	OperatorSub:     PrioritySumDiff,
	OperatorMul:     PriorityProdQuotMod,
	OperatorDiv:     PriorityProdQuotMod,
	OperatorMod:     PriorityHighest,
	OperatorNeg:     PriorityUnary,
	OperatorExists:  PriorityHighest,
}

// Priority of an operator; unknown operators bind tightest.
func Priority(op Operator) int {
	if p, ok := priorities[op]; ok {
		return p
	}
	return PriorityHighest
}
