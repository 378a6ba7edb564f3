package operators

type Operator string

const (
	// Comparison

	OperatorEq  Operator = "="
	OperatorNe  Operator = "!="
	OperatorGt  Operator = ">"
	OperatorGte Operator = ">="
	OperatorLt  Operator = "<"
	OperatorLte Operator = "<="

	// Logical operators

	OperatorAnd Operator = "and"
	OperatorOr  Operator = "or"
	OperatorNot Operator = "not"

	// Mathematical

	OperatorAdd Operator = "+"
	OperatorSub Operator = "-"
	OperatorMul Operator = "*"
	OperatorDiv Operator = "/"
	OperatorMod Operator = "mod"
	OperatorNeg Operator = "-neg"

	// Predicates with keywords

	OperatorBetween Operator = "between"
	OperatorIn      Operator = "in"
	OperatorLike    Operator = "like"
	OperatorIsNull  Operator = "is null"
	OperatorExists  Operator = "exists"
)

var inverses = map[Operator]Operator{
	OperatorEq:  OperatorNe,
	OperatorNe:  OperatorEq,
	OperatorLt:  OperatorGte,
	OperatorGte: OperatorLt,
	OperatorGt:  OperatorLte,
	OperatorLte: OperatorGt,
	OperatorAnd: OperatorOr,
	OperatorOr:  OperatorAnd,
}

// Inverse returns the algebraic negation of a comparison or the De Morgan dual
// of a logical connective.
func Inverse(op Operator) (Operator, bool) {
	inverse, ok := inverses[op]
	return inverse, ok
}

func IsComparison(op Operator) bool {
	switch op {
	case OperatorEq, OperatorNe, OperatorGt, OperatorGte, OperatorLt, OperatorLte:
		return true
	}
	return false
}

func IsArithmetic(op Operator) bool {
	switch op {
	case OperatorAdd, OperatorSub, OperatorMul, OperatorDiv, OperatorMod:
		return true
	}
	return false
}
