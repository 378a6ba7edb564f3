package criteria

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain/operators"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

type Kind int

const (
	KindLiteral Kind = iota
	KindConstant
	KindParameter
	KindPath
	KindArithmetic
	KindNegation
	KindAggregation
	KindCase
	KindCoalesce
	KindFunction
	KindSubquery
	KindSubqueryModifier
	KindComparison
	KindCompound
	KindBetween
	KindIn
	KindExists
	KindNull
	KindLike
	KindBooleanPath
)

var kindNames = [...]string{
	"literal", "constant", "parameter", "path", "arithmetic", "negation",
	"aggregation", "case", "coalesce", "function", "subquery", "subquery modifier",
	"comparison", "compound", "between", "in", "exists", "null", "like", "boolean path",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Expression is the closed set of query tree nodes. Nodes outside this
// package cannot implement it.
type Expression interface {
	Kind() Kind
	Type() Type
	Priority() int
	expression()
}

// Predicate is a boolean expression with a structural negation.
type Predicate interface {
	Expression
	Not() Predicate
}

// Literal is bound as a generated query parameter.
func Literal(value any) LiteralNode {
	return LiteralNode{value: value, typ: TypeOf(value)}
}

type LiteralNode struct {
	value any
	typ   Type
}

func (n LiteralNode) Value() any {
	return n.value
}
func (n LiteralNode) Kind() Kind    { return KindLiteral }
func (n LiteralNode) Type() Type    { return n.typ }
func (n LiteralNode) Priority() int { return operators.PriorityHighest }
func (LiteralNode) expression()     {}

// Constant is inlined into the query text.
func Constant(value any) ConstantNode {
	return ConstantNode{value: value, typ: TypeOf(value)}
}

// Null is the untyped null constant.
func Null() ConstantNode {
	return ConstantNode{}
}

type ConstantNode struct {
	value any
	typ   Type
}

func (n ConstantNode) Value() any {
	return n.value
}
func (n ConstantNode) Kind() Kind    { return KindConstant }
func (n ConstantNode) Type() Type    { return n.typ }
func (n ConstantNode) Priority() int { return operators.PriorityHighest }
func (ConstantNode) expression()     {}

// Parameter is a named placeholder bound by the caller.
func Parameter(name string, typ Type) ParameterNode {
	return ParameterNode{name: name, typ: typ}
}

type ParameterNode struct {
	name string
	typ  Type
}

func (n ParameterNode) Name() string {
	return n.name
}
func (n ParameterNode) Kind() Kind    { return KindParameter }
func (n ParameterNode) Type() Type    { return n.typ }
func (n ParameterNode) Priority() int { return operators.PriorityHighest }
func (ParameterNode) expression()     {}

type ArithmeticNode struct {
	operator operators.Operator
	left     Expression
	right    Expression
	typ      Type
}

func newArithmetic(op operators.Operator, left, right Expression) (Expression, error) {
	if left == nil || right == nil {
		return nil, errors.Wrapf(ErrIllegalArgument, "nil operand of %s", op)
	}
	typ, err := Widen(left.Type(), right.Type())
	if err != nil {
		return nil, errors.Wrapf(err, "operands of %s", op)
	}
	return ArithmeticNode{operator: op, left: left, right: right, typ: typ}, nil
}

func Sum(left, right Expression) (Expression, error) {
	return newArithmetic(operators.OperatorAdd, left, right)
}

func Diff(left, right Expression) (Expression, error) {
	return newArithmetic(operators.OperatorSub, left, right)
}

func Prod(left, right Expression) (Expression, error) {
	return newArithmetic(operators.OperatorMul, left, right)
}

// Quot keeps the widened type, so two integral operands divide integrally.
func Quot(left, right Expression) (Expression, error) {
	return newArithmetic(operators.OperatorDiv, left, right)
}

func Mod(left, right Expression) (Expression, error) {
	return newArithmetic(operators.OperatorMod, left, right)
}

func (n ArithmeticNode) Operator() operators.Operator {
	return n.operator
}
func (n ArithmeticNode) Left() Expression {
	return n.left
}
func (n ArithmeticNode) Right() Expression {
	return n.right
}
func (n ArithmeticNode) Kind() Kind    { return KindArithmetic }
func (n ArithmeticNode) Type() Type    { return n.typ }
func (n ArithmeticNode) Priority() int { return operators.Priority(n.operator) }
func (ArithmeticNode) expression()     {}

// Neg is the unary minus.
func Neg(operand Expression) (Expression, error) {
	if operand == nil {
		return nil, errors.Wrap(ErrIllegalArgument, "nil operand of unary minus")
	}
	if !operand.Type().IsNumeric() {
		return nil, errors.Wrapf(ErrIncompatibleType, "%q is not numeric", operand.Type())
	}
	return NegationNode{operand: operand}, nil
}

type NegationNode struct {
	operand Expression
}

func (n NegationNode) Operand() Expression {
	return n.operand
}
func (n NegationNode) Kind() Kind    { return KindNegation }
func (n NegationNode) Type() Type    { return n.operand.Type() }
func (n NegationNode) Priority() int { return operators.PriorityUnary }
func (NegationNode) expression()     {}

type AggregateFunction string

const (
	AggregateCount AggregateFunction = "count"
	AggregateSum   AggregateFunction = "sum"
	AggregateAvg   AggregateFunction = "avg"
	AggregateMin   AggregateFunction = "min"
	AggregateMax   AggregateFunction = "max"
)

type AggregationNode struct {
	function AggregateFunction
	distinct bool
	operand  Expression
	typ      Type
}

func Count(operand Expression) (Expression, error) {
	return newAggregation(AggregateCount, false, operand)
}

func CountDistinct(operand Expression) (Expression, error) {
	return newAggregation(AggregateCount, true, operand)
}

func SumOf(operand Expression) (Expression, error) {
	return newAggregation(AggregateSum, false, operand)
}

func Avg(operand Expression) (Expression, error) {
	return newAggregation(AggregateAvg, false, operand)
}

func Min(operand Expression) (Expression, error) {
	return newAggregation(AggregateMin, false, operand)
}

func Max(operand Expression) (Expression, error) {
	return newAggregation(AggregateMax, false, operand)
}

func newAggregation(function AggregateFunction, distinct bool, operand Expression) (Expression, error) {
	if operand == nil {
		return nil, errors.Wrapf(ErrIllegalArgument, "nil operand of %s", function)
	}
	typ := operand.Type()
	switch function {
	case AggregateCount:
		typ = metamodel.TypeInt64
	case AggregateAvg:
		if !operand.Type().IsNumeric() {
			return nil, errors.Wrapf(ErrIncompatibleType, "avg of %q", operand.Type())
		}
		typ = metamodel.TypeFloat64
	case AggregateSum:
		if !operand.Type().IsNumeric() {
			return nil, errors.Wrapf(ErrIncompatibleType, "sum of %q", operand.Type())
		}
	}
	return AggregationNode{function: function, distinct: distinct, operand: operand, typ: typ}, nil
}

func (n AggregationNode) Function() AggregateFunction {
	return n.function
}
func (n AggregationNode) IsDistinct() bool {
	return n.distinct
}
func (n AggregationNode) Operand() Expression {
	return n.operand
}
func (n AggregationNode) Kind() Kind    { return KindAggregation }
func (n AggregationNode) Type() Type    { return n.typ }
func (n AggregationNode) Priority() int { return operators.PriorityHighest }
func (AggregationNode) expression()     {}

type FunctionNode struct {
	name      string
	typ       Type
	arguments []Expression
}

func Function(name string, typ Type, arguments ...Expression) (Expression, error) {
	if name == "" {
		return nil, errors.Wrap(ErrIllegalArgument, "empty function name")
	}
	for i, arg := range arguments {
		if arg == nil {
			return nil, errors.Wrapf(ErrIllegalArgument, "nil argument %d of %s", i, name)
		}
	}
	args := make([]Expression, len(arguments))
	copy(args, arguments)
	return FunctionNode{name: name, typ: typ, arguments: args}, nil
}

func Upper(operand Expression) (Expression, error) {
	return stringFunction("upper", metamodel.TypeString, operand)
}

func Lower(operand Expression) (Expression, error) {
	return stringFunction("lower", metamodel.TypeString, operand)
}

func Length(operand Expression) (Expression, error) {
	return stringFunction("length", metamodel.TypeInt32, operand)
}

func Concat(first Expression, rest ...Expression) (Expression, error) {
	args := append([]Expression{first}, rest...)
	for _, arg := range args {
		if arg != nil && !comparableTypes(arg.Type(), metamodel.TypeString) {
			return nil, errors.Wrapf(ErrIncompatibleType, "concat of %q", arg.Type())
		}
	}
	return Function("concat", metamodel.TypeString, args...)
}

func Abs(operand Expression) (Expression, error) {
	if operand != nil && !operand.Type().IsNumeric() {
		return nil, errors.Wrapf(ErrIncompatibleType, "abs of %q", operand.Type())
	}
	if operand == nil {
		return Function("abs", metamodel.TypeUnknown, operand)
	}
	return Function("abs", operand.Type(), operand)
}

func stringFunction(name string, typ Type, operand Expression) (Expression, error) {
	if operand != nil && !comparableTypes(operand.Type(), metamodel.TypeString) {
		return nil, errors.Wrapf(ErrIncompatibleType, "%s of %q", name, operand.Type())
	}
	return Function(name, typ, operand)
}

func (n FunctionNode) Name() string {
	return n.name
}
func (n FunctionNode) Arguments() []Expression {
	return n.arguments
}
func (n FunctionNode) Kind() Kind    { return KindFunction }
func (n FunctionNode) Type() Type    { return n.typ }
func (n FunctionNode) Priority() int { return operators.PriorityHighest }
func (FunctionNode) expression()     {}

type Modifier string

const (
	ModifierAll  Modifier = "all"
	ModifierAny  Modifier = "any"
	ModifierSome Modifier = "some"
)

type SubqueryModifierNode struct {
	modifier Modifier
	subquery *Query
}

func All(subquery *Query) (Expression, error) {
	return newSubqueryModifier(ModifierAll, subquery)
}

func Any(subquery *Query) (Expression, error) {
	return newSubqueryModifier(ModifierAny, subquery)
}

func Some(subquery *Query) (Expression, error) {
	return newSubqueryModifier(ModifierSome, subquery)
}

func newSubqueryModifier(modifier Modifier, subquery *Query) (Expression, error) {
	if subquery == nil {
		return nil, errors.Wrapf(ErrIllegalArgument, "nil subquery of %s", modifier)
	}
	if !subquery.IsSubquery() {
		return nil, errors.Wrapf(ErrIllegalArgument, "%s over a top-level query", modifier)
	}
	return SubqueryModifierNode{modifier: modifier, subquery: subquery}, nil
}

func (n SubqueryModifierNode) Modifier() Modifier {
	return n.modifier
}
func (n SubqueryModifierNode) Subquery() *Query {
	return n.subquery
}
func (n SubqueryModifierNode) Kind() Kind    { return KindSubqueryModifier }
func (n SubqueryModifierNode) Type() Type    { return n.subquery.Type() }
func (n SubqueryModifierNode) Priority() int { return operators.PriorityHighest }
func (SubqueryModifierNode) expression()     {}
