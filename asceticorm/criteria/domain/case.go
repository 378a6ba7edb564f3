package criteria

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain/operators"
)

type WhenClause struct {
	condition Expression
	result    Expression
}

// Condition is a predicate in a searched case and a value in a simple case.
func (w WhenClause) Condition() Expression {
	return w.condition
}

func (w WhenClause) Result() Expression {
	return w.result
}

type CaseNode struct {
	operand   Expression
	whens     []WhenClause
	otherwise Expression
	typ       Type
}

// Operand is nil for a searched case.
func (n CaseNode) Operand() Expression {
	return n.operand
}
func (n CaseNode) Whens() []WhenClause {
	return n.whens
}

// Otherwise is nil when the case has no else branch.
func (n CaseNode) Otherwise() Expression {
	return n.otherwise
}
func (n CaseNode) Kind() Kind    { return KindCase }
func (n CaseNode) Type() Type    { return n.typ }
func (n CaseNode) Priority() int { return operators.PriorityHighest }
func (CaseNode) expression()     {}

// CaseBuilder collects branches until Build. The first error is kept and
// reported by Build; any call after Build fails with ErrFrozen.
type CaseBuilder struct {
	operand   Expression
	simple    bool
	whens     []WhenClause
	otherwise Expression
	built     bool
	err       error
}

func NewCase() *CaseBuilder {
	return &CaseBuilder{}
}

func NewSimpleCase(operand Expression) *CaseBuilder {
	b := &CaseBuilder{operand: operand, simple: true}
	if operand == nil {
		b.err = errors.Wrap(ErrIllegalArgument, "nil operand of simple case")
	}
	return b
}

func (b *CaseBuilder) When(condition, result Expression) *CaseBuilder {
	if !b.check() {
		return b
	}
	if condition == nil || result == nil {
		b.err = errors.Wrap(ErrIllegalArgument, "nil when clause")
		return b
	}
	if b.simple {
		if err := checkComparable(b.operand, condition); err != nil {
			b.err = err
			return b
		}
	} else if _, ok := condition.(Predicate); !ok {
		b.err = errors.Wrapf(ErrIllegalArgument, "when condition is a %s", condition.Kind())
		return b
	}
	b.whens = append(b.whens, WhenClause{condition: condition, result: result})
	return b
}

func (b *CaseBuilder) Otherwise(result Expression) *CaseBuilder {
	if !b.check() {
		return b
	}
	if result == nil {
		b.err = errors.Wrap(ErrIllegalArgument, "nil else branch")
		return b
	}
	b.otherwise = result
	return b
}

func (b *CaseBuilder) Err() error {
	return b.err
}

func (b *CaseBuilder) Build() (Expression, error) {
	if !b.check() {
		return nil, b.err
	}
	b.built = true
	if len(b.whens) == 0 {
		return nil, errors.Wrap(ErrIllegalState, "case without when clauses")
	}
	results := make([]Expression, 0, len(b.whens)+1)
	for _, w := range b.whens {
		results = append(results, w.result)
	}
	if b.otherwise != nil {
		results = append(results, b.otherwise)
	}
	typ, err := commonType(results...)
	if err != nil {
		return nil, errors.Wrap(err, "case branches")
	}
	whens := make([]WhenClause, len(b.whens))
	copy(whens, b.whens)
	return CaseNode{operand: b.operand, whens: whens, otherwise: b.otherwise, typ: typ}, nil
}

func (b *CaseBuilder) check() bool {
	if b.built && b.err == nil {
		b.err = errors.Wrap(ErrFrozen, "case already built")
	}
	return b.err == nil
}

type CoalesceNode struct {
	values []Expression
	typ    Type
}

// Values is empty for a coalesce that renders as null.
func (n CoalesceNode) Values() []Expression {
	return n.values
}
func (n CoalesceNode) Kind() Kind    { return KindCoalesce }
func (n CoalesceNode) Type() Type    { return n.typ }
func (n CoalesceNode) Priority() int { return operators.PriorityHighest }
func (CoalesceNode) expression()     {}

// CoalesceBuilder follows the CaseBuilder error rules.
type CoalesceBuilder struct {
	values []Expression
	built  bool
	err    error
}

func NewCoalesce() *CoalesceBuilder {
	return &CoalesceBuilder{}
}

func (b *CoalesceBuilder) Value(value Expression) *CoalesceBuilder {
	if b.built && b.err == nil {
		b.err = errors.Wrap(ErrFrozen, "coalesce already built")
	}
	if b.err != nil {
		return b
	}
	if value == nil {
		b.err = errors.Wrap(ErrIllegalArgument, "nil coalesce value")
		return b
	}
	b.values = append(b.values, value)
	return b
}

func (b *CoalesceBuilder) Err() error {
	return b.err
}

func (b *CoalesceBuilder) Build() (Expression, error) {
	if b.built && b.err == nil {
		b.err = errors.Wrap(ErrFrozen, "coalesce already built")
	}
	if b.err != nil {
		return nil, b.err
	}
	b.built = true
	typ, err := commonType(b.values...)
	if err != nil {
		return nil, errors.Wrap(err, "coalesce values")
	}
	values := make([]Expression, len(b.values))
	copy(values, b.values)
	return CoalesceNode{values: values, typ: typ}, nil
}
