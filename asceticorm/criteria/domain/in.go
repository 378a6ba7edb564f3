package criteria

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain/operators"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

// Partition is a contiguous chunk of an IN value list.
type Partition struct {
	values      []Expression
	needsExpand bool
}

func (p Partition) Values() []Expression {
	return p.values
}

// NeedsExpand is true when a value is neither a literal nor a constant, so
// the partition cannot be bound as one collection parameter.
func (p Partition) NeedsExpand() bool {
	return p.needsExpand
}

// InPredicate stays mutable until it is frozen. Freezing computes the
// partitions; after that the value list cannot change.
type InPredicate struct {
	operand    Expression
	values     []Expression
	negated    bool
	frozen     bool
	partitions []Partition
}

func In(operand Expression, values ...Expression) (*InPredicate, error) {
	if operand == nil {
		return nil, errors.Wrap(ErrIllegalArgument, "nil operand of in")
	}
	p := &InPredicate{operand: operand}
	if err := p.Values(values...); err != nil {
		return nil, err
	}
	return p, nil
}

// InLiterals wraps every value with Literal.
func InLiterals(operand Expression, values ...any) (*InPredicate, error) {
	exprs := make([]Expression, len(values))
	for i, v := range values {
		exprs[i] = Literal(v)
	}
	return In(operand, exprs...)
}

// Value appends one value; nil is skipped.
func (p *InPredicate) Value(value Expression) error {
	if p.frozen {
		return errors.Wrap(ErrFrozen, "in predicate")
	}
	if value == nil {
		return nil
	}
	if err := checkComparable(p.operand, value); err != nil {
		return errors.Wrap(err, "in value")
	}
	p.values = append(p.values, value)
	return nil
}

func (p *InPredicate) Values(values ...Expression) error {
	for _, v := range values {
		if err := p.Value(v); err != nil {
			return err
		}
	}
	return nil
}

func (p *InPredicate) Operand() Expression {
	return p.operand
}

func (p *InPredicate) Elements() []Expression {
	result := make([]Expression, len(p.values))
	copy(result, p.values)
	return result
}

func (p *InPredicate) IsNegated() bool {
	return p.negated
}

func (p *InPredicate) IsFrozen() bool {
	return p.frozen
}

// Freeze splits the values into ceil(N/M) contiguous partitions of at most
// maxPartitionSize values. A non-positive size means one partition. Freezing
// twice keeps the first partitioning.
func (p *InPredicate) Freeze(maxPartitionSize int) {
	if p.frozen {
		return
	}
	p.frozen = true
	n := len(p.values)
	if n == 0 {
		return
	}
	size := maxPartitionSize
	if size <= 0 || size > n {
		size = n
	}
	p.partitions = make([]Partition, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		part := Partition{values: p.values[start:end:end]}
		for _, v := range part.values {
			if k := v.Kind(); k != KindLiteral && k != KindConstant {
				part.needsExpand = true
				break
			}
		}
		p.partitions = append(p.partitions, part)
	}
}

func (p *InPredicate) Partitions() ([]Partition, error) {
	if !p.frozen {
		return nil, errors.Wrap(ErrNotFrozen, "partitions of in predicate")
	}
	return p.partitions, nil
}

// Not returns a new predicate sharing values and frozen state.
func (p *InPredicate) Not() Predicate {
	clone := *p
	clone.values = p.Elements()
	clone.negated = !p.negated
	return &clone
}

func (p *InPredicate) Kind() Kind    { return KindIn }
func (p *InPredicate) Type() Type    { return metamodel.TypeBool }
func (p *InPredicate) Priority() int { return operators.PriorityComparison }
func (*InPredicate) expression()     {}
