package criteria

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	c "github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain/operators"
)

// Parameter is a generated parameter bound to a literal value. A literal IN
// partition binds the slice of its values.
type Parameter struct {
	Name  string
	Value any
}

// Render builds the join graph of q and renders the query text.
func Render(q *c.Query, opts ...Option) (text string, params []Parameter, err error) {
	g, err := BuildJoinGraph(q, opts...)
	if err != nil {
		return "", nil, err
	}
	return g.Render()
}

func (g *JoinGraph) Render() (text string, params []Parameter, err error) {
	r := &renderer{literalPrefix: g.opts.literalPrefix}
	if err := r.query(g); err != nil {
		return "", nil, err
	}
	return r.sql.String(), r.params, nil
}

type renderer struct {
	sql           strings.Builder
	precedence    int
	literalPrefix string
	params        []Parameter
	graph         *JoinGraph
}

// visit parenthesizes the output of callable when the priority of the node
// is lower than the priority of the context it is rendered in.
func (r *renderer) visit(priority int, callable func() error) error {
	outer := r.precedence
	r.precedence = priority
	if priority < outer {
		r.sql.WriteString("(")
	}
	err := callable()
	if err != nil {
		return err
	}
	if priority < outer {
		r.sql.WriteString(")")
	}
	r.precedence = outer
	return nil
}

// at renders e in a context of the given priority.
func (r *renderer) at(priority int, e c.Expression) error {
	outer := r.precedence
	r.precedence = priority
	err := r.expression(e)
	r.precedence = outer
	return err
}

func (r *renderer) query(g *JoinGraph) error {
	outerGraph, outerPrecedence := r.graph, r.precedence
	r.graph, r.precedence = g, operators.PriorityLowest
	defer func() {
		r.graph, r.precedence = outerGraph, outerPrecedence
	}()
	q := g.query

	r.sql.WriteString("select ")
	if q.IsDistinct() {
		r.sql.WriteString("distinct ")
	}
	if len(q.Selection()) == 0 {
		for i, root := range g.roots {
			if i > 0 {
				r.sql.WriteString(", ")
			}
			r.sql.WriteString(root.alias)
		}
	}
	for i, e := range q.Selection() {
		if i > 0 {
			r.sql.WriteString(", ")
		}
		var err error
		if p, ok := e.(*c.Path); ok {
			err = r.path(p, true)
		} else {
			err = r.at(operators.PriorityLowest, e)
		}
		if err != nil {
			return err
		}
	}

	r.sql.WriteString(" from ")
	for i, root := range g.roots {
		if i > 0 {
			r.sql.WriteString(", ")
		}
		r.sql.WriteString(root.entity.Name() + " " + root.alias)
		r.joins(root)
	}

	if restriction := q.Restriction(); restriction != nil {
		r.sql.WriteString(" where ")
		if err := r.at(operators.PriorityLowest, restriction); err != nil {
			return err
		}
	}
	if err := r.list(" group by ", q.GroupList()); err != nil {
		return err
	}
	if having := q.GroupRestriction(); having != nil {
		r.sql.WriteString(" having ")
		if err := r.at(operators.PriorityLowest, having); err != nil {
			return err
		}
	}
	return r.orders(g)
}

func (r *renderer) joins(n *JoinNode) {
	for _, child := range n.children {
		if !child.IsRetained() {
			continue
		}
		r.sql.WriteString(" " + child.joinType.String() + " join ")
		if child.fetch {
			r.sql.WriteString("fetch ")
		}
		r.sql.WriteString(n.alias + "." + child.attr.Name() + " " + child.alias)
		r.joins(child)
	}
}

func (r *renderer) list(keyword string, exprs []c.Expression) error {
	for i, e := range exprs {
		if i == 0 {
			r.sql.WriteString(keyword)
		} else {
			r.sql.WriteString(", ")
		}
		if err := r.at(operators.PriorityLowest, e); err != nil {
			return err
		}
	}
	return nil
}

// orders places the pre orders of the query paths before the orders of the
// query and the post orders after them.
func (r *renderer) orders(g *JoinGraph) error {
	first := true
	separate := func() {
		if first {
			r.sql.WriteString(" order by ")
			first = false
		} else {
			r.sql.WriteString(", ")
		}
	}
	writePlanOrder := func(o planOrder) {
		separate()
		r.sql.WriteString(o.node.alias)
		for _, attr := range o.attributes {
			r.sql.WriteString("." + attr.Name())
		}
		if o.desc {
			r.sql.WriteString(" desc")
		}
	}
	for _, o := range g.preOrders {
		writePlanOrder(o)
	}
	for _, o := range g.query.Orders() {
		separate()
		if err := r.at(operators.PriorityLowest, o.Expression()); err != nil {
			return err
		}
		if o.IsDesc() {
			r.sql.WriteString(" desc")
		}
	}
	for _, o := range g.postOrders {
		writePlanOrder(o)
	}
	return nil
}

func (r *renderer) path(p *c.Path, whole bool) error {
	owner := r.graph.owner(p.Source().Query())
	if owner == nil {
		return errors.Wrapf(c.ErrForeignPath, "%s", p)
	}
	ref, ok := owner.refs[refKey{path: p, whole: whole}]
	if !ok {
		return errors.Wrapf(c.ErrIllegalState, "path %s is not part of the join graph", p)
	}
	switch {
	case ref.attr == nil:
		r.sql.WriteString(ref.node.alias)
	case ref.node.idElided:
		r.sql.WriteString(ref.node.parent.alias + "." + ref.node.attr.Name() + "." + ref.attr.Name())
	default:
		r.sql.WriteString(ref.node.alias + "." + ref.attr.Name())
	}
	return nil
}

func (r *renderer) expression(e c.Expression) error {
	switch n := e.(type) {
	case nil:
		return errors.Wrap(c.ErrIllegalArgument, "nil expression")
	case c.LiteralNode:
		r.bind(n.Value())
		return nil
	case c.ConstantNode:
		r.constant(n.Value())
		return nil
	case c.ParameterNode:
		r.sql.WriteString(":" + n.Name())
		return nil
	case *c.Path:
		return r.path(n, false)
	case c.ArithmeticNode:
		return r.arithmetic(n)
	case c.NegationNode:
		return r.visit(operators.PriorityUnary, func() error {
			r.sql.WriteString("-")
			return r.at(operators.PriorityUnary+1, n.Operand())
		})
	case c.AggregationNode:
		r.sql.WriteString(string(n.Function()) + "(")
		if n.IsDistinct() {
			r.sql.WriteString("distinct ")
		}
		if err := r.at(operators.PriorityLowest, n.Operand()); err != nil {
			return err
		}
		r.sql.WriteString(")")
		return nil
	case c.FunctionNode:
		return r.call(n.Name(), n.Arguments()...)
	case c.CaseNode:
		return r.caseExpression(n)
	case c.CoalesceNode:
		if len(n.Values()) == 0 {
			r.sql.WriteString("null")
			return nil
		}
		return r.call("coalesce", n.Values()...)
	case *c.Query:
		r.sql.WriteString("(")
		if err := r.subquery(n); err != nil {
			return err
		}
		r.sql.WriteString(")")
		return nil
	case c.SubqueryModifierNode:
		r.sql.WriteString(string(n.Modifier()) + "(")
		if err := r.subquery(n.Subquery()); err != nil {
			return err
		}
		r.sql.WriteString(")")
		return nil
	case c.ComparisonNode:
		return r.infix(operators.PriorityComparison, n.Left(), string(n.Operator()), n.Right())
	case c.CompoundNode:
		return r.compound(n)
	case c.BetweenNode:
		return r.between(n)
	case *c.InPredicate:
		return r.in(n)
	case c.ExistsNode:
		return r.visit(n.Priority(), func() error {
			if n.IsNegated() {
				r.sql.WriteString("not ")
			}
			r.sql.WriteString("exists(")
			if err := r.subquery(n.Subquery()); err != nil {
				return err
			}
			r.sql.WriteString(")")
			return nil
		})
	case c.NullNode:
		return r.visit(operators.PriorityComparison, func() error {
			if err := r.at(operators.PriorityComparison+1, n.Operand()); err != nil {
				return err
			}
			if n.IsNegated() {
				r.sql.WriteString(" is not null")
			} else {
				r.sql.WriteString(" is null")
			}
			return nil
		})
	case c.LikeNode:
		return r.like(n)
	case c.BooleanNode:
		return r.visit(n.Priority(), func() error {
			if n.IsNegated() {
				r.sql.WriteString("not ")
			}
			return r.path(n.Path(), false)
		})
	}
	return errors.Wrapf(c.ErrIllegalArgument, "cannot render %s", e.Kind())
}

func (r *renderer) subquery(q *c.Query) error {
	sub := r.graph.Subgraph(q)
	if sub == nil {
		return errors.Wrap(c.ErrIllegalState, "subquery is not part of the join graph")
	}
	return r.query(sub)
}

// infix renders both operands one priority above the operator, so equal
// priorities nest with parentheses.
func (r *renderer) infix(priority int, left c.Expression, operator string, right c.Expression) error {
	return r.visit(priority, func() error {
		if err := r.at(priority+1, left); err != nil {
			return err
		}
		r.sql.WriteString(" " + operator + " ")
		return r.at(priority+1, right)
	})
}

func (r *renderer) arithmetic(n c.ArithmeticNode) error {
	if n.Operator() == operators.OperatorMod {
		return r.call("mod", n.Left(), n.Right())
	}
	priority := n.Priority()
	return r.visit(priority, func() error {
		if err := r.at(priority, n.Left()); err != nil {
			return err
		}
		r.sql.WriteString(" " + string(n.Operator()) + " ")
		return r.at(priority+1, n.Right())
	})
}

func (r *renderer) call(name string, args ...c.Expression) error {
	r.sql.WriteString(name + "(")
	for i, arg := range args {
		if i > 0 {
			r.sql.WriteString(", ")
		}
		if err := r.at(operators.PriorityLowest, arg); err != nil {
			return err
		}
	}
	r.sql.WriteString(")")
	return nil
}

func (r *renderer) compound(n c.CompoundNode) error {
	priority := n.Priority()
	return r.visit(priority, func() error {
		for i, operand := range n.Operands() {
			if i > 0 {
				r.sql.WriteString(" " + string(n.Operator()) + " ")
			}
			if err := r.at(priority, operand); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *renderer) between(n c.BetweenNode) error {
	const priority = operators.PriorityComparison
	return r.visit(priority, func() error {
		if err := r.at(priority+1, n.Operand()); err != nil {
			return err
		}
		if n.IsNegated() {
			r.sql.WriteString(" not between ")
		} else {
			r.sql.WriteString(" between ")
		}
		if err := r.at(priority+1, n.Lower()); err != nil {
			return err
		}
		r.sql.WriteString(" and ")
		return r.at(priority+1, n.Upper())
	})
}

func (r *renderer) like(n c.LikeNode) error {
	const priority = operators.PriorityComparison
	return r.visit(priority, func() error {
		if err := r.at(priority+1, n.Operand()); err != nil {
			return err
		}
		if n.IsNegated() {
			r.sql.WriteString(" not like ")
		} else {
			r.sql.WriteString(" like ")
		}
		if err := r.at(priority+1, n.Pattern()); err != nil {
			return err
		}
		if n.Escape() != nil {
			r.sql.WriteString(" escape ")
			return r.at(priority+1, n.Escape())
		}
		return nil
	})
}

func (r *renderer) caseExpression(n c.CaseNode) error {
	r.sql.WriteString("case ")
	if n.Operand() != nil {
		if err := r.at(operators.PriorityLowest, n.Operand()); err != nil {
			return err
		}
		r.sql.WriteString(" ")
	}
	for _, w := range n.Whens() {
		r.sql.WriteString("when ")
		if err := r.at(operators.PriorityLowest, w.Condition()); err != nil {
			return err
		}
		r.sql.WriteString(" then ")
		if err := r.at(operators.PriorityLowest, w.Result()); err != nil {
			return err
		}
		r.sql.WriteString(" ")
	}
	if n.Otherwise() != nil {
		r.sql.WriteString("else ")
		if err := r.at(operators.PriorityLowest, n.Otherwise()); err != nil {
			return err
		}
		r.sql.WriteString(" ")
	}
	r.sql.WriteString("end")
	return nil
}

// in renders the partitions of a frozen IN predicate. No values is a
// tautology, a single value is a comparison, and several partitions are
// joined with or, or with and when negated.
func (r *renderer) in(n *c.InPredicate) error {
	partitions, err := n.Partitions()
	if err != nil {
		return err
	}
	const priority = operators.PriorityComparison
	negated := n.IsNegated()
	switch {
	case len(partitions) == 0:
		return r.visit(priority, func() error {
			if negated {
				r.sql.WriteString("1 = 1")
			} else {
				r.sql.WriteString("1 = 0")
			}
			return nil
		})
	case len(partitions) == 1 && len(partitions[0].Values()) == 1:
		value := partitions[0].Values()[0]
		if sub, ok := value.(*c.Query); ok {
			return r.visit(priority, func() error {
				if err := r.at(priority+1, n.Operand()); err != nil {
					return err
				}
				if negated {
					r.sql.WriteString(" not in(")
				} else {
					r.sql.WriteString(" in(")
				}
				if err := r.subquery(sub); err != nil {
					return err
				}
				r.sql.WriteString(")")
				return nil
			})
		}
		operator := string(operators.OperatorEq)
		if negated {
			operator = string(operators.OperatorNe)
		}
		return r.infix(priority, n.Operand(), operator, value)
	case len(partitions) == 1:
		return r.partition(n.Operand(), partitions[0], negated)
	}

	connective, connectivePriority := " or ", operators.PriorityOr
	if negated {
		connective, connectivePriority = " and ", operators.PriorityAnd
	}
	outer := r.precedence
	r.precedence = connectivePriority
	r.sql.WriteString("(")
	for i, part := range partitions {
		if i > 0 {
			r.sql.WriteString(connective)
		}
		if err := r.partition(n.Operand(), part, negated); err != nil {
			return err
		}
	}
	r.sql.WriteString(")")
	r.precedence = outer
	return nil
}

func (r *renderer) partition(operand c.Expression, part c.Partition, negated bool) error {
	const priority = operators.PriorityComparison
	return r.visit(priority, func() error {
		if err := r.at(priority+1, operand); err != nil {
			return err
		}
		if negated {
			r.sql.WriteString(" not in(")
		} else {
			r.sql.WriteString(" in(")
		}
		if part.NeedsExpand() {
			for i, v := range part.Values() {
				if i > 0 {
					r.sql.WriteString(", ")
				}
				if err := r.at(operators.PriorityLowest, v); err != nil {
					return err
				}
			}
		} else {
			values := make([]any, len(part.Values()))
			for i, v := range part.Values() {
				switch v := v.(type) {
				case c.LiteralNode:
					values[i] = v.Value()
				case c.ConstantNode:
					values[i] = v.Value()
				}
			}
			r.bind(values)
		}
		r.sql.WriteString(")")
		return nil
	})
}

func (r *renderer) bind(value any) {
	name := fmt.Sprintf("%s_%d", r.literalPrefix, len(r.params))
	r.params = append(r.params, Parameter{Name: name, Value: value})
	r.sql.WriteString(":" + name)
}

func (r *renderer) constant(value any) {
	switch v := value.(type) {
	case nil:
		r.sql.WriteString("null")
	case string:
		r.sql.WriteString(quote(v))
	case bool:
		r.sql.WriteString(strconv.FormatBool(v))
	case time.Time:
		r.sql.WriteString(quote(v.Format(time.RFC3339Nano)))
	case []byte:
		r.sql.WriteString("X'" + hex.EncodeToString(v) + "'")
	case fmt.Stringer:
		r.sql.WriteString(v.String())
	default:
		r.sql.WriteString(fmt.Sprint(v))
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
