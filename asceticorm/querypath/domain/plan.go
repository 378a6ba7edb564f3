package querypath

import (
	"strings"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

// PlanNode is one join of a merged plan. The root stands for the queried
// entity itself.
type PlanNode struct {
	parent    *PlanNode
	attribute *metamodel.Attribute
	entity    *metamodel.Entity
	fetch     bool
	required  bool
	partial   bool
	inner     bool
	scalars   []*metamodel.Attribute
	children  []*PlanNode
}

func (n *PlanNode) Parent() *PlanNode {
	return n.parent
}

// Attribute is the joined association, nil for the root.
func (n *PlanNode) Attribute() *metamodel.Attribute {
	return n.attribute
}

func (n *PlanNode) Entity() *metamodel.Entity {
	return n.entity
}

func (n *PlanNode) IsRoot() bool {
	return n.parent == nil
}

// IsFetch is false for nodes joined only to order by them.
func (n *PlanNode) IsFetch() bool {
	return n.fetch
}

func (n *PlanNode) IsRequired() bool {
	return n.required
}

// IsInner is true for required nodes and for every ancestor of one.
func (n *PlanNode) IsInner() bool {
	return n.inner
}

// IsPartial is only ever true for collections.
func (n *PlanNode) IsPartial() bool {
	return n.partial && n.IsCollection()
}

func (n *PlanNode) IsCollection() bool {
	return n.attribute != nil && n.attribute.IsCollection()
}

// Scalars are the lazy attributes loaded by the second scalar query.
func (n *PlanNode) Scalars() []*metamodel.Attribute {
	return n.scalars
}

func (n *PlanNode) Children() []*PlanNode {
	return n.children
}

// Path renders the node position, e.g. "this/inner join fetch partial(employees)[resume]".
func (n *PlanNode) Path() string {
	return n.prefix() + n.scalarSuffix()
}

func (n *PlanNode) prefix() string {
	if n.parent == nil {
		return "this"
	}
	var b strings.Builder
	b.WriteString(n.parent.prefix())
	if n.inner {
		b.WriteString("/inner join ")
	} else {
		b.WriteString("/left join ")
	}
	if n.fetch {
		b.WriteString("fetch ")
	}
	if n.IsPartial() {
		b.WriteString("partial(" + n.attribute.Name() + ")")
	} else {
		b.WriteString(n.attribute.Name())
	}
	return b.String()
}

func (n *PlanNode) scalarSuffix() string {
	if len(n.scalars) == 0 {
		return ""
	}
	names := make([]string, len(n.scalars))
	for i, attr := range n.scalars {
		names[i] = attr.Name()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func (n *PlanNode) child(attr *metamodel.Attribute) *PlanNode {
	for _, c := range n.children {
		if c.attribute == attr {
			return c
		}
	}
	c := &PlanNode{parent: n, attribute: attr, entity: attr.Target()}
	n.children = append(n.children, c)
	return c
}

func (n *PlanNode) addScalar(attr *metamodel.Attribute) {
	for _, existing := range n.scalars {
		if existing == attr {
			return
		}
	}
	n.scalars = append(n.scalars, attr)
}

// walk visits the subtree in pre-order.
func (n *PlanNode) walk(fn func(*PlanNode)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}

// PlanOrder orders by Attributes read from the join of Node. Two attributes
// mean a to-one association and its id read without a join.
type PlanOrder struct {
	node       *PlanNode
	attributes []*metamodel.Attribute
	desc       bool
	pre        bool
}

func (o PlanOrder) Node() *PlanNode {
	return o.node
}

func (o PlanOrder) Attributes() []*metamodel.Attribute {
	return o.attributes
}

func (o PlanOrder) IsDesc() bool {
	return o.desc
}

func (o PlanOrder) IsPre() bool {
	return o.pre
}

type orderTarget struct {
	node       *PlanNode
	attributes string
}

// target identifies the ordered value regardless of direction and priority.
func (o PlanOrder) target() orderTarget {
	names := make([]string, len(o.attributes))
	for i, attr := range o.attributes {
		names[i] = attr.Name()
	}
	return orderTarget{node: o.node, attributes: strings.Join(names, ".")}
}

func (o PlanOrder) String() string {
	var b strings.Builder
	if o.pre {
		b.WriteString("pre order by ")
	} else {
		b.WriteString("post order by ")
	}
	b.WriteString(o.node.prefix())
	for _, attr := range o.attributes {
		b.WriteString("." + attr.Name())
	}
	if o.desc {
		b.WriteString(" desc")
	}
	return b.String()
}

// Plan is the merged, immutable result of a set of query paths for one
// root entity.
type Plan struct {
	entity                       *metamodel.Entity
	root                         *PlanNode
	preOrders                    []PlanOrder
	postOrders                   []PlanOrder
	containsScalarEagerness      bool
	containsInnerJoins           bool
	containsCollectionJoins      bool
	containsCollectionInnerJoins bool
	containsNoFetchJoins         bool
}

func (p *Plan) Entity() *metamodel.Entity {
	return p.entity
}

func (p *Plan) Root() *PlanNode {
	return p.root
}

func (p *Plan) PreOrders() []PlanOrder {
	return p.preOrders
}

func (p *Plan) PostOrders() []PlanOrder {
	return p.postOrders
}

// ScalarNodes returns the nodes with lazy scalars to load, in pre-order.
func (p *Plan) ScalarNodes() []*PlanNode {
	var result []*PlanNode
	p.root.walk(func(n *PlanNode) {
		if len(n.scalars) > 0 {
			result = append(result, n)
		}
	})
	return result
}

func (p *Plan) ContainsScalarEagerness() bool {
	return p.containsScalarEagerness
}

func (p *Plan) ContainsInnerJoins() bool {
	return p.containsInnerJoins
}

func (p *Plan) ContainsCollectionJoins() bool {
	return p.containsCollectionJoins
}

func (p *Plan) ContainsCollectionInnerJoins() bool {
	return p.containsCollectionInnerJoins
}

func (p *Plan) ContainsNoFetchJoins() bool {
	return p.containsNoFetchJoins
}

// String lists one node path per line, indented by depth, followed by the orders.
func (p *Plan) String() string {
	var b strings.Builder
	var write func(n *PlanNode, depth int)
	write = func(n *PlanNode, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Path())
		b.WriteByte('\n')
		for _, c := range n.children {
			write(c, depth+1)
		}
	}
	write(p.root, 0)
	for _, o := range p.preOrders {
		b.WriteString(o.String())
		b.WriteByte('\n')
	}
	for _, o := range p.postOrders {
		b.WriteString(o.String())
		b.WriteByte('\n')
	}
	return b.String()
}
