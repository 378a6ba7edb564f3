package criteria

import (
	"fmt"

	"github.com/pkg/errors"

	c "github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
)

type JoinState int

const (
	StateProposed JoinState = iota
	StateRetained
	// StateMerged is a retained join that absorbed at least one other request.
	StateMerged
	StateElided
)

func (s JoinState) String() string {
	switch s {
	case StateRetained:
		return "retained"
	case StateMerged:
		return "merged"
	case StateElided:
		return "elided"
	}
	return "proposed"
}

// JoinNode is a root or a join of the graph.
type JoinNode struct {
	parent   *JoinNode
	attr     *metamodel.Attribute
	entity   *metamodel.Entity
	joinType c.JoinType
	mode     c.JoinMode
	alias    string
	fetch    bool
	partial  bool
	state    JoinState
	children []*JoinNode

	used     bool
	idReads  int
	otherUse bool
	whole    bool
	idElided bool
}

type joinRequest struct {
	attr     *metamodel.Attribute
	joinType c.JoinType
	mode     c.JoinMode
	alias    string
	fetch    bool
	partial  bool
}

// find returns the child the request may share. A collection fetch shares a
// join only with another fetch or when one side is partial, so that a plain
// join never restricts a fetched collection.
func (n *JoinNode) find(req joinRequest) *JoinNode {
	if !req.mode.IsMergeable() {
		return nil
	}
	for _, child := range n.children {
		if child.attr != req.attr || !child.mode.IsMergeable() {
			continue
		}
		if req.attr.IsSingular() || child.fetch == req.fetch || child.partial || req.partial {
			return child
		}
	}
	return nil
}

func (n *JoinNode) add(req joinRequest) *JoinNode {
	child := &JoinNode{
		parent:   n,
		attr:     req.attr,
		entity:   req.attr.Target(),
		joinType: req.joinType,
		mode:     req.mode,
		alias:    req.alias,
		fetch:    req.fetch,
		partial:  req.partial,
	}
	n.children = append(n.children, child)
	return child
}

func (n *JoinNode) merge(req joinRequest) error {
	if req.alias != "" {
		if n.alias != "" && n.alias != req.alias {
			return errors.Wrapf(c.ErrAliasConflict, "%s is joined as %q and %q", n, n.alias, req.alias)
		}
		n.alias = req.alias
	}
	if n.joinType != req.joinType {
		n.joinType = c.JoinInner
	}
	if req.mode.IsRequired() {
		n.mode = c.RequiredToMergeExists
	}
	n.fetch = n.fetch || req.fetch
	n.partial = n.partial || req.partial
	n.state = StateMerged
	return nil
}

func (n *JoinNode) markUsed() {
	for current := n; current != nil && !current.used; current = current.parent {
		current.used = true
	}
}

func (n *JoinNode) elidable(strict bool) bool {
	if n.parent == nil || !hasLocalForeignKey(n.attr) || n.fetch || n.mode.IsRequired() {
		return false
	}
	if n.idReads == 0 || n.otherUse || n.whole {
		return false
	}
	for _, child := range n.children {
		if child.IsRetained() {
			return false
		}
	}
	switch n.joinType {
	case c.JoinLeft:
		return true
	case c.JoinInner:
		return strict && !n.attr.Optional() && n.attr.Kind() == metamodel.KindManyToOne
	}
	return false
}

// hasLocalForeignKey holds for many-to-one and for one-to-one associations
// without a mapped opposite.
func hasLocalForeignKey(attr *metamodel.Attribute) bool {
	switch attr.Kind() {
	case metamodel.KindManyToOne:
		return true
	case metamodel.KindOneToOne:
		return attr.Opposite() == metamodel.NoProperty
	}
	return false
}

func (n *JoinNode) Parent() *JoinNode {
	return n.parent
}

// Attribute is nil for a root.
func (n *JoinNode) Attribute() *metamodel.Attribute {
	return n.attr
}

func (n *JoinNode) Entity() *metamodel.Entity {
	return n.entity
}

func (n *JoinNode) JoinType() c.JoinType {
	return n.joinType
}

func (n *JoinNode) JoinMode() c.JoinMode {
	return n.mode
}

// Alias is empty until the graph is built.
func (n *JoinNode) Alias() string {
	return n.alias
}

func (n *JoinNode) IsFetch() bool {
	return n.fetch
}

func (n *JoinNode) IsPartial() bool {
	return n.partial
}

func (n *JoinNode) IsRoot() bool {
	return n.parent == nil
}

func (n *JoinNode) State() JoinState {
	return n.state
}

func (n *JoinNode) IsRetained() bool {
	return n.state == StateRetained || n.state == StateMerged
}

// Children includes elided joins.
func (n *JoinNode) Children() []*JoinNode {
	return n.children
}

func (n *JoinNode) String() string {
	if n.parent == nil {
		return n.entity.Name()
	}
	return n.parent.String() + "." + n.attr.Name()
}

type refKey struct {
	path  *c.Path
	whole bool
}

// pathRef is a resolved path: a read of attr from the join of node, or the
// node entity itself when attr is nil.
type pathRef struct {
	node *JoinNode
	attr *metamodel.Attribute
}

type planOrder struct {
	node       *JoinNode
	attributes []*metamodel.Attribute
	desc       bool
}

// JoinGraph holds the joins of one query. Subqueries get their own graphs
// whose paths may resolve to the joins of enclosing graphs.
type JoinGraph struct {
	query      *c.Query
	parent     *JoinGraph
	opts       *options
	roots      []*JoinNode
	froms      map[*c.From]*JoinNode
	refs       map[refKey]pathRef
	subgraphs  map[*c.Query]*JoinGraph
	children   []*JoinGraph
	preOrders  []planOrder
	postOrders []planOrder
}

// BuildJoinGraph collects the explicit joins of q, the implicit joins of its
// paths and the joins of the query path plan, merges equivalent requests,
// removes unused optional joins, elides joins read only for their id and
// assigns aliases.
func BuildJoinGraph(q *c.Query, opts ...Option) (*JoinGraph, error) {
	if q == nil {
		return nil, errors.Wrap(c.ErrIllegalArgument, "nil query")
	}
	if q.IsSubquery() {
		return nil, errors.Wrap(c.ErrIllegalArgument, "join graph of a subquery")
	}
	if len(q.Roots()) == 0 {
		return nil, errors.Wrap(c.ErrIllegalState, "query without roots")
	}
	o := newOptions(opts)
	g := newJoinGraph(q, nil, o)
	if err := g.build(); err != nil {
		return nil, err
	}
	if o.plan != nil {
		if err := g.applyPlan(o.plan); err != nil {
			return nil, err
		}
	}
	g.optimize()
	taken := make(map[string]*JoinNode)
	if err := g.reserveAliases(taken); err != nil {
		return nil, err
	}
	g.assignAliases(g.aliasPrefix(), new(int), taken)
	return g, nil
}

func newJoinGraph(q *c.Query, parent *JoinGraph, o *options) *JoinGraph {
	return &JoinGraph{
		query:     q,
		parent:    parent,
		opts:      o,
		froms:     make(map[*c.From]*JoinNode),
		refs:      make(map[refKey]pathRef),
		subgraphs: make(map[*c.Query]*JoinGraph),
	}
}

func (g *JoinGraph) Query() *c.Query {
	return g.query
}

func (g *JoinGraph) Roots() []*JoinNode {
	return g.roots
}

// Node returns the join a From was merged into.
func (g *JoinGraph) Node(from *c.From) *JoinNode {
	return g.froms[from]
}

// Subgraph returns the graph of a subquery used by this query.
func (g *JoinGraph) Subgraph(q *c.Query) *JoinGraph {
	return g.subgraphs[q]
}

func (g *JoinGraph) build() error {
	for _, from := range g.query.Roots() {
		root := &JoinNode{entity: from.Entity(), alias: from.Alias(), state: StateRetained, used: true}
		g.roots = append(g.roots, root)
		g.froms[from] = root
		if err := g.addJoins(root, from); err != nil {
			return err
		}
	}
	for _, e := range g.query.Selection() {
		var err error
		if p, ok := e.(*c.Path); ok {
			err = g.usePath(p, true)
		} else {
			err = g.use(e)
		}
		if err != nil {
			return err
		}
	}
	if err := g.use(g.query.Restriction()); err != nil {
		return err
	}
	for _, e := range g.query.GroupList() {
		if err := g.use(e); err != nil {
			return err
		}
	}
	if err := g.use(g.query.GroupRestriction()); err != nil {
		return err
	}
	for _, o := range g.query.Orders() {
		if err := g.use(o.Expression()); err != nil {
			return err
		}
	}
	return nil
}

func (g *JoinGraph) addJoins(node *JoinNode, from *c.From) error {
	for _, j := range from.Joins() {
		child, err := g.request(node, joinRequest{
			attr:     j.Attribute(),
			joinType: j.JoinType(),
			mode:     j.JoinMode(),
			alias:    j.Alias(),
			fetch:    j.IsFetch(),
			partial:  j.IsPartial(),
		})
		if err != nil {
			return err
		}
		g.froms[j] = child
		if err := g.addJoins(child, j); err != nil {
			return err
		}
	}
	return nil
}

func (g *JoinGraph) request(parent *JoinNode, req joinRequest) (*JoinNode, error) {
	if existing := parent.find(req); existing != nil {
		if err := existing.merge(req); err != nil {
			return nil, err
		}
		g.opts.log().Debug("join merged", "join", existing.String(), "type", existing.joinType.String())
		return existing, nil
	}
	return parent.add(req), nil
}

// use collects the paths and subqueries of an expression and freezes the IN
// predicates that were not frozen by a where or having clause.
func (g *JoinGraph) use(e c.Expression) error {
	var err error
	c.Walk(e, func(node c.Expression) bool {
		if err != nil {
			return false
		}
		switch n := node.(type) {
		case *c.Path:
			err = g.usePath(n, false)
		case *c.InPredicate:
			n.Freeze(g.query.MaxInPartitionSize())
		case *c.Query:
			_, err = g.subgraph(n)
			return false
		}
		return true
	})
	return err
}

func (g *JoinGraph) subgraph(q *c.Query) (*JoinGraph, error) {
	if sub, ok := g.subgraphs[q]; ok {
		return sub, nil
	}
	if len(q.Roots()) == 0 {
		return nil, errors.Wrap(c.ErrIllegalState, "subquery without roots")
	}
	sub := newJoinGraph(q, g, g.opts)
	g.subgraphs[q] = sub
	g.children = append(g.children, sub)
	return sub, sub.build()
}

// owner finds the graph of q among this graph and the enclosing ones.
func (g *JoinGraph) owner(q *c.Query) *JoinGraph {
	for current := g; current != nil; current = current.parent {
		if current.query == q {
			return current
		}
	}
	return nil
}

// usePath joins every association the path navigates through and records
// how the path reads its last node. whole marks a path selected at the top
// of a select list: a trailing association is then joined too.
func (g *JoinGraph) usePath(p *c.Path, whole bool) error {
	owner := g.owner(p.Source().Query())
	if owner == nil {
		return errors.Wrapf(c.ErrForeignPath, "%s", p)
	}
	key := refKey{path: p, whole: whole}
	if _, ok := owner.refs[key]; ok {
		return nil
	}
	node, ok := owner.froms[p.Source()]
	if !ok {
		return errors.Wrapf(c.ErrForeignPath, "%s", p)
	}
	steps := p.Steps()
	var leaf *metamodel.Attribute
	for i, step := range steps {
		last := i == len(steps)-1
		if !step.IsAssociation() || (last && !whole) {
			leaf = step
			break
		}
		child, err := owner.request(node, joinRequest{attr: step, joinType: c.JoinInner, mode: c.OptionallyMergeExists})
		if err != nil {
			return err
		}
		node = child
	}

	node.markUsed()
	switch {
	case leaf == nil && whole:
		node.whole = true
	case leaf == nil:
		node.otherUse = true
	case leaf.IsID() && node.parent != nil:
		node.idReads++
	default:
		node.otherUse = true
	}
	owner.refs[key] = pathRef{node: node, attr: leaf}
	return nil
}

func (g *JoinGraph) applyPlan(plan *querypath.Plan) error {
	var root *JoinNode
	for _, r := range g.roots {
		if r.entity == plan.Entity() {
			root = r
			break
		}
	}
	if root == nil {
		return errors.Wrapf(c.ErrIllegalArgument, "no %s root for the query paths", plan.Entity().Name())
	}
	nodes := map[*querypath.PlanNode]*JoinNode{plan.Root(): root}
	var apply func(pn *querypath.PlanNode, jn *JoinNode) error
	apply = func(pn *querypath.PlanNode, jn *JoinNode) error {
		for _, child := range pn.Children() {
			req := joinRequest{
				attr:     child.Attribute(),
				joinType: c.JoinLeft,
				mode:     c.OptionallyMergeExists,
				fetch:    child.IsFetch(),
				partial:  child.IsPartial(),
			}
			if child.IsInner() {
				req.joinType = c.JoinInner
			}
			if child.IsRequired() {
				req.mode = c.RequiredToMergeExists
			}
			node, err := g.request(jn, req)
			if err != nil {
				return err
			}
			node.markUsed()
			nodes[child] = node
			if err := apply(child, node); err != nil {
				return err
			}
		}
		return nil
	}
	if err := apply(plan.Root(), root); err != nil {
		return err
	}
	for _, o := range plan.PreOrders() {
		g.preOrders = append(g.preOrders, newPlanOrder(nodes, o))
	}
	for _, o := range plan.PostOrders() {
		g.postOrders = append(g.postOrders, newPlanOrder(nodes, o))
	}
	return nil
}

func newPlanOrder(nodes map[*querypath.PlanNode]*JoinNode, o querypath.PlanOrder) planOrder {
	node := nodes[o.Node()]
	node.markUsed()
	node.otherUse = true
	return planOrder{node: node, attributes: o.Attributes(), desc: o.IsDesc()}
}

func (g *JoinGraph) optimize() {
	for _, root := range g.roots {
		root.walk(func(n *JoinNode) {
			if n.fetch || n.mode.IsRequired() {
				n.markUsed()
			}
		})
	}
	strict := g.query.StrictSchema()
	for _, root := range g.roots {
		for _, child := range root.children {
			g.optimizeNode(child, strict)
		}
	}
	for _, sub := range g.children {
		sub.optimize()
	}
}

// optimizeNode decides children first, so a join whose children are all
// gone may itself be elided.
func (g *JoinGraph) optimizeNode(n *JoinNode, strict bool) {
	for _, child := range n.children {
		g.optimizeNode(child, strict)
	}
	switch {
	case !n.used:
		n.state = StateElided
		g.opts.log().Debug("unused join removed", "join", n.String())
	case n.elidable(strict):
		n.state = StateElided
		n.idElided = true
		n.parent.otherUse = true
		g.opts.log().Debug("join elided", "join", n.String(), "type", n.joinType.String())
	case n.state == StateProposed:
		n.state = StateRetained
	}
}

func (n *JoinNode) walk(fn func(*JoinNode)) {
	fn(n)
	for _, child := range n.children {
		child.walk(fn)
	}
}

func (g *JoinGraph) aliasPrefix() string {
	if g.opts.aliasPrefix != "" {
		return g.opts.aliasPrefix
	}
	return metamodel.LowerCamel(g.roots[0].entity.Name())
}

// reserveAliases collects the explicit aliases of the retained joins of g and
// its subqueries. Two joins may not share one.
func (g *JoinGraph) reserveAliases(taken map[string]*JoinNode) error {
	var visit func(n *JoinNode) error
	visit = func(n *JoinNode) error {
		if n.alias != "" {
			if other, ok := taken[n.alias]; ok && other != n {
				return errors.Wrapf(c.ErrAliasConflict, "%s and %s are both joined as %q", other, n, n.alias)
			}
			taken[n.alias] = n
		}
		for _, child := range n.children {
			if child.IsRetained() {
				if err := visit(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, root := range g.roots {
		if err := visit(root); err != nil {
			return err
		}
	}
	for _, sub := range g.children {
		if err := sub.reserveAliases(taken); err != nil {
			return err
		}
	}
	return nil
}

// assignAliases numbers the retained joins depth-first, roots in declaration
// order, then the subqueries in the order they were met. Numbers whose alias
// is taken are skipped.
func (g *JoinGraph) assignAliases(prefix string, counter *int, taken map[string]*JoinNode) {
	var visit func(n *JoinNode)
	visit = func(n *JoinNode) {
		if n.alias == "" {
			for {
				alias := fmt.Sprintf("%s_%d", prefix, *counter)
				*counter++
				if _, ok := taken[alias]; !ok {
					n.alias = alias
					taken[alias] = n
					break
				}
			}
		}
		for _, child := range n.children {
			if child.IsRetained() {
				visit(child)
			}
		}
	}
	for _, root := range g.roots {
		visit(root)
	}
	for _, sub := range g.children {
		sub.assignAliases(prefix, counter, taken)
	}
}
