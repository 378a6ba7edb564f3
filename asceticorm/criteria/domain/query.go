package criteria

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain/operators"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
)

func (t JoinType) String() string {
	switch t {
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	}
	return "inner"
}

// JoinMode decides whether a join request may share a join with an
// equivalent request and whether it is emitted when nothing uses it.
type JoinMode int

const (
	OptionallyMergeExists JoinMode = iota
	RequiredToMergeExists
	OptionallyCreateNew
	RequiredToCreateNew
)

func (m JoinMode) IsRequired() bool {
	return m == RequiredToMergeExists || m == RequiredToCreateNew
}

func (m JoinMode) IsMergeable() bool {
	return m == OptionallyMergeExists || m == RequiredToMergeExists
}

func (m JoinMode) String() string {
	switch m {
	case RequiredToMergeExists:
		return "required to merge exists"
	case OptionallyCreateNew:
		return "optionally create new"
	case RequiredToCreateNew:
		return "required to create new"
	}
	return "optionally merge exists"
}

type QueryOption func(*Query)

// WithMaxInPartitionSize bounds the values of one IN clause. Zero means unbounded.
func WithMaxInPartitionSize(size int) QueryOption {
	return func(q *Query) {
		q.maxInPartitionSize = size
	}
}

// WithStrictSchema trusts the not-null mapping of to-one associations when
// deciding whether an inner join may be elided.
func WithStrictSchema(strict bool) QueryOption {
	return func(q *Query) {
		q.strictSchema = strict
	}
}

type Query struct {
	model              *metamodel.Metamodel
	parent             *Query
	maxInPartitionSize int
	strictSchema       bool
	roots              []*From
	selection          []Expression
	distinct           bool
	restriction        Predicate
	groupBy            []Expression
	having             Predicate
	orders             []Order
}

func NewQuery(model *metamodel.Metamodel, opts ...QueryOption) *Query {
	q := &Query{model: model}
	for i := range opts {
		opts[i](q)
	}
	return q
}

// Subquery creates a correlated query that may refer to the paths of q and
// of every query enclosing it.
func (q *Query) Subquery() *Query {
	return &Query{
		model:              q.model,
		parent:             q,
		maxInPartitionSize: q.maxInPartitionSize,
		strictSchema:       q.strictSchema,
	}
}

// From adds a root. Of the join options only WithAlias applies to roots.
func (q *Query) From(entityName string, opts ...JoinOption) (*From, error) {
	entity, err := q.model.Entity(entityName)
	if err != nil {
		return nil, errors.Wrap(err, "criteria: from")
	}
	root := &From{query: q, entity: entity}
	for i := range opts {
		opts[i](root)
	}
	root.joinType, root.mode, root.partial = JoinInner, OptionallyMergeExists, false
	q.roots = append(q.roots, root)
	return root, nil
}

func (q *Query) Select(selection ...Expression) error {
	if err := q.checkOperands(selection...); err != nil {
		return errors.Wrap(err, "select")
	}
	q.selection = append(q.selection[:0:0], selection...)
	return nil
}

func (q *Query) Distinct() {
	q.distinct = true
}

// Where replaces the restriction with the conjunction of the predicates and
// freezes every IN predicate in it.
func (q *Query) Where(predicates ...Predicate) error {
	restriction := And(predicates...)
	if restriction != nil {
		if err := q.checkOperands(restriction); err != nil {
			return errors.Wrap(err, "where")
		}
		q.freeze(restriction)
	}
	q.restriction = restriction
	return nil
}

func (q *Query) GroupBy(grouping ...Expression) error {
	if err := q.checkOperands(grouping...); err != nil {
		return errors.Wrap(err, "group by")
	}
	q.groupBy = append(q.groupBy[:0:0], grouping...)
	return nil
}

func (q *Query) Having(predicates ...Predicate) error {
	restriction := And(predicates...)
	if restriction != nil {
		if err := q.checkOperands(restriction); err != nil {
			return errors.Wrap(err, "having")
		}
		q.freeze(restriction)
	}
	q.having = restriction
	return nil
}

func (q *Query) OrderBy(orders ...Order) error {
	for _, o := range orders {
		if err := q.checkOperands(o.expression); err != nil {
			return errors.Wrap(err, "order by")
		}
	}
	q.orders = append(q.orders[:0:0], orders...)
	return nil
}

func (q *Query) freeze(p Predicate) {
	Walk(p, func(e Expression) bool {
		if in, ok := e.(*InPredicate); ok {
			in.Freeze(q.maxInPartitionSize)
		}
		return true
	})
}

// checkOperands rejects nil operands and paths or subqueries created by a
// query that neither is q nor encloses it.
func (q *Query) checkOperands(exprs ...Expression) error {
	var err error
	for _, e := range exprs {
		if e == nil {
			return errors.Wrap(ErrIllegalArgument, "nil expression")
		}
		Walk(e, func(node Expression) bool {
			if err != nil {
				return false
			}
			switch n := node.(type) {
			case *Path:
				if !q.sees(n.source.query) {
					err = errors.Wrapf(ErrForeignPath, "%s", n)
				}
			case *Query:
				if n.parent == nil || !q.sees(n.parent) {
					err = errors.Wrap(ErrForeignPath, "subquery")
				}
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// sees reports whether paths of other are in scope of q.
func (q *Query) sees(other *Query) bool {
	for current := q; current != nil; current = current.parent {
		if current == other {
			return true
		}
	}
	return false
}

func (q *Query) Model() *metamodel.Metamodel {
	return q.model
}

// Parent is nil for a top-level query.
func (q *Query) Parent() *Query {
	return q.parent
}

func (q *Query) IsSubquery() bool {
	return q.parent != nil
}

func (q *Query) MaxInPartitionSize() int {
	return q.maxInPartitionSize
}

func (q *Query) StrictSchema() bool {
	return q.strictSchema
}

func (q *Query) Roots() []*From {
	return q.roots
}

func (q *Query) Selection() []Expression {
	return q.selection
}

func (q *Query) IsDistinct() bool {
	return q.distinct
}

func (q *Query) Restriction() Predicate {
	return q.restriction
}

func (q *Query) GroupList() []Expression {
	return q.groupBy
}

func (q *Query) GroupRestriction() Predicate {
	return q.having
}

func (q *Query) Orders() []Order {
	return q.orders
}

func (q *Query) Kind() Kind { return KindSubquery }

// Type is the type of the single selected expression, or of the first root
// entity when nothing is selected.
func (q *Query) Type() Type {
	if len(q.selection) == 1 {
		return q.selection[0].Type()
	}
	if len(q.selection) == 0 && len(q.roots) > 0 {
		return metamodel.TypeEntity
	}
	return metamodel.TypeUnknown
}
func (q *Query) Priority() int { return operators.PriorityHighest }
func (*Query) expression()     {}

type JoinOption func(*From)

func WithJoinType(t JoinType) JoinOption {
	return func(f *From) {
		f.joinType = t
	}
}

func WithJoinMode(m JoinMode) JoinOption {
	return func(f *From) {
		f.mode = m
	}
}

// WithAlias replaces the generated alias of the join.
func WithAlias(alias string) JoinOption {
	return func(f *From) {
		f.alias = alias
	}
}

// WithPartialFetch lets a collection fetch reuse an existing join, so the
// fetched collection is restricted by the conditions on that join.
func WithPartialFetch() JoinOption {
	return func(f *From) {
		f.partial = true
	}
}

// From is a query root or a join below one.
type From struct {
	query    *Query
	parent   *From
	entity   *metamodel.Entity
	attr     *metamodel.Attribute
	joinType JoinType
	mode     JoinMode
	alias    string
	fetch    bool
	partial  bool
	joins    []*From
}

func (f *From) Join(attribute string, opts ...JoinOption) (*From, error) {
	return f.join(attribute, false, opts)
}

func (f *From) Fetch(attribute string, opts ...JoinOption) (*From, error) {
	return f.join(attribute, true, opts)
}

func (f *From) join(attribute string, fetch bool, opts []JoinOption) (*From, error) {
	attr, err := f.attribute(attribute)
	if err != nil {
		return nil, err
	}
	if !attr.IsAssociation() {
		return nil, errors.Wrapf(ErrIllegalArgument, "%s is not an association", attr)
	}
	j := &From{
		query:  f.query,
		parent: f,
		entity: attr.Target(),
		attr:   attr,
		fetch:  fetch,
	}
	for i := range opts {
		opts[i](j)
	}
	if fetch && f.parent != nil && !f.fetch {
		return nil, errors.Wrapf(ErrIllegalArgument, "fetch %s below a plain join", attr)
	}
	f.joins = append(f.joins, j)
	return j, nil
}

// Get returns the path of a basic or to-one attribute.
func (f *From) Get(attribute string) (*Path, error) {
	return f.Path().Get(attribute)
}

// Path refers to the joined entity itself.
func (f *From) Path() *Path {
	return &Path{source: f}
}

func (f *From) attribute(name string) (*metamodel.Attribute, error) {
	attr, err := f.entity.Attribute(name)
	if err != nil {
		return nil, errors.Wrap(ErrUnknownAttribute, err.Error())
	}
	return attr, nil
}

func (f *From) Query() *Query {
	return f.query
}

// Parent is nil for a root.
func (f *From) Parent() *From {
	return f.parent
}

func (f *From) Entity() *metamodel.Entity {
	return f.entity
}

// Attribute is the joined association, nil for a root.
func (f *From) Attribute() *metamodel.Attribute {
	return f.attr
}

func (f *From) JoinType() JoinType {
	return f.joinType
}

func (f *From) JoinMode() JoinMode {
	return f.mode
}

func (f *From) Alias() string {
	return f.alias
}

func (f *From) IsFetch() bool {
	return f.fetch
}

func (f *From) IsPartial() bool {
	return f.partial
}

func (f *From) Joins() []*From {
	return f.joins
}

func (f *From) String() string {
	if f.parent == nil {
		return f.entity.Name()
	}
	return f.parent.String() + "." + f.attr.Name()
}

// Path navigates from a From through to-one associations.
type Path struct {
	source *From
	steps  []*metamodel.Attribute
}

func (p *Path) Get(attribute string) (*Path, error) {
	entity := p.source.entity
	if last := p.Last(); last != nil {
		if !last.IsAssociation() {
			return nil, errors.Wrapf(ErrIllegalArgument, "%s has no attributes", p)
		}
		entity = last.Target()
	}
	attr, err := entity.Attribute(attribute)
	if err != nil {
		return nil, errors.Wrap(ErrUnknownAttribute, err.Error())
	}
	if attr.IsCollection() {
		return nil, errors.Wrapf(ErrIllegalArgument, "%s is a collection, join it instead", attr)
	}
	steps := make([]*metamodel.Attribute, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	return &Path{source: p.source, steps: append(steps, attr)}, nil
}

func (p *Path) Source() *From {
	return p.source
}

// Steps are the attributes navigated from the source.
func (p *Path) Steps() []*metamodel.Attribute {
	return p.steps
}

// Last is nil for a path to the source entity itself.
func (p *Path) Last() *metamodel.Attribute {
	if len(p.steps) == 0 {
		return nil
	}
	return p.steps[len(p.steps)-1]
}

func (p *Path) String() string {
	var b strings.Builder
	b.WriteString(p.source.String())
	for _, step := range p.steps {
		b.WriteByte('.')
		b.WriteString(step.Name())
	}
	return b.String()
}

func (p *Path) Kind() Kind { return KindPath }
func (p *Path) Type() Type {
	last := p.Last()
	if last == nil {
		return metamodel.TypeEntity
	}
	return last.Type()
}
func (p *Path) Priority() int { return operators.PriorityHighest }
func (*Path) expression()     {}

type Order struct {
	expression Expression
	desc       bool
}

func Asc(expression Expression) Order {
	return Order{expression: expression}
}

func Desc(expression Expression) Order {
	return Order{expression: expression, desc: true}
}

func (o Order) Expression() Expression {
	return o.expression
}

func (o Order) IsDesc() bool {
	return o.desc
}
