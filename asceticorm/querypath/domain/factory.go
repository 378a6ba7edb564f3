package querypath

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

type PlanFactoryOption func(*PlanFactory)

func WithPlanCacheSize(size int) PlanFactoryOption {
	return func(f *PlanFactory) {
		f.cache.setSize(size)
	}
}

func WithLogger(logger *slog.Logger) PlanFactoryOption {
	return func(f *PlanFactory) {
		f.logger = logger
	}
}

// PlanFactory merges query paths into plans and caches the plans per entity
// and path text. It is safe for concurrent use.
type PlanFactory struct {
	model  *metamodel.Metamodel
	mu     sync.Mutex
	cache  *lruCache
	logger *slog.Logger
}

func NewPlanFactory(model *metamodel.Metamodel, opts ...PlanFactoryOption) *PlanFactory {
	f := &PlanFactory{
		model: model,
		cache: newLruCache(DefaultCacheSize),
	}
	for i := range opts {
		opts[i](f)
	}
	return f
}

// Create merges the paths in declaration order. Conflicting fetch disciplines
// resolve toward Required and Partial; conflicting orders keep the first
// declaration.
func (f *PlanFactory) Create(entityName string, paths ...QueryPath) (*Plan, error) {
	key := planKey(entityName, paths)
	f.mu.Lock()
	cached, ok := f.cache.get(key)
	f.mu.Unlock()
	if ok {
		return cached.(*Plan), nil
	}

	entity, err := f.model.Entity(entityName)
	if err != nil {
		return nil, errors.Wrap(err, "querypath: plan")
	}
	plan, err := newPlanBuilder(entity).build(paths)
	if err != nil {
		return nil, err
	}
	f.log().Debug("query plan created", "entity", entityName, "paths", len(paths))

	f.mu.Lock()
	f.cache.add(key, plan)
	f.mu.Unlock()
	return plan, nil
}

// CreateFromText compiles the text with the package compiler first.
func (f *PlanFactory) CreateFromText(entityName, text string) (*Plan, error) {
	paths, err := Compile(text)
	if err != nil {
		return nil, err
	}
	return f.Create(entityName, paths...)
}

func (f *PlanFactory) log() *slog.Logger {
	if f.logger != nil {
		return f.logger
	}
	return slog.Default()
}

func planKey(entityName string, paths []QueryPath) string {
	var b strings.Builder
	b.WriteString(entityName)
	for _, p := range paths {
		b.WriteByte('\n')
		b.WriteString(p.String())
	}
	return b.String()
}

type planBuilder struct {
	plan    *Plan
	targets map[orderTarget]bool
}

func newPlanBuilder(entity *metamodel.Entity) *planBuilder {
	return &planBuilder{
		plan: &Plan{
			entity: entity,
			root:   &PlanNode{entity: entity, fetch: true},
		},
		targets: make(map[orderTarget]bool),
	}
}

func (b *planBuilder) build(paths []QueryPath) (*Plan, error) {
	for _, path := range paths {
		var err error
		switch p := path.(type) {
		case FetchPath:
			err = b.addFetch(p)
		case OrderPath:
			err = b.addOrder(p)
		}
		if err != nil {
			return nil, err
		}
	}
	b.resolveJoinTypes(b.plan.root)
	b.collectFlags()
	return b.plan, nil
}

func (b *planBuilder) addFetch(path FetchPath) error {
	node := b.plan.root
	for i, step := range path.Nodes {
		attr, err := node.entity.Attribute(step.Name)
		if err != nil {
			return errors.Wrapf(ErrIllegalPath, "%s: %v", path, err)
		}
		if !attr.IsAssociation() {
			switch {
			case i != len(path.Nodes)-1:
				return errors.Wrapf(ErrIllegalPath, "%s: scalar %s is not the last step", path, attr)
			case attr.IsID():
				return errors.Wrapf(ErrIllegalPath, "%s: fetch of identifier %s", path, attr)
			case step.GetterType == Required || step.CollectionFetchType == Partial:
				return errors.Wrapf(ErrIllegalPath, "%s: scalar %s cannot be required or partial", path, attr)
			}
			node.addScalar(attr)
			return nil
		}
		node = node.child(attr)
		node.fetch = true
		b.mergeStep(node, step)
	}
	return nil
}

func (b *planBuilder) addOrder(path OrderPath) error {
	node := b.plan.root
	steps := path.Nodes
	if len(steps) == 0 {
		b.appendOrder(PlanOrder{node: node, attributes: []*metamodel.Attribute{node.entity.ID()}, desc: path.Desc, pre: path.Pre})
		return nil
	}
	for i, step := range steps {
		attr, err := node.entity.Attribute(step.Name)
		if err != nil {
			return errors.Wrapf(ErrIllegalPath, "%s: %v", path, err)
		}
		last := i == len(steps)-1
		if !attr.IsAssociation() {
			if !last {
				return errors.Wrapf(ErrIllegalPath, "%s: scalar %s is not the last step", path, attr)
			}
			b.appendOrder(PlanOrder{node: node, attributes: []*metamodel.Attribute{attr}, desc: path.Desc, pre: path.Pre})
			return nil
		}
		joinless := attr.IsSingular() && step.GetterType != Required
		switch {
		case joinless && last:
			b.appendOrder(PlanOrder{node: node, attributes: []*metamodel.Attribute{attr, attr.Target().ID()}, desc: path.Desc, pre: path.Pre})
			return nil
		case joinless && i == len(steps)-2 && steps[i+1].Name == attr.Target().ID().Name():
			b.appendOrder(PlanOrder{node: node, attributes: []*metamodel.Attribute{attr, attr.Target().ID()}, desc: path.Desc, pre: path.Pre})
			return nil
		}
		node = node.child(attr)
		b.mergeStep(node, step)
		if last {
			b.appendOrder(PlanOrder{node: node, attributes: []*metamodel.Attribute{node.entity.ID()}, desc: path.Desc, pre: path.Pre})
		}
	}
	return nil
}

// mergeStep makes Required and Partial sticky.
func (b *planBuilder) mergeStep(node *PlanNode, step Node) {
	if step.GetterType == Required {
		node.required = true
	}
	if step.CollectionFetchType == Partial {
		node.partial = true
	}
}

func (b *planBuilder) appendOrder(o PlanOrder) {
	target := o.target()
	if b.targets[target] {
		return
	}
	b.targets[target] = true
	if o.pre {
		b.plan.preOrders = append(b.plan.preOrders, o)
	} else {
		b.plan.postOrders = append(b.plan.postOrders, o)
	}
}

// resolveJoinTypes makes every required node and every ancestor of one an
// inner join.
func (b *planBuilder) resolveJoinTypes(n *PlanNode) bool {
	inner := n.required
	for _, c := range n.children {
		if b.resolveJoinTypes(c) {
			inner = true
		}
	}
	n.inner = inner
	return inner
}

func (b *planBuilder) collectFlags() {
	p := b.plan
	p.root.walk(func(n *PlanNode) {
		if len(n.scalars) > 0 {
			p.containsScalarEagerness = true
		}
		if n.IsRoot() {
			return
		}
		if n.inner {
			p.containsInnerJoins = true
		}
		if n.IsCollection() {
			p.containsCollectionJoins = true
			if n.inner {
				p.containsCollectionInnerJoins = true
			}
		}
		if !n.fetch {
			p.containsNoFetchJoins = true
		}
	})
}
