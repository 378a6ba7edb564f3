package association

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/signals"
)

// ObjectID indexes an object in the graph arena.
type ObjectID int

// NoObject is the value of an empty reference.
const NoObject ObjectID = -1

// Handle addresses one association endpoint: a property of an object.
type Handle struct {
	Object   ObjectID
	Property metamodel.PropertyID
}

type Op int

const (
	OpSet Op = iota
	OpAdd
	OpRemove
	OpReplace
	OpMove
	OpPut
	OpReindex
)

var opNames = []string{"set", "add", "remove", "replace", "move", "put", "reindex"}

func (o Op) String() string {
	if int(o) < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// Event reports one local mutation of an endpoint. Depth counts the
// endpoints being synchronised when it happened, the mutated one included.
type Event struct {
	Handle Handle
	Op     Op
	Object ObjectID
	Depth  int
}

// Comparator orders the payloads of a navigable set.
type Comparator func(a, b any) int

type Option func(*Graph)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

func WithLoadPolicy(policy LoadPolicy) Option {
	return func(g *Graph) {
		g.policy = policy
	}
}

// WithLoader keeps the default abandon rules and loads references with fn.
func WithLoader(fn LoaderFunc) Option {
	return func(g *Graph) {
		g.policy = DefaultLoadPolicy(fn)
	}
}

// WithComparator orders the navigable set of attr by payload. Ties and the
// default order fall back to object ids.
func WithComparator(attr *metamodel.Attribute, cmp Comparator) Option {
	return func(g *Graph) {
		g.comparators[attr.ID()] = cmp
	}
}

type object struct {
	entity    *metamodel.Entity
	payload   any
	endpoints map[metamodel.PropertyID]*endpoint
}

// Graph is an arena of objects whose bidirectional associations are kept
// consistent on every mutation. A graph is not safe for concurrent use.
type Graph struct {
	model       *metamodel.Metamodel
	objects     []*object
	policy      LoadPolicy
	comparators map[metamodel.PropertyID]Comparator
	modified    *signals.SignalImp[Event]
	logger      *slog.Logger
}

func NewGraph(model *metamodel.Metamodel, opts ...Option) *Graph {
	g := &Graph{
		model:       model,
		policy:      DefaultLoadPolicy(nil),
		comparators: make(map[metamodel.PropertyID]Comparator),
		modified:    signals.NewSignal[Event](),
	}
	for i := range opts {
		opts[i](g)
	}
	return g
}

func (g *Graph) Model() *metamodel.Metamodel {
	return g.model
}

// New adds an object of the named entity. All its association endpoints
// start empty and loaded.
func (g *Graph) New(entityName string, payload any) (ObjectID, error) {
	entity, err := g.model.Entity(entityName)
	if err != nil {
		return NoObject, err
	}
	obj := &object{
		entity:    entity,
		payload:   payload,
		endpoints: make(map[metamodel.PropertyID]*endpoint),
	}
	for _, attr := range entity.Attributes() {
		if attr.IsAssociation() {
			obj.endpoints[attr.ID()] = newEndpoint(attr)
		}
	}
	g.objects = append(g.objects, obj)
	return ObjectID(len(g.objects) - 1), nil
}

func (g *Graph) Len() int {
	return len(g.objects)
}

// Payload returns nil for unknown objects.
func (g *Graph) Payload(id ObjectID) any {
	if obj := g.object(id); obj != nil {
		return obj.payload
	}
	return nil
}

func (g *Graph) Entity(id ObjectID) *metamodel.Entity {
	if obj := g.object(id); obj != nil {
		return obj.entity
	}
	return nil
}

// Handle resolves the endpoint of a named association property.
func (g *Graph) Handle(id ObjectID, property string) (Handle, error) {
	obj := g.object(id)
	if obj == nil {
		return Handle{}, errors.Wrapf(ErrUnknownObject, "object %d", id)
	}
	attr, err := obj.entity.Attribute(property)
	if err != nil {
		return Handle{}, err
	}
	if !attr.IsAssociation() {
		return Handle{}, errors.Wrapf(ErrTypeMismatch, "%s is not an association", attr)
	}
	return Handle{Object: id, Property: attr.ID()}, nil
}

// Attribute returns the metadata of the endpoint property.
func (g *Graph) Attribute(h Handle) *metamodel.Attribute {
	return g.model.Property(h.Property)
}

// Modified is notified after every local endpoint mutation.
func (g *Graph) Modified() signals.Signal[Event] {
	return g.modified
}

// Disable makes the endpoint skip validation and propagation of its own
// mutations. It still receives updates propagated from opposites.
func (g *Graph) Disable(h Handle) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	ep.disabled = true
	return nil
}

func (g *Graph) Enable(h Handle) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	ep.disabled = false
	return nil
}

func (g *Graph) IsDisabled(h Handle) bool {
	ep, err := g.endpoint(h)
	return err == nil && ep.disabled
}

// MarkUnloaded forgets the endpoint state until it is hydrated or loaded.
func (g *Graph) MarkUnloaded(h Handle) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	ep.reset()
	ep.unloaded = true
	return nil
}

func (g *Graph) IsLoaded(h Handle) bool {
	ep, err := g.endpoint(h)
	return err == nil && !ep.unloaded
}

// Entry is one stored value of an endpoint. Key is used by maps and keyed
// references, Index by indexed references.
type Entry struct {
	Key   any
	Index int
	Value ObjectID
}

// Values builds entries for references and collections.
func Values(ids ...ObjectID) []Entry {
	result := make([]Entry, len(ids))
	for i, id := range ids {
		result[i] = Entry{Index: -1, Value: id}
	}
	return result
}

// Hydrate replaces the endpoint state with stored entries and marks it
// loaded. Nothing is validated against or propagated to the opposites.
func (g *Graph) Hydrate(h Handle, entries ...Entry) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := g.checkValue(ep.attr, e.Value, false); err != nil {
			return err
		}
	}
	kind := ep.attr.Endpoint()
	if kind.IsReference() && len(entries) > 1 {
		return errors.Wrapf(ErrTypeMismatch, "%s holds one value, got %d", g.describe(h), len(entries))
	}
	if kind.IsMap() {
		for _, e := range entries {
			if err := checkKey(e.Key); err != nil {
				return err
			}
		}
	}
	ep.reset()
	switch {
	case kind.IsReference():
		if len(entries) == 1 {
			ep.value = entries[0].Value
			ep.index = entries[0].Index
			ep.key = entries[0].Key
		}
	case kind.IsMap():
		for _, e := range entries {
			if i := ep.keyIndex(e.Key); i >= 0 {
				ep.elements[i] = e.Value
				continue
			}
			ep.keys = append(ep.keys, e.Key)
			ep.elements = append(ep.elements, e.Value)
		}
	default:
		for _, e := range entries {
			if ep.indexOf(e.Value) < 0 {
				ep.elements = append(ep.elements, e.Value)
			}
		}
		if kind == metamodel.EndpointNavigableSet {
			g.sortElements(ep)
		}
	}
	ep.unloaded = false
	return nil
}

func (g *Graph) object(id ObjectID) *object {
	if id < 0 || int(id) >= len(g.objects) {
		return nil
	}
	return g.objects[id]
}

func (g *Graph) endpoint(h Handle) (*endpoint, error) {
	obj := g.object(h.Object)
	if obj == nil {
		return nil, errors.Wrapf(ErrUnknownObject, "object %d", h.Object)
	}
	ep, ok := obj.endpoints[h.Property]
	if !ok {
		return nil, errors.Wrapf(ErrTypeMismatch, "%s has no association property %d", obj.entity.Name(), h.Property)
	}
	return ep, nil
}

// opposite returns the endpoint of x facing the endpoint h.
func (g *Graph) opposite(h Handle, x ObjectID) (Handle, *endpoint, bool) {
	if x == NoObject {
		return Handle{}, nil, false
	}
	attr := g.model.Property(h.Property)
	if attr == nil || attr.Opposite() == metamodel.NoProperty {
		return Handle{}, nil, false
	}
	oh := Handle{Object: x, Property: attr.Opposite()}
	oep, err := g.endpoint(oh)
	if err != nil {
		return Handle{}, nil, false
	}
	return oh, oep, true
}

// checkValue accepts objects of the association target. NoObject is only
// accepted where empty is allowed.
func (g *Graph) checkValue(attr *metamodel.Attribute, x ObjectID, emptyAllowed bool) error {
	if x == NoObject {
		if emptyAllowed {
			return nil
		}
		return errors.Wrapf(ErrUnknownObject, "%s cannot hold an empty value", attr)
	}
	obj := g.object(x)
	if obj == nil {
		return errors.Wrapf(ErrUnknownObject, "object %d", x)
	}
	if obj.entity != attr.Target() {
		return errors.Wrapf(ErrTypeMismatch, "%s expects %s, got %s#%d",
			attr, attr.Target().Name(), obj.entity.Name(), x)
	}
	return nil
}

// checkKey rejects keys whose dynamic value cannot be compared, including
// comparable types holding a slice, map or func in an interface field.
func checkKey(key any) error {
	if !comparableKey(key) {
		return errors.Wrapf(ErrTypeMismatch, "map key %v is not comparable", key)
	}
	return nil
}

func comparableKey(key any) bool {
	return reflect.ValueOf(key).Comparable()
}

func (g *Graph) describe(h Handle) string {
	obj := g.object(h.Object)
	attr := g.model.Property(h.Property)
	if obj == nil || attr == nil {
		return fmt.Sprintf("%d.%d", h.Object, h.Property)
	}
	return fmt.Sprintf("%s#%d.%s", obj.entity.Name(), h.Object, attr.Name())
}

func (g *Graph) notify(ip inProgress, h Handle, op Op, x ObjectID) {
	g.modified.Notify(Event{Handle: h, Op: op, Object: x, Depth: len(ip)})
}

func (g *Graph) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
