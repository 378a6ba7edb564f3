package association

import (
	"cmp"
	"slices"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

// endpoint is the state of one association property of one object. Reference
// kinds use value, index and key. Collections use elements; ordered maps keep
// keys parallel to elements.
type endpoint struct {
	attr     *metamodel.Attribute
	value    ObjectID
	index    int
	key      any
	elements []ObjectID
	keys     []any
	unloaded bool
	disabled bool
}

func newEndpoint(attr *metamodel.Attribute) *endpoint {
	ep := &endpoint{attr: attr}
	ep.reset()
	return ep
}

func (ep *endpoint) reset() {
	ep.value = NoObject
	ep.index = -1
	ep.key = nil
	ep.elements = nil
	ep.keys = nil
}

func (ep *endpoint) kind() metamodel.EndpointKind {
	return ep.attr.Endpoint()
}

// active endpoints validate and propagate their own mutations.
func (ep *endpoint) active() bool {
	return !ep.disabled && ep.attr.Opposite() != metamodel.NoProperty
}

func (ep *endpoint) indexOf(x ObjectID) int {
	return slices.Index(ep.elements, x)
}

func (ep *endpoint) keyIndex(key any) int {
	if !comparableKey(key) {
		return -1
	}
	for i, k := range ep.keys {
		if k == key {
			return i
		}
	}
	return -1
}

func (ep *endpoint) insertAt(pos int, x ObjectID) {
	ep.elements = slices.Insert(ep.elements, pos, x)
}

func (ep *endpoint) deleteAt(pos int) {
	ep.elements = slices.Delete(ep.elements, pos, pos+1)
	if ep.kind().IsMap() {
		ep.keys = slices.Delete(ep.keys, pos, pos+1)
	}
}

// sortedPosition finds where x goes in a navigable set.
func (g *Graph) sortedPosition(ep *endpoint, x ObjectID) int {
	pos, _ := slices.BinarySearchFunc(ep.elements, x, func(e, target ObjectID) int {
		return g.compare(ep.attr, e, target)
	})
	return pos
}

func (g *Graph) sortElements(ep *endpoint) {
	slices.SortStableFunc(ep.elements, func(a, b ObjectID) int {
		return g.compare(ep.attr, a, b)
	})
}

func (g *Graph) compare(attr *metamodel.Attribute, a, b ObjectID) int {
	if c, ok := g.comparators[attr.ID()]; ok {
		if r := c(g.Payload(a), g.Payload(b)); r != 0 {
			return r
		}
	}
	return cmp.Compare(a, b)
}
