package association

import (
	"slices"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

// OrderedMap maps keys to associated objects in insertion order. An object
// is held under one key at most.
type OrderedMap struct {
	view
}

func (g *Graph) OrderedMap(id ObjectID, property string) (*OrderedMap, error) {
	v, err := g.view(id, property, metamodel.EndpointOrderedMap)
	if err != nil {
		return nil, err
	}
	return &OrderedMap{v}, nil
}

func (m *OrderedMap) Len() int {
	return len(m.ep.elements)
}

func (m *OrderedMap) Keys() []any {
	return slices.Clone(m.ep.keys)
}

func (m *OrderedMap) Values() []ObjectID {
	return slices.Clone(m.ep.elements)
}

func (m *OrderedMap) Get(key any) (ObjectID, bool) {
	if i := m.ep.keyIndex(key); i >= 0 {
		return m.ep.elements[i], true
	}
	return NoObject, false
}

// Put maps key to x. The object previously under key is detached; x leaves
// the key it had before.
func (m *OrderedMap) Put(key any, x ObjectID) error {
	if _, err := m.g.load(m.h); err != nil {
		return err
	}
	return m.g.put(nil, m.h, key, x)
}

func (m *OrderedMap) Remove(key any) error {
	if _, err := m.g.load(m.h); err != nil {
		return err
	}
	i := m.ep.keyIndex(key)
	if i < 0 {
		return nil
	}
	return m.g.removeAt(nil, m.h, i)
}

func (m *OrderedMap) Clear() error {
	if _, err := m.g.load(m.h); err != nil {
		return err
	}
	return m.g.clear(nil, m.h)
}

func (g *Graph) put(ip inProgress, h Handle, key any, x ObjectID) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	if err := g.checkValue(ep.attr, x, false); err != nil {
		return err
	}
	i := ep.keyIndex(key)
	old := NoObject
	if i >= 0 {
		old = ep.elements[i]
		if old == x {
			return nil
		}
	}
	ip = ip.with(h)
	active := ep.active()
	if active {
		if err := g.prepareDetach(ip, h, old); err != nil {
			return err
		}
		if err := g.prepareAttach(ip, h, ep, x, key); err != nil {
			return err
		}
	}
	if j := ep.indexOf(x); j >= 0 {
		ep.deleteAt(j)
		if i > j {
			i--
		}
	}
	if i >= 0 {
		ep.elements[i] = x
	} else {
		ep.keys = append(ep.keys, key)
		ep.elements = append(ep.elements, x)
	}
	g.notify(ip, h, OpPut, x)
	if !active {
		return nil
	}
	if err := g.detachFrom(ip, h, old); err != nil {
		return err
	}
	return g.attachTo(ip, h, x, -1, key)
}

// removeValue drops the entry holding x, whatever its key.
func (g *Graph) removeValue(ip inProgress, h Handle, x ObjectID) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	i := ep.indexOf(x)
	if i < 0 {
		return nil
	}
	return g.removeAt(ip, h, i)
}
