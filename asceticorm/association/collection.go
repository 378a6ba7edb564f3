package association

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

type collection struct {
	view
}

func (c collection) Len() int {
	return len(c.ep.elements)
}

func (c collection) Elements() []ObjectID {
	return slices.Clone(c.ep.elements)
}

func (c collection) Contains(x ObjectID) bool {
	return c.ep.indexOf(x) >= 0
}

// Add is a no-op for an element the collection already holds.
func (c collection) Add(x ObjectID) error {
	if _, err := c.g.load(c.h); err != nil {
		return err
	}
	return c.g.insert(nil, c.h, -1, x)
}

func (c collection) Remove(x ObjectID) error {
	if _, err := c.g.load(c.h); err != nil {
		return err
	}
	return c.g.remove(nil, c.h, x)
}

func (c collection) Clear() error {
	if _, err := c.g.load(c.h); err != nil {
		return err
	}
	return c.g.clear(nil, c.h)
}

type List struct {
	collection
}

func (g *Graph) List(id ObjectID, property string) (*List, error) {
	v, err := g.view(id, property, metamodel.EndpointList)
	if err != nil {
		return nil, err
	}
	return &List{collection{v}}, nil
}

func (l *List) At(index int) (ObjectID, error) {
	if index < 0 || index >= len(l.ep.elements) {
		return NoObject, errors.Wrapf(ErrIndexOutOfRange, "index %d of %s", index, l.g.describe(l.h))
	}
	return l.ep.elements[index], nil
}

// IndexOf is -1 for an element the list does not hold.
func (l *List) IndexOf(x ObjectID) int {
	return l.ep.indexOf(x)
}

// Insert places x at index. An element the list already holds is moved.
func (l *List) Insert(index int, x ObjectID) error {
	if index < 0 {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %s", index, l.g.describe(l.h))
	}
	if _, err := l.g.load(l.h); err != nil {
		return err
	}
	return l.g.insert(nil, l.h, index, x)
}

// Set replaces the element at index.
func (l *List) Set(index int, x ObjectID) error {
	if _, err := l.g.load(l.h); err != nil {
		return err
	}
	return l.g.replace(nil, l.h, index, x)
}

func (l *List) RemoveAt(index int) error {
	if _, err := l.g.load(l.h); err != nil {
		return err
	}
	return l.g.removeAt(nil, l.h, index)
}

// OrderedSet keeps insertion order.
type OrderedSet struct {
	collection
}

func (g *Graph) OrderedSet(id ObjectID, property string) (*OrderedSet, error) {
	v, err := g.view(id, property, metamodel.EndpointOrderedSet)
	if err != nil {
		return nil, err
	}
	return &OrderedSet{collection{v}}, nil
}

// NavigableSet keeps its elements sorted by the comparator of the property.
type NavigableSet struct {
	collection
}

func (g *Graph) NavigableSet(id ObjectID, property string) (*NavigableSet, error) {
	v, err := g.view(id, property, metamodel.EndpointNavigableSet)
	if err != nil {
		return nil, err
	}
	return &NavigableSet{collection{v}}, nil
}

// insert adds x at pos of a list, at its sorted position in a navigable set
// and at the end otherwise. A negative pos appends.
func (g *Graph) insert(ip inProgress, h Handle, pos int, x ObjectID) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	if err := g.checkValue(ep.attr, x, false); err != nil {
		return err
	}
	kind := ep.kind()
	if cur := ep.indexOf(x); cur >= 0 {
		if kind == metamodel.EndpointList && pos >= 0 {
			return g.move(ip, h, cur, min(pos, len(ep.elements)-1))
		}
		return nil
	}
	switch {
	case kind == metamodel.EndpointNavigableSet:
		pos = g.sortedPosition(ep, x)
	case kind != metamodel.EndpointList || pos < 0:
		pos = len(ep.elements)
	case pos > len(ep.elements):
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %s", pos, g.describe(h))
	}
	ip = ip.with(h)
	active := ep.active()
	if active {
		if err := g.prepareAttach(ip, h, ep, x, nil); err != nil {
			return err
		}
	}
	ep.insertAt(pos, x)
	g.notify(ip, h, OpAdd, x)
	if !active {
		return nil
	}
	if err := g.attachTo(ip, h, x, pos, nil); err != nil {
		return err
	}
	g.shift(ip, h, ep, pos)
	return nil
}

func (g *Graph) remove(ip inProgress, h Handle, x ObjectID) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	pos := ep.indexOf(x)
	if pos < 0 {
		return nil
	}
	return g.removeAt(ip, h, pos)
}

func (g *Graph) removeAt(ip inProgress, h Handle, pos int) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	if pos < 0 || pos >= len(ep.elements) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %s", pos, g.describe(h))
	}
	x := ep.elements[pos]
	ip = ip.with(h)
	active := ep.active()
	if active {
		if err := g.prepareDetach(ip, h, x); err != nil {
			return err
		}
	}
	ep.deleteAt(pos)
	g.notify(ip, h, OpRemove, x)
	if !active {
		return nil
	}
	if err := g.detachFrom(ip, h, x); err != nil {
		return err
	}
	g.shift(ip, h, ep, pos)
	return nil
}

// replace sets the list element at pos. When x is held elsewhere in the list
// the old element is removed and x moves to pos.
func (g *Graph) replace(ip inProgress, h Handle, pos int, x ObjectID) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	if pos < 0 || pos >= len(ep.elements) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %s", pos, g.describe(h))
	}
	if err := g.checkValue(ep.attr, x, false); err != nil {
		return err
	}
	old := ep.elements[pos]
	if old == x {
		return nil
	}
	if ep.indexOf(x) >= 0 {
		if err := g.removeAt(ip, h, pos); err != nil {
			return err
		}
		return g.move(ip, h, ep.indexOf(x), min(pos, len(ep.elements)-1))
	}
	ip = ip.with(h)
	active := ep.active()
	if active {
		if err := g.prepareDetach(ip, h, old); err != nil {
			return err
		}
		if err := g.prepareAttach(ip, h, ep, x, nil); err != nil {
			return err
		}
	}
	ep.elements[pos] = x
	g.notify(ip, h, OpReplace, x)
	if !active {
		return nil
	}
	if err := g.detachFrom(ip, h, old); err != nil {
		return err
	}
	if err := g.attachTo(ip, h, x, pos, nil); err != nil {
		return err
	}
	g.shift(ip, h, ep, pos)
	return nil
}

// move reorders a list without attaching or detaching anything.
func (g *Graph) move(ip inProgress, h Handle, from, to int) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	n := len(ep.elements)
	if from < 0 || from >= n || to < 0 || to >= n {
		return errors.Wrapf(ErrIndexOutOfRange, "move %d to %d in %s", from, to, g.describe(h))
	}
	if from == to {
		return nil
	}
	x := ep.elements[from]
	ep.elements = slices.Delete(ep.elements, from, from+1)
	ep.elements = slices.Insert(ep.elements, to, x)
	ip = ip.with(h)
	g.notify(ip, h, OpMove, x)
	if ep.active() {
		g.shift(ip, h, ep, min(from, to))
	}
	return nil
}

func (g *Graph) clear(ip inProgress, h Handle) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	if len(ep.elements) == 0 {
		return nil
	}
	removed := slices.Clone(ep.elements)
	ip = ip.with(h)
	active := ep.active()
	if active {
		for _, x := range removed {
			if err := g.prepareDetach(ip, h, x); err != nil {
				return err
			}
		}
	}
	ep.elements = nil
	ep.keys = nil
	for _, x := range removed {
		g.notify(ip, h, OpRemove, x)
	}
	if !active {
		return nil
	}
	for _, x := range removed {
		if err := g.detachFrom(ip, h, x); err != nil {
			return err
		}
	}
	return nil
}
