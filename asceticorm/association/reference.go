package association

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

// view binds an endpoint to the graph that synchronises it.
type view struct {
	g  *Graph
	h  Handle
	ep *endpoint
}

func (g *Graph) view(id ObjectID, property string, kinds ...metamodel.EndpointKind) (view, error) {
	h, err := g.Handle(id, property)
	if err != nil {
		return view{}, err
	}
	ep, err := g.endpoint(h)
	if err != nil {
		return view{}, err
	}
	for _, k := range kinds {
		if ep.kind() == k {
			return view{g: g, h: h, ep: ep}, nil
		}
	}
	return view{}, errors.Wrapf(ErrTypeMismatch, "%s is a %s endpoint", ep.attr, ep.kind())
}

func (v view) Handle() Handle {
	return v.h
}

func (v view) IsLoaded() bool {
	return !v.ep.unloaded
}

type Reference struct {
	view
}

func (g *Graph) Reference(id ObjectID, property string) (*Reference, error) {
	v, err := g.view(id, property, metamodel.EndpointReference)
	if err != nil {
		return nil, err
	}
	return &Reference{v}, nil
}

func (r *Reference) Get() ObjectID {
	return r.ep.value
}

// Set replaces the referenced object; NoObject clears the reference. The
// opposite side of the old and the new object follows.
func (r *Reference) Set(value ObjectID) error {
	if _, err := r.g.load(r.h); err != nil {
		return err
	}
	return r.g.assign(nil, r.h, value)
}

// IndexedReference refers to the owner of a list and knows its position in it.
type IndexedReference struct {
	view
}

func (g *Graph) IndexedReference(id ObjectID, property string) (*IndexedReference, error) {
	v, err := g.view(id, property, metamodel.EndpointIndexedReference)
	if err != nil {
		return nil, err
	}
	return &IndexedReference{v}, nil
}

func (r *IndexedReference) Get() ObjectID {
	return r.ep.value
}

// Index is -1 while the reference is empty.
func (r *IndexedReference) Index() int {
	return r.ep.index
}

// Set appends the owner to the end of the new list.
func (r *IndexedReference) Set(value ObjectID) error {
	return r.SetAt(value, -1)
}

// SetIndex moves the owner within the list it belongs to.
func (r *IndexedReference) SetIndex(index int) error {
	if r.ep.value == NoObject {
		return errors.Wrapf(ErrIndexOutOfRange, "%s is empty", r.g.describe(r.h))
	}
	if index < 0 {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d", index)
	}
	return r.SetAt(r.ep.value, index)
}

func (r *IndexedReference) SetAt(value ObjectID, index int) error {
	if _, err := r.g.load(r.h); err != nil {
		return err
	}
	return r.g.assignIndexed(nil, r.h, value, index)
}

// KeyedReference refers to the owner of an ordered map and knows its key in it.
type KeyedReference struct {
	view
}

func (g *Graph) KeyedReference(id ObjectID, property string) (*KeyedReference, error) {
	v, err := g.view(id, property, metamodel.EndpointKeyedReference)
	if err != nil {
		return nil, err
	}
	return &KeyedReference{v}, nil
}

func (r *KeyedReference) Get() ObjectID {
	return r.ep.value
}

func (r *KeyedReference) Key() any {
	return r.ep.key
}

func (r *KeyedReference) Set(value ObjectID) error {
	return r.SetWithKey(r.ep.key, value)
}

func (r *KeyedReference) SetKey(key any) error {
	return r.SetWithKey(key, r.ep.value)
}

// SetWithKey moves the owner to key in the map of value. A nil key keeps the
// reference out of any map.
func (r *KeyedReference) SetWithKey(key any, value ObjectID) error {
	if _, err := r.g.load(r.h); err != nil {
		return err
	}
	return r.g.assignKeyed(nil, r.h, value, key)
}

func (g *Graph) assign(ip inProgress, h Handle, value ObjectID) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	if err := g.checkValue(ep.attr, value, true); err != nil {
		return err
	}
	old := ep.value
	if old == value {
		return nil
	}
	ip = ip.with(h)
	active := ep.active()
	if active {
		if err := g.prepareDetach(ip, h, old); err != nil {
			return err
		}
		if err := g.prepareAttach(ip, h, ep, value, nil); err != nil {
			return err
		}
	}
	ep.value = value
	g.notify(ip, h, OpSet, value)
	if !active {
		return nil
	}
	if err := g.detachFrom(ip, h, old); err != nil {
		return err
	}
	return g.attachTo(ip, h, value, -1, nil)
}

// assignIndexed sets an indexed reference. A negative pos appends the owner
// to the new list; with an unchanged value a non-negative pos moves it.
func (g *Graph) assignIndexed(ip inProgress, h Handle, value ObjectID, pos int) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	if err := g.checkValue(ep.attr, value, true); err != nil {
		return err
	}
	old := ep.value
	if old == value {
		if value == NoObject || pos < 0 || pos == ep.index {
			return nil
		}
		return g.reposition(ip.with(h), h, ep, pos)
	}
	if value == NoObject {
		pos = -1
	}
	ip = ip.with(h)
	active := ep.active()
	if active {
		if err := g.prepareDetach(ip, h, old); err != nil {
			return err
		}
		if err := g.prepareAttach(ip, h, ep, value, nil); err != nil {
			return err
		}
		if lh, lep, ok := g.opposite(h, value); ok && !ip.contains(lh) && !lep.unloaded && pos > len(lep.elements) {
			return errors.Wrapf(ErrIndexOutOfRange, "index %d of %s", pos, g.describe(lh))
		}
	}
	ep.value = value
	ep.index = pos
	g.notify(ip, h, OpSet, value)
	if !active {
		return nil
	}
	if err := g.detachFrom(ip, h, old); err != nil {
		return err
	}
	return g.attachTo(ip, h, value, pos, nil)
}

// reposition moves the owner of h inside the list it already belongs to.
func (g *Graph) reposition(ip inProgress, h Handle, ep *endpoint, pos int) error {
	lh, lep, ok := g.opposite(h, ep.value)
	if !ep.active() || !ok || ip.contains(lh) || lep.unloaded {
		ep.index = pos
		g.notify(ip, h, OpSet, ep.value)
		return nil
	}
	from := lep.indexOf(h.Object)
	if from < 0 {
		return errors.Wrapf(ErrIndexOutOfRange, "%s is not in %s", g.describe(h), g.describe(lh))
	}
	return g.move(ip, lh, from, pos)
}

// assignKeyed synchronises the maps before the local change so that the old
// map can lose the key without being loaded.
func (g *Graph) assignKeyed(ip inProgress, h Handle, value ObjectID, key any) error {
	ep, err := g.endpoint(h)
	if err != nil {
		return err
	}
	if err := g.checkValue(ep.attr, value, true); err != nil {
		return err
	}
	if key != nil {
		if err := checkKey(key); err != nil {
			return err
		}
	}
	oldMap, oldKey := ep.value, ep.key
	if oldMap == value && oldKey == key {
		return nil
	}
	ip = ip.with(h)
	if ep.active() {
		if err := g.prepareDetach(ip, h, oldMap); err != nil {
			return err
		}
		if key != nil {
			if err := g.prepareAttach(ip, h, ep, value, key); err != nil {
				return err
			}
		}
		if mh, mep, ok := g.opposite(h, oldMap); ok && !ip.contains(mh) && !mep.unloaded {
			if i := mep.keyIndex(oldKey); i >= 0 && mep.elements[i] == h.Object {
				if err := g.removeAt(ip, mh, i); err != nil {
					return err
				}
			}
		}
		if mh, mep, ok := g.opposite(h, value); ok && key != nil && !ip.contains(mh) && !mep.unloaded {
			if err := g.put(ip, mh, key, h.Object); err != nil {
				return err
			}
		}
	}
	ep.value = value
	ep.key = key
	g.notify(ip, h, OpSet, value)
	return nil
}
