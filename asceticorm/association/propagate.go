package association

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

// inProgress holds the endpoints being synchronised by the current call
// chain. Synchronisation never re-enters an endpoint it contains.
type inProgress []Handle

func (ip inProgress) contains(h Handle) bool {
	return slices.Contains(ip, h)
}

func (ip inProgress) with(h Handle) inProgress {
	return append(slices.Clip(ip), h)
}

// prepareDetach makes sure x's opposite endpoint can lose the owner of h.
func (g *Graph) prepareDetach(ip inProgress, h Handle, x ObjectID) error {
	oh, oep, ok := g.opposite(h, x)
	if !ok || ip.contains(oh) {
		return nil
	}
	_, err := g.reach(oh, oep)
	return err
}

// prepareAttach validates that x's opposite endpoint accepts the owner of h
// and loads what the attachment will touch.
func (g *Graph) prepareAttach(ip inProgress, h Handle, ep *endpoint, x ObjectID, key any) error {
	oh, oep, ok := g.opposite(h, x)
	if !ok || ip.contains(oh) {
		return nil
	}
	if oep.kind().IsMap() && ep.kind() != metamodel.EndpointKeyedReference {
		return errors.Wrapf(ErrUnsupportedOperation, "%s cannot attach to the map %s", g.describe(h), g.describe(oh))
	}
	reachable, err := g.reach(oh, oep)
	if err != nil || !reachable {
		return err
	}
	switch {
	case oep.kind().IsReference():
		// x leaves the object it refers to now.
		if prev := oep.value; prev != NoObject && prev != h.Object {
			return g.prepareDetach(ip.with(oh), oh, prev)
		}
	case oep.kind().IsMap():
		if i := oep.keyIndex(key); i >= 0 && oep.elements[i] != h.Object {
			return g.prepareDetach(ip.with(oh), oh, oep.elements[i])
		}
	}
	return nil
}

// attachTo makes x's opposite endpoint point back to the owner of h. pos is
// the position of x in a list h, or the requested position of the owner when
// h is an indexed reference.
func (g *Graph) attachTo(ip inProgress, h Handle, x ObjectID, pos int, key any) error {
	oh, oep, ok := g.opposite(h, x)
	if !ok || ip.contains(oh) {
		return nil
	}
	reachable, err := g.reach(oh, oep)
	if err != nil || !reachable {
		return err
	}
	owner := h.Object
	switch oep.kind() {
	case metamodel.EndpointReference:
		return g.assign(ip, oh, owner)
	case metamodel.EndpointIndexedReference:
		return g.assignIndexed(ip, oh, owner, pos)
	case metamodel.EndpointKeyedReference:
		return g.assignKeyed(ip, oh, owner, key)
	case metamodel.EndpointList, metamodel.EndpointOrderedSet, metamodel.EndpointNavigableSet:
		at := -1
		if g.Attribute(h).Endpoint() == metamodel.EndpointIndexedReference {
			at = pos
		}
		return g.insert(ip, oh, at, owner)
	default:
		return errors.Wrapf(ErrUnsupportedOperation, "%s cannot attach to %s", g.describe(h), g.describe(oh))
	}
}

// detachFrom removes the owner of h from x's opposite endpoint. A keyed
// reference keeps its key.
func (g *Graph) detachFrom(ip inProgress, h Handle, x ObjectID) error {
	oh, oep, ok := g.opposite(h, x)
	if !ok || ip.contains(oh) {
		return nil
	}
	reachable, err := g.reach(oh, oep)
	if err != nil || !reachable {
		return err
	}
	owner := h.Object
	switch {
	case oep.kind().IsReference():
		if oep.value != owner {
			return nil
		}
		switch oep.kind() {
		case metamodel.EndpointKeyedReference:
			return g.assignKeyed(ip, oh, NoObject, oep.key)
		case metamodel.EndpointIndexedReference:
			return g.assignIndexed(ip, oh, NoObject, -1)
		default:
			return g.assign(ip, oh, NoObject)
		}
	case oep.kind().IsMap():
		return g.removeValue(ip, oh, owner)
	default:
		return g.remove(ip, oh, owner)
	}
}

// shift rewrites the indices of the indexed references facing list h from
// position from to the end.
func (g *Graph) shift(ip inProgress, h Handle, ep *endpoint, from int) {
	opposite := g.model.Opposite(ep.attr)
	if opposite == nil || opposite.Endpoint() != metamodel.EndpointIndexedReference {
		return
	}
	for i := max(from, 0); i < len(ep.elements); i++ {
		oh := Handle{Object: ep.elements[i], Property: opposite.ID()}
		oep, err := g.endpoint(oh)
		if err != nil || oep.unloaded || oep.value != h.Object || oep.index == i {
			continue
		}
		oep.index = i
		g.notify(ip.with(oh), oh, OpReindex, h.Object)
	}
}
