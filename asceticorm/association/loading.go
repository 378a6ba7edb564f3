package association

import (
	"github.com/pkg/errors"
)

// LoadPolicy decides what happens when synchronisation reaches an endpoint
// that is not loaded. An abandonable endpoint is skipped because its stored
// state will be read again anyway; any other endpoint is loaded first.
type LoadPolicy interface {
	IsAbandonable(g *Graph, h Handle) bool
	Load(g *Graph, h Handle) error
}

// LoaderFunc fills an endpoint, usually through Graph.Hydrate.
type LoaderFunc func(g *Graph, h Handle) error

type defaultLoadPolicy struct {
	loader LoaderFunc
}

// DefaultLoadPolicy abandons collections and maps and loads references with
// loader. Without a loader, references fail with ErrNotLoaded.
func DefaultLoadPolicy(loader LoaderFunc) LoadPolicy {
	return defaultLoadPolicy{loader: loader}
}

func (p defaultLoadPolicy) IsAbandonable(g *Graph, h Handle) bool {
	attr := g.Attribute(h)
	return attr != nil && !attr.Endpoint().IsReference()
}

func (p defaultLoadPolicy) Load(g *Graph, h Handle) error {
	if p.loader == nil {
		return errors.Wrapf(ErrNotLoaded, "%s has no loader", g.describe(h))
	}
	return p.loader(g, h)
}

// load makes an endpoint the caller is about to mutate directly usable.
func (g *Graph) load(h Handle) (*endpoint, error) {
	ep, err := g.endpoint(h)
	if err != nil {
		return nil, err
	}
	if !ep.unloaded {
		return ep, nil
	}
	g.log().Debug("Loading endpoint", "endpoint", g.describe(h))
	if err := g.policy.Load(g, h); err != nil {
		return nil, errors.Wrapf(err, "load %s", g.describe(h))
	}
	ep.unloaded = false
	return ep, nil
}

// reach prepares an opposite endpoint for synchronisation. It reports false
// when the endpoint is abandoned and must be left untouched.
func (g *Graph) reach(h Handle, ep *endpoint) (bool, error) {
	if !ep.unloaded {
		return true, nil
	}
	if g.policy.IsAbandonable(g, h) {
		g.log().Debug("Synchronisation of unloaded endpoint abandoned", "endpoint", g.describe(h))
		return false, nil
	}
	if _, err := g.load(h); err != nil {
		return false, err
	}
	return true, nil
}
