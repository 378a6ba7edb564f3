package querypath

import "strings"

// GetterType maps to a left join (Optional) or an inner join (Required).
type GetterType int

const (
	Optional GetterType = iota
	Required
)

func (g GetterType) String() string {
	if g == Required {
		return "required"
	}
	return "optional"
}

func (g GetterType) applyTo(n *Node) {
	n.GetterType = g
}

// CollectionFetchType tells whether a collection fetch gets a join of its own
// (All) or reuses a join the query already has (Partial). A partial fetch is
// restricted by the conditions on the reused join.
type CollectionFetchType int

const (
	All CollectionFetchType = iota
	Partial
)

func (c CollectionFetchType) String() string {
	if c == Partial {
		return "partial"
	}
	return "all"
}

func (c CollectionFetchType) applyTo(n *Node) {
	n.CollectionFetchType = c
}

// StepOption is implemented by GetterType and CollectionFetchType.
type StepOption interface {
	applyTo(*Node)
}

// Node is one association or scalar step of a path.
type Node struct {
	Name                string
	GetterType          GetterType
	CollectionFetchType CollectionFetchType
}

func (n Node) String() string {
	var b strings.Builder
	if n.GetterType == Required {
		b.WriteString("..")
	} else {
		b.WriteString(".")
	}
	if n.CollectionFetchType == Partial {
		b.WriteString("partial(" + n.Name + ")")
	} else {
		b.WriteString(n.Name)
	}
	return b.String()
}

type QueryPath interface {
	Steps() []Node
	String() string
	queryPath()
}

type FetchPath struct {
	Nodes []Node
}

func (p FetchPath) Steps() []Node {
	return p.Nodes
}

func (p FetchPath) String() string {
	return "this" + joinNodes(p.Nodes)
}

func (FetchPath) queryPath() {}

type OrderPath struct {
	Nodes []Node
	Desc  bool
	// Pre orders come before the query's own order by, post orders after it.
	Pre bool
}

func (p OrderPath) Steps() []Node {
	return p.Nodes
}

func (p OrderPath) String() string {
	var b strings.Builder
	if p.Pre {
		b.WriteString("pre order by this")
	} else {
		b.WriteString("post order by this")
	}
	b.WriteString(joinNodes(p.Nodes))
	if p.Desc {
		b.WriteString(" desc")
	}
	return b.String()
}

func (OrderPath) queryPath() {}

func joinNodes(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.String())
	}
	return b.String()
}
