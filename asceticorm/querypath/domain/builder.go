package querypath

// FetchBuilder is the fluent form of a fetch path:
//
//	Fetch().Get("employees", All).Get("annualLeaves", Required).End()
type FetchBuilder struct {
	nodes []Node
}

func Fetch() *FetchBuilder {
	return &FetchBuilder{}
}

// Get appends a step. Later options override earlier ones of the same kind.
func (b *FetchBuilder) Get(name string, opts ...StepOption) *FetchBuilder {
	b.nodes = append(b.nodes, newNode(name, opts))
	return b
}

func (b *FetchBuilder) End() FetchPath {
	nodes := make([]Node, len(b.nodes))
	copy(nodes, b.nodes)
	return FetchPath{Nodes: nodes}
}

type OrderPriority int

const (
	Post OrderPriority = iota
	Pre
)

type OrderBuilder struct {
	nodes []Node
	pre   bool
}

func OrderBy(priority OrderPriority) *OrderBuilder {
	return &OrderBuilder{pre: priority == Pre}
}

func (b *OrderBuilder) Get(name string, opts ...StepOption) *OrderBuilder {
	b.nodes = append(b.nodes, newNode(name, opts))
	return b
}

func (b *OrderBuilder) Asc() OrderPath {
	return b.end(false)
}

func (b *OrderBuilder) Desc() OrderPath {
	return b.end(true)
}

func (b *OrderBuilder) end(desc bool) OrderPath {
	nodes := make([]Node, len(b.nodes))
	copy(nodes, b.nodes)
	return OrderPath{Nodes: nodes, Desc: desc, Pre: b.pre}
}

func newNode(name string, opts []StepOption) Node {
	n := Node{Name: name}
	for _, opt := range opts {
		opt.applyTo(&n)
	}
	return n
}
