package metamodel

import "github.com/pkg/errors"

// PropertyID indexes an attribute in the metamodel arena.
type PropertyID int

// NoProperty marks the missing opposite of a unidirectional association.
const NoProperty PropertyID = -1

type Attribute struct {
	id       PropertyID
	entity   *Entity
	name     string
	column   string
	typ      ScalarType
	kind     AttributeKind
	target   *Entity
	endpoint EndpointKind
	optional bool
	lazy     bool
	isID     bool
	opposite PropertyID
}

func (a *Attribute) ID() PropertyID {
	return a.id
}

// Entity returns the declaring entity.
func (a *Attribute) Entity() *Entity {
	return a.entity
}

func (a *Attribute) Name() string {
	return a.name
}

func (a *Attribute) Column() string {
	return a.column
}

func (a *Attribute) Type() ScalarType {
	return a.typ
}

func (a *Attribute) Kind() AttributeKind {
	return a.kind
}

// Target returns the associated entity, nil for basic attributes.
func (a *Attribute) Target() *Entity {
	return a.target
}

func (a *Attribute) Endpoint() EndpointKind {
	return a.endpoint
}

func (a *Attribute) Optional() bool {
	return a.optional
}

func (a *Attribute) Lazy() bool {
	return a.lazy
}

func (a *Attribute) IsID() bool {
	return a.isID
}

func (a *Attribute) Opposite() PropertyID {
	return a.opposite
}

func (a *Attribute) IsAssociation() bool {
	return a.kind.IsAssociation()
}

func (a *Attribute) IsCollection() bool {
	return a.kind.IsToMany()
}

// IsSingular reports a basic attribute or a to-one association.
func (a *Attribute) IsSingular() bool {
	return !a.kind.IsToMany()
}

func (a *Attribute) String() string {
	return a.entity.name + "." + a.name
}

type Entity struct {
	name       string
	table      string
	id         *Attribute
	attributes []*Attribute
	byName     map[string]*Attribute
}

func (e *Entity) Name() string {
	return e.name
}

func (e *Entity) Table() string {
	return e.table
}

func (e *Entity) ID() *Attribute {
	return e.id
}

// Attributes returns the attributes in declaration order.
func (e *Entity) Attributes() []*Attribute {
	result := make([]*Attribute, len(e.attributes))
	copy(result, e.attributes)
	return result
}

func (e *Entity) Attribute(name string) (*Attribute, error) {
	attr, ok := e.byName[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProperty, "%s.%s", e.name, name)
	}
	return attr, nil
}

// Metamodel is the immutable result of Registry.Build.
type Metamodel struct {
	entities   map[string]*Entity
	order      []*Entity
	properties []*Attribute
}

func (m *Metamodel) Entity(name string) (*Entity, error) {
	entity, ok := m.entities[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownEntity, "%q", name)
	}
	return entity, nil
}

func (m *Metamodel) Entities() []*Entity {
	result := make([]*Entity, len(m.order))
	copy(result, m.order)
	return result
}

// Property returns nil for ids outside the arena, including NoProperty.
func (m *Metamodel) Property(id PropertyID) *Attribute {
	if id < 0 || int(id) >= len(m.properties) {
		return nil
	}
	return m.properties[id]
}

func (m *Metamodel) PropertyCount() int {
	return len(m.properties)
}

// Opposite returns the other side of a bidirectional association or nil.
func (m *Metamodel) Opposite(attr *Attribute) *Attribute {
	return m.Property(attr.opposite)
}
