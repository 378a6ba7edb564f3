package metamodel

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// AttributeDef declares one attribute. Zero values mean "derive the default".
type AttributeDef struct {
	Name     string        `yaml:"name"`
	Column   string        `yaml:"column,omitempty"`
	Type     ScalarType    `yaml:"type,omitempty"`
	Kind     AttributeKind `yaml:"kind,omitempty"`
	Target   string        `yaml:"target,omitempty"`
	Endpoint EndpointKind  `yaml:"endpoint,omitempty"`
	Opposite string        `yaml:"opposite,omitempty"`
	Optional bool          `yaml:"optional,omitempty"`
	Lazy     bool          `yaml:"lazy,omitempty"`
}

type EntityDef struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table,omitempty"`
	ID         string         `yaml:"id"`
	Attributes []AttributeDef `yaml:"attributes"`
}

type AttributeOption func(*AttributeDef)

func WithOpposite(name string) AttributeOption {
	return func(d *AttributeDef) {
		d.Opposite = name
	}
}

func WithEndpoint(kind EndpointKind) AttributeOption {
	return func(d *AttributeDef) {
		d.Endpoint = kind
	}
}

func WithColumn(column string) AttributeOption {
	return func(d *AttributeDef) {
		d.Column = column
	}
}

func Optional() AttributeOption {
	return func(d *AttributeDef) {
		d.Optional = true
	}
}

func Lazy() AttributeOption {
	return func(d *AttributeDef) {
		d.Lazy = true
	}
}

func Scalar(name string, t ScalarType, opts ...AttributeOption) AttributeDef {
	return newAttributeDef(AttributeDef{Name: name, Type: t, Kind: KindBasic}, opts)
}

func ManyToOne(name, target string, opts ...AttributeOption) AttributeDef {
	return newAttributeDef(AttributeDef{Name: name, Target: target, Kind: KindManyToOne}, opts)
}

func OneToOne(name, target string, opts ...AttributeOption) AttributeDef {
	return newAttributeDef(AttributeDef{Name: name, Target: target, Kind: KindOneToOne}, opts)
}

func OneToMany(name, target string, opts ...AttributeOption) AttributeDef {
	return newAttributeDef(AttributeDef{Name: name, Target: target, Kind: KindOneToMany}, opts)
}

func ManyToMany(name, target string, opts ...AttributeOption) AttributeDef {
	return newAttributeDef(AttributeDef{Name: name, Target: target, Kind: KindManyToMany}, opts)
}

func newAttributeDef(def AttributeDef, opts []AttributeOption) AttributeDef {
	for i := range opts {
		opts[i](&def)
	}
	return def
}

// Registry collects entity definitions and resolves them into a Metamodel.
type Registry struct {
	defs []EntityDef
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(defs ...EntityDef) *Registry {
	r.defs = append(r.defs, defs...)
	return r
}

// Build assigns property ids in registration order and resolves targets and
// opposites. All validation problems are reported together.
func (r *Registry) Build() (*Metamodel, error) {
	var result *multierror.Error
	m := &Metamodel{
		entities: make(map[string]*Entity, len(r.defs)),
	}
	defsByAttr := make(map[*Attribute]AttributeDef)

	for _, def := range r.defs {
		if def.Name == "" {
			result = multierror.Append(result, errors.Wrap(ErrInvalidModel, "entity without name"))
			continue
		}
		if _, ok := m.entities[def.Name]; ok {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidModel, "duplicate entity %q", def.Name))
			continue
		}
		entity := &Entity{
			name:   def.Name,
			table:  def.Table,
			byName: make(map[string]*Attribute, len(def.Attributes)),
		}
		if entity.table == "" {
			entity.table = TableName(def.Name)
		}
		for _, attrDef := range def.Attributes {
			if _, ok := entity.byName[attrDef.Name]; ok {
				result = multierror.Append(result, errors.Wrapf(
					ErrInvalidModel, "entity %q: duplicate attribute %q", def.Name, attrDef.Name,
				))
				continue
			}
			attr := &Attribute{
				id:       PropertyID(len(m.properties)),
				entity:   entity,
				name:     attrDef.Name,
				column:   attrDef.Column,
				typ:      attrDef.Type,
				kind:     attrDef.Kind,
				endpoint: attrDef.Endpoint,
				optional: attrDef.Optional,
				lazy:     attrDef.Lazy,
				opposite: NoProperty,
			}
			if attr.column == "" {
				attr.column = ColumnName(attrDef.Name)
			}
			if err := applyKindDefaults(attr); err != nil {
				result = multierror.Append(result, err)
			}
			m.properties = append(m.properties, attr)
			entity.attributes = append(entity.attributes, attr)
			entity.byName[attr.name] = attr
			defsByAttr[attr] = attrDef
		}
		id, ok := entity.byName[def.ID]
		switch {
		case !ok:
			result = multierror.Append(result, errors.Wrapf(ErrInvalidModel, "entity %q: id %q not declared", def.Name, def.ID))
		case id.kind != KindBasic:
			result = multierror.Append(result, errors.Wrapf(ErrInvalidModel, "entity %q: id %q is an association", def.Name, def.ID))
		default:
			id.isID = true
			entity.id = id
		}
		m.entities[entity.name] = entity
		m.order = append(m.order, entity)
	}

	for _, attr := range m.properties {
		if !attr.kind.IsAssociation() {
			continue
		}
		def := defsByAttr[attr]
		target, ok := m.entities[def.Target]
		if !ok {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidModel, "%s: unknown target %q", attr, def.Target))
			continue
		}
		attr.target = target
	}

	for _, attr := range m.properties {
		def := defsByAttr[attr]
		if def.Opposite == "" || attr.target == nil {
			continue
		}
		if err := linkOpposite(attr, def.Opposite, defsByAttr); err != nil {
			result = multierror.Append(result, err)
		}
	}

	for _, attr := range m.properties {
		if err := validateEndpoints(m, attr); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return m, nil
}

// MustBuild panics on an invalid model; meant for static setup and tests.
func MustBuild(r *Registry) *Metamodel {
	m, err := r.Build()
	if err != nil {
		panic(err)
	}
	return m
}

func applyKindDefaults(attr *Attribute) error {
	if !attr.kind.IsAssociation() {
		if attr.endpoint != EndpointNone {
			return errors.Wrapf(ErrInvalidModel, "%s: basic attribute with endpoint %s", attr, attr.endpoint)
		}
		if !knownScalarTypes[attr.typ] {
			return errors.Wrapf(ErrInvalidModel, "%s: unknown scalar type %q", attr, attr.typ)
		}
		return nil
	}
	attr.typ = TypeEntity
	if attr.endpoint == EndpointNone {
		if attr.kind.IsToMany() {
			attr.endpoint = EndpointOrderedSet
		} else {
			attr.endpoint = EndpointReference
		}
	}
	if attr.kind.IsToMany() && attr.endpoint.IsReference() {
		return errors.Wrapf(ErrInvalidModel, "%s: %s association with %s endpoint", attr, attr.kind, attr.endpoint)
	}
	if !attr.kind.IsToMany() && !attr.endpoint.IsReference() {
		return errors.Wrapf(ErrInvalidModel, "%s: %s association with %s endpoint", attr, attr.kind, attr.endpoint)
	}
	return nil
}

var oppositeKinds = map[AttributeKind]AttributeKind{
	KindManyToOne:  KindOneToMany,
	KindOneToMany:  KindManyToOne,
	KindOneToOne:   KindOneToOne,
	KindManyToMany: KindManyToMany,
}

func linkOpposite(attr *Attribute, name string, defs map[*Attribute]AttributeDef) error {
	opposite, ok := attr.target.byName[name]
	if !ok {
		return errors.Wrapf(ErrInvalidModel, "%s: opposite %s.%s not declared", attr, attr.target.name, name)
	}
	if opposite.target != attr.entity {
		return errors.Wrapf(ErrInvalidModel, "%s: opposite %s does not point back", attr, opposite)
	}
	if oppositeKinds[attr.kind] != opposite.kind {
		return errors.Wrapf(ErrInvalidModel, "%s: %s cannot face %s %s", attr, attr.kind, opposite.kind, opposite)
	}
	if back := defs[opposite].Opposite; back != "" && back != attr.name {
		return errors.Wrapf(ErrInvalidModel, "%s: opposite %s declares %q as its opposite", attr, opposite, back)
	}
	attr.opposite = opposite.id
	opposite.opposite = attr.id
	return nil
}

func validateEndpoints(m *Metamodel, attr *Attribute) error {
	switch attr.endpoint {
	case EndpointIndexedReference, EndpointKeyedReference:
		opposite := m.Property(attr.opposite)
		want := EndpointList
		if attr.endpoint == EndpointKeyedReference {
			want = EndpointOrderedMap
		}
		if opposite == nil || opposite.endpoint != want {
			return errors.Wrapf(ErrInvalidModel, "%s: %s endpoint requires a %s opposite", attr, attr.endpoint, want)
		}
	}
	return nil
}
