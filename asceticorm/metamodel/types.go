package metamodel

import (
	"fmt"
)

// ScalarType names the value type of an attribute or expression.
type ScalarType string

const (
	TypeUnknown ScalarType = ""
	TypeBool    ScalarType = "bool"
	TypeString  ScalarType = "string"
	TypeInt8    ScalarType = "int8"
	TypeInt16   ScalarType = "int16"
	TypeInt32   ScalarType = "int32"
	TypeInt64   ScalarType = "int64"
	TypeBigInt  ScalarType = "bigint"
	TypeDecimal ScalarType = "decimal"
	TypeFloat32 ScalarType = "float32"
	TypeFloat64 ScalarType = "float64"
	TypeTime    ScalarType = "time"
	TypeBytes   ScalarType = "bytes"
	TypeEntity  ScalarType = "entity"
)

var knownScalarTypes = map[ScalarType]bool{
	TypeBool:    true,
	TypeString:  true,
	TypeInt8:    true,
	TypeInt16:   true,
	TypeInt32:   true,
	TypeInt64:   true,
	TypeBigInt:  true,
	TypeDecimal: true,
	TypeFloat32: true,
	TypeFloat64: true,
	TypeTime:    true,
	TypeBytes:   true,
}

func (t ScalarType) IsNumeric() bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeBigInt, TypeDecimal, TypeFloat32, TypeFloat64:
		return true
	}
	return false
}

// AttributeKind tells a basic column apart from the four association cardinalities.
type AttributeKind int

const (
	KindBasic AttributeKind = iota
	KindManyToOne
	KindOneToOne
	KindOneToMany
	KindManyToMany
)

var attributeKindNames = []string{"basic", "many-to-one", "one-to-one", "one-to-many", "many-to-many"}

func (k AttributeKind) String() string {
	if int(k) < 0 || int(k) >= len(attributeKindNames) {
		return fmt.Sprintf("AttributeKind(%d)", int(k))
	}
	return attributeKindNames[k]
}

func (k AttributeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *AttributeKind) UnmarshalText(text []byte) error {
	for i, name := range attributeKindNames {
		if name == string(text) {
			*k = AttributeKind(i)
			return nil
		}
	}
	return fmt.Errorf("metamodel: unknown attribute kind %q", text)
}

func (k AttributeKind) IsAssociation() bool {
	return k != KindBasic
}

func (k AttributeKind) IsToMany() bool {
	return k == KindOneToMany || k == KindManyToMany
}

// EndpointKind is the runtime shape of one side of an association.
type EndpointKind int

const (
	EndpointNone EndpointKind = iota
	EndpointReference
	EndpointIndexedReference
	EndpointKeyedReference
	EndpointList
	EndpointOrderedSet
	EndpointNavigableSet
	EndpointOrderedMap
)

var endpointKindNames = []string{
	"none",
	"reference",
	"indexed-reference",
	"keyed-reference",
	"list",
	"ordered-set",
	"navigable-set",
	"ordered-map",
}

func (k EndpointKind) String() string {
	if int(k) < 0 || int(k) >= len(endpointKindNames) {
		return fmt.Sprintf("EndpointKind(%d)", int(k))
	}
	return endpointKindNames[k]
}

func (k EndpointKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EndpointKind) UnmarshalText(text []byte) error {
	for i, name := range endpointKindNames {
		if name == string(text) {
			*k = EndpointKind(i)
			return nil
		}
	}
	return fmt.Errorf("metamodel: unknown endpoint kind %q", text)
}

// IsReference reports the single-valued endpoint shapes.
func (k EndpointKind) IsReference() bool {
	return k == EndpointReference || k == EndpointIndexedReference || k == EndpointKeyedReference
}

// IsCollection reports the element-holding endpoint shapes except maps.
func (k EndpointKind) IsCollection() bool {
	return k == EndpointList || k == EndpointOrderedSet || k == EndpointNavigableSet
}

func (k EndpointKind) IsMap() bool {
	return k == EndpointOrderedMap
}
