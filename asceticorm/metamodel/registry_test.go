package metamodel

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func departmentDefs() []EntityDef {
	return []EntityDef{
		{
			Name: "Department",
			ID:   "id",
			Attributes: []AttributeDef{
				Scalar("id", TypeInt64),
				Scalar("name", TypeString),
				Scalar("image", TypeBytes, Lazy()),
				OneToMany("employees", "Employee", WithOpposite("department"), WithEndpoint(EndpointList)),
			},
		},
		{
			Name: "Employee",
			ID:   "id",
			Attributes: []AttributeDef{
				Scalar("id", TypeInt64),
				Scalar("firstName", TypeString),
				ManyToOne("department", "Department", Optional(), WithEndpoint(EndpointIndexedReference)),
			},
		},
	}
}

func TestRegistry_BuildAssignsDenseIDs(t *testing.T) {
	m, err := NewRegistry().Register(departmentDefs()...).Build()
	require.NoError(t, err)

	assert.Equal(t, 7, m.PropertyCount())
	for i := 0; i < m.PropertyCount(); i++ {
		attr := m.Property(PropertyID(i))
		require.NotNil(t, attr)
		assert.Equal(t, PropertyID(i), attr.ID())
	}
	assert.Nil(t, m.Property(NoProperty))
	assert.Nil(t, m.Property(PropertyID(7)))
}

func TestRegistry_BuildResolvesOpposites(t *testing.T) {
	m, err := NewRegistry().Register(departmentDefs()...).Build()
	require.NoError(t, err)

	department, err := m.Entity("Department")
	require.NoError(t, err)
	employees, err := department.Attribute("employees")
	require.NoError(t, err)

	opposite := m.Opposite(employees)
	require.NotNil(t, opposite)
	assert.Equal(t, "department", opposite.Name())
	assert.Equal(t, employees.ID(), opposite.Opposite())
	assert.Equal(t, "Employee", employees.Target().Name())
	assert.Equal(t, EndpointList, employees.Endpoint())
	assert.Equal(t, EndpointIndexedReference, opposite.Endpoint())
	assert.True(t, employees.IsCollection())
	assert.True(t, opposite.IsSingular())
	assert.True(t, opposite.Optional())
}

func TestRegistry_BuildDefaults(t *testing.T) {
	m, err := NewRegistry().Register(departmentDefs()...).Build()
	require.NoError(t, err)

	employee, err := m.Entity("Employee")
	require.NoError(t, err)
	assert.Equal(t, "employees", employee.Table())
	assert.Equal(t, "id", employee.ID().Name())
	assert.True(t, employee.ID().IsID())

	firstName, err := employee.Attribute("firstName")
	require.NoError(t, err)
	assert.Equal(t, "first_name", firstName.Column())
	assert.Equal(t, TypeString, firstName.Type())
	assert.Equal(t, NoProperty, firstName.Opposite())

	department, err := m.Entity("Department")
	require.NoError(t, err)
	image, err := department.Attribute("image")
	require.NoError(t, err)
	assert.True(t, image.Lazy())
}

func TestRegistry_UnidirectionalAssociationDefaultsToReference(t *testing.T) {
	m, err := NewRegistry().Register(
		EntityDef{
			Name:       "Badge",
			ID:         "id",
			Attributes: []AttributeDef{Scalar("id", TypeInt64)},
		},
		EntityDef{
			Name: "Employee",
			ID:   "id",
			Attributes: []AttributeDef{
				Scalar("id", TypeInt64),
				ManyToOne("badge", "Badge"),
				ManyToMany("colleagues", "Employee"),
			},
		},
	).Build()
	require.NoError(t, err)

	employee, _ := m.Entity("Employee")
	badge, _ := employee.Attribute("badge")
	colleagues, _ := employee.Attribute("colleagues")
	assert.Equal(t, EndpointReference, badge.Endpoint())
	assert.Equal(t, EndpointOrderedSet, colleagues.Endpoint())
	assert.Equal(t, NoProperty, badge.Opposite())
	assert.Equal(t, TypeEntity, badge.Type())
}

func TestRegistry_BuildReportsAllProblems(t *testing.T) {
	_, err := NewRegistry().Register(
		EntityDef{
			Name: "Department",
			ID:   "code",
			Attributes: []AttributeDef{
				Scalar("id", TypeInt64),
				Scalar("id", TypeString),
				Scalar("size", ScalarType("huge")),
				OneToMany("employees", "Nobody"),
			},
		},
		EntityDef{Name: "Department", ID: "id"},
	).Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidModel))

	message := err.Error()
	for _, fragment := range []string{
		`duplicate attribute "id"`,
		`unknown scalar type "huge"`,
		`id "code" not declared`,
		`unknown target "Nobody"`,
		`duplicate entity "Department"`,
	} {
		assert.True(t, strings.Contains(message, fragment), "missing %q in %s", fragment, message)
	}
}

func TestRegistry_EndpointCompatibility(t *testing.T) {
	tests := []struct {
		name     string
		manySide AttributeDef
		oneSide  AttributeDef
		fragment string
	}{
		{
			name:     "keyed reference needs a map",
			manySide: OneToMany("employees", "Employee", WithOpposite("department")),
			oneSide:  ManyToOne("department", "Department", WithEndpoint(EndpointKeyedReference)),
			fragment: "keyed-reference endpoint requires a ordered-map opposite",
		},
		{
			name:     "indexed reference needs a list",
			manySide: OneToMany("employees", "Employee", WithOpposite("department"), WithEndpoint(EndpointOrderedMap)),
			oneSide:  ManyToOne("department", "Department", WithEndpoint(EndpointIndexedReference)),
			fragment: "indexed-reference endpoint requires a list opposite",
		},
		{
			name:     "collection endpoint on a to-one association",
			manySide: OneToMany("employees", "Employee", WithOpposite("department")),
			oneSide:  ManyToOne("department", "Department", WithEndpoint(EndpointList)),
			fragment: "many-to-one association with list endpoint",
		},
		{
			name:     "cardinality mismatch",
			manySide: OneToMany("employees", "Employee", WithOpposite("department")),
			oneSide:  OneToOne("department", "Department"),
			fragment: "one-to-many cannot face one-to-one",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry().Register(
				EntityDef{
					Name:       "Department",
					ID:         "id",
					Attributes: []AttributeDef{Scalar("id", TypeInt64), tt.manySide},
				},
				EntityDef{
					Name:       "Employee",
					ID:         "id",
					Attributes: []AttributeDef{Scalar("id", TypeInt64), tt.oneSide},
				},
			).Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.fragment)
		})
	}
}

func TestRegistry_OppositeMustPointBack(t *testing.T) {
	_, err := NewRegistry().Register(
		EntityDef{
			Name: "Department",
			ID:   "id",
			Attributes: []AttributeDef{
				Scalar("id", TypeInt64),
				OneToMany("employees", "Employee", WithOpposite("name")),
			},
		},
		EntityDef{
			Name:       "Employee",
			ID:         "id",
			Attributes: []AttributeDef{Scalar("id", TypeInt64), Scalar("name", TypeString)},
		},
	).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not point back")
}

func TestMetamodel_UnknownLookups(t *testing.T) {
	m := MustBuild(NewRegistry().Register(departmentDefs()...))

	_, err := m.Entity("Nobody")
	assert.True(t, errors.Is(err, ErrUnknownEntity))

	department, _ := m.Entity("Department")
	_, err = department.Attribute("nothing")
	assert.True(t, errors.Is(err, ErrUnknownProperty))
}

func TestMustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustBuild(NewRegistry().Register(EntityDef{Name: "Broken", ID: "id"}))
	})
}
