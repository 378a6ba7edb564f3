package testutils

import (
	m "github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

// HRDefs describes the company/department/employee model shared by the package tests.
func HRDefs() []m.EntityDef {
	return []m.EntityDef{
		{
			Name: "Company",
			ID:   "id",
			Attributes: []m.AttributeDef{
				m.Scalar("id", m.TypeInt64),
				m.Scalar("name", m.TypeString),
				m.OneToMany("departments", "Department", m.WithOpposite("company"), m.WithEndpoint(m.EndpointList)),
			},
		},
		{
			Name: "Department",
			ID:   "id",
			Attributes: []m.AttributeDef{
				m.Scalar("id", m.TypeInt64),
				m.Scalar("name", m.TypeString),
				m.Scalar("budget", m.TypeDecimal),
				m.Scalar("description", m.TypeString, m.Lazy()),
				m.Scalar("image", m.TypeBytes, m.Lazy()),
				m.ManyToOne("company", "Company", m.Optional()),
				m.OneToMany("employees", "Employee", m.WithOpposite("department")),
				m.OneToMany("offices", "Office", m.WithOpposite("department")),
			},
		},
		{
			Name: "Employee",
			ID:   "id",
			Attributes: []m.AttributeDef{
				m.Scalar("id", m.TypeInt64),
				m.Scalar("name", m.TypeString),
				m.Scalar("age", m.TypeInt32),
				m.Scalar("salary", m.TypeDecimal),
				m.Scalar("rating", m.TypeFloat64),
				m.Scalar("resume", m.TypeString, m.Lazy()),
				m.ManyToOne("department", "Department", m.Optional()),
				m.ManyToOne("supervisor", "Employee", m.Optional(), m.WithOpposite("subordinates")),
				m.OneToMany("subordinates", "Employee"),
				m.ManyToOne("badge", "Badge"),
				m.OneToMany("annualLeaves", "AnnualLeave", m.WithOpposite("employee")),
			},
		},
		{
			Name: "Badge",
			ID:   "id",
			Attributes: []m.AttributeDef{
				m.Scalar("id", m.TypeInt64),
				m.Scalar("code", m.TypeString),
			},
		},
		{
			Name: "AnnualLeave",
			ID:   "id",
			Attributes: []m.AttributeDef{
				m.Scalar("id", m.TypeInt64),
				m.Scalar("startTime", m.TypeTime),
				m.Scalar("endTime", m.TypeTime),
				m.ManyToOne("employee", "Employee"),
			},
		},
		{
			Name: "Office",
			ID:   "id",
			Attributes: []m.AttributeDef{
				m.Scalar("id", m.TypeInt64),
				m.Scalar("name", m.TypeString),
				m.ManyToOne("department", "Department", m.Optional()),
			},
		},
	}
}

func HRModel() *m.Metamodel {
	return m.MustBuild(m.NewRegistry().Register(HRDefs()...))
}
