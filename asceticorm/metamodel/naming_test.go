package metamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaming(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) string
		input string
		want  string
	}{
		{"table of simple entity", TableName, "Department", "departments"},
		{"table of compound entity", TableName, "AnnualLeave", "annual_leaves"},
		{"table with y plural", TableName, "Company", "companies"},
		{"column", ColumnName, "startTime", "start_time"},
		{"column with acronym", ColumnName, "homeURL", "home_url"},
		{"snake of acronym prefix", SnakeCase, "HTTPServer", "http_server"},
		{"lower camel", LowerCamel, "Department", "department"},
		{"lower camel compound", LowerCamel, "AnnualLeave", "annualLeave"},
		{"lower camel plural", LowerCamel, "Employees", "employee"},
		{"lower camel acronym", LowerCamel, "HTTPServer", "httpServer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.input))
		})
	}
}
