package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
)

const (
	hrModel        = "testdata/hr.yaml"
	defaultsConfig = "testdata/defaults.yaml"
	customConfig   = "testdata/asceticorm.yaml"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompile(t *testing.T) {
	out, err := execute(t, "compile", "--config", defaultsConfig,
		"this.department..company; pre order by this.department.name desc")
	require.NoError(t, err)
	assert.Equal(t, "this.department..company\npre order by this.department.name desc\n", out)
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := execute(t, "compile", "--config", defaultsConfig, "that.a")
	assert.ErrorIs(t, err, querypath.ErrSyntax)
}

func TestPlan(t *testing.T) {
	out, err := execute(t, "plan", "--config", defaultsConfig, "--model", hrModel, "--entity", "Department",
		"this.description; this.employees.resume")
	require.NoError(t, err)
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "plan_department", []byte(out))
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  error
	}{
		{
			"unknown entity",
			[]string{"--model", hrModel, "--entity", "Nobody", "this.name"},
			metamodel.ErrUnknownEntity,
		},
		{
			"illegal path",
			[]string{"--model", hrModel, "--entity", "Employee", "this.nothing"},
			querypath.ErrIllegalPath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"plan", "--config", defaultsConfig}, tt.args...)
			_, err := execute(t, args...)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPlanRequiresModel(t *testing.T) {
	_, err := execute(t, "plan", "--config", defaultsConfig, "--entity", "Employee", "this.department")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			"without paths",
			[]string{"--config", defaultsConfig, "--entity", "Badge"},
			"select badge_0 from Badge badge_0\n",
		},
		{
			"with fetch paths",
			[]string{"--config", defaultsConfig, "--entity", "Department", "--paths", "this.employees"},
			"select department_0 from Department department_0 left join fetch department_0.employees department_1\n",
		},
		{
			"with configured alias prefix",
			[]string{"--config", customConfig, "--entity", "Employee", "--paths", "this.department"},
			"select x_0 from Employee x_0 left join fetch x_0.department x_1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "--model", hrModel}, tt.args...)
			out, err := execute(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestConfigShow(t *testing.T) {
	out, err := execute(t, "config", "show", "--source", "--config", customConfig)
	require.NoError(t, err)
	assert.Contains(t, out, "Config file: "+customConfig+"\n\n")
	assert.Contains(t, out, "strict_schema: true")
	assert.Contains(t, out, "alias_prefix: x")
	assert.Contains(t, out, "literal_prefix: p")
	assert.Contains(t, out, "cache_size: 512")
}

func TestConfigShowMissingFile(t *testing.T) {
	_, err := execute(t, "config", "show", "--config", "testdata/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestVersionSkipsConfiguration(t *testing.T) {
	out, err := execute(t, "version", "--config", "testdata/missing.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "querypath ")
}
