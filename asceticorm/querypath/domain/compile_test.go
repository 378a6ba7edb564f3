package querypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilerCachesResults(t *testing.T) {
	c := NewCompiler(2)

	first, err := c.Compile("this.employees")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	first[0] = OrderPath{}
	second, err := c.Compile("this.employees")
	require.NoError(t, err)
	assert.Equal(t, "this.employees", second[0].String(), "callers get their own copy")
	assert.Equal(t, 1, c.Len())

	_, err = c.Compile("this.department")
	require.NoError(t, err)
	_, err = c.Compile("this.badge")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	c.SetCacheSize(1)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCompilerDoesNotCacheErrors(t *testing.T) {
	c := NewCompiler(4)
	_, err := c.Compile("this.")
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Equal(t, 0, c.Len())
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() {
		MustCompile("order by")
	})
	assert.NotPanics(t, func() {
		SetCacheSize(DefaultCacheSize)
		MustCompile("this.employees")
	})
}
