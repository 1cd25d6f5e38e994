package permutations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSizes(t *testing.T) {
	table := NewTable(DefaultMaxSize)
	want := []int{0, 1, 2, 6, 24, 120, 720, 5040, 40320}
	for n := 1; n <= DefaultMaxSize; n++ {
		assert.Len(t, table.ForSize(n), want[n], "size %d", n)
	}
	assert.Equal(t, DefaultMaxSize, table.MaxSize())
}

func TestTableIsLexicographicAndUnique(t *testing.T) {
	table := NewTable(5)
	perms := table.ForSize(5)
	require.NotEmpty(t, perms)
	assert.Equal(t, []uint8{0, 1, 2, 3, 4}, perms[0])
	assert.Equal(t, []uint8{4, 3, 2, 1, 0}, perms[len(perms)-1])

	seen := make(map[string]bool, len(perms))
	for _, p := range perms {
		key := string(p)
		assert.False(t, seen[key], "duplicate permutation %v", p)
		seen[key] = true
	}
}

func TestTableOutOfRangePanics(t *testing.T) {
	table := NewTable(3)
	assert.Panics(t, func() { table.ForSize(0) })
	assert.Panics(t, func() { table.ForSize(4) })
	assert.Panics(t, func() { NewTable(0) })
}
