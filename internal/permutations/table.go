// Package permutations precomputes index permutations for the route search.
package permutations

import "fmt"

// DefaultMaxSize bounds exhaustive route search: 8! = 40320 orderings.
const DefaultMaxSize = 8

// Table holds every permutation of 0..n-1 for n in 1..MaxSize. It is read-only
// after construction and safe to share.
type Table struct {
	bySize [][][]uint8
}

func NewTable(maxSize int) *Table {
	if maxSize < 1 || maxSize > 12 {
		panic(fmt.Sprintf("permutations: unsupported table size %d", maxSize))
	}
	t := &Table{bySize: make([][][]uint8, maxSize+1)}
	for n := 1; n <= maxSize; n++ {
		t.bySize[n] = generate(n)
	}
	return t
}

func (t *Table) MaxSize() int { return len(t.bySize) - 1 }

// ForSize returns the permutations of n indexes in lexicographic order. The
// result must not be modified.
func (t *Table) ForSize(n int) [][]uint8 {
	if n < 1 || n >= len(t.bySize) {
		panic(fmt.Sprintf("permutations: size %d outside 1..%d", n, t.MaxSize()))
	}
	return t.bySize[n]
}

func generate(n int) [][]uint8 {
	total := 1
	for i := 2; i <= n; i++ {
		total *= i
	}
	out := make([][]uint8, 0, total)
	cur := make([]uint8, n)
	for i := range cur {
		cur[i] = uint8(i)
	}
	for {
		out = append(out, append([]uint8(nil), cur...))
		if !next(cur) {
			return out
		}
	}
}

// next advances p to the following lexicographic permutation.
func next(p []uint8) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	for l, r := i+1, len(p)-1; l < r; l, r = l+1, r-1 {
		p[l], p[r] = p[r], p[l]
	}
	return true
}
