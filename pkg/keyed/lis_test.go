package keyed_test

import (
	"math/rand"
	"testing"

	"github.com/delaneyj/rowsignal/pkg/keyed"
	"github.com/stretchr/testify/assert"
)

func TestLIS(t *testing.T) {
	cases := []struct {
		name string
		seq  []int
		want []int
	}{
		{"empty", nil, []int{}},
		{"sorted", []int{0, 1, 2}, []int{0, 1, 2}},
		{"rotated", []int{2, 0, 1}, []int{1, 2}},
		{"reversed", []int{3, 2, 1}, []int{2}},
		{"holes", []int{-1, 3, -1, 1, 2}, []int{3, 4}},
		{"only holes", []int{-1, -1}, []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, keyed.LIS(tc.seq))
		})
	}
}

func TestLISMatchesQuadraticLength(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		seq := r.Perm(1 + r.Intn(30))
		for i := range seq {
			if r.Intn(5) == 0 {
				seq[i] = -1
			}
		}

		got := keyed.LIS(seq)
		assert.Equal(t, lisLen(seq), len(got), "seq %v", seq)
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i-1], got[i])
			assert.Less(t, seq[got[i-1]], seq[got[i]])
		}
	}
}

func lisLen(seq []int) int {
	best := make([]int, len(seq))
	longest := 0
	for i, v := range seq {
		if v < 0 {
			continue
		}
		best[i] = 1
		for j := 0; j < i; j++ {
			if seq[j] >= 0 && seq[j] < v && best[j]+1 > best[i] {
				best[i] = best[j] + 1
			}
		}
		if best[i] > longest {
			longest = best[i]
		}
	}
	return longest
}
