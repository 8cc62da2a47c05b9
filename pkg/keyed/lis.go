package keyed

import "sort"

// LIS returns the indices into seq of a longest strictly increasing
// subsequence. Negative entries are treated as holes and never chosen.
//
// Ties are broken the patience-sorting way: each pile keeps the index that most
// recently lowered its top, and the result is rebuilt backwards from the top of
// the last pile. For a fixed input the choice is deterministic.
func LIS(seq []int) []int {
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		prev[i] = -1
		if v < 0 {
			continue
		}
		j := sort.Search(len(tails), func(k int) bool {
			return seq[tails[k]] >= v
		})
		if j > 0 {
			prev[i] = tails[j-1]
		}
		if j == len(tails) {
			tails = append(tails, i)
		} else {
			tails[j] = i
		}
	}

	out := make([]int, len(tails))
	if len(tails) == 0 {
		return out
	}
	i := tails[len(tails)-1]
	for k := len(tails) - 1; k >= 0; k-- {
		out[k] = i
		i = prev[i]
	}
	return out
}
