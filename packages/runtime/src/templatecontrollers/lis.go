package templatecontrollers

import "au-go/packages/runtime/src/observation"

// LongestIncreasingSubsequence returns the positions of a longest strictly
// increasing subsequence of indices, skipping observation.IndexInserted
// entries. Positions are returned in ascending order.
func LongestIncreasingSubsequence(indices []int) []int {
	// tails[k] is the position ending the best subsequence of length k+1
	tails := make([]int, 0, len(indices))
	prev := make([]int, len(indices))
	for i, v := range indices {
		prev[i] = -1
		if v == observation.IndexInserted {
			continue
		}
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := int(uint(lo+hi) >> 1)
			if indices[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[i] = tails[lo-1]
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}
	seq := make([]int, len(tails))
	if len(tails) == 0 {
		return seq
	}
	for k, i := len(tails)-1, tails[len(tails)-1]; k >= 0; k, i = k-1, prev[i] {
		seq[k] = i
	}
	return seq
}
