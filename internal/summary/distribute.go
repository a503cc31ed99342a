package summary

import (
	"math"
	"sort"
)

// unknownIndex marks a result with no usable sequence index; such results are
// treated as "last" during distribution.
const unknownIndex = math.MaxInt

// sequenceIndex reads a result's ranking index from ref_id.ref_index.
func sequenceIndex(r Result) int {
	if r.RefID == nil {
		return unknownIndex
	}
	v, ok := r.RefID["ref_index"]
	if !ok {
		return unknownIndex
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return unknownIndex
}

// Distribute partitions a pooled result list among multiple queries. When the
// assistant pools results from several queries into one list, the switch
// points show up as larger jumps in the underlying ranking index than the
// jitter within one query's results, so the largest gaps are the most likely
// query boundaries. Every result lands in exactly one bucket and the bucket
// count always equals the query count.
//
// With no ranking indices at all the heuristic has nothing to work with, and
// the results are split evenly instead.
func Distribute(queries []string, results []Result) [][]Result {
	if len(queries) <= 1 {
		return [][]Result{results}
	}
	q := len(queries)

	var known []int
	for _, r := range results {
		if idx := sequenceIndex(r); idx != unknownIndex {
			known = append(known, idx)
		}
	}
	if len(known) == 0 {
		return evenSplit(q, results)
	}
	sort.Ints(known)

	// A gap's boundary is the midpoint between its two indices. Pick the
	// q-1 largest gaps; stable sort keeps the earlier boundary on ties.
	type gap struct {
		size     int
		boundary int
	}
	gaps := make([]gap, 0, len(known))
	for i := 0; i+1 < len(known); i++ {
		gaps = append(gaps, gap{
			size:     known[i+1] - known[i],
			boundary: (known[i] + known[i+1]) / 2,
		})
	}
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].size > gaps[j].size })

	cuts := q - 1
	if cuts > len(gaps) {
		cuts = len(gaps)
	}
	bounds := make([]int, 0, cuts)
	for _, g := range gaps[:cuts] {
		bounds = append(bounds, g.boundary)
	}
	sort.Ints(bounds)

	buckets := make([][]Result, q)
	for _, r := range results {
		idx := sequenceIndex(r)
		bucket := q - 1
		if idx != unknownIndex {
			bucket = 0
			for _, cut := range bounds {
				if idx > cut {
					bucket++
				}
			}
		}
		buckets[bucket] = append(buckets[bucket], r)
	}
	return buckets
}

// evenSplit assigns contiguous, near-equal chunks of the result list to each
// bucket in order.
func evenSplit(q int, results []Result) [][]Result {
	buckets := make([][]Result, q)
	if len(results) == 0 {
		return buckets
	}
	per := (len(results) + q - 1) / q
	for i, r := range results {
		bucket := i / per
		if bucket > q-1 {
			bucket = q - 1
		}
		buckets[bucket] = append(buckets[bucket], r)
	}
	return buckets
}
