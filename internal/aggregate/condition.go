// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"sync"

	"github.com/pdiddy/pepagg/internal/adjacency"
	"github.com/pdiddy/pepagg/pkg/types"
)

// conditionSlice is one biological condition's sample columns, in original
// matrix column order.
type conditionSlice struct {
	label string
	cols  []int
}

// conditionSlices buckets sample columns by condition label, preserving
// column order inside each bucket and first-encounter order across
// buckets. Samples absent from the mapping form singleton conditions.
func conditionSlices(sampleIDs []string, conditions map[string]string) []conditionSlice {
	var slices []conditionSlice
	index := make(map[string]int)
	for s, id := range sampleIDs {
		cond, ok := conditions[id]
		if !ok {
			cond = id
		}
		i, seen := index[cond]
		if !seen {
			i = len(slices)
			index[cond] = i
			slices = append(slices, conditionSlice{label: cond})
		}
		slices[i].cols = append(slices[i].cols, s)
	}
	return slices
}

// byCondition runs aggregate over each condition's column slice on its own
// worker and re-merges the partial results into a full matrix by column
// label, so scheduling order never affects the output. The partial result
// for the iterative method carries per-condition convergence; the merged
// result converged only if every condition did.
func byCondition(q *types.Matrix, x *adjacency.Matrix, conditions map[string]string,
	aggregate func(sub *types.Matrix) IterResult) IterResult {

	slices := conditionSlices(q.ColIDs, conditions)

	partials := make([]IterResult, len(slices))
	var wg sync.WaitGroup
	for i, cs := range slices {
		wg.Add(1)
		go func(i int, cs conditionSlice) {
			defer wg.Done()
			partials[i] = aggregate(q.ColSlice(cs.cols))
		}(i, cs)
	}
	wg.Wait()

	merged := types.NewMatrix(x.Groups(), q.ColIDs)
	out := IterResult{Intensities: merged, Converged: true}
	for i, cs := range slices {
		part := partials[i]
		for k, s := range cs.cols {
			for g := range merged.Values {
				merged.Values[g][s] = part.Intensities.Values[g][k]
			}
		}
		if !part.Converged {
			out.Converged = false
		}
		if part.Iterations > out.Iterations {
			out.Iterations = part.Iterations
		}
	}
	return out
}
