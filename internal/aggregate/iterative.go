// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"math"

	"github.com/pdiddy/pepagg/internal/adjacency"
	"github.com/pdiddy/pepagg/pkg/types"
)

// convergenceTol is the stopping threshold on the mean absolute change of
// protein row-means between successive iterations.
const convergenceTol = 1e-10

// IterResult holds the outcome of the iterative aggregator.
type IterResult struct {
	Intensities *types.Matrix
	Iterations  int
	Converged   bool
}

// Iterative runs proportional redistribution of shared peptides: starting
// from an initial estimate (Sum or Mean on the raw adjacency), each round
// reweights every shared peptide's edges by the current row-mean abundance
// of its candidate proteins, renormalized per peptide, then recomputes the
// protein estimate with Mean on the reweighted adjacency. Peptides drift
// toward whichever candidate currently looks more abundant, sharpening the
// assignment until the estimate moves less than the convergence tolerance.
//
// topN > 0 additionally restricts each group to its top-n peptides by
// median, fixed across rounds since the ranking depends only on Q.
// maxIter caps the loop; running out of iterations returns the best
// available estimate with Converged false.
func Iterative(q *types.Matrix, x *adjacency.Matrix, initMethod types.AggregationMethod, topN, maxIter int) IterResult {
	w := x.Clone()
	if topN > 0 {
		pruneToTopN(w, rowMedians(q), topN)
	}

	// The top-n pruning must survive reweighting rounds: remember which
	// edges are live now and never resurrect the rest.
	live := make([][]bool, w.NumPeptides())
	for p := range live {
		row := w.Row(p)
		live[p] = make([]bool, len(row))
		for slot, e := range row {
			live[p][slot] = e.Weight != 0
		}
	}

	var y *types.Matrix
	if initMethod == types.MethodSum {
		y = Sum(q, w)
	} else {
		y = Mean(q, w)
	}
	prev := rowMeans(y)

	for iter := 1; iter <= maxIter; iter++ {
		redistribute(w, live, prev)
		y = Mean(q, w)
		cur := rowMeans(y)

		if meanAbsDelta(prev, cur) < convergenceTol {
			return IterResult{Intensities: y, Iterations: iter, Converged: true}
		}
		prev = cur
	}
	return IterResult{Intensities: y, Iterations: maxIter, Converged: false}
}

// redistribute reweights every shared peptide's live edges proportionally
// to the current protein row-means, renormalized to sum to 1 per peptide.
// A peptide whose candidates all have zero abundance keeps zero weights.
// Specific peptides always contribute with weight 1.
func redistribute(w *adjacency.Matrix, live [][]bool, groupMeans []float64) {
	for p := 0; p < w.NumPeptides(); p++ {
		row := w.Row(p)
		if len(row) <= 1 {
			continue
		}

		var total float64
		for slot, e := range row {
			if live[p][slot] {
				total += groupMeans[e.Group]
			}
		}
		for slot, e := range row {
			switch {
			case !live[p][slot]:
				w.SetWeight(p, slot, 0)
			case total > 0:
				w.SetWeight(p, slot, groupMeans[e.Group]/total)
			default:
				w.SetWeight(p, slot, 0)
			}
		}
	}
}

// meanAbsDelta returns the mean absolute difference of two equal-length
// vectors.
func meanAbsDelta(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a))
}
