// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate reduces peptide intensity matrices into protein-level
// estimates through an adjacency matrix. Four strategies are provided
// (sum, mean, top-n, iterative proportional redistribution) behind a
// single orchestrator that also combines metacell tags and peptide counts
// into the final protein dataset.
package aggregate

import (
	"math"
	"sort"

	"github.com/pdiddy/pepagg/internal/adjacency"
	"github.com/pdiddy/pepagg/pkg/types"
)

// Sum reduces Q through X by weighted column sums: each peptide contributes
// its full value to every group it is assigned to, scaled by the edge
// weight. Missing peptide entries contribute zero.
func Sum(q *types.Matrix, x *adjacency.Matrix) *types.Matrix {
	out := zeroMatrix(x.Groups(), q.ColIDs)
	for g := 0; g < x.NumGroups(); g++ {
		x.Members(g, func(pep int, w float64) {
			if w == 0 {
				return
			}
			for s, v := range q.Values[pep] {
				if !math.IsNaN(v) {
					out.Values[g][s] += w * v
				}
			}
		})
	}
	return out
}

// Mean reduces Q through X by the weighted column sum divided by the count
// of contributing entries: member peptides with a nonzero edge weight and
// an observed value. Cells with no contributing entry are missing.
func Mean(q *types.Matrix, x *adjacency.Matrix) *types.Matrix {
	out := zeroMatrix(x.Groups(), q.ColIDs)
	counts := make([][]int, x.NumGroups())
	for g := range counts {
		counts[g] = make([]int, q.NCols())
	}

	for g := 0; g < x.NumGroups(); g++ {
		x.Members(g, func(pep int, w float64) {
			if w == 0 {
				return
			}
			for s, v := range q.Values[pep] {
				if !math.IsNaN(v) {
					out.Values[g][s] += w * v
					counts[g][s]++
				}
			}
		})
	}

	for g := range out.Values {
		for s := range out.Values[g] {
			if counts[g][s] == 0 {
				out.Values[g][s] = math.NaN()
			} else {
				out.Values[g][s] /= float64(counts[g][s])
			}
		}
	}
	return out
}

// TopN keeps, per protein group, only the n member peptides with the
// highest row-wise median intensity and applies base (Sum or Mean) on the
// reduced adjacency. The median is computed once per peptide across all
// samples; ties keep the earlier matrix row.
func TopN(q *types.Matrix, x *adjacency.Matrix, n int, base types.AggregationMethod) *types.Matrix {
	pruned := x.Clone()
	pruneToTopN(pruned, rowMedians(q), n)
	if base == types.MethodSum {
		return Sum(q, pruned)
	}
	return Mean(q, pruned)
}

// pruneToTopN zeroes the edge weights of every peptide outside the top n
// of its group, ranked by median descending. Peptides with no observed
// value rank last.
func pruneToTopN(x *adjacency.Matrix, medians []float64, n int) {
	type ranked struct {
		pep int
		med float64
	}
	for g := 0; g < x.NumGroups(); g++ {
		if x.GroupSize(g) <= n {
			continue
		}
		members := make([]ranked, 0, x.GroupSize(g))
		x.Members(g, func(pep int, _ float64) {
			members = append(members, ranked{pep: pep, med: medians[pep]})
		})
		sort.SliceStable(members, func(i, j int) bool {
			mi, mj := members[i].med, members[j].med
			if math.IsNaN(mj) {
				return !math.IsNaN(mi)
			}
			if math.IsNaN(mi) {
				return false
			}
			return mi > mj
		})
		for _, r := range members[n:] {
			for slot, e := range x.Row(r.pep) {
				if e.Group == g {
					x.SetWeight(r.pep, slot, 0)
				}
			}
		}
	}
}

// rowMedians returns the median of each peptide row, ignoring missing
// entries. Rows with no observed value yield NaN.
func rowMedians(q *types.Matrix) []float64 {
	medians := make([]float64, q.NRows())
	buf := make([]float64, 0, q.NCols())
	for i, row := range q.Values {
		buf = buf[:0]
		for _, v := range row {
			if !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}
		if len(buf) == 0 {
			medians[i] = math.NaN()
			continue
		}
		sort.Float64s(buf)
		mid := len(buf) / 2
		if len(buf)%2 == 1 {
			medians[i] = buf[mid]
		} else {
			medians[i] = (buf[mid-1] + buf[mid]) / 2
		}
	}
	return medians
}

// rowMeans returns the mean of each protein row across samples, ignoring
// missing entries. Rows with no observed value yield 0, which drops them
// from redistribution weighting.
func rowMeans(m *types.Matrix) []float64 {
	means := make([]float64, m.NRows())
	for i, row := range m.Values {
		var sum float64
		var n int
		for _, v := range row {
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n > 0 {
			means[i] = sum / float64(n)
		}
	}
	return means
}

func zeroMatrix(rowIDs, colIDs []string) *types.Matrix {
	m := types.NewMatrix(rowIDs, colIDs)
	for i := range m.Values {
		for j := range m.Values[i] {
			m.Values[i][j] = 0
		}
	}
	return m
}
