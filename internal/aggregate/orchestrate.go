// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"fmt"
	"io"
	"math"

	"github.com/pdiddy/pepagg/internal/adjacency"
	"github.com/pdiddy/pepagg/internal/metacell"
	"github.com/pdiddy/pepagg/pkg/types"
)

// Input carries the validated matrices of one aggregation run. Intensities
// are linear scale; the tag matrix rows and the intensity rows must both
// align with the adjacency peptide rows.
type Input struct {
	Intensities *types.Matrix
	Tags        *types.TagMatrix
	Adjacency   *adjacency.Matrix

	// Conditions maps sample identifiers to biological condition labels,
	// used by the tag reclassification pass and, when enabled, by
	// per-condition aggregation.
	Conditions map[string]string
}

// Run performs one full aggregation: metacell tag combination (which gates
// the run on conflicts), intensity reduction with the configured strategy,
// peptide-count statistics, and dataset assembly. Progress lines go to w.
//
// Tag conflicts return a *ConflictError carrying the issue record and no
// dataset. Label disagreements return a *ShapeError before any
// computation.
func Run(in Input, cfg types.AggregationConfig, meta types.RunMeta, w io.Writer) (*types.ProteinDataset, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, &ShapeError{Detail: err}
	}

	q, t, x := in.Intensities, in.Tags, in.Adjacency

	fmt.Fprintf(w, "combining metacell tags for %d protein groups\n", x.NumGroups())
	tags, issues := metacell.CombineMatrix(t, x)
	if issues != nil {
		fmt.Fprintf(w, "aborting: tag conflicts in %d protein groups\n", len(issues))
		return nil, &ConflictError{Issues: issues}
	}
	metacell.Reclassify(tags, in.Conditions)

	fmt.Fprintf(w, "aggregating intensities (%s)\n", cfg.Method)
	res := aggregateIntensities(q, x, cfg, in.Conditions)
	if !res.Converged {
		fmt.Fprintf(w, "warning: iterative aggregation hit the %d-iteration cap before converging\n", cfg.MaxIterations)
	}

	counts := peptideCounts(q, x)
	finalize(res.Intensities)

	meta.Method = string(cfg.Method)
	if cfg.Method == types.MethodIterative {
		meta.InitMethod = string(cfg.InitMethod)
	}
	if cfg.Method == types.MethodTopN || cfg.TopN > 0 {
		meta.TopN = cfg.TopN
	}

	return &types.ProteinDataset{
		Intensities: res.Intensities,
		Tags:        tags,
		Counts:      counts,
		Meta:        meta,
		Converged:   res.Converged,
		Iterations:  res.Iterations,
	}, nil
}

func validateConfig(cfg types.AggregationConfig) error {
	switch cfg.Method {
	case types.MethodSum, types.MethodMean, types.MethodTopN, types.MethodIterative:
	default:
		return fmt.Errorf("invalid configuration: unknown method %q", cfg.Method)
	}
	if cfg.Method == types.MethodTopN && cfg.TopN <= 0 {
		return fmt.Errorf("invalid configuration: method topn requires top_n > 0")
	}
	if cfg.Method == types.MethodIterative {
		switch cfg.InitMethod {
		case types.MethodSum, types.MethodMean:
		default:
			return fmt.Errorf("invalid configuration: unknown init method %q", cfg.InitMethod)
		}
		if cfg.MaxIterations <= 0 {
			return fmt.Errorf("invalid configuration: max_iterations must be positive")
		}
	}
	if cfg.TopN < 0 {
		return fmt.Errorf("invalid configuration: top_n must not be negative")
	}
	return nil
}

func validateInput(in Input) error {
	if in.Intensities == nil || in.Tags == nil || in.Adjacency == nil {
		return fmt.Errorf("intensities, tags, and adjacency are all required")
	}
	if err := types.SameLabels("intensity rows vs adjacency peptides",
		in.Intensities.RowIDs, in.Adjacency.Peptides()); err != nil {
		return err
	}
	if err := types.SameLabels("tag rows vs adjacency peptides",
		in.Tags.RowIDs, in.Adjacency.Peptides()); err != nil {
		return err
	}
	if err := types.SameLabels("intensity samples vs tag samples",
		in.Intensities.ColIDs, in.Tags.ColIDs); err != nil {
		return err
	}
	for i, row := range in.Tags.Tags {
		for j, tag := range row {
			if !tag.Valid() || tag.Level() != types.LevelPeptide {
				return fmt.Errorf("tag %q at peptide %s sample %s is not valid peptide-level input",
					tag, in.Tags.RowIDs[i], in.Tags.ColIDs[j])
			}
		}
	}
	return nil
}

// aggregateIntensities dispatches to the configured strategy, fanning out
// over conditions when requested.
func aggregateIntensities(q *types.Matrix, x *adjacency.Matrix, cfg types.AggregationConfig, conditions map[string]string) IterResult {
	run := func(sub *types.Matrix) IterResult {
		switch cfg.Method {
		case types.MethodSum:
			return IterResult{Intensities: Sum(sub, x), Converged: true}
		case types.MethodMean:
			return IterResult{Intensities: Mean(sub, x), Converged: true}
		case types.MethodTopN:
			base := cfg.InitMethod
			if base != types.MethodSum {
				base = types.MethodMean
			}
			return IterResult{Intensities: TopN(sub, x, cfg.TopN, base), Converged: true}
		default:
			return Iterative(sub, x, cfg.InitMethod, cfg.TopN, cfg.MaxIterations)
		}
	}

	if cfg.ByCondition {
		return byCondition(q, x, conditions, run)
	}
	return run(q)
}

// peptideCounts derives the per-protein membership statistics: total,
// specific, and shared member peptides from the adjacency partition, plus
// per-sample "used" counts restricted to peptides observed in that sample.
func peptideCounts(q *types.Matrix, x *adjacency.Matrix) *types.PeptideCounts {
	shared, specific := adjacency.Split(x)

	c := &types.PeptideCounts{
		ProteinIDs:   x.Groups(),
		SampleIDs:    q.ColIDs,
		Total:        make([]int, x.NumGroups()),
		Specific:     make([]int, x.NumGroups()),
		Shared:       make([]int, x.NumGroups()),
		UsedTotal:    make([][]int, x.NumGroups()),
		UsedSpecific: make([][]int, x.NumGroups()),
		UsedShared:   make([][]int, x.NumGroups()),
	}

	for g := 0; g < x.NumGroups(); g++ {
		c.Total[g] = x.GroupSize(g)
		c.Specific[g] = specific.GroupSize(g)
		c.Shared[g] = shared.GroupSize(g)
		c.UsedTotal[g] = usedCounts(q, x, g)
		c.UsedSpecific[g] = usedCounts(q, specific, g)
		c.UsedShared[g] = usedCounts(q, shared, g)
	}
	return c
}

// usedCounts counts, per sample, the member peptides of group g with an
// observed intensity.
func usedCounts(q *types.Matrix, x *adjacency.Matrix, g int) []int {
	counts := make([]int, q.NCols())
	x.Members(g, func(pep int, _ float64) {
		for s, v := range q.Values[pep] {
			if !math.IsNaN(v) {
				counts[s]++
			}
		}
	})
	return counts
}

// finalize normalizes arithmetic edge cases in place: zero, NaN, and
// infinite protein intensities all become missing.
func finalize(m *types.Matrix) {
	for i := range m.Values {
		for j, v := range m.Values[i] {
			if v == 0 || math.IsInf(v, 0) {
				m.Values[i][j] = math.NaN()
			}
		}
	}
}
