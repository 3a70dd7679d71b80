// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"time"
)

// Issues records tag conflicts found during aggregation: for each protein
// group whose peptides carried mutually incompatible tags, the identifiers
// of the contributing peptides. A non-empty Issues invalidates the whole
// aggregation run.
type Issues map[string][]string

// ProteinIDs returns the conflicting protein-group identifiers, sorted.
func (is Issues) ProteinIDs() []string {
	ids := make([]string, 0, len(is))
	for id := range is {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PeptideCounts holds the per-protein peptide membership statistics of one
// aggregation run. The Total/Specific/Shared slices are indexed like the
// protein rows of the dataset; the Used* matrices additionally split the
// counts per sample, restricted to peptides with an observed (non-missing)
// value in that sample.
type PeptideCounts struct {
	ProteinIDs []string
	SampleIDs  []string

	Total    []int
	Specific []int
	Shared   []int

	// UsedTotal[g][s] counts member peptides of protein g observed in
	// sample s; UsedSpecific and UsedShared restrict to the corresponding
	// partition.
	UsedTotal    [][]int
	UsedSpecific [][]int
	UsedShared   [][]int
}

// RunMeta identifies the tool build and configuration that produced a
// dataset. The orchestrator attaches it verbatim; it is injected by the
// caller rather than read from global state.
type RunMeta struct {
	Tool       string    `json:"tool" yaml:"tool"`
	Version    string    `json:"version" yaml:"version"`
	Method     string    `json:"method" yaml:"method"`
	InitMethod string    `json:"init_method,omitempty" yaml:"init_method,omitempty"`
	TopN       int       `json:"top_n,omitempty" yaml:"top_n,omitempty"`
	Date       time.Time `json:"date" yaml:"date"`
}

// ProteinDataset is the result of one successful aggregation run: protein
// intensities, protein metacell tags, peptide membership statistics, and
// run metadata. It is created once and owned exclusively by the caller.
type ProteinDataset struct {
	Intensities *Matrix
	Tags        *TagMatrix
	Counts      *PeptideCounts
	Meta        RunMeta

	// Converged is false when the iterative aggregator hit its iteration
	// cap before reaching the convergence tolerance. The intensities are
	// the best available approximation in that case.
	Converged bool

	// Iterations is the number of iterations the iterative aggregator ran,
	// zero for the single-pass methods.
	Iterations int
}
