// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metacell combines peptide-level metacell tags into protein-level
// tags. The combination is a deterministic rule engine over the closed tag
// vocabulary: mixing missing values with observed or imputed ones is a hard
// conflict that invalidates the run.
package metacell

import (
	"github.com/pdiddy/pepagg/internal/adjacency"
	"github.com/pdiddy/pepagg/pkg/types"
)

// Combine reduces the multiset of peptide tags feeding one protein/sample
// cell to a single protein tag. It is order-independent.
//
// Rules, in precedence order:
//   - a Missing-family tag together with any Quantified- or Imputed-family
//     tag is a conflict: conflict is returned true and the tag value is
//     unspecified;
//   - tags drawn only from the Missing family combine to Missing;
//   - a single repeated tag combines to itself;
//   - distinct tags all from the Quantified family combine to Quantified;
//   - distinct tags all from the Imputed family combine to Imputed;
//   - a mix of Quantified- and Imputed-family tags combines to Combined;
//   - an empty multiset combines to Missing.
func Combine(tags []types.Tag) (combined types.Tag, conflict bool) {
	if len(tags) == 0 {
		return types.TagMissing, false
	}

	var hasMissing, hasQuant, hasImputed bool
	first := tags[0]
	uniform := true
	for _, t := range tags {
		switch t.Family() {
		case types.FamilyMissing:
			hasMissing = true
		case types.FamilyQuantified:
			hasQuant = true
		case types.FamilyImputed:
			hasImputed = true
		}
		if t != first {
			uniform = false
		}
	}

	if hasMissing && (hasQuant || hasImputed) {
		return types.TagMissing, true
	}
	if hasMissing {
		return types.TagMissing, false
	}
	if uniform {
		return first, false
	}
	switch {
	case hasQuant && hasImputed:
		return types.TagCombined, false
	case hasQuant:
		return types.TagQuantified, false
	default:
		return types.TagImputed, false
	}
}

// CombineMatrix runs Combine over every (protein, sample) cell: the input
// multiset for cell (g, s) is the column s of the peptide tag matrix
// restricted to peptides assigned to group g. Conflicting cells are
// collected into the returned Issues, keyed by protein-group identifier
// with the contributing peptide identifiers as values; their tag cells are
// left at Missing.
//
// The tag matrix rows must be aligned with the adjacency peptide rows;
// callers validate that before this pass.
func CombineMatrix(t *types.TagMatrix, x *adjacency.Matrix) (*types.TagMatrix, types.Issues) {
	out := types.NewTagMatrix(x.Groups(), t.ColIDs)
	issues := make(types.Issues)

	peps := make([]int, 0, 16)
	tags := make([]types.Tag, 0, 16)

	for g := 0; g < x.NumGroups(); g++ {
		peps = peps[:0]
		x.Members(g, func(pep int, _ float64) {
			peps = append(peps, pep)
		})

		for s := 0; s < t.NCols(); s++ {
			tags = tags[:0]
			for _, p := range peps {
				tags = append(tags, t.Tags[p][s])
			}

			combined, conflict := Combine(tags)
			if conflict {
				gid := x.GroupID(g)
				if _, seen := issues[gid]; !seen {
					ids := make([]string, len(peps))
					for i, p := range peps {
						ids[i] = x.PeptideID(p)
					}
					issues[gid] = ids
				}
				continue
			}
			out.Tags[g][s] = combined
		}
	}

	if len(issues) == 0 {
		issues = nil
	}
	return out, issues
}
