// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metacell

import "github.com/pdiddy/pepagg/pkg/types"

// Reclassify refines generic Missing and Imputed protein tags into their
// POV/MEC leaves, in place, using the other replicates of the same
// biological condition: POV when at least one other replicate of the
// condition holds an observed or imputed value, MEC when none does. This
// is the only step of the tag engine that looks across samples rather than
// across peptides.
//
// conditions maps sample identifier to condition label; samples missing
// from the map form single-sample conditions of their own, which makes
// every generic tag there MEC.
func Reclassify(t *types.TagMatrix, conditions map[string]string) {
	groups := groupSamplesByCondition(t.ColIDs, conditions)

	for g := range t.Tags {
		for _, samples := range groups {
			for _, s := range samples {
				var pov, mec types.Tag
				switch t.Tags[g][s] {
				case types.TagMissing:
					pov, mec = types.TagMissingPOV, types.TagMissingMEC
				case types.TagImputed:
					pov, mec = types.TagImputedPOV, types.TagImputedMEC
				default:
					continue
				}

				if observedElsewhere(t.Tags[g], samples, s) {
					t.Tags[g][s] = pov
				} else {
					t.Tags[g][s] = mec
				}
			}
		}
	}
}

// observedElsewhere reports whether any replicate of the condition other
// than s carries an observed (quantified or imputed) value.
func observedElsewhere(row []types.Tag, samples []int, s int) bool {
	for _, other := range samples {
		if other == s {
			continue
		}
		switch row[other].Family() {
		case types.FamilyQuantified, types.FamilyImputed, types.FamilyCombined:
			return true
		}
	}
	return false
}

// groupSamplesByCondition buckets column indices by condition label,
// preserving column order inside each bucket. Unmapped samples get their
// own singleton bucket.
func groupSamplesByCondition(sampleIDs []string, conditions map[string]string) [][]int {
	var order []string
	buckets := make(map[string][]int)
	for s, id := range sampleIDs {
		cond, ok := conditions[id]
		if !ok {
			cond = id
		}
		if _, seen := buckets[cond]; !seen {
			order = append(order, cond)
		}
		buckets[cond] = append(buckets[cond], s)
	}

	groups := make([][]int, len(order))
	for i, cond := range order {
		groups[i] = buckets[cond]
	}
	return groups
}
