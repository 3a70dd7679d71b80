// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metacell

import (
	"testing"

	"github.com/pdiddy/pepagg/internal/adjacency"
	"github.com/pdiddy/pepagg/pkg/types"
)

func TestCombineRules(t *testing.T) {
	tests := []struct {
		name         string
		tags         []types.Tag
		want         types.Tag
		wantConflict bool
	}{
		{"empty multiset", nil, types.TagMissing, false},
		{"pure missing POV", []types.Tag{types.TagMissingPOV, types.TagMissingPOV}, types.TagMissing, false},
		{"pure missing MEC", []types.Tag{types.TagMissingMEC}, types.TagMissing, false},
		{"mixed missing leaves", []types.Tag{types.TagMissingPOV, types.TagMissingMEC}, types.TagMissing, false},
		{"uniform quant direct", []types.Tag{types.TagQuantDirect, types.TagQuantDirect, types.TagQuantDirect}, types.TagQuantDirect, false},
		{"uniform quant recovery", []types.Tag{types.TagQuantRecovery}, types.TagQuantRecovery, false},
		{"uniform generic quantified", []types.Tag{types.TagQuantified, types.TagQuantified}, types.TagQuantified, false},
		{"uniform imputed POV", []types.Tag{types.TagImputedPOV, types.TagImputedPOV}, types.TagImputedPOV, false},
		{"mixed quantified family", []types.Tag{types.TagQuantDirect, types.TagQuantRecovery}, types.TagQuantified, false},
		{"mixed imputed family", []types.Tag{types.TagImputedPOV, types.TagImputedMEC}, types.TagImputed, false},
		{"quantified with imputed", []types.Tag{types.TagQuantDirect, types.TagImputedPOV}, types.TagCombined, false},
		{"missing with quantified", []types.Tag{types.TagMissingPOV, types.TagQuantified}, types.TagMissing, true},
		{"missing with imputed", []types.Tag{types.TagMissingMEC, types.TagImputedPOV}, types.TagMissing, true},
		{"missing with both", []types.Tag{types.TagMissingPOV, types.TagQuantDirect, types.TagImputedMEC}, types.TagMissing, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conflict := Combine(tt.tags)
			if conflict != tt.wantConflict {
				t.Fatalf("Combine() conflict = %v, want %v", conflict, tt.wantConflict)
			}
			if !conflict && got != tt.want {
				t.Errorf("Combine() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Conflicts must not depend on multiset order.
func TestCombineOrderIndependence(t *testing.T) {
	perms := [][]types.Tag{
		{types.TagMissingPOV, types.TagQuantified, types.TagImputedPOV},
		{types.TagQuantified, types.TagImputedPOV, types.TagMissingPOV},
		{types.TagImputedPOV, types.TagMissingPOV, types.TagQuantified},
	}
	for i, p := range perms {
		if _, conflict := Combine(p); !conflict {
			t.Errorf("permutation %d: conflict not detected", i)
		}
	}
}

func buildAdjacency(t *testing.T, ids, memberships []string) *adjacency.Matrix {
	t.Helper()
	x, err := adjacency.Build(ids, memberships, false)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func TestCombineMatrix(t *testing.T) {
	x := buildAdjacency(t,
		[]string{"pep1", "pep2", "pep3"},
		[]string{"P1", "P2", "P1;P2"},
	)

	tags := types.NewTagMatrix([]string{"pep1", "pep2", "pep3"}, []string{"s1", "s2"})
	// s1: clean everywhere. s2: conflict in P2 (pep2 missing, pep3 quantified).
	tags.Tags[0][0] = types.TagQuantDirect
	tags.Tags[1][0] = types.TagQuantRecovery
	tags.Tags[2][0] = types.TagQuantDirect
	tags.Tags[0][1] = types.TagQuantDirect
	tags.Tags[1][1] = types.TagMissingPOV
	tags.Tags[2][1] = types.TagQuantDirect

	out, issues := CombineMatrix(tags, x)

	// P1/s1 mixes direct+direct via pep1 and pep3 → uniform leaf.
	if got := out.Tags[0][0]; got != types.TagQuantDirect {
		t.Errorf("P1/s1 = %v, want Quant. by direct id", got)
	}
	// P2/s1 mixes recovery+direct → generic Quantified.
	if got := out.Tags[1][0]; got != types.TagQuantified {
		t.Errorf("P2/s1 = %v, want Quantified", got)
	}

	if issues == nil {
		t.Fatal("expected issues for P2/s2")
	}
	peps, ok := issues["P2"]
	if !ok {
		t.Fatalf("issues = %v, want key P2", issues)
	}
	if len(peps) != 2 || peps[0] != "pep2" || peps[1] != "pep3" {
		t.Errorf("P2 contributing peptides = %v, want [pep2 pep3]", peps)
	}
	if _, ok := issues["P1"]; ok {
		t.Error("P1 should not be in issues")
	}
}

func TestCombineMatrixEmptyGroup(t *testing.T) {
	// uniqueOnly zeroes the shared row, leaving P2 with no members.
	x, err := adjacency.Build(
		[]string{"pep1", "pep2"},
		[]string{"P1", "P1;P2"},
		true,
	)
	if err != nil {
		t.Fatal(err)
	}

	tags := types.NewTagMatrix([]string{"pep1", "pep2"}, []string{"s1"})
	tags.Tags[0][0] = types.TagQuantDirect
	tags.Tags[1][0] = types.TagQuantDirect

	out, issues := CombineMatrix(tags, x)
	if issues != nil {
		t.Fatalf("unexpected issues: %v", issues)
	}
	gi := -1
	for i, g := range x.Groups() {
		if g == "P2" {
			gi = i
		}
	}
	if got := out.Tags[gi][0]; got != types.TagMissing {
		t.Errorf("empty group tag = %v, want Missing", got)
	}
}

func TestReclassify(t *testing.T) {
	// Condition A = {s1, s2, s3}, condition B = {s4}.
	conditions := map[string]string{"s1": "A", "s2": "A", "s3": "A", "s4": "B"}

	tm := types.NewTagMatrix([]string{"P1", "P2"}, []string{"s1", "s2", "s3", "s4"})
	// P1: missing in s1, quantified in s2/s3 → POV; B alone missing → MEC.
	tm.Tags[0][0] = types.TagMissing
	tm.Tags[0][1] = types.TagQuantified
	tm.Tags[0][2] = types.TagQuantified
	tm.Tags[0][3] = types.TagMissing
	// P2: generic imputed across all of A → each sees imputed neighbors → POV.
	tm.Tags[1][0] = types.TagImputed
	tm.Tags[1][1] = types.TagImputed
	tm.Tags[1][2] = types.TagImputed
	tm.Tags[1][3] = types.TagMissing

	Reclassify(tm, conditions)

	if got := tm.Tags[0][0]; got != types.TagMissingPOV {
		t.Errorf("P1/s1 = %v, want Missing POV", got)
	}
	if got := tm.Tags[0][3]; got != types.TagMissingMEC {
		t.Errorf("P1/s4 = %v, want Missing MEC", got)
	}
	for s := 0; s < 3; s++ {
		if got := tm.Tags[1][s]; got != types.TagImputedPOV {
			t.Errorf("P2/s%d = %v, want Imputed POV", s+1, got)
		}
	}
	if got := tm.Tags[1][3]; got != types.TagMissingMEC {
		t.Errorf("P2/s4 = %v, want Missing MEC", got)
	}
}

func TestReclassifyAllMissingCondition(t *testing.T) {
	conditions := map[string]string{"s1": "A", "s2": "A"}
	tm := types.NewTagMatrix([]string{"P1"}, []string{"s1", "s2"})
	tm.Tags[0][0] = types.TagMissing
	tm.Tags[0][1] = types.TagMissing

	Reclassify(tm, conditions)

	for s := 0; s < 2; s++ {
		if got := tm.Tags[0][s]; got != types.TagMissingMEC {
			t.Errorf("P1/s%d = %v, want Missing MEC", s+1, got)
		}
	}
}
