// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adjacency

import (
	"reflect"
	"testing"
)

func TestBuildBasic(t *testing.T) {
	m, err := Build(
		[]string{"pep1", "pep2", "pep3"},
		[]string{"P1", "P2", "P1, P2"},
		false,
	)
	if err != nil {
		t.Fatal(err)
	}

	if got := m.NumPeptides(); got != 3 {
		t.Errorf("NumPeptides() = %d, want 3", got)
	}
	if got := m.NumGroups(); got != 2 {
		t.Errorf("NumGroups() = %d, want 2", got)
	}
	if got := m.Groups(); !reflect.DeepEqual(got, []string{"P1", "P2"}) {
		t.Errorf("Groups() = %v, want [P1 P2]", got)
	}

	wantDegrees := []int{1, 1, 2}
	for p, want := range wantDegrees {
		if got := m.Degree(p); got != want {
			t.Errorf("Degree(%d) = %d, want %d", p, got, want)
		}
	}
}

func TestBuildDelimitersAndWhitespace(t *testing.T) {
	tests := []struct {
		name       string
		membership string
		want       []string
	}{
		{"comma", "P1,P2", []string{"P1", "P2"}},
		{"semicolon", "P1;P2", []string{"P1", "P2"}},
		{"mixed with spaces", " P1 ; P2 , P3 ", []string{"P1", "P2", "P3"}},
		{"duplicate token collapses", "P1,P1", []string{"P1"}},
		{"trailing delimiter", "P1;", []string{"P1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Build([]string{"pep1"}, []string{tt.membership}, false)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, e := range m.Row(0) {
				got = append(got, m.GroupID(e.Group))
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("row groups = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildUniqueOnly(t *testing.T) {
	m, err := Build(
		[]string{"pep1", "pep2"},
		[]string{"P1", "P1;P2"},
		true,
	)
	if err != nil {
		t.Fatal(err)
	}

	if got := m.Degree(0); got != 1 {
		t.Errorf("specific peptide degree = %d, want 1", got)
	}
	// Shared row is zeroed entirely, not dropped.
	if got := m.Degree(1); got != 0 {
		t.Errorf("shared peptide degree = %d, want 0", got)
	}
	if got := m.NumPeptides(); got != 2 {
		t.Errorf("NumPeptides() = %d, want 2", got)
	}
	// Column labels still include groups first seen on the zeroed row.
	if got := m.NumGroups(); got != 2 {
		t.Errorf("NumGroups() = %d, want 2", got)
	}
}

func TestBuildDuplicatePeptide(t *testing.T) {
	_, err := Build([]string{"pep1", "pep1"}, []string{"P1", "P2"}, false)
	if err == nil {
		t.Fatal("expected error for duplicate peptide ID")
	}
}

func TestBuildLengthMismatch(t *testing.T) {
	_, err := Build([]string{"pep1"}, []string{"P1", "P2"}, false)
	if err == nil {
		t.Fatal("expected error for mismatched input lengths")
	}
}

func TestMembersTranspose(t *testing.T) {
	m, err := Build(
		[]string{"pep1", "pep2", "pep3"},
		[]string{"P1", "P2", "P1;P2"},
		false,
	)
	if err != nil {
		t.Fatal(err)
	}

	var members []string
	m.Members(m.groupIdx["P1"], func(pep int, weight float64) {
		members = append(members, m.PeptideID(pep))
		if weight != 1 {
			t.Errorf("initial weight = %f, want 1", weight)
		}
	})
	if !reflect.DeepEqual(members, []string{"pep1", "pep3"}) {
		t.Errorf("P1 members = %v, want [pep1 pep3]", members)
	}
}

func TestCloneIndependentWeights(t *testing.T) {
	m, err := Build([]string{"pep1"}, []string{"P1;P2"}, false)
	if err != nil {
		t.Fatal(err)
	}

	c := m.Clone()
	c.SetWeight(0, 0, 0.25)

	if got := m.Row(0)[0].Weight; got != 1 {
		t.Errorf("original weight changed to %f after clone mutation", got)
	}
	if got := c.Row(0)[0].Weight; got != 0.25 {
		t.Errorf("clone weight = %f, want 0.25", got)
	}
}
