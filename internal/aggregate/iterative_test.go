// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"math"
	"testing"

	"github.com/pdiddy/pepagg/pkg/types"
)

// Two proteins, one specific peptide each, three shared peptides. P1 is
// uniformly more abundant, so redistribution must shift shared weight
// toward it every round until convergence.
func TestIterativeWeightMonotonicity(t *testing.T) {
	x := buildX(t,
		[]string{"spec1", "spec2", "sh1", "sh2", "sh3"},
		[]string{"P1", "P2", "P1;P2", "P1;P2", "P1;P2"},
	)
	q := matrixFrom(
		[]string{"spec1", "spec2", "sh1", "sh2", "sh3"},
		[]string{"s1", "s2"},
		[][]float64{
			{100, 100},
			{10, 10},
			{50, 50},
			{50, 50},
			{50, 50},
		},
	)

	w := x.Clone()
	live := [][]bool{{true}, {true}, {true, true}, {true, true}, {true, true}}

	y := Mean(q, w)
	prev := -1.0
	for round := 0; round < 10; round++ {
		redistribute(w, live, rowMeans(y))

		// Weight of the first shared peptide's edge to P1.
		share := w.Row(2)[0].Weight
		if share <= prev {
			t.Fatalf("round %d: P1 weight share %v did not increase from %v", round, share, prev)
		}
		prev = share

		y = Mean(q, w)
	}

	if prev <= 0.85 || prev >= 1 {
		t.Errorf("after 10 rounds P1 share = %v, want in (0.85, 1)", prev)
	}
}

func TestIterativeConverges(t *testing.T) {
	x := buildX(t,
		[]string{"spec1", "spec2", "sh1", "sh2", "sh3"},
		[]string{"P1", "P2", "P1;P2", "P1;P2", "P1;P2"},
	)
	q := matrixFrom(
		[]string{"spec1", "spec2", "sh1", "sh2", "sh3"},
		[]string{"s1", "s2"},
		[][]float64{
			{100, 100},
			{10, 10},
			{50, 50},
			{50, 50},
			{50, 50},
		},
	)

	res := Iterative(q, x, types.MethodMean, 0, 100)
	if !res.Converged {
		t.Fatalf("did not converge within 100 iterations (ran %d)", res.Iterations)
	}
	if res.Iterations == 0 {
		t.Error("Iterations = 0, want at least one round")
	}

	// At the fixed point the shared weight settles near 100/110, so P1's
	// estimate approaches (100 + 150·w)/4 per sample.
	w := 100.0 / 110.0
	wantP1 := (100 + 150*w) / 4
	if math.Abs(res.Intensities.Values[0][0]-wantP1) > 1e-6 {
		t.Errorf("P1 estimate = %v, want ≈ %v", res.Intensities.Values[0][0], wantP1)
	}
}

func TestIterativeHitsCap(t *testing.T) {
	x := buildX(t,
		[]string{"spec1", "spec2", "sh1"},
		[]string{"P1", "P2", "P1;P2"},
	)
	q := matrixFrom(
		[]string{"spec1", "spec2", "sh1"},
		[]string{"s1"},
		[][]float64{{100}, {10}, {50}},
	)

	res := Iterative(q, x, types.MethodMean, 0, 1)
	if res.Converged {
		t.Fatal("one-iteration cap should not converge on this input")
	}
	if res.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", res.Iterations)
	}
	if res.Intensities == nil {
		t.Fatal("best-effort intensities missing on non-convergence")
	}
}

func TestIterativeSumInit(t *testing.T) {
	x := buildX(t,
		[]string{"spec1", "sh1"},
		[]string{"P1", "P1;P2"},
	)
	q := matrixFrom(
		[]string{"spec1", "sh1"},
		[]string{"s1"},
		[][]float64{{100}, {50}},
	)

	res := Iterative(q, x, types.MethodSum, 0, 100)
	if !res.Converged {
		t.Fatalf("did not converge (ran %d iterations)", res.Iterations)
	}
	// P2 has no specific evidence: all shared weight drifts to P1 and the
	// P2 estimate loses its only contributor.
	if got := res.Intensities.Values[0][0]; got < 74.9 || got > 75.1 {
		t.Errorf("P1 estimate = %v, want ≈ 75", got)
	}
}

func TestMeanAbsDelta(t *testing.T) {
	if got := meanAbsDelta(nil, nil); got != 0 {
		t.Errorf("meanAbsDelta(nil, nil) = %v, want 0", got)
	}
	if got := meanAbsDelta([]float64{1, 2}, []float64{2, 4}); got != 1.5 {
		t.Errorf("meanAbsDelta = %v, want 1.5", got)
	}
}
