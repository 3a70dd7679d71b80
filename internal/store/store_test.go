// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pepagg/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{Dir: t.TempDir(), MaxRuns: 10})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testDataset() *types.ProteinDataset {
	q := types.NewMatrix([]string{"P1", "P2"}, []string{"s1", "s2"})
	q.Values[0][0] = 15
	q.Values[0][1] = 5
	q.Values[1][0] = 25
	// P2/s2 intentionally missing.

	tm := types.NewTagMatrix([]string{"P1", "P2"}, []string{"s1", "s2"})
	tm.Tags[0][0] = types.TagQuantDirect
	tm.Tags[0][1] = types.TagQuantified
	tm.Tags[1][0] = types.TagCombined
	tm.Tags[1][1] = types.TagMissingMEC

	return &types.ProteinDataset{
		Intensities: q,
		Tags:        tm,
		Counts: &types.PeptideCounts{
			ProteinIDs:   []string{"P1", "P2"},
			SampleIDs:    []string{"s1", "s2"},
			Total:        []int{2, 1},
			Specific:     []int{1, 1},
			Shared:       []int{1, 0},
			UsedTotal:    [][]int{{2, 1}, {1, 0}},
			UsedSpecific: [][]int{{1, 1}, {1, 0}},
			UsedShared:   [][]int{{1, 0}, {0, 0}},
		},
		Meta:      types.RunMeta{Tool: "pepagg", Version: "test", Method: "mean"},
		Converged: true,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "run-1", testDataset()))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"P1", "P2"}, got.Intensities.RowIDs)
	assert.Equal(t, []string{"s1", "s2"}, got.Intensities.ColIDs)
	assert.Equal(t, 15.0, got.Intensities.Values[0][0])
	assert.True(t, math.IsNaN(got.Intensities.Values[1][1]), "missing cell must survive the round trip")

	assert.Equal(t, types.TagCombined, got.Tags.Tags[1][0])
	assert.Equal(t, []int{2, 1}, got.Counts.Total)
	assert.Equal(t, []int{2, 1}, got.Counts.UsedTotal[0])
	assert.Equal(t, "mean", got.Meta.Method)
	assert.True(t, got.Converged)
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSaveRunDuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRun(ctx, "run-1", testDataset()))
	require.Error(t, s.SaveRun(ctx, "run-1", testDataset()))
}

func TestConflictRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issues := types.Issues{"P9": {"pepA", "pepB"}}
	require.NoError(t, s.SaveConflicts(ctx, "run-bad", types.RunMeta{Tool: "pepagg", Method: "sum"}, issues))

	// A conflicted run cannot be read back as a dataset.
	_, err := s.GetRun(ctx, "run-bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts")

	got, err := s.GetIssues(ctx, "run-bad")
	require.NoError(t, err)
	assert.Equal(t, issues, got)
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "run-1", testDataset()))
	require.NoError(t, s.SaveConflicts(ctx, "run-2", types.RunMeta{Method: "sum"}, types.Issues{"P1": {"p"}}))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byID := map[string]RunSummary{}
	for _, r := range runs {
		byID[r.ID] = r
	}
	assert.Equal(t, StatusOK, byID["run-1"].Status)
	assert.Equal(t, 2, byID["run-1"].NProteins)
	assert.Equal(t, StatusConflicts, byID["run-2"].Status)
}
