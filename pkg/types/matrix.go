// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
)

// Matrix is a dense, label-indexed matrix of quantitative values. Missing
// entries are NaN. Row and column label order is significant and preserved
// through every operation in the engine.
type Matrix struct {
	RowIDs []string
	ColIDs []string

	// Values is row-major: Values[i][j] is the value for RowIDs[i],
	// ColIDs[j].
	Values [][]float64

	rowIdx map[string]int
	colIdx map[string]int
}

// NewMatrix allocates a matrix with every cell missing (NaN).
func NewMatrix(rowIDs, colIDs []string) *Matrix {
	m := &Matrix{
		RowIDs: append([]string(nil), rowIDs...),
		ColIDs: append([]string(nil), colIDs...),
		Values: make([][]float64, len(rowIDs)),
	}
	for i := range m.Values {
		row := make([]float64, len(colIDs))
		for j := range row {
			row[j] = math.NaN()
		}
		m.Values[i] = row
	}
	return m
}

// NRows returns the number of rows.
func (m *Matrix) NRows() int { return len(m.RowIDs) }

// NCols returns the number of columns.
func (m *Matrix) NCols() int { return len(m.ColIDs) }

// RowIndex returns the index of the row with the given label, or -1.
func (m *Matrix) RowIndex(id string) int {
	if m.rowIdx == nil {
		m.rowIdx = indexLabels(m.RowIDs)
	}
	if i, ok := m.rowIdx[id]; ok {
		return i
	}
	return -1
}

// ColIndex returns the index of the column with the given label, or -1.
func (m *Matrix) ColIndex(id string) int {
	if m.colIdx == nil {
		m.colIdx = indexLabels(m.ColIDs)
	}
	if j, ok := m.colIdx[id]; ok {
		return j
	}
	return -1
}

// IsMissing reports whether the cell at (i, j) is missing.
func (m *Matrix) IsMissing(i, j int) bool {
	return math.IsNaN(m.Values[i][j])
}

// ColSlice returns a new matrix restricted to the given column indices, in
// the given order. Row labels are shared, values are copied.
func (m *Matrix) ColSlice(cols []int) *Matrix {
	colIDs := make([]string, len(cols))
	for k, j := range cols {
		colIDs[k] = m.ColIDs[j]
	}
	out := &Matrix{
		RowIDs: m.RowIDs,
		ColIDs: colIDs,
		Values: make([][]float64, len(m.RowIDs)),
	}
	for i := range m.Values {
		row := make([]float64, len(cols))
		for k, j := range cols {
			row[k] = m.Values[i][j]
		}
		out.Values[i] = row
	}
	return out
}

// TagMatrix is a dense, label-indexed matrix of metacell tags.
type TagMatrix struct {
	RowIDs []string
	ColIDs []string
	Tags   [][]Tag

	rowIdx map[string]int
	colIdx map[string]int
}

// NewTagMatrix allocates a tag matrix with every cell TagMissing.
func NewTagMatrix(rowIDs, colIDs []string) *TagMatrix {
	m := &TagMatrix{
		RowIDs: append([]string(nil), rowIDs...),
		ColIDs: append([]string(nil), colIDs...),
		Tags:   make([][]Tag, len(rowIDs)),
	}
	for i := range m.Tags {
		row := make([]Tag, len(colIDs))
		for j := range row {
			row[j] = TagMissing
		}
		m.Tags[i] = row
	}
	return m
}

// NRows returns the number of rows.
func (m *TagMatrix) NRows() int { return len(m.RowIDs) }

// NCols returns the number of columns.
func (m *TagMatrix) NCols() int { return len(m.ColIDs) }

// RowIndex returns the index of the row with the given label, or -1.
func (m *TagMatrix) RowIndex(id string) int {
	if m.rowIdx == nil {
		m.rowIdx = indexLabels(m.RowIDs)
	}
	if i, ok := m.rowIdx[id]; ok {
		return i
	}
	return -1
}

// ColIndex returns the index of the column with the given label, or -1.
func (m *TagMatrix) ColIndex(id string) int {
	if m.colIdx == nil {
		m.colIdx = indexLabels(m.ColIDs)
	}
	if j, ok := m.colIdx[id]; ok {
		return j
	}
	return -1
}

func indexLabels(ids []string) map[string]int {
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		idx[id] = i
	}
	return idx
}

// SameLabels reports whether two label slices are identical in content and
// order, returning a descriptive error when they are not.
func SameLabels(what string, a, b []string) error {
	if len(a) != len(b) {
		return fmt.Errorf("%s: %d labels vs %d labels", what, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			return fmt.Errorf("%s: label %d is %q vs %q", what, i, a[i], b[i])
		}
	}
	return nil
}
