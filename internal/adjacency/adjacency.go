// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adjacency builds and manipulates the sparse peptide×protein-group
// membership matrix that drives aggregation.
package adjacency

import (
	"fmt"
	"strings"
)

// Edge is one peptide→protein assignment with its current weight. Weights
// start at 1 and are reshaped by the iterative aggregator; a weight of 0
// keeps the membership visible while removing the quantitative
// contribution.
type Edge struct {
	Group  int
	Weight float64
}

// edgeRef locates an edge from the column side: the peptide row and the
// slot inside that row's edge list.
type edgeRef struct {
	Pep  int
	Slot int
}

// Matrix is a sparse binary (weighted after reweighting) peptide×protein
// membership matrix. Rows are peptides, columns are protein groups; both
// are label-indexed with stable first-encounter ordering.
type Matrix struct {
	peptides []string
	groups   []string
	pepIdx   map[string]int
	groupIdx map[string]int

	rows [][]Edge    // per peptide
	cols [][]edgeRef // per group, transpose of rows
}

// Build parses a membership list into an adjacency matrix. memberships[i]
// is the delimiter-separated protein-group list for peptideIDs[i]; both
// comma and semicolon separate entries, and tokens are trimmed of
// surrounding whitespace. Column labels are the union of all tokens in
// first-encounter order.
//
// With uniqueOnly, peptides assigned to more than one group are kept as
// rows but stripped of every edge, leaving an adjacency usable only for
// specific-peptide aggregation.
func Build(peptideIDs, memberships []string, uniqueOnly bool) (*Matrix, error) {
	if len(peptideIDs) != len(memberships) {
		return nil, fmt.Errorf("adjacency: %d peptide IDs vs %d membership entries", len(peptideIDs), len(memberships))
	}

	m := &Matrix{
		peptides: make([]string, 0, len(peptideIDs)),
		pepIdx:   make(map[string]int, len(peptideIDs)),
		groupIdx: make(map[string]int),
	}

	for i, id := range peptideIDs {
		if _, dup := m.pepIdx[id]; dup {
			return nil, fmt.Errorf("adjacency: duplicate peptide ID %q", id)
		}
		m.pepIdx[id] = len(m.peptides)
		m.peptides = append(m.peptides, id)

		tokens := splitGroups(memberships[i])
		row := make([]Edge, 0, len(tokens))
		seen := make(map[int]bool, len(tokens))
		for _, tok := range tokens {
			g, ok := m.groupIdx[tok]
			if !ok {
				g = len(m.groups)
				m.groupIdx[tok] = g
				m.groups = append(m.groups, tok)
			}
			if seen[g] {
				continue
			}
			seen[g] = true
			row = append(row, Edge{Group: g, Weight: 1})
		}
		if uniqueOnly && len(row) > 1 {
			row = nil
		}
		m.rows = append(m.rows, row)
	}

	m.rebuildCols()
	return m, nil
}

// splitGroups tokenizes a membership string on commas and semicolons.
func splitGroups(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func (m *Matrix) rebuildCols() {
	m.cols = make([][]edgeRef, len(m.groups))
	for p, row := range m.rows {
		for slot, e := range row {
			m.cols[e.Group] = append(m.cols[e.Group], edgeRef{Pep: p, Slot: slot})
		}
	}
}

// NumPeptides returns the number of peptide rows.
func (m *Matrix) NumPeptides() int { return len(m.peptides) }

// NumGroups returns the number of protein-group columns.
func (m *Matrix) NumGroups() int { return len(m.groups) }

// Peptides returns the peptide row labels in matrix order.
func (m *Matrix) Peptides() []string { return m.peptides }

// Groups returns the protein-group column labels in matrix order.
func (m *Matrix) Groups() []string { return m.groups }

// PeptideID returns the label of peptide row p.
func (m *Matrix) PeptideID(p int) string { return m.peptides[p] }

// GroupID returns the label of protein-group column g.
func (m *Matrix) GroupID(g int) string { return m.groups[g] }

// Degree returns the number of edges of peptide row p, regardless of
// weight. A degree of 1 marks a specific peptide, >1 a shared one.
func (m *Matrix) Degree(p int) int { return len(m.rows[p]) }

// Row returns the edge list of peptide p. Callers must not grow or shrink
// it; weight mutation goes through SetWeight.
func (m *Matrix) Row(p int) []Edge { return m.rows[p] }

// SetWeight updates the weight of edge slot in peptide p's row.
func (m *Matrix) SetWeight(p, slot int, w float64) {
	m.rows[p][slot].Weight = w
}

// Members calls fn for every peptide assigned to group g with the current
// edge weight.
func (m *Matrix) Members(g int, fn func(pep int, weight float64)) {
	for _, ref := range m.cols[g] {
		fn(ref.Pep, m.rows[ref.Pep][ref.Slot].Weight)
	}
}

// GroupSize returns the number of peptides assigned to group g.
func (m *Matrix) GroupSize(g int) int { return len(m.cols[g]) }

// Clone returns a deep copy sharing label slices but owning its edge
// weights, so the copy can be reweighted independently.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{
		peptides: m.peptides,
		groups:   m.groups,
		pepIdx:   m.pepIdx,
		groupIdx: m.groupIdx,
		rows:     make([][]Edge, len(m.rows)),
	}
	for p, row := range m.rows {
		c.rows[p] = append([]Edge(nil), row...)
	}
	c.rebuildCols()
	return c
}

// ResetWeights restores every edge weight to 1.
func (m *Matrix) ResetWeights() {
	for p := range m.rows {
		for slot := range m.rows[p] {
			m.rows[p][slot].Weight = 1
		}
	}
}
