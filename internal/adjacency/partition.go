// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adjacency

// Split partitions the matrix by row degree into a shared-peptides-only
// matrix and a specific-peptides-only matrix. A row goes entirely to one
// side: degree >1 to shared, degree 1 to specific. Both outputs keep the
// full label sets, so a matrix with only shared (or only specific) rows
// still yields a correctly shaped all-zero partner.
//
// The two partitions reconstruct the original nonzero pattern exactly and
// no row is nonzero in both.
func Split(m *Matrix) (shared, specific *Matrix) {
	shared = &Matrix{
		peptides: m.peptides,
		groups:   m.groups,
		pepIdx:   m.pepIdx,
		groupIdx: m.groupIdx,
		rows:     make([][]Edge, len(m.rows)),
	}
	specific = &Matrix{
		peptides: m.peptides,
		groups:   m.groups,
		pepIdx:   m.pepIdx,
		groupIdx: m.groupIdx,
		rows:     make([][]Edge, len(m.rows)),
	}

	for p, row := range m.rows {
		switch {
		case len(row) > 1:
			shared.rows[p] = append([]Edge(nil), row...)
		case len(row) == 1:
			specific.rows[p] = append([]Edge(nil), row...)
		}
	}

	shared.rebuildCols()
	specific.rebuildCols()
	return shared, specific
}
