// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"fmt"
	"strings"

	"github.com/pdiddy/pepagg/pkg/types"
)

// ConflictError reports tag conflicts found during the metacell pass. The
// run produced no protein intensities: a partial result would misrepresent
// data integrity, so conflicts gate the whole aggregation.
type ConflictError struct {
	Issues types.Issues
}

func (e *ConflictError) Error() string {
	ids := e.Issues.ProteinIDs()
	if len(ids) > 3 {
		return fmt.Sprintf("tag conflicts in %d protein groups", len(ids))
	}
	return fmt.Sprintf("tag conflicts in protein group(s) %s", strings.Join(ids, ", "))
}

// ShapeError reports disagreeing row or column label sets between the
// intensity, tag, and adjacency inputs.
type ShapeError struct {
	Detail error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("input shape mismatch: %v", e.Detail)
}

func (e *ShapeError) Unwrap() error { return e.Detail }
