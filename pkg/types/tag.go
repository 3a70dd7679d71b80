// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Tag is a metacell tag: a categorical provenance/quality label attached to
// one quantitative cell (peptide×sample on input, protein×sample on output).
// The vocabulary is closed; Tag is an integer enum so that rule tables over
// it can be checked exhaustively.
type Tag int

const (
	// TagQuantified is the generic quantified tag, parent of the two
	// quantified leaves.
	TagQuantified Tag = iota
	// TagQuantDirect marks a value quantified by direct identification.
	TagQuantDirect
	// TagQuantRecovery marks a value quantified by recovery (match between runs).
	TagQuantRecovery
	// TagMissing is the generic missing tag, parent of the POV/MEC leaves.
	TagMissing
	// TagMissingPOV marks a value missing in some but not all replicates of
	// its condition (partially observed value).
	TagMissingPOV
	// TagMissingMEC marks a value missing in every replicate of its
	// condition (missing entire condition).
	TagMissingMEC
	// TagImputed is the generic imputed tag, parent of the POV/MEC leaves.
	TagImputed
	// TagImputedPOV marks an imputed value that was partially observed in
	// its condition.
	TagImputedPOV
	// TagImputedMEC marks an imputed value that was missing in its entire
	// condition.
	TagImputedMEC
	// TagCombined marks a protein-level cell aggregated from a mix of
	// quantified and imputed peptide values. Never valid at peptide level.
	TagCombined

	numTags
)

// Family groups tags by provenance. Every tag except TagCombined belongs to
// exactly one of the three base families.
type Family int

const (
	FamilyQuantified Family = iota
	FamilyMissing
	FamilyImputed
	FamilyCombined
)

// Level distinguishes tags valid on peptide-level input from tags that only
// appear on protein-level output.
type Level int

const (
	LevelPeptide Level = iota
	LevelProtein
)

var tagNames = [numTags]string{
	TagQuantified:    "Quantified",
	TagQuantDirect:   "Quant. by direct id",
	TagQuantRecovery: "Quant. by recovery",
	TagMissing:       "Missing",
	TagMissingPOV:    "Missing POV",
	TagMissingMEC:    "Missing MEC",
	TagImputed:       "Imputed",
	TagImputedPOV:    "Imputed POV",
	TagImputedMEC:    "Imputed MEC",
	TagCombined:      "Combined tags",
}

var tagFamilies = [numTags]Family{
	TagQuantified:    FamilyQuantified,
	TagQuantDirect:   FamilyQuantified,
	TagQuantRecovery: FamilyQuantified,
	TagMissing:       FamilyMissing,
	TagMissingPOV:    FamilyMissing,
	TagMissingMEC:    FamilyMissing,
	TagImputed:       FamilyImputed,
	TagImputedPOV:    FamilyImputed,
	TagImputedMEC:    FamilyImputed,
	TagCombined:      FamilyCombined,
}

// tagColors carries the display color contract shared with the presentation
// layer. The core never branches on color.
var tagColors = [numTags]string{
	TagQuantified:    "#31a354",
	TagQuantDirect:   "#a1d99b",
	TagQuantRecovery: "#74c476",
	TagMissing:       "#969696",
	TagMissingPOV:    "#bdbdbd",
	TagMissingMEC:    "#737373",
	TagImputed:       "#fd8d3c",
	TagImputedPOV:    "#fdbe85",
	TagImputedMEC:    "#e6550d",
	TagCombined:      "#6baed6",
}

// String returns the tag's display name, the one used in table columns and
// in the shared vocabulary contract.
func (t Tag) String() string {
	if t < 0 || t >= numTags {
		return fmt.Sprintf("Tag(%d)", int(t))
	}
	return tagNames[t]
}

// Family returns the tag's provenance family.
func (t Tag) Family() Family {
	return tagFamilies[t]
}

// Level reports whether the tag is valid on peptide-level input or reserved
// for protein-level output.
func (t Tag) Level() Level {
	if t == TagCombined {
		return LevelProtein
	}
	return LevelPeptide
}

// Color returns the display color for the tag.
func (t Tag) Color() string {
	return tagColors[t]
}

// Valid reports whether t is inside the closed vocabulary.
func (t Tag) Valid() bool {
	return t >= 0 && t < numTags
}

// MarshalYAML encodes the tag by its display name.
func (t Tag) MarshalYAML() (any, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tag value %d", int(t))
	}
	return t.String(), nil
}

// UnmarshalYAML decodes a tag from its display name.
func (t *Tag) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTag(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTag maps a display name back to its Tag. The empty string parses as
// TagMissing, matching the convention of upstream tables that leave missing
// cells blank.
func ParseTag(s string) (Tag, error) {
	if s == "" {
		return TagMissing, nil
	}
	for t, name := range tagNames {
		if s == name {
			return Tag(t), nil
		}
	}
	return 0, fmt.Errorf("unknown metacell tag %q", s)
}

// AllTags returns the full vocabulary in declaration order.
func AllTags() []Tag {
	tags := make([]Tag, numTags)
	for i := range tags {
		tags[i] = Tag(i)
	}
	return tags
}
