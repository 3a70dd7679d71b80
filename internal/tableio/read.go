// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tableio reads peptide-level tables and writes protein-level
// results. It sits outside the aggregation core: the core consumes the
// matrices produced here and never touches files itself.
package tableio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/pepagg/pkg/types"
)

// PeptideTable is the parsed peptide-level input: identifiers, protein
// membership strings, linear-scale intensities, and metacell tags.
type PeptideTable struct {
	IDs         []string
	Memberships []string
	Samples     []string
	Intensities *types.Matrix
	Tags        *types.TagMatrix
}

// ReadPeptideFile reads a peptide table from path, using tab separation
// for .tsv/.txt files and commas otherwise.
func ReadPeptideFile(path string, cfg types.TableConfig) (*PeptideTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening peptide table: %w", err)
	}
	defer f.Close()
	return ReadPeptideTable(f, delimiterFor(path), cfg)
}

func delimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		return '\t'
	default:
		return ','
	}
}

// ReadPeptideTable parses a delimited peptide table. The header must
// contain the identifier and protein-membership columns named in cfg;
// intensity and tag columns are recognized by prefix, the rest of the
// header being the sample identifier. Tag columns are optional: without
// them, observed cells default to Quantified and empty cells to Missing.
//
// Empty, "NA", and "NaN" intensity cells are missing. With cfg.Log2 the
// values are exponentiated to linear scale for the aggregation arithmetic.
func ReadPeptideTable(r io.Reader, delimiter rune, cfg types.TableConfig) (*PeptideTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idCol, protCol := -1, -1
	type sampleCol struct {
		sample string
		col    int
	}
	var intensityCols, tagCols []sampleCol

	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case h == cfg.IDColumn:
			idCol = i
		case h == cfg.ProteinsColumn:
			protCol = i
		case strings.HasPrefix(h, cfg.IntensityPrefix):
			intensityCols = append(intensityCols, sampleCol{sample: h[len(cfg.IntensityPrefix):], col: i})
		case strings.HasPrefix(h, cfg.TagPrefix):
			tagCols = append(tagCols, sampleCol{sample: h[len(cfg.TagPrefix):], col: i})
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("peptide table has no %q column", cfg.IDColumn)
	}
	if protCol < 0 {
		return nil, fmt.Errorf("peptide table has no %q column", cfg.ProteinsColumn)
	}
	if len(intensityCols) == 0 {
		return nil, fmt.Errorf("peptide table has no %q columns", cfg.IntensityPrefix+"*")
	}

	samples := make([]string, len(intensityCols))
	for i, c := range intensityCols {
		samples[i] = c.sample
	}
	tagByISample := make(map[string]int, len(tagCols))
	for _, c := range tagCols {
		tagByISample[c.sample] = c.col
	}
	if len(tagCols) > 0 {
		for _, s := range samples {
			if _, ok := tagByISample[s]; !ok {
				return nil, fmt.Errorf("sample %q has an intensity column but no %s column", s, cfg.TagPrefix+s)
			}
		}
	}

	var (
		ids         []string
		memberships []string
		values      [][]float64
		tagRows     [][]types.Tag
	)

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		ids = append(ids, strings.TrimSpace(record[idCol]))
		memberships = append(memberships, record[protCol])

		row := make([]float64, len(samples))
		tags := make([]types.Tag, len(samples))
		for i, c := range intensityCols {
			v, err := parseIntensity(record[c.col])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, header[c.col], err)
			}
			if cfg.Log2 && !math.IsNaN(v) {
				v = math.Exp2(v)
			}
			row[i] = v

			if col, ok := tagByISample[samples[i]]; ok {
				tag, err := types.ParseTag(strings.TrimSpace(record[col]))
				if err != nil {
					return nil, fmt.Errorf("line %d, column %s: %w", line, header[col], err)
				}
				tags[i] = tag
			} else if math.IsNaN(v) {
				tags[i] = types.TagMissing
			} else {
				tags[i] = types.TagQuantified
			}
		}
		values = append(values, row)
		tagRows = append(tagRows, tags)
	}

	q := types.NewMatrix(ids, samples)
	tm := types.NewTagMatrix(ids, samples)
	for i := range values {
		copy(q.Values[i], values[i])
		copy(tm.Tags[i], tagRows[i])
	}

	return &PeptideTable{
		IDs:         ids,
		Memberships: memberships,
		Samples:     samples,
		Intensities: q,
		Tags:        tm,
	}, nil
}

func parseIntensity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "NaN", "nan":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad intensity %q", s)
	}
	return v, nil
}
