// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

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

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pepagg/pkg/types"
)

// Format selects the protein dataset output encoding.
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// FormatFor infers the output format from a file extension, defaulting to
// TSV.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTSV
	}
}

// WriteProteinFile writes the dataset to path in the format inferred from
// its extension.
func WriteProteinFile(path string, ds *types.ProteinDataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := WriteProteinDataset(f, ds, FormatFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteProteinDataset writes the protein-level dataset to w. Tabular
// formats emit one row per protein with intensity, tag, and peptide-count
// columns; missing intensities are empty cells.
func WriteProteinDataset(w io.Writer, ds *types.ProteinDataset, format Format) error {
	switch format {
	case FormatTSV, FormatCSV:
		return writeTable(w, ds, format)
	case FormatYAML:
		return writeYAML(w, ds)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, ds *types.ProteinDataset, format Format) error {
	cw := csv.NewWriter(w)
	if format == FormatTSV {
		cw.Comma = '\t'
	}

	samples := ds.Intensities.ColIDs
	header := []string{"Protein"}
	for _, s := range samples {
		header = append(header, "Intensity."+s)
	}
	for _, s := range samples {
		header = append(header, "Metacell."+s)
	}
	header = append(header, "nPepTotal", "nPepSpec", "nPepShared")
	for _, s := range samples {
		header = append(header, "pepTotal.used."+s)
	}
	for _, s := range samples {
		header = append(header, "pepSpec.used."+s)
	}
	for _, s := range samples {
		header = append(header, "pepShared.used."+s)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for g, id := range ds.Intensities.RowIDs {
		record := []string{id}
		for s := range samples {
			record = append(record, formatIntensity(ds.Intensities.Values[g][s]))
		}
		for s := range samples {
			record = append(record, ds.Tags.Tags[g][s].String())
		}
		record = append(record,
			strconv.Itoa(ds.Counts.Total[g]),
			strconv.Itoa(ds.Counts.Specific[g]),
			strconv.Itoa(ds.Counts.Shared[g]),
		)
		for s := range samples {
			record = append(record, strconv.Itoa(ds.Counts.UsedTotal[g][s]))
		}
		for s := range samples {
			record = append(record, strconv.Itoa(ds.Counts.UsedSpecific[g][s]))
		}
		for s := range samples {
			record = append(record, strconv.Itoa(ds.Counts.UsedShared[g][s]))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing protein %s: %w", id, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatIntensity(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// yamlDataset is the YAML shape of a protein dataset. Missing intensities
// encode as null.
type yamlDataset struct {
	Meta       types.RunMeta `yaml:"meta"`
	Converged  bool          `yaml:"converged"`
	Iterations int           `yaml:"iterations,omitempty"`
	Samples    []string      `yaml:"samples"`
	Proteins   []yamlProtein `yaml:"proteins"`
}

type yamlProtein struct {
	ID          string      `yaml:"id"`
	Intensities []*float64  `yaml:"intensities"`
	Tags        []types.Tag `yaml:"tags"`
	PepTotal    int         `yaml:"n_pep_total"`
	PepSpec     int         `yaml:"n_pep_spec"`
	PepShared   int         `yaml:"n_pep_shared"`
}

func writeYAML(w io.Writer, ds *types.ProteinDataset) error {
	out := yamlDataset{
		Meta:       ds.Meta,
		Converged:  ds.Converged,
		Iterations: ds.Iterations,
		Samples:    ds.Intensities.ColIDs,
	}
	for g, id := range ds.Intensities.RowIDs {
		p := yamlProtein{
			ID:        id,
			Tags:      ds.Tags.Tags[g],
			PepTotal:  ds.Counts.Total[g],
			PepSpec:   ds.Counts.Specific[g],
			PepShared: ds.Counts.Shared[g],
		}
		for _, v := range ds.Intensities.Values[g] {
			if math.IsNaN(v) {
				p.Intensities = append(p.Intensities, nil)
			} else {
				v := v
				p.Intensities = append(p.Intensities, &v)
			}
		}
		out.Proteins = append(out.Proteins, p)
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(out)
}
