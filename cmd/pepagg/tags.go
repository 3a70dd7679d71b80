// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pepagg/internal/adjacency"
	"github.com/pdiddy/pepagg/internal/metacell"
	"github.com/pdiddy/pepagg/internal/tableio"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Preview the combined protein-level metacell tags",
	Long: `Tags runs only the metacell combination pass over a peptide table and
prints the resulting protein-level tag matrix, without aggregating
intensities. Use it to find tag conflicts before a full aggregation run.`,
	RunE: runTags,
}

func init() {
	tagsCmd.Flags().String("input", "", "peptide table to inspect (tsv/csv; required)")
	tagsCmd.Flags().Bool("unique-only", false, "use only protein-specific peptides")

	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	uniqueOnly, _ := cmd.Flags().GetBool("unique-only")

	pt, err := tableio.ReadPeptideFile(input, cfg.Table)
	if err != nil {
		return err
	}

	x, err := adjacency.Build(pt.IDs, pt.Memberships, uniqueOnly)
	if err != nil {
		return err
	}

	tags, issues := metacell.CombineMatrix(pt.Tags, x)
	if issues != nil {
		reportConflicts(issues)
		return fmt.Errorf("tag conflicts in %d protein group(s)", len(issues))
	}
	metacell.Reclassify(tags, cfg.Conditions)

	fmt.Fprintf(os.Stdout, "Protein\t%s\n", strings.Join(tags.ColIDs, "\t"))
	for g, id := range tags.RowIDs {
		row := make([]string, len(tags.ColIDs))
		for s := range tags.ColIDs {
			row[s] = tags.Tags[g][s].String()
		}
		fmt.Fprintf(os.Stdout, "%s\t%s\n", id, strings.Join(row, "\t"))
	}
	return nil
}
