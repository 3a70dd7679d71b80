// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pepagg/internal/adjacency"
	"github.com/pdiddy/pepagg/internal/aggregate"
	"github.com/pdiddy/pepagg/internal/store"
	"github.com/pdiddy/pepagg/internal/tableio"
	"github.com/pdiddy/pepagg/pkg/types"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate a peptide table into a protein-level dataset",
	Long: `Aggregate reads a peptide-level table, builds the peptide→protein
membership matrix from its protein-groups column, combines metacell tags,
and reduces intensities to protein level with the configured strategy.

Tag conflicts (missing values mixed with observed or imputed ones inside a
protein) abort the run and print the offending protein groups; no partial
dataset is produced. With --archive the run, conflicted or not, is recorded
in the local archive database.`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().String("input", "", "peptide table to aggregate (tsv/csv; required)")
	aggregateCmd.Flags().String("output", "", "output file (.tsv/.csv/.yaml; default stdout TSV)")
	aggregateCmd.Flags().String("method", "", "aggregation method: sum, mean, topn, or iterative")
	aggregateCmd.Flags().String("init", "", "initial estimate for iterative: sum or mean")
	aggregateCmd.Flags().Int("top-n", 0, "number of peptides kept per protein (topn, optional for iterative)")
	aggregateCmd.Flags().Bool("unique-only", false, "use only protein-specific peptides")
	aggregateCmd.Flags().Bool("by-condition", false, "aggregate each biological condition independently")
	aggregateCmd.Flags().Bool("log2", false, "input intensities are log2 scale")
	aggregateCmd.Flags().Bool("archive", false, "record the run in the archive database")
	aggregateCmd.Flags().String("run-id", "", "archive run identifier (default: timestamp)")

	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}

	aggCfg := aggregationConfigFromFlags(cmd)
	tblCfg := cfg.Table
	if log2, _ := cmd.Flags().GetBool("log2"); log2 {
		tblCfg.Log2 = true
	}

	pt, err := tableio.ReadPeptideFile(input, tblCfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "read %d peptides, %d samples from %s\n", len(pt.IDs), len(pt.Samples), input)

	x, err := adjacency.Build(pt.IDs, pt.Memberships, aggCfg.UniqueOnly)
	if err != nil {
		return err
	}

	meta := types.RunMeta{Tool: "pepagg", Version: version, Date: time.Now().UTC()}
	ds, err := aggregate.Run(aggregate.Input{
		Intensities: pt.Intensities,
		Tags:        pt.Tags,
		Adjacency:   x,
		Conditions:  cfg.Conditions,
	}, aggCfg, meta, os.Stderr)

	var conflict *aggregate.ConflictError
	if errors.As(err, &conflict) {
		reportConflicts(conflict.Issues)
		if doArchive, _ := cmd.Flags().GetBool("archive"); doArchive {
			meta.Method = string(aggCfg.Method)
			if archiveErr := archiveConflicts(cmd, meta, conflict.Issues); archiveErr != nil {
				fmt.Fprintf(os.Stderr, "warning: archiving failed: %v\n", archiveErr)
			}
		}
		return err
	}
	if err != nil {
		return err
	}

	if doArchive, _ := cmd.Flags().GetBool("archive"); doArchive {
		if archiveErr := archiveRun(cmd, ds); archiveErr != nil {
			fmt.Fprintf(os.Stderr, "warning: archiving failed: %v\n", archiveErr)
		}
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return tableio.WriteProteinDataset(os.Stdout, ds, tableio.FormatTSV)
	}
	if err := tableio.WriteProteinFile(output, ds); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d proteins to %s\n", ds.Intensities.NRows(), output)
	return nil
}

// aggregationConfigFromFlags applies flag overrides on top of the loaded
// configuration.
func aggregationConfigFromFlags(cmd *cobra.Command) types.AggregationConfig {
	aggCfg := cfg.Aggregation

	if method, _ := cmd.Flags().GetString("method"); method != "" {
		aggCfg.Method = types.AggregationMethod(method)
	}
	if init, _ := cmd.Flags().GetString("init"); init != "" {
		aggCfg.InitMethod = types.AggregationMethod(init)
	}
	if n, _ := cmd.Flags().GetInt("top-n"); n > 0 {
		aggCfg.TopN = n
	}
	if uniqueOnly, _ := cmd.Flags().GetBool("unique-only"); uniqueOnly {
		aggCfg.UniqueOnly = true
	}
	if byCondition, _ := cmd.Flags().GetBool("by-condition"); byCondition {
		aggCfg.ByCondition = true
	}
	return aggCfg
}

func reportConflicts(issues types.Issues) {
	fmt.Fprintf(os.Stderr, "tag conflicts in %d protein group(s):\n", len(issues))
	for _, pid := range issues.ProteinIDs() {
		fmt.Fprintf(os.Stderr, "  %s: peptides %v\n", pid, issues[pid])
	}
}

func archiveRunID(cmd *cobra.Command) string {
	if id, _ := cmd.Flags().GetString("run-id"); id != "" {
		return id
	}
	return time.Now().UTC().Format("20060102-150405")
}

func archiveRun(cmd *cobra.Command, ds *types.ProteinDataset) error {
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	id := archiveRunID(cmd)
	if err := s.SaveRun(context.Background(), id, ds); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "archived run %s\n", id)
	return nil
}

func archiveConflicts(cmd *cobra.Command, meta types.RunMeta, issues types.Issues) error {
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	id := archiveRunID(cmd)
	if err := s.SaveConflicts(context.Background(), id, meta, issues); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "archived conflicted run %s\n", id)
	return nil
}
