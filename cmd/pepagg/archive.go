// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pepagg/internal/store"
	"github.com/pdiddy/pepagg/internal/tableio"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived aggregation runs",
	Long: `Archive lists and re-reads aggregation runs recorded with
'pepagg aggregate --archive'. Conflicted runs keep their issue record
instead of a dataset.`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runArchiveList,
}

var archiveShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print an archived run's protein dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveShow,
}

var archiveIssuesCmd = &cobra.Command{
	Use:   "issues [run-id]",
	Short: "Print the tag conflicts of a rejected run",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveIssues,
}

func init() {
	archiveShowCmd.Flags().String("format", "tsv", "output format: tsv, csv, or yaml")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveShowCmd)
	archiveCmd.AddCommand(archiveIssuesCmd)
	rootCmd.AddCommand(archiveCmd)
}

func openStore() (*store.Store, error) {
	return store.NewStore(cfg.Store)
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(context.Background())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-18s  %-20s  %-10s  %-10s  %9s  %8s\n",
		"Run", "Created", "Status", "Method", "Proteins", "Samples")
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-18s  %-20s  %-10s  %-10s  %9d  %8d\n",
			r.ID, r.Created, r.Status, r.Method, r.NProteins, r.NSamples)
	}
	return nil
}

func runArchiveShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ds, err := s.GetRun(context.Background(), args[0])
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return tableio.WriteProteinDataset(os.Stdout, ds, tableio.Format(format))
}

func runArchiveIssues(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	issues, err := s.GetIssues(context.Background(), args[0])
	if err != nil {
		return err
	}
	reportConflicts(issues)
	return nil
}
