// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pepagg CLI, the command surface
// over the peptide→protein aggregation engine.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pepagg/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg holds the configuration loaded from the config file and environment,
// with defaults applied. Subcommand flags override individual fields.
var cfg types.Config

// rootCmd is the base command for the pepagg CLI.
var rootCmd = &cobra.Command{
	Use:   "pepagg",
	Short: "Aggregate peptide-level proteomics quantities to protein level",
	Long: `pepagg reduces peptide-level quantitative proteomics tables into
protein-level estimates. It builds the peptide→protein membership matrix
from the input table, combines per-cell metacell quality tags with conflict
detection, and aggregates intensities with a selectable strategy: sum,
mean, top-n, or iterative proportional redistribution of shared peptides.

Runs can be archived to a local SQLite database and re-read later with the
archive subcommands.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfg.ApplyDefaults()
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pepagg.yaml or ~/.config/pepagg/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pepagg")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pepagg"))
		}
	}

	viper.SetEnvPrefix("PEPAGG")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
