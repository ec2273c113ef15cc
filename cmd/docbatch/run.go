// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/docbatch/internal/analyze"
	"github.com/meshintel/docbatch/internal/batch"
	"github.com/meshintel/docbatch/internal/container"
	"github.com/meshintel/docbatch/internal/history"
	"github.com/meshintel/docbatch/internal/ledger"
)

const defaultWorkers = 4

var runCmd = &cobra.Command{
	Use:   "run [input-dir] [output-dir]",
	Short: "Process every unledgered PDF in a directory",
	Long: `Run scans the input directory for PDF files, skips those already in the
ledger, and processes the rest in parallel through the analysis image.
Each success is added to the ledger immediately, so an interrupted run
loses at most its in-flight files. Failed files are logged and retried
on the next invocation.`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	runCmd.Flags().Int("workers", 0, "worker pool size (default 4)")
	runCmd.Flags().String("ledger", "", "ledger file path (default processed_files.json)")
	runCmd.Flags().String("image", "", "analysis container image (default "+analyze.DefaultImage+")")
	runCmd.Flags().Bool("no-history", false, "skip recording the run in the history database")

	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = viper.GetInt("workers")
	}
	if workers == 0 {
		workers = defaultWorkers
	}

	image, _ := cmd.Flags().GetString("image")
	if image == "" {
		image = viper.GetString("image")
	}

	ledgerPath, _ := cmd.Flags().GetString("ledger")
	if ledgerPath == "" {
		ledgerPath = viper.GetString("ledger")
	}
	if ledgerPath == "" {
		ledgerPath = ledger.DefaultPath
	}

	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	pipe, err := analyze.NewContainerPipeline(rt, image)
	if err != nil {
		return err
	}

	opts := batch.Options{
		InputDir:   args[0],
		OutputRoot: args[1],
		Workers:    workers,
		LedgerPath: ledgerPath,
	}

	var hist *history.Store
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		hist, err = history.Open(opts.OutputRoot)
		if err != nil {
			return fmt.Errorf("opening run history: %w", err)
		}
		defer hist.Close()
	}

	// Per-file failures are reported in the summary but do not change the
	// exit status; only ledger, pool, or runtime errors abort the run.
	_, err = batch.Run(pipe, opts, hist, os.Stdout)
	return err
}
