// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/docbatch/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [output-dir]",
	Short: "Show recent batch runs recorded under an output directory",
	Long: `History reads the run database under the given output root and prints
recent runs, newest first. Use --files with a run ID to list the per-file
outcomes of one run.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "maximum number of runs to show")
	historyCmd.Flags().Int64("files", 0, "show per-file outcomes for the given run ID")
	historyCmd.Flags().Bool("json", false, "emit JSON instead of a table")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")

	if runID, _ := cmd.Flags().GetInt64("files"); runID != 0 {
		files, err := store.RunFiles(context.Background(), runID)
		if err != nil {
			return err
		}
		return formatFiles(files, jsonOutput)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.RecentRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	return formatRuns(runs, jsonOutput)
}

func formatRuns(runs []history.RunSummary, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-4s  %-20s  %-9s  %-9s  %-7s  %-7s  %s\n",
		"ID", "Started", "Duration", "Processed", "Failed", "Skipped", "Input")
	for _, r := range runs {
		fmt.Printf("%-4d  %-20s  %-9s  %-9d  %-7d  %-7d  %s\n",
			r.ID,
			r.Started.Local().Format("2006-01-02 15:04:05"),
			r.Finished.Sub(r.Started).Round(time.Second),
			r.Processed, r.Failed, r.Skipped, r.InputDir)
	}
	return nil
}

func formatFiles(files []history.FileOutcome, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}

	if len(files) == 0 {
		fmt.Println("No file outcomes recorded for that run.")
		return nil
	}

	for _, f := range files {
		switch f.Outcome {
		case history.OutcomeProcessed:
			fmt.Printf("processed  %s (%s mode)\n", f.Name, f.Mode)
		default:
			fmt.Printf("failed     %s: %s\n", f.Name, f.Diagnostic)
		}
	}
	return nil
}
