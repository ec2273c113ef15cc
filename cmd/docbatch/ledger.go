// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/docbatch/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or edit the processed-files ledger",
	Long: `Ledger manages the persisted set of processed filenames. A file listed
here is never re-processed; removing an entry is the explicit way to force
re-analysis of an input on the next run.`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every filename in the ledger",
	RunE:  runLedgerList,
}

var ledgerRemoveCmd = &cobra.Command{
	Use:   "remove [filenames...]",
	Short: "Remove filenames from the ledger so they are re-processed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLedgerRemove,
}

func init() {
	ledgerCmd.PersistentFlags().String("ledger", "", "ledger file path (default processed_files.json)")

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerRemoveCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func ledgerPathFromFlags(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("ledger")
	if path == "" {
		path = viper.GetString("ledger")
	}
	if path == "" {
		path = ledger.DefaultPath
	}
	return path
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	s, err := ledger.Load(ledgerPathFromFlags(cmd))
	if err != nil {
		return err
	}

	for _, name := range s.Names() {
		fmt.Println(name)
	}
	fmt.Printf("\n%d file(s) in ledger\n", s.Len())
	return nil
}

func runLedgerRemove(cmd *cobra.Command, args []string) error {
	path := ledgerPathFromFlags(cmd)
	s, err := ledger.Load(path)
	if err != nil {
		return err
	}

	removed := 0
	for _, name := range args {
		if s.Remove(name) {
			fmt.Printf("removed: %s\n", name)
			removed++
		} else {
			fmt.Printf("not in ledger: %s\n", name)
		}
	}

	if removed == 0 {
		return nil
	}
	return ledger.Save(path, s)
}
