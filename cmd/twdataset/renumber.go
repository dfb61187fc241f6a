package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/storage"
)

var (
	renumberInput string
	renumberRoot  string
)

var renumberCmd = &cobra.Command{
	Use:   "renumber",
	Short: "Renumber stored images into contiguous sequences",
	Long: `Rename every attraction's image files so sequence numbers run
contiguously from 001 with no gaps, in the existing sort order. Run this
after manually pruning bad images so downstream stages see a clean
corpus.`,
	RunE: runRenumber,
}

func init() {
	renumberCmd.Flags().StringVarP(&renumberInput, "input", "i", "", "input attractions CSV")
	renumberCmd.Flags().StringVarP(&renumberRoot, "output", "o", "", "image root directory")
	rootCmd.AddCommand(renumberCmd)
}

func runRenumber(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"input":  renumberInput,
		"output": renumberRoot,
	}
	cfg, log, err := setup(flags)
	if err != nil {
		return err
	}

	records, err := attractions.LoadCSV(cfg.Input.CSVPath)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name)
	}

	report, err := storage.RenumberAll(cfg.Scrape.OutputRoot, names, log)
	if err != nil {
		return err
	}

	fmt.Printf("found: %d  not found: %d  renamed: %d\n",
		report.Found, report.NotFound, report.Renamed)
	return nil
}
