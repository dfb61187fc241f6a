package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/auth"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/ranking"
)

var (
	rankInput  string
	rankOutput string
	rankTopN   int
	rankFilter bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank attractions by search popularity",
	Long: `Query Google Custom Search for each attraction and record the total
result count in the search_count column.

The output CSV is written periodically, and rows that already carry a
count are skipped on re-run, so an interrupted ranking resumes from the
output CSV by passing it back in as --input.`,
	Example: `  # Rank everything in attractions.csv
  twdataset rank -i attractions.csv -o attractions_ranked.csv

  # Resume an interrupted run and keep only the top 1000
  twdataset rank -i attractions_ranked.csv -o attractions_ranked.csv --filter`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVarP(&rankInput, "input", "i", "", "input attractions CSV")
	rankCmd.Flags().StringVarP(&rankOutput, "output", "o", "", "output ranked CSV")
	rankCmd.Flags().IntVar(&rankTopN, "top", 0, "keep only the N most-searched attractions")
	rankCmd.Flags().BoolVar(&rankFilter, "filter", false, "write only the top-N subset to the output CSV")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"input": rankInput,
		"top":   rankTopN,
	}
	cfg, log, err := setup(flags)
	if err != nil {
		return err
	}

	creds := auth.NewManager().Resolve()
	if err := creds.RequireGoogleSearch(); err != nil {
		return err
	}

	records, err := attractions.LoadCSV(cfg.Input.CSVPath)
	if err != nil {
		return err
	}

	outputCSV := cfg.Ranking.OutputCSV
	if rankOutput != "" {
		outputCSV = rankOutput
	}

	r := ranking.New(creds.GoogleAPIKey, creds.GoogleSearchEngineID, cfg.Ranking, log)
	if err := r.Rank(context.Background(), records, outputCSV); err != nil {
		return err
	}

	if rankFilter {
		top := ranking.TopN(records, cfg.Ranking.TopN)
		if err := attractions.WriteCSV(outputCSV, top); err != nil {
			return err
		}
		fmt.Printf("ranked %d attractions, kept top %d in %s\n", len(records), len(top), outputCSV)
		return nil
	}

	fmt.Printf("ranked %d attractions in %s\n", len(records), outputCSV)
	return nil
}
