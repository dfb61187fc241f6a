package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/dataset"
)

var (
	convertInput  string
	convertOutput string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the description JSONL to Parquet",
	Example: `  twdataset convert
  twdataset convert -i result.jsonl -o result.parquet`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "input JSONL file")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output Parquet file")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(nil)
	if err != nil {
		return err
	}

	jsonlPath := cfg.Dataset.JSONLPath
	if convertInput != "" {
		jsonlPath = convertInput
	}
	parquetPath := cfg.Dataset.ParquetPath
	if convertOutput != "" {
		parquetPath = convertOutput
	}

	n, err := dataset.ConvertJSONLToParquet(jsonlPath, parquetPath)
	if err != nil {
		return err
	}

	fmt.Printf("wrote %d records to %s\n", n, parquetPath)
	return nil
}
