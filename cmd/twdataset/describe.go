package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/auth"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/describe"
)

var (
	describeInput  string
	describeImages string
	describeModel  string
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Generate image descriptions with Gemini",
	Long: `Generate a description for each attraction's stored images and append
the results to the dataset JSONL.

Images already present in the JSONL are skipped, so an interrupted run
picks up where it left off.`,
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().StringVarP(&describeInput, "input", "i", "", "input attractions CSV")
	describeCmd.Flags().StringVar(&describeImages, "images", "", "image root directory")
	describeCmd.Flags().StringVar(&describeModel, "model", "", "Gemini model name")
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"input": describeInput,
	}
	cfg, log, err := setup(flags)
	if err != nil {
		return err
	}
	if describeModel != "" {
		cfg.Dataset.Model = describeModel
	}
	imageRoot := cfg.Scrape.OutputRoot
	if describeImages != "" {
		imageRoot = describeImages
	}

	creds := auth.NewManager().Resolve()
	if err := creds.RequireGemini(); err != nil {
		return err
	}

	records, err := attractions.LoadCSV(cfg.Input.CSVPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	model, err := describe.NewGeminiModel(ctx, creds.GeminiAPIKey, cfg.Dataset.Model)
	if err != nil {
		return err
	}
	defer model.Close()

	gen, err := describe.New(model, cfg.Dataset, imageRoot, log)
	if err != nil {
		return err
	}

	report, err := gen.Run(ctx, records)
	if err != nil {
		return err
	}

	fmt.Printf("described: %d  skipped: %d  failed: %d\n",
		report.Described, report.Skipped, report.Failed)
	return nil
}
