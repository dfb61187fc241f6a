package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/storage"
)

var (
	splitSource string
	splitTrain  string
	splitVal    string
	splitRatio  float64
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split the image corpus into train and validation sets",
	Long: `Copy each attraction's images into train and validation directories.
Files are sorted per attraction, the first ratio share goes to train,
the remainder to validation. The source tree is left untouched.`,
	Example: `  twdataset split --ratio 0.9`,
	RunE:    runSplit,
}

func init() {
	splitCmd.Flags().StringVar(&splitSource, "source", "", "source image root")
	splitCmd.Flags().StringVar(&splitTrain, "train", "", "train output directory")
	splitCmd.Flags().StringVar(&splitVal, "val", "", "validation output directory")
	splitCmd.Flags().Float64Var(&splitRatio, "ratio", 0, "train share per attraction (0-1)")
	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"ratio": splitRatio,
	}
	cfg, log, err := setup(flags)
	if err != nil {
		return err
	}

	source := cfg.Scrape.OutputRoot
	if splitSource != "" {
		source = splitSource
	}
	trainDir := cfg.Corpus.TrainDir
	if splitTrain != "" {
		trainDir = splitTrain
	}
	valDir := cfg.Corpus.ValDir
	if splitVal != "" {
		valDir = splitVal
	}

	report, err := storage.Split(source, trainDir, valDir, cfg.Corpus.TrainRatio, log)
	if err != nil {
		return err
	}

	fmt.Printf("attractions: %d  train images: %d  val images: %d\n",
		report.Attractions, report.TrainImages, report.ValImages)
	return nil
}
