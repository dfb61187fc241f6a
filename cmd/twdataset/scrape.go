package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/auth"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/fetcher"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/provider"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/scraper"
)

var (
	scrapeProvider string
	scrapeInput    string
	scrapeOutput   string
	scrapeTarget   int
	scrapeWorkers  int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Download attraction images from an image provider",
	Long: `Download images for every attraction in the input CSV.

For each attraction the target count is compared against what is already
on disk, so interrupted runs can simply be re-run: only the shortfall is
downloaded and numbering continues where it left off.`,
	Example: `  # Flickr, default target of 10 images per attraction
  twdataset scrape --provider flickr

  # Google image search, 25 images each, 4 workers
  twdataset scrape --provider google --target 25 --workers 4`,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeProvider, "provider", "flickr", "image provider (flickr, google, places)")
	scrapeCmd.Flags().StringVarP(&scrapeInput, "input", "i", "", "input attractions CSV")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "output image root directory")
	scrapeCmd.Flags().IntVarP(&scrapeTarget, "target", "t", 0, "target image count per attraction")
	scrapeCmd.Flags().IntVarP(&scrapeWorkers, "workers", "w", 0, "number of concurrent workers")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"input":   scrapeInput,
		"output":  scrapeOutput,
		"target":  scrapeTarget,
		"workers": scrapeWorkers,
	}
	cfg, log, err := setup(flags)
	if err != nil {
		return err
	}

	creds := auth.NewManager().Resolve()
	prov, err := buildProvider(scrapeProvider, creds, cfg, log)
	if err != nil {
		return err
	}

	records, err := attractions.LoadCSV(cfg.Input.CSVPath)
	if err != nil {
		return err
	}

	s := scraper.New(prov, fetcher.New(cfg.Scrape, log), cfg.Scrape, log)
	report, err := s.Run(context.Background(), records)
	if err != nil {
		return err
	}

	fmt.Printf("satisfied: %d  done: %d  failed: %d  downloaded: %d\n",
		report.Satisfied, report.Done, report.Failed, report.Downloaded)
	return nil
}

// buildProvider selects and validates the provider implementation
func buildProvider(name string, creds *auth.Credentials, cfg *config.Config, log logger.Logger) (scraper.ImageProvider, error) {
	switch provider.Kind(name) {
	case provider.KindFlickr:
		if err := creds.RequireFlickr(); err != nil {
			return nil, err
		}
		return provider.NewFlickr(creds.FlickrAPIKey, cfg.Providers.Flickr, log), nil
	case provider.KindGoogleCSE:
		if err := creds.RequireGoogleSearch(); err != nil {
			return nil, err
		}
		return provider.NewGoogleCSE(creds.GoogleAPIKey, creds.GoogleSearchEngineID, cfg.Providers.GoogleCSE, log), nil
	case provider.KindPlaces:
		if err := creds.RequirePlaces(); err != nil {
			return nil, err
		}
		return provider.NewPlaces(creds.GoogleAPIKey, cfg.Providers.Places, log), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected flickr, google, or places)", name)
	}
}
