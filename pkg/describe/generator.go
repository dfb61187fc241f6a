// Package describe generates image descriptions for stored attraction
// photos and appends them to the dataset JSONL.
package describe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/dataset"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/storage"
)

const (
	namePlaceholder        = "<|attraction_name|>"
	descriptionPlaceholder = "<|attraction_description|>"
)

// Model generates a description for one image
type Model interface {
	Describe(ctx context.Context, imageData []byte, prompt string) (string, error)
}

// Generator walks stored attraction images and produces one description
// record per image, skipping images already present in the JSONL
type Generator struct {
	model     Model
	cfg       config.DatasetConfig
	imageRoot string
	template  string
	log       logger.Logger
}

// New creates a Generator. The prompt template is read once from the
// configured path.
func New(model Model, cfg config.DatasetConfig, imageRoot string, log logger.Logger) (*Generator, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	template, err := os.ReadFile(cfg.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}

	return &Generator{
		model:     model,
		cfg:       cfg,
		imageRoot: imageRoot,
		template:  string(template),
		log:       log,
	}, nil
}

// Report aggregates a description run
type Report struct {
	Described int
	Skipped   int
	Failed    int
}

// Run generates descriptions for up to ImagesPerAttraction stored JPEGs
// per attraction. Already-described images are skipped, so interrupted
// runs resume from the JSONL.
func (g *Generator) Run(ctx context.Context, records []attractions.Record) (*Report, error) {
	processed, err := dataset.ProcessedImagePaths(g.cfg.JSONLPath)
	if err != nil {
		return nil, errors.Wrap(errors.TypeStorage, err, "reading existing JSONL failed")
	}

	report := &Report{}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		dir, ok := storage.FindAttractionDir(g.imageRoot, rec.Name)
		if !ok {
			g.log.WithField("attraction", rec.Name).Debug("no image directory")
			continue
		}

		images, err := storage.ListImages(dir)
		if err != nil {
			return report, errors.Wrap(errors.TypeStorage, err, "listing attraction images failed")
		}

		prompt := g.renderPrompt(rec)
		described := 0
		for _, imagePath := range images {
			if described >= g.cfg.ImagesPerAttraction {
				break
			}
			if strings.ToLower(filepath.Ext(imagePath)) != ".jpg" {
				continue
			}
			if processed[imagePath] {
				report.Skipped++
				described++
				continue
			}

			if err := g.describeOne(ctx, rec, imagePath, prompt); err != nil {
				if errors.IsFatal(err) {
					return report, err
				}
				g.log.WarnWithFields("description failed", map[string]interface{}{
					"attraction": rec.Name,
					"image":      imagePath,
					"error":      err.Error(),
				})
				report.Failed++
				continue
			}

			processed[imagePath] = true
			described++
			report.Described++
		}
	}

	g.log.InfoWithFields("description run finished", map[string]interface{}{
		"described": report.Described,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
	})
	return report, nil
}

func (g *Generator) describeOne(ctx context.Context, rec attractions.Record, imagePath, prompt string) error {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return errors.Wrap(errors.TypeStorage, err, "reading image failed")
	}

	reasoning, err := g.model.Describe(ctx, data, prompt)
	if err != nil {
		return err
	}

	record := dataset.DescriptionRecord{
		AttractionName:        rec.Name,
		AttractionDescription: rec.Description,
		ImagePath:             imagePath,
		ImageFilename:         filepath.Base(imagePath),
		Reasoning:             reasoning,
	}
	if err := dataset.AppendJSONL(g.cfg.JSONLPath, record); err != nil {
		return errors.Wrap(errors.TypeStorage, err, "appending JSONL record failed")
	}
	return nil
}

func (g *Generator) renderPrompt(rec attractions.Record) string {
	prompt := strings.ReplaceAll(g.template, namePlaceholder, rec.Name)
	return strings.ReplaceAll(prompt, descriptionPlaceholder, rec.Description)
}
