// Package ranking fills in search popularity counts for attractions and
// selects the most popular subset.
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/retry"
)

const customSearchURL = "https://www.googleapis.com/customsearch/v1"

type countResponse struct {
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Ranker queries Google Custom Search for each attraction's total result
// count. Rows that already carry a count are skipped, so an interrupted
// run picks up where it left off from the progress CSV.
type Ranker struct {
	apiKey   string
	engineID string
	cfg      config.RankingConfig
	client   *http.Client
	baseURL  string
	log      logger.Logger
	sleep    func(time.Duration)
	backoff  retry.BackoffStrategy
}

// New creates a Ranker
func New(apiKey, engineID string, cfg config.RankingConfig, log logger.Logger) *Ranker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Ranker{
		apiKey:   apiKey,
		engineID: engineID,
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  customSearchURL,
		log:      log,
		sleep:    time.Sleep,
		backoff:  retry.DefaultExponentialBackoff(),
	}
}

// Query builds the popularity search query for one attraction
func Query(rec attractions.Record) string {
	parts := []string{rec.Name, rec.City, rec.District, "台灣", "景點"}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Rank fills SearchCount in place for every unranked record, writing the
// full record set to the progress CSV at the configured interval and at
// the end. Per-attraction failures are logged and skipped.
func (r *Ranker) Rank(ctx context.Context, records []attractions.Record, progressCSV string) error {
	processed := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if records[i].SearchCount != attractions.SearchCountUnset {
			continue
		}

		count, err := r.fetchCount(ctx, Query(records[i]))
		if err != nil {
			r.log.WarnWithFields("search count failed", map[string]interface{}{
				"attraction": records[i].Name,
				"error":      err.Error(),
			})
			continue
		}
		records[i].SearchCount = count
		processed++

		if processed%r.cfg.ProgressInterval == 0 {
			if err := attractions.WriteCSV(progressCSV, records); err != nil {
				return errors.Wrap(errors.TypeStorage, err, "writing progress CSV failed")
			}
			r.log.InfoWithFields("ranking progress saved", map[string]interface{}{
				"processed": processed,
				"total":     len(records),
			})
		}

		r.sleep(r.cfg.RequestDelay)
	}

	if err := attractions.WriteCSV(progressCSV, records); err != nil {
		return errors.Wrap(errors.TypeStorage, err, "writing ranking CSV failed")
	}
	r.log.WithField("processed", processed).Info("ranking finished")
	return nil
}

// fetchCount returns totalResults for the query, retrying transient
// failures with exponential backoff
func (r *Ranker) fetchCount(ctx context.Context, query string) (int64, error) {
	var count int64

	err := retry.Do(func() error {
		c, err := r.fetchCountOnce(ctx, query)
		if err != nil {
			return err
		}
		count = c
		return nil
	}, &retry.Config{
		MaxAttempts: r.cfg.MaxRetries,
		Backoff:     r.backoff,
		RetryIf:     errors.IsRetryable,
		Context:     ctx,
		Logger:      r.log,
	})

	return count, err
}

func (r *Ranker) fetchCountOnce(ctx context.Context, query string) (int64, error) {
	params := url.Values{}
	params.Set("key", r.apiKey)
	params.Set("cx", r.engineID)
	params.Set("q", query)
	params.Set("num", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(errors.TypeServerError, err, "custom search request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, errors.Wrap(errors.TypeServerError, err, "reading custom search response failed")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, errors.New(errors.TypeRateLimit, "custom search quota exceeded")
	}
	if resp.StatusCode >= 500 {
		return 0, errors.Newf(errors.TypeServerError, "custom search returned status %d", resp.StatusCode)
	}

	var parsed countResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, errors.Wrap(errors.TypeParsing, err, "parsing custom search response failed")
	}
	if parsed.Error != nil {
		return 0, errors.Newf(errors.TypeProviderQuery, "custom search API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Newf(errors.TypeProviderQuery, "custom search returned status %d", resp.StatusCode)
	}

	total := parsed.SearchInformation.TotalResults
	if total == "" {
		return 0, nil
	}
	count, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.TypeParsing, err, fmt.Sprintf("unparseable totalResults %q", total))
	}
	return count, nil
}

// TopN returns the n most-searched records, highest count first. Rows
// that were never ranked or got zero hits are excluded.
func TopN(records []attractions.Record, n int) []attractions.Record {
	var ranked []attractions.Record
	for _, rec := range records {
		if rec.SearchCount > 0 {
			ranked = append(ranked, rec)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SearchCount > ranked[j].SearchCount
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
