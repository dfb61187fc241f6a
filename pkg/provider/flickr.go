package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

const flickrRestURL = "https://api.flickr.com/services/rest"

// flickrSearchResponse mirrors the JSON shape of flickr.photos.search
type flickrSearchResponse struct {
	Photos struct {
		Page    int    `json:"page"`
		Pages   int    `json:"pages"`
		PerPage int    `json:"perpage"`
		Total   any    `json:"total"` // string in older API versions, number in newer
		Photo   []struct {
			ID     string `json:"id"`
			Owner  string `json:"owner"`
			Secret string `json:"secret"`
			Server string `json:"server"`
			Title  string `json:"title"`
		} `json:"photo"`
	} `json:"photos"`
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Flickr searches flickr.photos.search sorted by relevance and builds
// live.staticflickr.com source URLs for each hit.
type Flickr struct {
	apiKey  string
	cfg     config.FlickrConfig
	client  *http.Client
	baseURL string
	log     logger.Logger
	sleep   func(time.Duration)
}

// NewFlickr creates a Flickr provider
func NewFlickr(apiKey string, cfg config.FlickrConfig, log logger.Logger) *Flickr {
	return &Flickr{
		apiKey:  apiKey,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: flickrRestURL,
		log:     log,
		sleep:   time.Sleep,
	}
}

func (f *Flickr) Name() string { return string(KindFlickr) }

// Search pages through flickr.photos.search until targetCount candidates
// are gathered or results run out
func (f *Flickr) Search(ctx context.Context, query string, targetCount int) ([]Candidate, error) {
	text := query + f.cfg.QuerySuffix
	var candidates []Candidate

	for page := 1; len(candidates) < targetCount; page++ {
		resp, err := f.searchPage(ctx, text, page)
		if err != nil {
			if len(candidates) > 0 {
				f.log.WarnWithFields("flickr pagination failed, using partial results", map[string]interface{}{
					"query":    query,
					"page":     page,
					"gathered": len(candidates),
					"error":    err.Error(),
				})
				return candidates, nil
			}
			return nil, errors.Wrap(errors.TypeProviderQuery, err, fmt.Sprintf("flickr search %q failed", query))
		}

		for _, p := range resp.Photos.Photo {
			if len(candidates) >= targetCount {
				break
			}
			// https://live.staticflickr.com/{server-id}/{id}_{secret}_{size-suffix}.jpg
			ref := fmt.Sprintf("https://live.staticflickr.com/%s/%s_%s_b.jpg", p.Server, p.ID, p.Secret)
			candidates = append(candidates, Candidate{
				Ref:      ref,
				Provider: KindFlickr,
				Rank:     len(candidates) + 1,
			})
		}

		if len(resp.Photos.Photo) == 0 || page >= resp.Photos.Pages {
			break
		}
		if len(candidates) < targetCount {
			f.sleep(f.cfg.PageDelay)
		}
	}

	return candidates, nil
}

func (f *Flickr) searchPage(ctx context.Context, text string, page int) (*flickrSearchResponse, error) {
	params := url.Values{}
	params.Set("method", "flickr.photos.search")
	params.Set("api_key", f.apiKey)
	params.Set("text", text)
	params.Set("sort", "relevance")
	params.Set("media", "photos")
	params.Set("safe_search", "1")
	params.Set("content_type", "1")
	params.Set("per_page", strconv.Itoa(f.cfg.PerPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flickr API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed flickrSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse flickr response: %w", err)
	}
	if parsed.Stat != "ok" {
		return nil, fmt.Errorf("flickr API error %d: %s", parsed.Code, parsed.Message)
	}

	return &parsed, nil
}
