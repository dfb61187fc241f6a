package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

const placesAPIURL = "https://maps.googleapis.com/maps/api/place"

type placesTextSearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID string `json:"place_id"`
		Name    string `json:"name"`
	} `json:"results"`
}

type placesDetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"result"`
}

// Places resolves an attraction through Maps Places text search, then
// pulls photo references from place details. Each place carries at most
// ten photos, so this provider tops out well below the others.
type Places struct {
	apiKey  string
	cfg     config.PlacesConfig
	client  *http.Client
	baseURL string
	log     logger.Logger
}

// NewPlaces creates a Google Maps Places photo provider
func NewPlaces(apiKey string, cfg config.PlacesConfig, log logger.Logger) *Places {
	return &Places{
		apiKey:  apiKey,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: placesAPIURL,
		log:     log,
	}
}

func (p *Places) Name() string { return string(KindPlaces) }

// Search finds the best-matching place for the query and returns photo
// media URLs for its photos, capped at MaxPhotos
func (p *Places) Search(ctx context.Context, query string, targetCount int) ([]Candidate, error) {
	placeID, err := p.findPlace(ctx, query+p.cfg.QuerySuffix)
	if err != nil {
		return nil, errors.Wrap(errors.TypeProviderQuery, err, fmt.Sprintf("places lookup %q failed", query))
	}
	if placeID == "" {
		p.log.WithField("query", query).Debug("no place match")
		return nil, nil
	}

	refs, err := p.photoReferences(ctx, placeID)
	if err != nil {
		return nil, errors.Wrap(errors.TypeProviderQuery, err, fmt.Sprintf("place details for %q failed", query))
	}

	limit := p.cfg.MaxPhotos
	if targetCount < limit {
		limit = targetCount
	}

	var candidates []Candidate
	for _, ref := range refs {
		if len(candidates) >= limit {
			break
		}
		params := url.Values{}
		params.Set("maxwidth", strconv.Itoa(p.cfg.MaxWidth))
		params.Set("photoreference", ref)
		params.Set("key", p.apiKey)
		candidates = append(candidates, Candidate{
			Ref:      p.baseURL + "/photo?" + params.Encode(),
			Provider: KindPlaces,
			Rank:     len(candidates) + 1,
		})
	}

	return candidates, nil
}

func (p *Places) findPlace(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", p.apiKey)
	params.Set("language", "zh-TW")

	var parsed placesTextSearchResponse
	if err := p.getJSON(ctx, p.baseURL+"/textsearch/json?"+params.Encode(), &parsed); err != nil {
		return "", err
	}
	if parsed.Status == "ZERO_RESULTS" || len(parsed.Results) == 0 {
		return "", nil
	}
	if parsed.Status != "OK" {
		return "", fmt.Errorf("places text search status %s: %s", parsed.Status, parsed.ErrorMessage)
	}
	return parsed.Results[0].PlaceID, nil
}

func (p *Places) photoReferences(ctx context.Context, placeID string) ([]string, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "photos")
	params.Set("key", p.apiKey)

	var parsed placesDetailsResponse
	if err := p.getJSON(ctx, p.baseURL+"/details/json?"+params.Encode(), &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "OK" {
		return nil, fmt.Errorf("place details status %s: %s", parsed.Status, parsed.ErrorMessage)
	}

	refs := make([]string, 0, len(parsed.Result.Photos))
	for _, photo := range parsed.Result.Photos {
		refs = append(refs, photo.PhotoReference)
	}
	return refs, nil
}

func (p *Places) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
