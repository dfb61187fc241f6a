package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

const customSearchURL = "https://www.googleapis.com/customsearch/v1"

// imageExtensions is the allowlist applied to returned links. CSE image
// search occasionally returns tracker URLs and HTML pages.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type cseResponse struct {
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GoogleCSE searches the Custom Search JSON API with searchType=image,
// restricted to Taiwan results. The API caps results at 100, so the
// start offset never exceeds MaxStart.
type GoogleCSE struct {
	apiKey   string
	engineID string
	cfg      config.GoogleCSEConfig
	client   *http.Client
	baseURL  string
	log      logger.Logger
	sleep    func(time.Duration)
}

// NewGoogleCSE creates a Google Custom Search image provider
func NewGoogleCSE(apiKey, engineID string, cfg config.GoogleCSEConfig, log logger.Logger) *GoogleCSE {
	return &GoogleCSE{
		apiKey:   apiKey,
		engineID: engineID,
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  customSearchURL,
		log:      log,
		sleep:    time.Sleep,
	}
}

func (g *GoogleCSE) Name() string { return string(KindGoogleCSE) }

// Search pages through image results 10 at a time until targetCount
// candidates are gathered, results run out, or the offset cap is hit
func (g *GoogleCSE) Search(ctx context.Context, query string, targetCount int) ([]Candidate, error) {
	text := query + g.cfg.QuerySuffix
	var candidates []Candidate

	for start := 1; len(candidates) < targetCount && start <= g.cfg.MaxStart; start += g.cfg.PerPage {
		items, err := g.searchPage(ctx, text, start)
		if err != nil {
			if len(candidates) > 0 {
				g.log.WarnWithFields("google search pagination failed, using partial results", map[string]interface{}{
					"query":    query,
					"start":    start,
					"gathered": len(candidates),
					"error":    err.Error(),
				})
				return candidates, nil
			}
			return nil, errors.Wrap(errors.TypeProviderQuery, err, fmt.Sprintf("google image search %q failed", query))
		}
		if len(items) == 0 {
			break
		}

		for _, link := range items {
			if len(candidates) >= targetCount {
				break
			}
			if !hasImageExtension(link) {
				continue
			}
			candidates = append(candidates, Candidate{
				Ref:      link,
				Provider: KindGoogleCSE,
				Rank:     len(candidates) + 1,
			})
		}

		if len(items) < g.cfg.PerPage {
			break
		}
		if len(candidates) < targetCount && start+g.cfg.PerPage <= g.cfg.MaxStart {
			g.sleep(g.cfg.PageDelay)
		}
	}

	return candidates, nil
}

func (g *GoogleCSE) searchPage(ctx context.Context, text string, start int) ([]string, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", text)
	params.Set("searchType", "image")
	params.Set("num", strconv.Itoa(g.cfg.PerPage))
	params.Set("start", strconv.Itoa(start))
	params.Set("cr", "countryTW")
	params.Set("gl", "tw")
	params.Set("imgSize", "large")
	params.Set("imgType", "photo")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed cseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse custom search response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("custom search API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("custom search returned status %d", resp.StatusCode)
	}

	links := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		links = append(links, item.Link)
	}
	return links, nil
}

// hasImageExtension checks the URL path against the extension allowlist,
// ignoring the query string
func hasImageExtension(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return imageExtensions[ext]
}
