package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

// googleMaxPerRequest is the Custom Search API cap per request
const googleMaxPerRequest = 10

// GoogleProvider implements the Google Custom Search JSON API.
// https://developers.google.com/custom-search/v1/overview
type GoogleProvider struct {
	*BaseProvider
}

// NewGoogleProvider creates a new Google Custom Search provider
func NewGoogleProvider(config *types.ProviderConfig) (Provider, error) {
	if config.APIHost == "" {
		config.APIHost = "https://www.googleapis.com"
	}
	return &GoogleProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// Search executes a Custom Search API call. The pagemap structure is
// deeply nested and mostly absent, so fields are picked with gjson
// instead of a full response struct.
func (p *GoogleProvider) Search(ctx context.Context, query string, maxResults int, imageSearch bool) ([]*types.SearchResult, error) {
	params := url.Values{}
	params.Set("key", p.config.APIKey)
	params.Set("cx", p.config.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(min(maxResults, googleMaxPerRequest)))
	if imageSearch {
		params.Set("searchType", "image")
	}

	apiURL := fmt.Sprintf("%s/customsearch/v1?%s", p.config.APIHost, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: not valid JSON", types.ErrInvalidResponse)
	}
	return p.parseResults(body, imageSearch), nil
}

func (p *GoogleProvider) parseResults(body []byte, imageSearch bool) []*types.SearchResult {
	var results []*types.SearchResult

	gjson.GetBytes(body, "items").ForEach(func(_, item gjson.Result) bool {
		if imageSearch {
			results = append(results, p.parseImageResult(item))
		} else {
			results = append(results, p.parseWebResult(item))
		}
		return true
	})
	return results
}

func (p *GoogleProvider) parseWebResult(item gjson.Result) *types.SearchResult {
	link := item.Get("link").String()

	return &types.SearchResult{
		Title:          item.Get("title").String(),
		URL:            link,
		Snippet:        item.Get("snippet").String(),
		Domain:         hostOf(link),
		ThumbnailURL:   item.Get("pagemap.cse_thumbnail.0.src").String(),
		RelevanceScore: 1.0,
		SourceWeight:   1.0,
		FetchedAt:      time.Now(),
	}
}

func (p *GoogleProvider) parseImageResult(item gjson.Result) *types.SearchResult {
	link := item.Get("link").String()
	pageURL := item.Get("image.contextLink").String()
	if pageURL == "" {
		pageURL = link
	}

	return &types.SearchResult{
		Title:          item.Get("title").String(),
		URL:            pageURL,
		Snippet:        item.Get("snippet").String(),
		Domain:         hostOf(pageURL),
		ImageURL:       link,
		ThumbnailURL:   item.Get("image.thumbnailLink").String(),
		Width:          int(item.Get("image.width").Int()),
		Height:         int(item.Get("image.height").Int()),
		FileSize:       item.Get("image.byteSize").Int(),
		RelevanceScore: 1.0,
		SourceWeight:   1.0,
		FetchedAt:      time.Now(),
	}
}

// hostOf returns the host part of a URL, or "" when it cannot be parsed
func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
