package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

// bingMaxPerRequest is the Web Search API cap per request
const bingMaxPerRequest = 50

// BingProvider implements the Bing Web Search API v7.
// https://learn.microsoft.com/en-us/bing/search-apis/bing-web-search/
type BingProvider struct {
	*BaseProvider
}

// NewBingProvider creates a new Bing search provider
func NewBingProvider(config *types.ProviderConfig) (Provider, error) {
	if config.APIHost == "" {
		config.APIHost = "https://api.bing.microsoft.com"
	}
	return &BingProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// bingWebResponse represents a Bing web search response
type bingWebResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

// bingImageResponse represents a Bing image search response
type bingImageResponse struct {
	Value []struct {
		Name         string `json:"name"`
		ContentURL   string `json:"contentUrl"`
		HostPageURL  string `json:"hostPageUrl"`
		ThumbnailURL string `json:"thumbnailUrl"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
	} `json:"value"`
}

// Search executes a Bing Web or Image Search API call
func (p *BingProvider) Search(ctx context.Context, query string, maxResults int, imageSearch bool) ([]*types.SearchResult, error) {
	endpoint := "/v7.0/search"
	if imageSearch {
		endpoint = "/v7.0/images/search"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(min(maxResults, bingMaxPerRequest)))
	params.Set("mkt", "en-US")
	if imageSearch {
		params.Set("imageType", "Photo")
	}

	apiURL := fmt.Sprintf("%s%s?%s", p.config.APIHost, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.config.APIKey)

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	if imageSearch {
		return p.parseImageResults(body)
	}
	return p.parseWebResults(body)
}

func (p *BingProvider) parseWebResults(body []byte) ([]*types.SearchResult, error) {
	var resp bingWebResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidResponse, err)
	}

	results := make([]*types.SearchResult, 0, len(resp.WebPages.Value))
	for _, item := range resp.WebPages.Value {
		results = append(results, &types.SearchResult{
			Title:          item.Name,
			URL:            item.URL,
			Snippet:        item.Snippet,
			Domain:         hostOf(item.URL),
			RelevanceScore: 1.0,
			SourceWeight:   1.0,
			FetchedAt:      time.Now(),
		})
	}
	return results, nil
}

func (p *BingProvider) parseImageResults(body []byte) ([]*types.SearchResult, error) {
	var resp bingImageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidResponse, err)
	}

	results := make([]*types.SearchResult, 0, len(resp.Value))
	for _, item := range resp.Value {
		pageURL := item.HostPageURL
		if pageURL == "" {
			pageURL = item.ContentURL
		}
		results = append(results, &types.SearchResult{
			Title:          item.Name,
			URL:            pageURL,
			Snippet:        item.Name,
			Domain:         hostOf(pageURL),
			ImageURL:       item.ContentURL,
			ThumbnailURL:   item.ThumbnailURL,
			Width:          item.Width,
			Height:         item.Height,
			RelevanceScore: 1.0,
			SourceWeight:   1.0,
			FetchedAt:      time.Now(),
		})
	}
	return results, nil
}
