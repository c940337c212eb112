package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

// DuckDuckGoProvider scrapes the DuckDuckGo HTML endpoint. No API key
// is required. Image search is not supported by the HTML endpoint and
// returns no results.
type DuckDuckGoProvider struct {
	*BaseProvider
}

// NewDuckDuckGoProvider creates a new DuckDuckGo provider
func NewDuckDuckGoProvider(config *types.ProviderConfig) (Provider, error) {
	if config.APIHost == "" {
		config.APIHost = "https://html.duckduckgo.com"
	}
	return &DuckDuckGoProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// Search posts the query to the HTML endpoint and parses result anchors
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int, imageSearch bool) ([]*types.SearchResult, error) {
	if imageSearch {
		return []*types.SearchResult{}, nil
	}

	form := url.Values{}
	form.Set("q", query)
	form.Set("b", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIHost+"/html/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}
	return p.parseHTML(body, maxResults)
}

func (p *DuckDuckGoProvider) parseHTML(body []byte, maxResults int) ([]*types.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidResponse, err)
	}

	var results []*types.SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}

		anchor := sel.Find("a.result__a").First()
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return true
		}

		resultURL := unwrapRedirect(href)
		results = append(results, &types.SearchResult{
			Title:          strings.TrimSpace(anchor.Text()),
			URL:            resultURL,
			Snippet:        strings.TrimSpace(sel.Find(".result__snippet").Text()),
			Domain:         hostOf(resultURL),
			RelevanceScore: 1.0,
			SourceWeight:   1.0,
			FetchedAt:      time.Now(),
		})
		return true
	})
	return results, nil
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg=... redirect links to
// the destination URL. Anything else passes through unchanged.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !strings.HasSuffix(u.Host, "duckduckgo.com") || !strings.HasPrefix(u.Path, "/l/") {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
