package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

// azureAPIVersion is the Image Analysis API version in use
const azureAPIVersion = "2024-02-01"

// AzureVision enriches image search results with Azure Image Analysis
// metadata: a caption for results missing a snippet and pixel
// dimensions for results missing width/height. It never adds, removes
// or reorders results.
//
// https://learn.microsoft.com/en-us/azure/ai-services/computer-vision/
type AzureVision struct {
	config     *types.ProviderConfig
	httpClient *http.Client
}

// NewAzureVision creates an Azure Vision enrichment adapter
func NewAzureVision(config *types.ProviderConfig) *AzureVision {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &AzureVision{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Source returns the enrichment source identifier
func (a *AzureVision) Source() types.SourceID {
	return types.SourceAzureVision
}

// IsConfigured reports whether endpoint and key are present
func (a *AzureVision) IsConfigured() bool {
	return a.config.APIHost != "" && a.config.APIKey != ""
}

// Enrich analyzes each result that has an image URL and is missing
// snippet or dimensions, filling those fields in place. The returned
// slice is the input slice, same length and order. A transport or API
// error aborts the batch; fields already filled stay filled.
func (a *AzureVision) Enrich(ctx context.Context, results []*types.SearchResult) ([]*types.SearchResult, error) {
	for _, r := range results {
		if r.ImageURL == "" {
			continue
		}
		if r.Snippet != "" && r.Width > 0 && r.Height > 0 {
			continue
		}

		analysis, err := a.analyze(ctx, r.ImageURL)
		if err != nil {
			return results, err
		}

		if r.Snippet == "" {
			r.Snippet = analysis.Get("captionResult.text").String()
		}
		if r.Width == 0 {
			r.Width = int(analysis.Get("metadata.width").Int())
		}
		if r.Height == 0 {
			r.Height = int(analysis.Get("metadata.height").Int())
		}
	}
	return results, nil
}

// analyze calls the Image Analysis endpoint for one image URL
func (a *AzureVision) analyze(ctx context.Context, imageURL string) (gjson.Result, error) {
	params := url.Values{}
	params.Set("api-version", azureAPIVersion)
	params.Set("features", "caption,tags")

	apiURL := fmt.Sprintf("%s/computervision/imageanalysis:analyze?%s", a.config.APIHost, params.Encode())

	payload, err := json.Marshal(map[string]string{"url": imageURL})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, &types.ProviderError{
			Provider: a.Source(),
			Code:     "REQUEST_FAILED",
			Message:  "failed to execute request",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, &types.ProviderError{
			Provider: a.Source(),
			Code:     "READ_FAILED",
			Message:  "failed to read response body",
			Err:      err,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, &types.ProviderError{
			Provider: a.Source(),
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  string(body),
		}
	}
	return gjson.ParseBytes(body), nil
}
