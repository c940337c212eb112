package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchmesh/searchmesh/internal/search/types"
)

func googleConfig(host string) *types.ProviderConfig {
	return &types.ProviderConfig{
		ID:       types.SourceGoogle,
		Name:     "Google",
		APIHost:  host,
		APIKey:   "test-key",
		EngineID: "test-cx",
	}
}

func TestGoogleProvider_IsConfigured(t *testing.T) {
	p, err := NewGoogleProvider(googleConfig("https://www.googleapis.com"))
	require.NoError(t, err)
	assert.True(t, p.IsConfigured())

	missingCx, err := NewGoogleProvider(&types.ProviderConfig{
		ID:     types.SourceGoogle,
		APIKey: "test-key",
	})
	require.NoError(t, err)
	assert.False(t, missingCx.IsConfigured())
}

func TestGoogleProvider_SearchWeb(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customsearch/v1", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "test-cx", q.Get("cx"))
		assert.Equal(t, "pizza", q.Get("q"))
		assert.Equal(t, "10", q.Get("num"))
		assert.Empty(t, q.Get("searchType"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"title": "Pizza - Wikipedia",
					"link": "https://en.wikipedia.org/wiki/Pizza",
					"snippet": "Pizza is an Italian dish.",
					"pagemap": {"cse_thumbnail": [{"src": "https://img.example.com/t.jpg"}]}
				},
				{
					"title": "Pizza recipes",
					"link": "https://cooking.example.com/pizza",
					"snippet": "How to make pizza at home."
				}
			]
		}`))
	}))
	defer server.Close()

	p, err := NewGoogleProvider(googleConfig(server.URL))
	require.NoError(t, err)

	results, err := p.Search(context.Background(), "pizza", 20, false)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Pizza - Wikipedia", results[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Pizza", results[0].URL)
	assert.Equal(t, "en.wikipedia.org", results[0].Domain)
	assert.Equal(t, "https://img.example.com/t.jpg", results[0].ThumbnailURL)
	assert.Empty(t, results[1].ThumbnailURL)
	assert.False(t, results[0].FetchedAt.IsZero())
}

func TestGoogleProvider_SearchImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image", r.URL.Query().Get("searchType"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"title": "Margherita",
					"link": "https://cdn.example.com/margherita.jpg",
					"snippet": "A margherita pizza.",
					"image": {
						"contextLink": "https://blog.example.com/margherita",
						"thumbnailLink": "https://cdn.example.com/margherita_t.jpg",
						"width": 1200,
						"height": 800,
						"byteSize": 345678
					}
				}
			]
		}`))
	}))
	defer server.Close()

	p, err := NewGoogleProvider(googleConfig(server.URL))
	require.NoError(t, err)

	results, err := p.Search(context.Background(), "margherita", 10, true)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "https://blog.example.com/margherita", r.URL)
	assert.Equal(t, "https://cdn.example.com/margherita.jpg", r.ImageURL)
	assert.Equal(t, "https://cdn.example.com/margherita_t.jpg", r.ThumbnailURL)
	assert.Equal(t, 1200, r.Width)
	assert.Equal(t, 800, r.Height)
	assert.Equal(t, int64(345678), r.FileSize)
	assert.Equal(t, "blog.example.com", r.Domain)
}

func TestGoogleProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer server.Close()

	p, err := NewGoogleProvider(googleConfig(server.URL))
	require.NoError(t, err)

	_, err = p.Search(context.Background(), "pizza", 10, false)
	require.Error(t, err)

	var perr *types.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, types.SourceGoogle, perr.Provider)
	assert.Equal(t, "HTTP_403", perr.Code)
}

func TestGoogleProvider_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"searchInformation": {"totalResults": "0"}}`))
	}))
	defer server.Close()

	p, err := NewGoogleProvider(googleConfig(server.URL))
	require.NoError(t, err)

	results, err := p.Search(context.Background(), "zzz", 10, false)
	require.NoError(t, err)
	assert.Empty(t, results)
}
