package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     SearchRequest
		wantErr error
	}{
		{
			name: "valid minimal",
			req:  SearchRequest{Query: "pizza"},
		},
		{
			name:    "empty query",
			req:     SearchRequest{},
			wantErr: ErrEmptyQuery,
		},
		{
			name:    "query too long",
			req:     SearchRequest{Query: strings.Repeat("a", MaxQueryLength+1)},
			wantErr: ErrQueryTooLong,
		},
		{
			name: "query at limit",
			req:  SearchRequest{Query: strings.Repeat("a", MaxQueryLength)},
		},
		{
			name:    "max results over limit",
			req:     SearchRequest{Query: "pizza", MaxResults: MaxResultsLimit + 1},
			wantErr: ErrInvalidMaxResults,
		},
		{
			name:    "negative max results",
			req:     SearchRequest{Query: "pizza", MaxResults: -1},
			wantErr: ErrInvalidMaxResults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSearchRequestValidate_Defaults(t *testing.T) {
	req := SearchRequest{Query: "pizza"}
	require.NoError(t, req.Validate())

	assert.Equal(t, DefaultMaxResults, req.MaxResults)
	assert.Equal(t, DefaultSources, req.Sources)

	// Explicit values survive validation
	req = SearchRequest{Query: "pizza", MaxResults: 7, Sources: []SourceID{SourceBing}}
	require.NoError(t, req.Validate())
	assert.Equal(t, 7, req.MaxResults)
	assert.Equal(t, []SourceID{SourceBing}, req.Sources)
}

func TestProviderConfigConfigured(t *testing.T) {
	assert.True(t, (&ProviderConfig{ID: SourceDuckDuckGo}).Configured())
	assert.False(t, (&ProviderConfig{ID: SourceGoogle, APIKey: "k"}).Configured())
	assert.True(t, (&ProviderConfig{ID: SourceGoogle, APIKey: "k", EngineID: "cx"}).Configured())
	assert.False(t, (&ProviderConfig{ID: SourceBing}).Configured())
	assert.True(t, (&ProviderConfig{ID: SourceBing, APIKey: "k"}).Configured())
}
