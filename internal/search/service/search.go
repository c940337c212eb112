package service

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/searchmesh/searchmesh/internal/pkg/response"
	"github.com/searchmesh/searchmesh/internal/search/aggregator"
	"github.com/searchmesh/searchmesh/internal/search/types"
)

// SearchService exposes the aggregator over HTTP
type SearchService struct {
	agg    *aggregator.Aggregator
	dedup  aggregator.Deduplicator
	logger *zap.Logger
}

// NewSearchService creates the search HTTP service. The deduplicator
// may be nil when deduplication is disabled globally.
func NewSearchService(agg *aggregator.Aggregator, dedup aggregator.Deduplicator, logger *zap.Logger) *SearchService {
	return &SearchService{
		agg:    agg,
		dedup:  dedup,
		logger: logger,
	}
}

// RegisterRoutes mounts the search endpoints on the given group
func (s *SearchService) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/search", s.SearchGET)
	r.POST("/search", s.SearchPOST)
	r.GET("/search/engines", s.ListEngines)
}

// searchBody is the POST request payload
type searchBody struct {
	Query       string           `json:"query"`
	Sources     []types.SourceID `json:"sources,omitempty"`
	MaxResults  int              `json:"max_results,omitempty"`
	ImageSearch bool             `json:"image_search,omitempty"`
	Dedupe      *bool            `json:"dedupe,omitempty"` // default true
}

// SearchGET handles GET /search?q=...&sources=a,b&max_results=N
func (s *SearchService) SearchGET(c *gin.Context) {
	req := &types.SearchRequest{
		Query: c.Query("q"),
	}
	if req.Query == "" {
		req.Query = c.Query("query")
	}

	if raw := c.Query("sources"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				req.Sources = append(req.Sources, types.SourceID(part))
			}
		}
	}

	if raw := c.Query("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "max_results must be an integer")
			return
		}
		req.MaxResults = n
	}

	req.ImageSearch = c.Query("image_search") == "true"
	dedupe := c.DefaultQuery("dedupe", "true") != "false"

	s.execute(c, req, dedupe)
}

// SearchPOST handles POST /search with a JSON body
func (s *SearchService) SearchPOST(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	req := &types.SearchRequest{
		Query:       body.Query,
		Sources:     body.Sources,
		MaxResults:  body.MaxResults,
		ImageSearch: body.ImageSearch,
	}
	dedupe := body.Dedupe == nil || *body.Dedupe

	s.execute(c, req, dedupe)
}

func (s *SearchService) execute(c *gin.Context, req *types.SearchRequest, dedupe bool) {
	var d aggregator.Deduplicator
	if dedupe {
		d = s.dedup
	}

	results, err := s.agg.Search(c.Request.Context(), req, d)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	s.logger.Info("search completed",
		zap.String("query", results.Query),
		zap.Int("results", len(results.Results)),
		zap.Int("sources_failed", len(results.SourcesFailed)),
		zap.Float64("took_ms", results.ProcessingTimeMs))

	response.Success(c, results)
}

// ListEngines handles GET /search/engines
func (s *SearchService) ListEngines(c *gin.Context) {
	response.Success(c, gin.H{"engines": s.agg.Status()})
}
