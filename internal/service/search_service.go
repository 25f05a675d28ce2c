package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-discovery-be/internal/config"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/repository/unitofwork"
	"ai-discovery-be/pkg/embedding"
	"ai-discovery-be/pkg/rag/search"

	gocache "github.com/patrickmn/go-cache"
)

// ErrEmptyQuery rejects queries that are empty after trimming. The `required`
// validator tag cannot catch whitespace-only input, so the service owns this
// check and the HTTP layer maps it to a 400.
var ErrEmptyQuery = errors.New("query must not be blank")

// ISearchService runs the public semantic search over papers and models
type ISearchService interface {
	Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error)
}

type searchService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	orchestrator      *search.Orchestrator
	cfg               config.SearchConfig
	logger            logger.ILogger

	// embedMemo short-circuits repeated embeddings of the same query text
	// (typeahead resubmits, tab switches). Query embeddings are deterministic
	// per provider+model, so a short TTL is purely a memory bound.
	embedMemo *gocache.Cache
}

func NewSearchService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	orchestrator *search.Orchestrator,
	cfg config.SearchConfig,
	logger logger.ILogger,
) ISearchService {
	return &searchService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		orchestrator:      orchestrator,
		cfg:               cfg,
		logger:            logger,
		embedMemo:         gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Search embeds the raw query (no expansion here, unlike chat retrieval) and
// fans out to both collections.
func (ss *searchService) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	values, err := ss.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	opts := search.Options{
		Threshold:  ss.cfg.SimilarityThreshold,
		MatchCount: ss.cfg.MatchCount,
		TimeRange:  req.TimeRange,
	}
	if req.SimilarityThreshold != nil {
		opts.Threshold = *req.SimilarityThreshold
	}
	if req.MatchCount != nil {
		opts.MatchCount = *req.MatchCount
	}

	uow := ss.uowFactory.NewUnitOfWork(ctx)

	results, err := ss.orchestrator.Search(ctx, uow, values, opts)
	if err != nil {
		return nil, err
	}

	return &dto.SearchResponse{
		Papers: results.Papers,
		Models: results.Models,
	}, nil
}

func (ss *searchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if cached, found := ss.embedMemo.Get(query); found {
		if values, ok := cached.([]float32); ok {
			return values, nil
		}
	}

	res, err := ss.embeddingProvider.Generate(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	ss.embedMemo.Set(query, res.Embedding.Values, gocache.DefaultExpiration)
	return res.Embedding.Values, nil
}
