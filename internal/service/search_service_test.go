package service_test

import (
	"context"
	"testing"

	"ai-discovery-be/internal/config"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/service"
	"ai-discovery-be/internal/testutil"
	"ai-discovery-be/pkg/embedding"
	"ai-discovery-be/pkg/rag/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearchService(store *testutil.MemoryStore, provider embedding.EmbeddingProvider) service.ISearchService {
	if provider == nil {
		provider = &testutil.MockEmbeddingProvider{}
	}
	return service.NewSearchService(
		testutil.NewMemoryFactory(store),
		provider,
		search.NewOrchestrator(testutil.NopLogger{}),
		config.SearchConfig{SimilarityThreshold: 0.7, MatchCount: 8},
		testutil.NopLogger{},
	)
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	svc := newTestSearchService(storeWithPaper(), nil)

	_, err := svc.Search(context.Background(), &dto.SearchRequest{Query: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrEmptyQuery)
}

func TestSearchReturnsPerCollectionResults(t *testing.T) {
	svc := newTestSearchService(storeWithPaper(), nil)

	res, err := svc.Search(context.Background(), &dto.SearchRequest{Query: "image upscaling"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Papers.TotalCount)
	assert.Equal(t, 0, res.Models.TotalCount)
	require.Len(t, res.Papers.Candidates, 1)
	assert.Equal(t, "Real-ESRGAN", res.Papers.Candidates[0].Title)
}

func TestSearchHonorsOverrides(t *testing.T) {
	svc := newTestSearchService(storeWithPaper(), nil)

	// An impossible threshold filters everything out but is not an error.
	threshold := 1.1
	res, err := svc.Search(context.Background(), &dto.SearchRequest{
		Query:               "image upscaling",
		SimilarityThreshold: &threshold,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Papers.TotalCount)
	assert.Empty(t, res.Papers.Candidates)
}

func TestSearchMemoizesQueryEmbeddings(t *testing.T) {
	calls := 0
	provider := &testutil.MockEmbeddingProvider{
		GenerateFn: func(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
			calls++
			return &embedding.EmbeddingResponse{
				Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}},
			}, nil
		},
	}
	svc := newTestSearchService(storeWithPaper(), provider)

	for i := 0; i < 3; i++ {
		_, err := svc.Search(context.Background(), &dto.SearchRequest{Query: "same query"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls, "repeated identical queries should hit the embedding memo")

	_, err := svc.Search(context.Background(), &dto.SearchRequest{Query: "different query"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
