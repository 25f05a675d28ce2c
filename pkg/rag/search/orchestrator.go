package search

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/repository/unitofwork"
)

// Orchestrator runs the similarity queries behind search and RAG retrieval
type Orchestrator struct {
	logger logger.ILogger
}

// NewOrchestrator creates a new search orchestrator
func NewOrchestrator(logger logger.ILogger) *Orchestrator {
	return &Orchestrator{logger: logger}
}

// Options encapsulates search parameters
type Options struct {
	Threshold  float64
	MatchCount int
	TimeRange  string
}

// DefaultOptions returns default search configuration
func DefaultOptions() Options {
	return Options{
		Threshold:  0.7,
		MatchCount: 8,
		TimeRange:  TimeRangeAll,
	}
}

// FusedResults carries per-collection candidates plus counts for tab badges.
type FusedResults struct {
	Papers dto.SearchCollectionResult
	Models dto.SearchCollectionResult
}

// Merged interleaves both collections ordered by similarity descending.
// Ties keep papers-before-models, which mirrors the store's natural order.
func (r *FusedResults) Merged() []dto.RetrievalCandidate {
	merged := make([]dto.RetrievalCandidate, 0, len(r.Papers.Candidates)+len(r.Models.Candidates))
	merged = append(merged, r.Papers.Candidates...)
	merged = append(merged, r.Models.Candidates...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	return merged
}

// Search queries papers and models concurrently with the same embedding.
// Thresholding, ordering, and the time-range filter all happen inside the
// store query so per-collection counts stay accurate for the window.
func (o *Orchestrator) Search(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	embedding []float32,
	opts Options,
) (*FusedResults, error) {

	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	if opts.MatchCount <= 0 {
		opts.MatchCount = DefaultOptions().MatchCount
	}

	bounds := ResolveTimeBounds(opts.TimeRange, time.Now())

	var (
		wg       sync.WaitGroup
		papers   []dto.RetrievalCandidate
		models   []dto.RetrievalCandidate
		paperErr error
		modelErr error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		scored, err := uow.PaperRepository().SearchSimilarWithScore(ctx, embedding, opts.MatchCount, opts.Threshold, bounds)
		if err != nil {
			paperErr = err
			return
		}
		papers = make([]dto.RetrievalCandidate, 0, len(scored))
		for _, s := range scored {
			papers = append(papers, dto.RetrievalCandidate{
				Id:         s.Paper.Id,
				Collection: constant.CollectionPapers,
				Title:      s.Paper.Title,
				Summary:    s.Paper.Summary,
				Similarity: s.Similarity,
			})
		}
	}()

	go func() {
		defer wg.Done()
		scored, err := uow.AiModelRepository().SearchSimilarWithScore(ctx, embedding, opts.MatchCount, opts.Threshold, bounds)
		if err != nil {
			modelErr = err
			return
		}
		models = make([]dto.RetrievalCandidate, 0, len(scored))
		for _, s := range scored {
			models = append(models, dto.RetrievalCandidate{
				Id:         s.Model.Id,
				Collection: constant.CollectionModels,
				Title:      s.Model.Name,
				Summary:    s.Model.Summary,
				Similarity: s.Similarity,
			})
		}
	}()

	wg.Wait()

	if paperErr != nil {
		o.logger.Error("search", "paper similarity query failed", map[string]interface{}{"error": paperErr.Error()})
		return nil, paperErr
	}
	if modelErr != nil {
		o.logger.Error("search", "model similarity query failed", map[string]interface{}{"error": modelErr.Error()})
		return nil, modelErr
	}

	o.logger.Debug("search", "retrieval complete", map[string]interface{}{
		"papers":    len(papers),
		"models":    len(models),
		"threshold": opts.Threshold,
	})

	return &FusedResults{
		Papers: dto.SearchCollectionResult{TotalCount: len(papers), Candidates: papers},
		Models: dto.SearchCollectionResult{TotalCount: len(models), Candidates: models},
	}, nil
}
