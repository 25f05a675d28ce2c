package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/pkg/logger"
	"ai-discovery-be/internal/repository/specification"
	"ai-discovery-be/internal/repository/unitofwork"
	"ai-discovery-be/pkg/embedding"
	"ai-discovery-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService backfills resource embeddings off the request path.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedResourceMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("consumer", "processing resource embedding", map[string]interface{}{
		"resource_id": payload.ResourceId,
		"collection":  payload.Collection,
	})

	var err error
	switch payload.Collection {
	case constant.CollectionPapers:
		err = cs.embedPaper(ctx, payload)
	case constant.CollectionModels:
		err = cs.embedModel(ctx, payload)
	default:
		cs.logger.Error("consumer", "unknown collection", map[string]interface{}{"collection": payload.Collection})
		msg.Ack()
		return
	}

	if err != nil {
		cs.logger.Error("consumer", "resource embedding failed", map[string]interface{}{
			"resource_id": payload.ResourceId,
			"error":       err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()
}

func (cs *consumerService) embedPaper(ctx context.Context, payload dto.PublishEmbedResourceMessage) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: payload.ResourceId})
	if err != nil {
		return err
	}
	if paper == nil {
		// Deleted before the job ran; nothing to do.
		cs.logger.Warn("consumer", "paper not found, skipping", map[string]interface{}{"resource_id": payload.ResourceId})
		return nil
	}

	document := fmt.Sprintf("Paper: %s\nPublished: %s\n\n%s",
		paper.Title,
		paper.PublishedAt.Format(time.RFC3339),
		paper.Summary,
	)

	values, err := cs.generateDocumentEmbedding(ctx, document)
	if err != nil {
		return err
	}

	paper.Embedding = values
	now := time.Now()
	paper.UpdatedAt = &now

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.PaperRepository().Update(ctx, paper); err != nil {
		return err
	}

	return uow.Commit()
}

func (cs *consumerService) embedModel(ctx context.Context, payload dto.PublishEmbedResourceMessage) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	model, err := uow.AiModelRepository().FindOne(ctx, specification.ByID{ID: payload.ResourceId})
	if err != nil {
		return err
	}
	if model == nil {
		cs.logger.Warn("consumer", "model not found, skipping", map[string]interface{}{"resource_id": payload.ResourceId})
		return nil
	}

	document := fmt.Sprintf("Model: %s\nIndexed: %s\n\n%s",
		model.Name,
		model.IndexedAt.Format(time.RFC3339),
		model.Summary,
	)

	values, err := cs.generateDocumentEmbedding(ctx, document)
	if err != nil {
		return err
	}

	model.Embedding = values
	now := time.Now()
	model.UpdatedAt = &now

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.AiModelRepository().Update(ctx, model); err != nil {
		return err
	}

	return uow.Commit()
}

// generateDocumentEmbedding embeds a resource document. Resources carry one
// vector each, so the document is capped at a single chunk instead of fanned
// out the way chunked stores do it.
func (cs *consumerService) generateDocumentEmbedding(ctx context.Context, document string) ([]float32, error) {
	chunks := utils.SplitText(document, 1500, 200)

	res, err := cs.embeddingProvider.Generate(ctx, chunks[0], "RETRIEVAL_DOCUMENT")
	if err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}
