package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/entity"
	"ai-discovery-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IResourceService ingests papers and models into the directory
type IResourceService interface {
	CreatePaper(ctx context.Context, req *dto.CreatePaperRequest) (*dto.CreateResourceResponse, error)
	CreateModel(ctx context.Context, req *dto.CreateModelRequest) (*dto.CreateResourceResponse, error)
}

type resourceService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewResourceService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
) IResourceService {
	return &resourceService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

// CreatePaper stores the paper without an embedding and queues the embedding
// job. The paper stays invisible to similarity search until the consumer
// backfills its vector.
func (rs *resourceService) CreatePaper(ctx context.Context, req *dto.CreatePaperRequest) (*dto.CreateResourceResponse, error) {
	uow := rs.uowFactory.NewUnitOfWork(ctx)

	paper := entity.Paper{
		Id:          uuid.New(),
		Title:       req.Title,
		Summary:     req.Summary,
		URL:         req.URL,
		PublishedAt: req.PublishedAt,
		CreatedAt:   time.Now(),
	}

	if err := uow.PaperRepository().Create(ctx, &paper); err != nil {
		return nil, err
	}

	if err := rs.publishEmbedJob(ctx, paper.Id, constant.CollectionPapers); err != nil {
		return nil, err
	}

	return &dto.CreateResourceResponse{Id: paper.Id}, nil
}

// CreateModel mirrors CreatePaper for the models collection.
func (rs *resourceService) CreateModel(ctx context.Context, req *dto.CreateModelRequest) (*dto.CreateResourceResponse, error) {
	uow := rs.uowFactory.NewUnitOfWork(ctx)

	indexedAt := req.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}

	model := entity.AiModel{
		Id:        uuid.New(),
		Name:      req.Name,
		Summary:   req.Summary,
		URL:       req.URL,
		IndexedAt: indexedAt,
		CreatedAt: time.Now(),
	}

	if err := uow.AiModelRepository().Create(ctx, &model); err != nil {
		return nil, err
	}

	if err := rs.publishEmbedJob(ctx, model.Id, constant.CollectionModels); err != nil {
		return nil, err
	}

	return &dto.CreateResourceResponse{Id: model.Id}, nil
}

func (rs *resourceService) publishEmbedJob(ctx context.Context, resourceId uuid.UUID, collection string) error {
	payload := dto.PublishEmbedResourceMessage{
		ResourceId: resourceId,
		Collection: collection,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return rs.publisherService.Publish(ctx, payloadJson)
}
