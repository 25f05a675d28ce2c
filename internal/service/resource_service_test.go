package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-discovery-be/internal/constant"
	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/service"
	"ai-discovery-be/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	payloads [][]byte
}

func (p *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestCreatePaperPersistsAndQueuesEmbedding(t *testing.T) {
	store := &testutil.MemoryStore{}
	pub := &capturingPublisher{}
	svc := service.NewResourceService(testutil.NewMemoryFactory(store), pub)

	res, err := svc.CreatePaper(context.Background(), &dto.CreatePaperRequest{
		Title:       "Denoising Diffusion Probabilistic Models",
		Summary:     "A class of latent variable models.",
		URL:         "https://example.org/ddpm",
		PublishedAt: time.Date(2020, 6, 19, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, store.Papers, 1)
	assert.Equal(t, res.Id, store.Papers[0].Id)
	assert.Empty(t, store.Papers[0].Embedding, "embedding is backfilled asynchronously")

	require.Len(t, pub.payloads, 1)
	var msg dto.PublishEmbedResourceMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, res.Id, msg.ResourceId)
	assert.Equal(t, constant.CollectionPapers, msg.Collection)
}

func TestCreateModelDefaultsIndexedAt(t *testing.T) {
	store := &testutil.MemoryStore{}
	pub := &capturingPublisher{}
	svc := service.NewResourceService(testutil.NewMemoryFactory(store), pub)

	before := time.Now()
	res, err := svc.CreateModel(context.Background(), &dto.CreateModelRequest{
		Name:    "whisper-large-v3",
		Summary: "Speech recognition model.",
	})
	require.NoError(t, err)

	require.Len(t, store.Models, 1)
	assert.Equal(t, res.Id, store.Models[0].Id)
	assert.False(t, store.Models[0].IndexedAt.Before(before), "zero indexed_at should default to now")

	require.Len(t, pub.payloads, 1)
	var msg dto.PublishEmbedResourceMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, constant.CollectionModels, msg.Collection)
}
