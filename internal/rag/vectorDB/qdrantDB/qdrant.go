package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/rag/vectorDB"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQuadrantClient(ctx context.Context, host string, port int) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient(ctx, host, port)
		if res != nil {
			quadrantInstance = res
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: quadrantInstance,
	}
}

func newClient(ctx context.Context, host string, port int) *qdrant.Client {
	if host == "" {
		host = config.QdrantHost
	}
	if port == 0 {
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(config.QdrantMaxRecvMsgSize)),
		},
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}
	if _, err := client.HealthCheck(ctx); err != nil {
		logger.Error("qdrant is offline", "host", host, "port", port, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

// Factory returns indexes backed by one collection per document.
func (db *ClientHolder) Factory() vectorDB.Factory {
	return func(documentId string) vectorDB.Index {
		return &collectionIndex{
			client:     db.QObj,
			documentId: documentId,
			collection: config.QdrantCollectionPrefix + documentId,
		}
	}
}

type collectionIndex struct {
	client     *qdrant.Client
	documentId string
	collection string
	mu         sync.RWMutex
	size       int
}

func (c *collectionIndex) Build(ctx context.Context, chunks []commonModels.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dimension := 0
	for _, ch := range chunks {
		if len(ch.Vector) == 0 {
			return fmt.Errorf("chunk %d has no vector", ch.Ordinal)
		}
		if dimension == 0 {
			dimension = len(ch.Vector)
		} else if len(ch.Vector) != dimension {
			return fmt.Errorf("chunk %d has dimension %d, expected %d", ch.Ordinal, len(ch.Vector), dimension)
		}
	}
	if dimension == 0 {
		dimension = config.EmbeddingDimensionality
	}

	if err := createCollection(ctx, c.client, c.collection, uint64(dimension)); err != nil {
		return fmt.Errorf("creating collection %s: %w", c.collection, err)
	}
	if err := upsertBatch(ctx, c.client, c.collection, c.documentId, chunks); err != nil {
		return err
	}
	c.size = len(chunks)
	return nil
}

func (c *collectionIndex) Query(ctx context.Context, vector []float32, k int) (commonModels.RetrievalResult, error) {
	log := logger.FromContext(ctx)

	exists, err := c.client.CollectionExists(ctx, c.collection)
	if err != nil {
		return commonModels.RetrievalResult{}, fmt.Errorf("checking collection %s: %w", c.collection, err)
	}
	if !exists {
		return commonModels.RetrievalResult{}, &docErrors.EmptyIndexError{DocumentId: c.documentId}
	}
	if k <= 0 {
		return commonModels.RetrievalResult{}, nil
	}

	result, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k + config.QdrantOverFetch)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("Error querying Qdrant: ", "error:", err)
		return commonModels.RetrievalResult{}, err
	}

	scored := make([]commonModels.ScoredChunk, 0, len(result))
	for _, hit := range result {
		scored = append(scored, commonModels.ScoredChunk{
			Chunk: commonModels.Chunk{
				Ordinal: int(hit.Payload["ordinal"].GetIntegerValue()),
				Start:   int(hit.Payload["start"].GetIntegerValue()),
				End:     int(hit.Payload["end"].GetIntegerValue()),
				Text:    hit.Payload["content"].GetStringValue(),
			},
			Score: hit.Score,
		})
	}
	vectorDB.SortScored(scored)
	if k < len(scored) {
		scored = scored[:k]
	}
	log.Debug("qdrant matches", "collection", c.collection, "count", len(scored))
	return commonModels.RetrievalResult{Matches: scored}, nil
}

func (c *collectionIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Drop removes the document's collection.
func (c *collectionIndex) Drop(ctx context.Context) error {
	return c.client.DeleteCollection(ctx, c.collection)
}

func upsertBatch(ctx context.Context, client *qdrant.Client, collection string, documentId string, chunks []commonModels.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(chunk.Ordinal)),
			Vectors: qdrant.NewVectors(chunk.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":       chunk.Text,
				"ordinal":       chunk.Ordinal,
				"start":         chunk.Start,
				"end":           chunk.End,
				"source_doc_id": documentId,
			}),
		}
	}

	_, err := client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
