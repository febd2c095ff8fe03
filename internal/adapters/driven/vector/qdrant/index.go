// Package qdrant provides the approximate nearest neighbour VectorIndex
// backed by a Qdrant collection over gRPC.
//
// Each paragraph becomes one point whose ID is a UUIDv5 of
// "documentID/position" and whose payload carries document_id and position.
// Searches filter on document_id so that only in-scope documents match.
package qdrant

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
)

// Payload keys stored on every point.
const (
	payloadDocumentID = "document_id"
	payloadPosition   = "position"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "paragraphs"

// pointNamespace scopes point UUIDs to this application.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("libsearch/paragraphs"))

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex on a Qdrant collection.
type VectorIndex struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	collection  string
	dimensions  int
}

// Option configures a VectorIndex.
type Option func(*VectorIndex)

// WithCollection sets the collection name.
func WithCollection(name string) Option {
	return func(v *VectorIndex) {
		if name != "" {
			v.collection = name
		}
	}
}

// WithDimensions sets the vector size used when creating the collection.
func WithDimensions(n int) Option {
	return func(v *VectorIndex) {
		if n > 0 {
			v.dimensions = n
		}
	}
}

// Dial connects to Qdrant's gRPC endpoint (host:port) and ensures the
// collection exists.
func Dial(ctx context.Context, address string, opts ...Option) (*VectorIndex, error) {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant at %s: %w", domain.ErrVectorIndexUnavailable, address, err)
	}

	v := New(pb.NewCollectionsClient(conn), pb.NewPointsClient(conn), opts...)
	v.conn = conn

	if err := v.EnsureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return v, nil
}

// New creates a VectorIndex from existing gRPC clients.
func New(collections pb.CollectionsClient, points pb.PointsClient, opts ...Option) *VectorIndex {
	v := &VectorIndex{
		collections: collections,
		points:      points,
		collection:  DefaultCollection,
		dimensions:  domain.EmbeddingDimensions,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Collection returns the collection name.
func (v *VectorIndex) Collection() string {
	return v.collection
}

// EnsureCollection creates the cosine-distance collection if it is missing.
func (v *VectorIndex) EnsureCollection(ctx context.Context) error {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("%w: listing collections: %w", domain.ErrVectorIndexUnavailable, err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == v.collection {
			return nil
		}
	}

	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: v.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(v.dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %s: %w", domain.ErrVectorIndexUnavailable, v.collection, err)
	}
	return nil
}

// Upsert replaces all points of set.DocumentID.
func (v *VectorIndex) Upsert(ctx context.Context, set domain.ParagraphSet) error {
	if err := v.Delete(ctx, set.DocumentID); err != nil {
		return err
	}
	if len(set.Paragraphs) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(set.Paragraphs))
	for i, p := range set.Paragraphs {
		points = append(points, &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(set.DocumentID, i)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Embedding}},
			},
			Payload: map[string]*pb.Value{
				payloadDocumentID: {Kind: &pb.Value_StringValue{StringValue: set.DocumentID}},
				payloadPosition:   {Kind: &pb.Value_IntegerValue{IntegerValue: int64(i)}},
			},
		})
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %w", domain.ErrVectorIndexUnavailable, len(points), err)
	}
	return nil
}

// Delete removes every point of a document.
func (v *VectorIndex) Delete(ctx context.Context, documentID string) error {
	wait := true
	_, err := v.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: documentFilter([]string{documentID}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: deleting points of %s: %w", domain.ErrVectorIndexUnavailable, documentID, err)
	}
	return nil
}

// Search finds the k nearest paragraphs among documents in scope.
func (v *VectorIndex) Search(ctx context.Context, query []float32, scope []string, k int) ([]driven.VectorHit, error) {
	if k <= 0 || len(scope) == 0 {
		return []driven.VectorHit{}, nil
	}

	resp, err := v.points.Search(ctx, &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         query,
		Filter:         documentFilter(scope),
		Limit:          uint64(k),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Include{
				Include: &pb.PayloadIncludeSelector{
					Fields: []string{payloadDocumentID, payloadPosition},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: searching: %w", domain.ErrVectorIndexUnavailable, err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		docID := point.GetPayload()[payloadDocumentID].GetStringValue()
		position, ok := positionOf(point.GetPayload()[payloadPosition])
		if docID == "" || !ok {
			continue
		}
		hits = append(hits, driven.VectorHit{
			DocumentID: docID,
			Position:   position,
			Similarity: float64(point.GetScore()),
		})
	}
	return hits, nil
}

// Close releases the gRPC connection when Dial opened it.
func (v *VectorIndex) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

// PointID returns the deterministic point UUID of a paragraph.
func PointID(documentID string, position int) string {
	return uuid.NewSHA1(pointNamespace, []byte(documentID+"/"+strconv.Itoa(position))).String()
}

func documentFilter(documentIDs []string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key: payloadDocumentID,
					Match: &pb.Match{
						MatchValue: &pb.Match_Keywords{
							Keywords: &pb.RepeatedStrings{Strings: documentIDs},
						},
					},
				},
			},
		}},
	}
}

// positionOf reads an integer payload value. Positions written by other
// clients may arrive as doubles.
func positionOf(v *pb.Value) (int, bool) {
	switch kind := v.GetKind().(type) {
	case *pb.Value_IntegerValue:
		return int(kind.IntegerValue), true
	case *pb.Value_DoubleValue:
		return int(kind.DoubleValue), true
	default:
		return 0, false
	}
}
