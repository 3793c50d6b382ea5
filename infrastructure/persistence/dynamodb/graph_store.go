// Package dynamodb persists graph states in a single DynamoDB table, one
// item per project.
package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/golang/snappy"
	"go.uber.org/zap"

	"archflow-backend/domain/graph"
	appErrors "archflow-backend/pkg/errors"
)

const (
	skGraph         = "GRAPH"
	entityTypeState = "GRAPH_STATE"
	codecJSONSnappy = "json+snappy"
)

// GraphStore implements ports.GraphStateRepository on DynamoDB. The whole
// graph travels as one snappy-compressed JSON payload; node and edge counts
// are denormalized onto the item.
type GraphStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewGraphStore creates a DynamoDB-backed graph store.
func NewGraphStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *GraphStore {
	return &GraphStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// graphItem is the DynamoDB item layout for a stored graph.
type graphItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ProjectID  string `dynamodbav:"ProjectID"`
	NodeCount  int    `dynamodbav:"NodeCount"`
	EdgeCount  int    `dynamodbav:"EdgeCount"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	Codec      string `dynamodbav:"Codec"`
	Payload    []byte `dynamodbav:"Payload"`
}

func projectKey(projectID string) string {
	return fmt.Sprintf("PROJECT#%s", projectID)
}

// Load fetches and decodes the graph state for a project.
func (s *GraphStore) Load(ctx context.Context, projectID string) (*graph.State, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: projectKey(projectID)},
			"SK": &types.AttributeValueMemberS{Value: skGraph},
		},
	})
	if err != nil {
		s.logger.Error("Failed to load graph state",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		return nil, mapDynamoError("load graph state", err)
	}
	if len(result.Item) == 0 {
		return nil, appErrors.NewNotFoundError("graph")
	}

	var item graphItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, appErrors.NewDatabaseError("decode graph item", err)
	}

	state, err := decodePayload(&item)
	if err != nil {
		s.logger.Error("Stored graph payload is unreadable",
			zap.String("project_id", projectID),
			zap.String("codec", item.Codec),
			zap.Error(err),
		)
		return nil, appErrors.NewDatabaseError("decode graph payload", err)
	}

	s.logger.Debug("Loaded graph state",
		zap.String("project_id", projectID),
		zap.Int("node_count", item.NodeCount),
		zap.Int("edge_count", item.EdgeCount),
	)

	return state, nil
}

// Save encodes, compresses and writes the graph state for a project.
func (s *GraphStore) Save(ctx context.Context, projectID string, state *graph.State) error {
	if state == nil {
		return appErrors.NewValidationError("graph state is required")
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return appErrors.NewDatabaseError("encode graph state", err)
	}
	compressed := snappy.Encode(nil, payload)

	item := graphItem{
		PK:         projectKey(projectID),
		SK:         skGraph,
		EntityType: entityTypeState,
		ProjectID:  projectID,
		NodeCount:  len(state.Nodes),
		EdgeCount:  len(state.Edges),
		UpdatedAt:  state.Meta.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Codec:      codecJSONSnappy,
		Payload:    compressed,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return appErrors.NewDatabaseError("marshal graph item", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		s.logger.Error("Failed to save graph state",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		return mapDynamoError("save graph state", err)
	}

	s.logger.Debug("Saved graph state",
		zap.String("project_id", projectID),
		zap.Int("node_count", item.NodeCount),
		zap.Int("edge_count", item.EdgeCount),
		zap.Int("payload_bytes", len(compressed)),
	)

	return nil
}

// decodePayload reverses Save's encoding. Items written with an unknown
// codec are rejected rather than misread.
func decodePayload(item *graphItem) (*graph.State, error) {
	if item.Codec != codecJSONSnappy {
		return nil, fmt.Errorf("unknown payload codec %q", item.Codec)
	}

	payload, err := snappy.Decode(nil, item.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress payload: %w", err)
	}

	var state graph.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return &state, nil
}

// mapDynamoError translates AWS SDK failures into application errors.
// Throttling surfaces as unavailability, not a database fault.
func mapDynamoError(operation string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return appErrors.NewUnavailableError("graph store").WithCause(err)
		case "ResourceNotFoundException":
			return appErrors.NewDatabaseError(operation, err).
				WithCode("TABLE_NOT_FOUND")
		}
	}
	return appErrors.NewDatabaseError(operation, err)
}
