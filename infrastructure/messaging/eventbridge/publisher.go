// Package eventbridge publishes domain events to an AWS EventBridge bus.
// Rules and targets on the bus side decide who consumes them.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"archflow-backend/domain/events"
)

// Publisher implements ports.EventPublisher on AWS EventBridge.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	source       string
	logger       *zap.Logger
}

// NewPublisher creates an EventBridge publisher for the given bus.
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		source:       events.Source,
		logger:       logger,
	}
}

// PublishGraphUpdated sends a graph.updated event. The full event payload
// travels as the entry detail.
func (p *Publisher) PublishGraphUpdated(ctx context.Context, event events.GraphUpdated) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBusName),
		Source:       aws.String(p.source),
		DetailType:   aws.String(event.GetEventType()),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(event.GetTimestamp()),
		Resources: []string{
			fmt.Sprintf("arn:aws:archflow::%s", event.GetAggregateID()),
		},
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("failed to publish event to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, failed := range result.Entries {
			if failed.ErrorCode != nil {
				p.logger.Error("EventBridge rejected event",
					zap.String("event_type", event.GetEventType()),
					zap.String("error_code", aws.ToString(failed.ErrorCode)),
					zap.String("error_message", aws.ToString(failed.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("Event published",
		zap.String("event_type", event.GetEventType()),
		zap.String("project_id", event.ProjectID),
		zap.String("event_bus", p.eventBusName),
	)

	return nil
}
