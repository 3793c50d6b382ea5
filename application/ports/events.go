package ports

import (
	"context"

	"archflow-backend/domain/events"
)

// EventPublisher broadcasts domain events after a mutation has been
// persisted. Publishing is best-effort: failures are logged by the
// caller, never surfaced to the API client.
type EventPublisher interface {
	PublishGraphUpdated(ctx context.Context, event events.GraphUpdated) error
}
