//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"archflow-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideAtomicLevel,
	ProvideLogger,
	ProvideCollector,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideGraphRepository,
	ProvideEventPublisher,
	ProvideProvider,
	ProvideGraphService,
	ProvideChatService,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned
// cleanup stops the config watcher and closes the model provider.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
