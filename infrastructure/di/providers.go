package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"archflow-backend/application/ports"
	"archflow-backend/application/services"
	"archflow-backend/infrastructure/config"
	"archflow-backend/infrastructure/llm"
	"archflow-backend/infrastructure/messaging/eventbridge"
	dynamostore "archflow-backend/infrastructure/persistence/dynamodb"
	"archflow-backend/infrastructure/persistence/memory"
	"archflow-backend/pkg/observability"
)

// ProvideAtomicLevel parses the configured log level into a handle that
// stays adjustable at runtime.
func ProvideAtomicLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	return level, nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

// ProvideCollector creates the process-wide metrics collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("archflow")
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideGraphRepository creates the graph state store for the configured
// driver.
func ProvideGraphRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) (ports.GraphStateRepository, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return memory.NewGraphStore(), nil
	case config.StorageDynamoDB:
		return dynamostore.NewGraphStore(client, cfg.Storage.TableName, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// ProvideEventPublisher creates an event publisher. Without a configured
// bus it returns nil and graph updates stay local.
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.Events.BusName == "" {
		logger.Info("event bus not configured, graph updates will not be published")
		return nil
	}
	return eventbridge.NewPublisher(client, cfg.Events.BusName, logger)
}

// ProvideProvider creates the model provider for the configured backend.
func ProvideProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Provider, func(), error) {
	return llm.NewProvider(ctx, cfg, logger)
}

// ProvideGraphService creates the direct-manipulation service
func ProvideGraphService(
	repo ports.GraphStateRepository,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.GraphService {
	return services.NewGraphService(repo, publisher, metrics, logger)
}

// ProvideChatService creates the conversational mutation service
func ProvideChatService(
	graphs *services.GraphService,
	provider ports.Provider,
	metrics *observability.Collector,
	logger *zap.Logger,
	cfg *config.Config,
) *services.ChatService {
	return services.NewChatService(graphs, provider, metrics, logger, services.ChatOptions{
		MaxPromptNodes: cfg.Limits.MaxPromptNodes,
		MaxPromptEdges: cfg.Limits.MaxPromptEdges,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
	})
}

// ProvideConfigWatcher starts the development-mode config watcher and
// hooks log level changes into the running logger.
func ProvideConfigWatcher(cfg *config.Config, logger *zap.Logger, level zap.AtomicLevel) (*config.Watcher, func(), error) {
	watcher, err := config.NewWatcher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	watcher.OnChange(func(next *config.Config) {
		parsed, perr := zap.ParseAtomicLevel(next.Logging.Level)
		if perr != nil {
			logger.Warn("Ignoring invalid log level from config reload",
				zap.String("level", next.Logging.Level),
				zap.Error(perr),
			)
			return
		}
		level.SetLevel(parsed.Level())
	})

	return watcher, watcher.Stop, nil
}
