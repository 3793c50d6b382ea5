// Package di wires the application together. Providers live in
// providers.go, the injector declaration in wire.go, and the generated
// injector in wire_gen.go.
package di

import (
	"go.uber.org/zap"

	"archflow-backend/application/ports"
	"archflow-backend/application/services"
	"archflow-backend/infrastructure/config"
	"archflow-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	LogLevel     zap.AtomicLevel
	Metrics      *observability.Collector
	GraphStore   ports.GraphStateRepository
	Publisher    ports.EventPublisher
	Provider     ports.Provider
	GraphService *services.GraphService
	ChatService  *services.ChatService
	Watcher      *config.Watcher
}
