// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"archflow-backend/application/services"
	"archflow-backend/pkg/common"
)

// ProjectHandler handles project lifecycle requests.
type ProjectHandler struct {
	graphs *services.GraphService
	logger *zap.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(graphs *services.GraphService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		graphs: graphs,
		logger: logger,
	}
}

// CreateProject handles POST /projects. The new project starts with an
// empty graph.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	state, err := h.graphs.CreateProject(r.Context())
	if err != nil {
		h.logger.Error("Failed to create project", zap.Error(err))
		common.RespondAppError(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, graphPayload{
		ProjectID: state.Meta.ProjectID,
		Graph:     state,
	})
}
