package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"archflow-backend/application/services"
	"archflow-backend/domain/graph"
	"archflow-backend/pkg/common"
	appErrors "archflow-backend/pkg/errors"
)

// ChatHandler handles conversational graph mutations.
type ChatHandler struct {
	chat         *services.ChatService
	graphs       *services.GraphService
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService, graphs *services.GraphService, maxBodyBytes int64, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:         chat,
		graphs:       graphs,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// HandleMessage handles POST /projects/{projectID}/chat. Failures still
// carry the last persisted graph so clients can re-render a consistent
// canvas instead of going blank.
func (h *ChatHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var req chatRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		h.respondWithPriorState(w, r, projectID, err)
		return
	}
	if req.Message == "" {
		h.respondWithPriorState(w, r, projectID, appErrors.NewValidationError("message is required"))
		return
	}

	result, err := h.chat.HandleMessage(r.Context(), projectID, req.Message)
	if err != nil {
		h.logger.Error("Chat message failed",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		h.respondWithPriorState(w, r, projectID, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, graphPayload{
		Graph:   result.State,
		Summary: result.Summary,
		Report:  reportDTO(result.Report),
	})
}

// respondWithPriorState reports the failure alongside the last graph that
// was successfully persisted, falling back to an empty graph for projects
// that have never been saved.
func (h *ChatHandler) respondWithPriorState(w http.ResponseWriter, r *http.Request, projectID string, cause error) {
	state, loadErr := h.graphs.GetGraph(r.Context(), projectID)
	if loadErr != nil {
		if !appErrors.IsNotFound(loadErr) {
			h.logger.Warn("Failed to load prior graph for error response",
				zap.String("project_id", projectID),
				zap.Error(loadErr),
			)
			common.RespondAppError(w, r, cause)
			return
		}
		state = graph.NewState(projectID)
	}

	common.RespondAppErrorWithData(w, r, cause, graphPayload{Graph: state})
}
