package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"archflow-backend/application/services"
	"archflow-backend/domain/graph"
	"archflow-backend/pkg/common"
	appErrors "archflow-backend/pkg/errors"
)

// graphPayload is the data section of every graph-carrying response.
type graphPayload struct {
	ProjectID string          `json:"projectId,omitempty"`
	Graph     *graph.State    `json:"graph"`
	Summary   string          `json:"summary,omitempty"`
	Report    *mutationReport `json:"report,omitempty"`
}

// mutationReport is the wire form of a merge report.
type mutationReport struct {
	NodesAdded      int           `json:"nodesAdded"`
	NodesUpdated    int           `json:"nodesUpdated"`
	NodesRemoved    int           `json:"nodesRemoved"`
	EdgesAdded      int           `json:"edgesAdded"`
	EdgesRemoved    int           `json:"edgesRemoved"`
	SkippedNodeIDs  []string      `json:"skippedNodeIds,omitempty"`
	MissedUpdateIDs []string      `json:"missedUpdateIds,omitempty"`
	DroppedEdges    []droppedEdge `json:"droppedEdges,omitempty"`
}

type droppedEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Reason string `json:"reason"`
}

func reportDTO(report *graph.MergeReport) *mutationReport {
	if report == nil {
		return nil
	}
	dto := &mutationReport{
		NodesAdded:      report.NodesAdded,
		NodesUpdated:    report.NodesUpdated,
		NodesRemoved:    report.NodesRemoved,
		EdgesAdded:      report.EdgesAdded,
		EdgesRemoved:    report.EdgesRemoved,
		SkippedNodeIDs:  report.SkippedNodeIDs,
		MissedUpdateIDs: report.MissedUpdateIDs,
	}
	for _, dropped := range report.DroppedEdges {
		dto.DroppedEdges = append(dto.DroppedEdges, droppedEdge{
			ID:     dropped.Edge.ID,
			Source: dropped.Edge.Source,
			Target: dropped.Edge.Target,
			Reason: string(dropped.Reason),
		})
	}
	return dto
}

// isAbsent reports whether a document field was omitted or sent as null.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// GraphHandler handles graph read and mutation requests.
type GraphHandler struct {
	graphs       *services.GraphService
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(graphs *services.GraphService, maxBodyBytes int64, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		graphs:       graphs,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// GetGraph handles GET /projects/{projectID}/graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	state, err := h.graphs.GetGraph(r.Context(), projectID)
	if err != nil {
		if !appErrors.IsNotFound(err) {
			h.logger.Error("Failed to load graph",
				zap.String("project_id", projectID),
				zap.Error(err),
			)
		}
		common.RespondAppError(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, graphPayload{Graph: state})
}

type replaceGraphRequest struct {
	Graph json.RawMessage `json:"graph"`
}

// ReplaceGraph handles PUT /projects/{projectID}/graph: a whole-state
// replacement, as sent after direct canvas edits.
func (h *GraphHandler) ReplaceGraph(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var req replaceGraphRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		common.RespondAppError(w, r, err)
		return
	}
	if isAbsent(req.Graph) {
		common.RespondAppError(w, r, appErrors.NewValidationError("graph is required"))
		return
	}

	doc, err := graph.DecodeState(req.Graph)
	if err != nil {
		common.RespondAppError(w, r, err)
		return
	}

	state, err := h.graphs.ReplaceGraph(r.Context(), projectID, doc)
	if err != nil {
		if !appErrors.IsValidation(err) {
			h.logger.Error("Failed to replace graph",
				zap.String("project_id", projectID),
				zap.Error(err),
			)
		}
		common.RespondAppError(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, graphPayload{Graph: state})
}

type applyDeltaRequest struct {
	Delta json.RawMessage `json:"delta"`
}

// ApplyDelta handles POST /projects/{projectID}/graph/delta: a structured
// delta applied without any model involvement.
func (h *GraphHandler) ApplyDelta(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var req applyDeltaRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		common.RespondAppError(w, r, err)
		return
	}
	if isAbsent(req.Delta) {
		common.RespondAppError(w, r, appErrors.NewValidationError("delta is required"))
		return
	}

	delta, err := graph.DecodeDelta(req.Delta)
	if err != nil {
		common.RespondAppError(w, r, err)
		return
	}

	result, err := h.graphs.ApplyDelta(r.Context(), projectID, delta)
	if err != nil {
		if !appErrors.IsValidation(err) {
			h.logger.Error("Failed to apply delta",
				zap.String("project_id", projectID),
				zap.Error(err),
			)
		}
		common.RespondAppError(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, graphPayload{
		Graph:   result.State,
		Summary: result.Summary,
		Report:  reportDTO(result.Report),
	})
}
