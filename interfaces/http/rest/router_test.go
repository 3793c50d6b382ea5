package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archflow-backend/application/ports"
	"archflow-backend/application/services"
	"archflow-backend/infrastructure/config"
	"archflow-backend/infrastructure/persistence/memory"
	"archflow-backend/pkg/observability"
)

// scriptedProvider returns a canned completion, standing in for the model.
type scriptedProvider struct {
	available bool
	response  string
	err       error
}

func (p *scriptedProvider) Complete(ctx context.Context, messages []ports.Message, opts ports.CompletionOptions) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func (p *scriptedProvider) IsAvailable() bool {
	return p.available
}

type envelope struct {
	Success bool `json:"success"`
	Data    struct {
		ProjectID string           `json:"projectId"`
		Graph     *json.RawMessage `json:"graph"`
		Summary   string           `json:"summary"`
		Report    *struct {
			NodesAdded   int `json:"nodesAdded"`
			EdgesAdded   int `json:"edgesAdded"`
			DroppedEdges []struct {
				ID     string `json:"id"`
				Reason string `json:"reason"`
			} `json:"droppedEdges"`
		} `json:"report"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestRouter(t *testing.T, provider ports.Provider) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewCollector("archflow")
	store := memory.NewGraphStore()

	cfg := &config.Config{
		Environment:   config.Development,
		ServerAddress: ":0",
	}
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.Limits.MaxPromptNodes = 50
	cfg.Limits.MaxPromptEdges = 100
	cfg.Limits.MaxBodyBytes = 1 << 20

	graphs := services.NewGraphService(store, nil, metrics, logger)
	chat := services.NewChatService(graphs, provider, metrics, logger, services.DefaultChatOptions())

	return NewRouter(cfg, graphs, chat, store, provider, metrics, logger).Setup()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

func createProject(t *testing.T, router http.Handler) string {
	t.Helper()

	w, resp := doJSON(t, router, "POST", "/api/v1/projects", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Data.ProjectID)
	return resp.Data.ProjectID
}

func TestProjectLifecycle(t *testing.T) {
	router := newTestRouter(t, &scriptedProvider{available: true})

	t.Run("Should create a project with an empty graph", func(t *testing.T) {
		w, resp := doJSON(t, router, "POST", "/api/v1/projects", nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Data.ProjectID)
		assert.NotNil(t, resp.Data.Graph)
	})

	t.Run("Should return 404 for an unknown project", func(t *testing.T) {
		w, resp := doJSON(t, router, "GET", "/api/v1/projects/no-such-project/graph", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})

	t.Run("Should round-trip a replaced graph", func(t *testing.T) {
		projectID := createProject(t, router)

		graphDoc := map[string]interface{}{
			"nodes": []map[string]interface{}{
				{"id": "api", "kind": "service", "label": "API", "position": map[string]float64{"x": 100, "y": 100}},
				{"id": "orders-db", "kind": "db", "label": "Orders DB", "position": map[string]float64{"x": 350, "y": 100}},
			},
			"edges": []map[string]interface{}{
				{"id": "api-orders", "source": "api", "target": "orders-db", "kind": "queries"},
			},
		}

		w, resp := doJSON(t, router, "PUT", "/api/v1/projects/"+projectID+"/graph", map[string]interface{}{"graph": graphDoc})
		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, resp.Success)

		w, resp = doJSON(t, router, "GET", "/api/v1/projects/"+projectID+"/graph", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, resp.Data.Graph)
		assert.Contains(t, string(*resp.Data.Graph), `"api-orders"`)
		assert.Contains(t, string(*resp.Data.Graph), `"projectId":"`+projectID+`"`)
	})

	t.Run("Should reject a replace without a graph document", func(t *testing.T) {
		projectID := createProject(t, router)

		w, resp := doJSON(t, router, "PUT", "/api/v1/projects/"+projectID+"/graph", map[string]interface{}{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "VALIDATION", resp.Error.Code)
	})

	t.Run("Should reject a graph with an unknown node kind", func(t *testing.T) {
		projectID := createProject(t, router)

		graphDoc := map[string]interface{}{
			"nodes": []map[string]interface{}{
				{"id": "api", "kind": "lambda", "label": "API"},
			},
			"edges": []map[string]interface{}{},
		}

		w, resp := doJSON(t, router, "PUT", "/api/v1/projects/"+projectID+"/graph", map[string]interface{}{"graph": graphDoc})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "VALIDATION", resp.Error.Code)
	})
}

func TestApplyDeltaEndpoint(t *testing.T) {
	router := newTestRouter(t, &scriptedProvider{available: true})

	t.Run("Should apply a structured delta and report the merge", func(t *testing.T) {
		projectID := createProject(t, router)

		delta := map[string]interface{}{
			"addNodes": []map[string]interface{}{
				{"id": "api", "kind": "service", "label": "API"},
				{"id": "jobs", "kind": "queue", "label": "Jobs"},
			},
			"addEdges": []map[string]interface{}{
				{"id": "api-jobs", "source": "api", "target": "jobs", "kind": "publishes"},
				{"id": "api-ghost", "source": "api", "target": "ghost", "kind": "calls"},
			},
		}

		w, resp := doJSON(t, router, "POST", "/api/v1/projects/"+projectID+"/graph/delta", map[string]interface{}{"delta": delta})

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, resp.Success)
		require.NotNil(t, resp.Data.Report)
		assert.Equal(t, 2, resp.Data.Report.NodesAdded)
		assert.Equal(t, 1, resp.Data.Report.EdgesAdded)
		require.Len(t, resp.Data.Report.DroppedEdges, 1)
		assert.Equal(t, "api-ghost", resp.Data.Report.DroppedEdges[0].ID)
		assert.Equal(t, "missing_endpoint", resp.Data.Report.DroppedEdges[0].Reason)
		assert.NotEmpty(t, resp.Data.Summary)
	})

	t.Run("Should reject a request without a delta", func(t *testing.T) {
		projectID := createProject(t, router)

		w, resp := doJSON(t, router, "POST", "/api/v1/projects/"+projectID+"/graph/delta", map[string]interface{}{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "VALIDATION", resp.Error.Code)
	})
}

func TestChatEndpoint(t *testing.T) {
	t.Run("Should apply a model-produced delta", func(t *testing.T) {
		provider := &scriptedProvider{
			available: true,
			response: "```json\n" +
				`{"addNodes":[{"id":"jobs","kind":"queue","label":"Jobs"}],"addEdges":[]}` +
				"\n```",
		}
		router := newTestRouter(t, provider)
		projectID := createProject(t, router)

		w, resp := doJSON(t, router, "POST", "/api/v1/projects/"+projectID+"/chat", map[string]string{"message": "add a job queue"})

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, resp.Success)
		require.NotNil(t, resp.Data.Report)
		assert.Equal(t, 1, resp.Data.Report.NodesAdded)
		assert.Contains(t, string(*resp.Data.Graph), `"jobs"`)
	})

	t.Run("Should return the prior graph when the model output is unusable", func(t *testing.T) {
		provider := &scriptedProvider{available: true, response: "I cannot help with that."}
		router := newTestRouter(t, provider)
		projectID := createProject(t, router)

		w, resp := doJSON(t, router, "POST", "/api/v1/projects/"+projectID+"/chat", map[string]string{"message": "add a queue"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "PARSE", resp.Error.Code)
		require.NotNil(t, resp.Data.Graph, "error responses must still carry the last good graph")
	})

	t.Run("Should degrade to 503 when no provider is configured", func(t *testing.T) {
		router := newTestRouter(t, &scriptedProvider{available: false})
		projectID := createProject(t, router)

		w, resp := doJSON(t, router, "POST", "/api/v1/projects/"+projectID+"/chat", map[string]string{"message": "add a queue"})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "UNAVAILABLE", resp.Error.Code)
		require.NotNil(t, resp.Data.Graph)
	})

	t.Run("Should reject an empty message", func(t *testing.T) {
		router := newTestRouter(t, &scriptedProvider{available: true})
		projectID := createProject(t, router)

		w, resp := doJSON(t, router, "POST", "/api/v1/projects/"+projectID+"/chat", map[string]string{"message": ""})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "VALIDATION", resp.Error.Code)
	})
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t, &scriptedProvider{available: true})

	t.Run("Should report health with provider availability", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"provider":"available"`)
	})

	t.Run("Should report ready when the store answers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ready", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ready"`)
	})

	t.Run("Should expose prometheus metrics", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/metrics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "archflow_")
	})
}

func TestRequestBodyLimit(t *testing.T) {
	router := newTestRouter(t, &scriptedProvider{available: true})
	projectID := createProject(t, router)

	big := bytes.Repeat([]byte("x"), 2<<20)
	body := []byte(`{"message":"` + string(big) + `"}`)

	req := httptest.NewRequest("POST", "/api/v1/projects/"+projectID+"/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "request body too large")
}
