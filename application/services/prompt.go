package services

import (
	"encoding/json"
	"fmt"

	"archflow-backend/application/ports"
	"archflow-backend/domain/graph"
)

const deltaSystemPrompt = `You are an assistant that edits a software architecture diagram by proposing changes to its graph.

Reply with a single JSON object with this structure and nothing else:
{
  "addNodes": [{"id": "unique-id", "kind": "service", "label": "Readable Name", "position": {"x": 0, "y": 0}, "data": {"summary": "optional"}}],
  "updateNodes": [{"id": "existing-id", "label": "New Name", "data": {"summary": "replaces only supplied keys"}}],
  "removeNodeIds": ["existing-id"],
  "addEdges": [{"id": "unique-id", "source": "node-id", "target": "node-id", "kind": "calls", "data": {"description": "optional"}}],
  "removeEdgeIds": ["existing-id"]
}

Rules:
1. Node kind must be one of: service, class, module, api, queue, db
2. Edge kind must be one of: calls, depends_on, publishes, consumes, queries
3. Omit any section you do not need; an empty object means no changes
4. Use {"x": 0, "y": 0} as the position of every new node; placement is automatic
5. Edge source and target must reference node ids that exist in the current graph or in your addNodes
6. Never invent removals or updates for ids that are not in the current graph
7. No prose, no markdown fences, JSON only`

// buildDeltaMessages assembles the conversation for one chat mutation:
// a fixed system contract and a user turn carrying the serialized
// current graph plus the request.
func buildDeltaMessages(message string, state *graph.State) ([]ports.Message, error) {
	serialized, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize graph for prompt: %w", err)
	}

	user := fmt.Sprintf(`Current graph:
%s

Request:
%s`, serialized, message)

	return []ports.Message{
		{Role: ports.RoleSystem, Content: deltaSystemPrompt},
		{Role: ports.RoleUser, Content: user},
	}, nil
}
