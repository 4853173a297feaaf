package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"google.golang.org/genai"
)

const defaultVertexClaudeModel = "claude-sonnet-4-5@20250929"

// newVertexBackend selects the Vertex AI sub-mode by model name: models
// carrying the "claude" marker go through the Anthropic SDK's Vertex
// transport (streaming), everything else through the GenAI SDK's Vertex
// backend (single-shot).
func newVertexBackend(ctx context.Context, project, location, model string, maxTokens int) (Backend, error) {
	if model == "" {
		model = defaultVertexClaudeModel
	}

	if strings.Contains(strings.ToLower(model), "claude") {
		return &anthropicBackend{
			client:    anthropic.NewClient(vertex.WithGoogleAuth(ctx, location, project)),
			model:     model,
			maxTokens: int64(maxTokens),
			name:      "vertex-claude",
		}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing Vertex AI client: %w", err)
	}
	return &geminiBackend{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
		name:      "vertex-gemini",
	}, nil
}
