package generate

import (
	"context"
	"fmt"

	"github.com/skillforge/skillforge/internal/logging"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// geminiBackend issues single-shot generation calls through the Google
// GenAI SDK. It serves both the Gemini API ("google" provider) and the
// Gemini sub-mode of the vertex provider; only the client config differs.
type geminiBackend struct {
	client    *genai.Client
	model     string
	maxTokens int32
	name      string
}

func newGoogleAIBackend(ctx context.Context, apiKey, model string, maxTokens int) (*geminiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing Gemini API client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiBackend{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
		name:      "google-ai",
	}, nil
}

func (b *geminiBackend) Name() string { return b.name }

func (b *geminiBackend) SubmitPrompt(ctx context.Context, promptText string, progress ProgressFunc) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(promptText),
		&genai.GenerateContentConfig{
			MaxOutputTokens: b.maxTokens,
			Temperature:     genai.Ptr[float32](temperature),
		})
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from %s", b.name)
	}

	logging.Debug("response complete", "backend", b.name, "chars", len(text))
	return text, nil
}
