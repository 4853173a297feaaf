package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/skillforge/skillforge/internal/logging"
)

const defaultOpenAIModel = "gpt-4o-mini"

// openaiBackend streams chat completions, folding chunk deltas into the
// final response.
type openaiBackend struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func newOpenAIBackend(apiKey, model string, maxTokens int) *openaiBackend {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openaiBackend{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (b *openaiBackend) Name() string { return "openai" }

func (b *openaiBackend) SubmitPrompt(ctx context.Context, promptText string, progress ProgressFunc) (string, error) {
	stream, err := b.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: promptText},
		},
		MaxCompletionTokens: b.maxTokens,
		Temperature:         temperature,
		Stream:              true,
	})
	if err != nil {
		return "", fmt.Errorf("creating completion stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	var sb strings.Builder
	lastReport := 0

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("receiving stream chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		sb.WriteString(resp.Choices[0].Delta.Content)
		reportAccumulation(progress, sb.Len(), &lastReport)
	}

	logging.Debug("response complete", "backend", "openai", "chars", sb.Len())
	return sb.String(), nil
}
