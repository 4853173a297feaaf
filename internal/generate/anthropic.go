package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/skillforge/skillforge/internal/logging"
)

const defaultAnthropicModel = "claude-3-5-sonnet-20241022"

// anthropicBackend streams messages from the Anthropic API. It also backs
// the Claude sub-mode of the vertex backend, which differs only in client
// construction.
type anthropicBackend struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	name      string
}

func newAnthropicBackend(apiKey, model string, maxTokens int) *anthropicBackend {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &anthropicBackend{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
		name:      "anthropic",
	}
}

func (b *anthropicBackend) Name() string { return b.name }

func (b *anthropicBackend) SubmitPrompt(ctx context.Context, promptText string, progress ProgressFunc) (string, error) {
	stream := b.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: b.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(promptText)),
		},
	})

	var sb strings.Builder
	var message anthropic.Message
	lastReport := 0

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return "", fmt.Errorf("accumulating stream event: %w", err)
		}
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
				sb.WriteString(delta.Text)
				reportAccumulation(progress, sb.Len(), &lastReport)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("streaming response: %w", err)
	}

	// Stop reason is diagnostic only; callers see just the text.
	logging.Debug("response complete",
		"backend", b.name, "chars", sb.Len(), "stop_reason", string(message.StopReason))

	return sb.String(), nil
}
