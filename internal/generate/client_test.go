package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/internal/config"
	"github.com/skillforge/skillforge/internal/models"
)

type fakeBackend struct {
	response string
	err      error
	prompt   string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) SubmitPrompt(ctx context.Context, promptText string, progress ProgressFunc) (string, error) {
	f.prompt = promptText
	progress.Report("working")
	return f.response, f.err
}

func TestClientGenerate(t *testing.T) {
	backend := &fakeBackend{response: "```json\n" + validDocJSON(t) + "\n```"}
	client := NewClient(backend)

	var messages []string
	doc, err := client.Generate(t.Context(), &models.GenerationRequest{
		FullName: "acme/widget",
		URL:      "https://github.com/acme/widget",
	}, func(msg string) { messages = append(messages, msg) })

	require.NoError(t, err)
	assert.Equal(t, "widget-helper", doc.SkillMD.Name())
	assert.Contains(t, backend.prompt, "acme/widget")
	assert.NotEmpty(t, messages)
}

func TestClientGenerateBackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("quota exceeded")}
	client := NewClient(backend)

	_, err := client.Generate(t.Context(), &models.GenerationRequest{FullName: "acme/widget"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClientGenerateParseFailure(t *testing.T) {
	backend := &fakeBackend{response: "sorry, no JSON today"}
	client := NewClient(backend)

	_, err := client.Generate(t.Context(), &models.GenerationRequest{FullName: "acme/widget"}, nil)
	require.Error(t, err)
}

func TestNewBackendRequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "anthropic without key",
			cfg:  config.Config{Provider: config.ProviderAnthropic},
			want: "ANTHROPIC_API_KEY",
		},
		{
			name: "vertex without project",
			cfg:  config.Config{Provider: config.ProviderVertex},
			want: "VERTEX_PROJECT_ID",
		},
		{
			name: "google without key",
			cfg:  config.Config{Provider: config.ProviderGoogle},
			want: "GOOGLE_API_KEY",
		},
		{
			name: "openai without key",
			cfg:  config.Config{Provider: config.ProviderOpenAI},
			want: "OPENAI_API_KEY",
		},
		{
			name: "unknown provider",
			cfg:  config.Config{Provider: "mystery"},
			want: "unknown provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBackend(t.Context(), &tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewBackendAnthropic(t *testing.T) {
	backend, err := NewBackend(t.Context(), &config.Config{
		Provider:        config.ProviderAnthropic,
		AnthropicAPIKey: "key",
		MaxTokens:       1024,
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", backend.Name())
}

func TestNewBackendOpenAI(t *testing.T) {
	backend, err := NewBackend(t.Context(), &config.Config{
		Provider:     config.ProviderOpenAI,
		OpenAIAPIKey: "key",
		MaxTokens:    1024,
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", backend.Name())
}

func TestNilProgressFuncIsSafe(t *testing.T) {
	var p ProgressFunc
	assert.NotPanics(t, func() { p.Report("message") })
}
