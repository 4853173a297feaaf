// Package generate drives one of four interchangeable LLM backends to
// synthesize a skill document from an evidence set, then parses and
// validates the semi-structured response.
package generate

import (
	"context"
	"fmt"

	"github.com/skillforge/skillforge/internal/config"
	"github.com/skillforge/skillforge/internal/logging"
	"github.com/skillforge/skillforge/internal/models"
	"github.com/skillforge/skillforge/internal/prompt"
)

// temperature is fixed for every backend that does not use the provider's
// default sampling.
const temperature = 0.7

// progressInterval is the accumulation threshold (in characters) at which
// streaming backends report progress.
const progressInterval = 1000

// ProgressFunc receives coarse progress messages. It may be nil; backends
// never block on it and its failures are not the pipeline's problem.
type ProgressFunc func(msg string)

func (p ProgressFunc) Report(msg string) {
	if p != nil {
		p(msg)
	}
}

// Backend is one provider behind the generation client. SubmitPrompt
// returns the complete raw model output; all transport, authentication,
// and provider-side failures surface as an error here and go no further.
type Backend interface {
	Name() string
	SubmitPrompt(ctx context.Context, promptText string, progress ProgressFunc) (string, error)
}

// NewBackend constructs the backend selected by cfg.Provider, failing
// fast with a descriptive error when the provider's minimum credential is
// absent.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return newAnthropicBackend(cfg.AnthropicAPIKey, cfg.Model, cfg.MaxTokens), nil

	case config.ProviderVertex:
		if cfg.VertexProject == "" {
			return nil, fmt.Errorf("VERTEX_PROJECT_ID is required for the vertex provider")
		}
		return newVertexBackend(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.Model, cfg.MaxTokens)

	case config.ProviderGoogle:
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required for the google provider")
		}
		return newGoogleAIBackend(ctx, cfg.GoogleAPIKey, cfg.Model, cfg.MaxTokens)

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return newOpenAIBackend(cfg.OpenAIAPIKey, cfg.Model, cfg.MaxTokens), nil

	default:
		return nil, fmt.Errorf("unknown provider %q (supported: anthropic, vertex, google, openai)", cfg.Provider)
	}
}

// Client orchestrates prompt assembly, one backend call, and response
// parsing. One request yields at most one backend call and one parse
// attempt; there is no retry or repair.
type Client struct {
	backend Backend
}

func NewClient(backend Backend) *Client {
	return &Client{backend: backend}
}

// Generate produces a validated skill document for the request, or an
// error. A nil document is never paired with a nil error: every failure
// mode is reported.
func (c *Client) Generate(ctx context.Context, req *models.GenerationRequest, progress ProgressFunc) (*models.SkillDocument, error) {
	progress.Report("Preparing data for generation...")
	promptText := prompt.Build(req)

	progress.Report(fmt.Sprintf("Calling %s to generate skill...", c.backend.Name()))
	raw, err := c.backend.SubmitPrompt(ctx, promptText, progress)
	if err != nil {
		logging.Error("backend call failed", "backend", c.backend.Name(), "repo", req.FullName, "err", err)
		return nil, fmt.Errorf("%s: %w", c.backend.Name(), err)
	}

	progress.Report("Parsing model response...")
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// reportAccumulation invokes progress each time the accumulated response
// grows past another progressInterval boundary.
func reportAccumulation(progress ProgressFunc, accumulated int, lastReport *int) {
	if accumulated-*lastReport >= progressInterval {
		*lastReport = accumulated
		progress.Report(fmt.Sprintf("Generating... (%d chars)", accumulated))
	}
}
