// Package llm connects the chat pipeline to a language-model agent.
package llm

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/uniassist/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator produces one reply for a system instruction and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// NewModel creates the langchaingo model for cfg.LLMProvider.
func NewModel(ctx context.Context, cfg config.Config) (llms.Model, error) {
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("Groq API key required")
		}
		// Groq serves an OpenAI-compatible API.
		model, err := openai.New(
			openai.WithToken(cfg.GroqAPIKey),
			openai.WithModel(cfg.LLMModel),
			openai.WithBaseURL(cfg.GroqBaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("create groq model: %w", err)
		}
		return model, nil

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return model, nil

	case config.ProviderOllama:
		model, err := ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return model, nil

	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		model, err := bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}
		return model, nil

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err := anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return model, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

// NewGenerator builds the generator described by cfg. Anthropic with search
// enabled uses the native SDK and its server-side web search tool; every other
// combination goes through langchaingo, wrapped in a search agent when
// search is enabled.
func NewGenerator(ctx context.Context, cfg config.Config) (Generator, error) {
	if cfg.LLMProvider == config.ProviderAnthropic && cfg.SearchEnabled {
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		return NewAnthropicGenerator(cfg.AnthropicAPIKey, cfg.LLMModel, true), nil
	}

	model, err := NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.SearchEnabled {
		return NewChatGenerator(model), nil
	}

	tools, err := SearchTools(cfg)
	if err != nil {
		return nil, err
	}
	return NewSearchGenerator(model, tools), nil
}

// ChatGenerator sends the prompt straight to a model with no tools.
type ChatGenerator struct {
	llm llms.Model
}

// NewChatGenerator wraps a langchaingo model.
func NewChatGenerator(model llms.Model) *ChatGenerator {
	return &ChatGenerator{llm: model}
}

func (g *ChatGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := g.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}
