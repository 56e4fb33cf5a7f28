package llm

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/uniassist/internal/config"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/tools/duckduckgo"
	"github.com/tmc/langchaingo/tools/serpapi"
)

const (
	searchMaxResults    = 5
	searchUserAgent     = "uniassist/1.0"
	searchMaxIterations = 4
)

// SearchTools returns the web search tool selected by cfg.SearchProvider.
func SearchTools(cfg config.Config) ([]tools.Tool, error) {
	switch cfg.SearchProvider {
	case config.SearchSerpAPI:
		t, err := serpapi.New(serpapi.WithAPIKey(cfg.SerpAPIKey))
		if err != nil {
			return nil, fmt.Errorf("create serpapi tool: %w", err)
		}
		return []tools.Tool{t}, nil
	case config.SearchDuckDuckGo, "":
		t, err := duckduckgo.New(searchMaxResults, searchUserAgent)
		if err != nil {
			return nil, fmt.Errorf("create duckduckgo tool: %w", err)
		}
		return []tools.Tool{t}, nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", cfg.SearchProvider)
	}
}

// SearchGenerator runs a one-shot ReAct agent that may call the search tools
// before giving its final answer. A fresh executor is built per call, so the
// generator holds no conversational state.
type SearchGenerator struct {
	llm           llms.Model
	tools         []tools.Tool
	maxIterations int
}

// NewSearchGenerator creates a search-capable generator over model.
func NewSearchGenerator(model llms.Model, searchTools []tools.Tool) *SearchGenerator {
	return &SearchGenerator{llm: model, tools: searchTools, maxIterations: searchMaxIterations}
}

func (g *SearchGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	agent := agents.NewOneShotAgent(g.llm, g.tools,
		agents.WithMaxIterations(g.maxIterations),
		agents.WithPromptPrefix(system+"\n\nYou have access to the following tools:\n\n{{.tool_descriptions}}"),
	)
	executor := agents.NewExecutor(agent)

	answer, err := chains.Run(ctx, executor, prompt)
	if err != nil {
		return "", fmt.Errorf("run search agent: %w", err)
	}
	return answer, nil
}
