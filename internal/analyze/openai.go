package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const analysisPrompt = `You are a meeting assistant. Given a meeting transcript, respond with a JSON object:
{"summary": "<2-4 sentence summary>", "action_items": ["<item>", ...]}
Respond with JSON only, no prose.`

// chatClient is the slice of the OpenAI API the analyzer uses, split out
// so tests can substitute a fake.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAnalyzer runs the summary/action-item pass through a chat
// completion model.
type OpenAIAnalyzer struct {
	client chatClient
	model  string
	log    zerolog.Logger
}

// NewOpenAIAnalyzer creates the LLM analysis pass.
func NewOpenAIAnalyzer(apiKey, model string, log zerolog.Logger) *OpenAIAnalyzer {
	return &OpenAIAnalyzer{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log.With().Str("component", "openai-analyzer").Logger(),
	}
}

func (a *OpenAIAnalyzer) Name() string { return "openai" }

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, transcript string) (*Result, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	// Some models wrap JSON in a code fence despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var parsed struct {
		Summary     string   `json:"summary"`
		ActionItems []string `json:"action_items"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}
	if parsed.Summary == "" && len(parsed.ActionItems) == 0 {
		return nil, fmt.Errorf("analysis response carried no content")
	}

	return &Result{Summary: parsed.Summary, ActionItems: parsed.ActionItems}, nil
}
