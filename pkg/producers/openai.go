package producers

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/autoprep/autoprep/pkg/telemetry"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAIClient implements LLMClient against the OpenAI chat completion
// API. The credential is supplied out of band via OPENAI_API_KEY.
type OpenAIClient struct {
	client *openai.Client
	model  string
	log    *telemetry.Logger
}

// NewOpenAIClient creates a client for the given model, reading the API
// key from the environment.
func NewOpenAIClient(model string, log *telemetry.Logger) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = telemetry.Nop()
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log.NewComponentLogger("llm"),
	}, nil
}

// Generate implements the LLMClient interface.
func (c *OpenAIClient) Generate(ctx context.Context, system, user string, params Params) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}

	c.log.Debugf("generating completion via %s", c.model)
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("completion returned no content")
	}
	return resp.Choices[0].Message.Content, nil
}
