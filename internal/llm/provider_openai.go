package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jmylchreest/apiforge/internal/models"
)

// OpenAIProvider is Provider A: the default, OpenAI-compatible
// chat-completions provider.
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider builds Provider A against baseURL with apiKey.
func NewOpenAIProvider(baseURL, apiKey string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...)}
}

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []models.Turn, responseSchema map[string]any, model string, temperature *float64) (string, models.Usage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: toOpenAIMessages(messages),
	}
	if len(responseSchema) > 0 {
		// Strict mode is left off: the synthesized schemas (draft
		// object shapes the LLM itself proposes fields for) don't
		// always satisfy strict's additionalProperties/required
		// constraints, and the retry loop above already handles a
		// non-conforming completion.
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "synth_response",
					Schema: responseSchema,
				},
			},
		}
	}
	if temperature != nil {
		params.Temperature = openai.Float(*temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", models.Usage{}, classify(0, "", err)
	}
	if len(resp.Choices) == 0 {
		return "", models.Usage{}, &LLMError{Category: CategoryServer, Message: "no choices returned", Retryable: true}
	}

	usage := models.Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func toOpenAIMessages(turns []models.Turn) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case models.SystemMsg:
			out = append(out, openai.SystemMessage(t.Content))
		case models.AssistantMsg:
			out = append(out, openai.AssistantMessage(t.Content))
		default:
			out = append(out, openai.UserMessage(t.Content))
		}
	}
	return out
}
