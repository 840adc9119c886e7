package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmylchreest/apiforge/internal/models"
)

// OpenRouterProvider is Provider B: an OpenAI-compatible chat-completions
// surface that additionally expects HTTP-Referer/X-Title identification
// headers on every request.
type OpenRouterProvider struct {
	baseURL    string
	apiKey     string
	referer    string
	title      string
	httpClient *http.Client
}

// NewOpenRouterProvider builds Provider B against baseURL with apiKey.
func NewOpenRouterProvider(baseURL, apiKey string) *OpenRouterProvider {
	return &OpenRouterProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		referer:    "https://github.com/jmylchreest/apiforge",
		title:      "apiforge",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type orChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type orChatRequest struct {
	Model          string          `json:"model"`
	Messages       []orChatMessage `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *orRespFormat   `json:"response_format,omitempty"`
}

type orRespFormat struct {
	Type       string           `json:"type"`
	JSONSchema *orJSONSchemaDef `json:"json_schema,omitempty"`
}

type orJSONSchemaDef struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type orChatResponse struct {
	Choices []struct {
		Message orChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Provider.
func (p *OpenRouterProvider) Complete(ctx context.Context, messages []models.Turn, responseSchema map[string]any, model string, temperature *float64) (string, models.Usage, error) {
	reqBody := orChatRequest{
		Model:       model,
		Messages:    toORMessages(messages),
		Temperature: temperature,
	}
	if len(responseSchema) > 0 {
		reqBody.ResponseFormat = &orRespFormat{
			Type:       "json_schema",
			JSONSchema: &orJSONSchemaDef{Name: "synth_response", Schema: responseSchema},
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", models.Usage{}, &LLMError{Category: CategoryBadRequest, Message: "encoding request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", models.Usage{}, &LLMError{Category: CategoryBadRequest, Message: "building request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("HTTP-Referer", p.referer)
	httpReq.Header.Set("X-Title", p.title)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", models.Usage{}, classify(0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.Usage{}, classify(resp.StatusCode, "", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", models.Usage{}, classify(resp.StatusCode, string(respBody), fmt.Errorf("openrouter: %s", respBody))
	}

	var parsed orChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", models.Usage{}, &LLMError{Category: CategoryParse, Message: "decoding completion", Cause: err}
	}
	if parsed.Error != nil {
		return "", models.Usage{}, &LLMError{Category: CategoryServer, Message: parsed.Error.Message, Retryable: true}
	}
	if len(parsed.Choices) == 0 {
		return "", models.Usage{}, &LLMError{Category: CategoryServer, Message: "no choices returned", Retryable: true}
	}

	usage := models.Usage{InputTokens: parsed.Usage.PromptTokens, OutputTokens: parsed.Usage.CompletionTokens}
	return parsed.Choices[0].Message.Content, usage, nil
}

func toORMessages(turns []models.Turn) []orChatMessage {
	out := make([]orChatMessage, 0, len(turns))
	for _, t := range turns {
		out = append(out, orChatMessage{Role: string(t.Role), Content: t.Content})
	}
	return out
}
