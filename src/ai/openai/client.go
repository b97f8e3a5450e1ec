package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/sashabaranov/go-openai"

	"github.com/stake-plus/veritrust/src/ai/core"
	"github.com/stake-plus/veritrust/src/webclient"
)

const (
	defaultModelName = "gpt-4o"
	schemaName       = "verification_result"
)

func init() {
	core.RegisterProvider("openai", newClient, "gpt4o")
}

type client struct {
	api      *oai.Client
	defaults core.Options
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("openai: API key not configured")
	}

	oc := oai.DefaultConfig(cfg.OpenAIKey)
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		oc.BaseURL = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	oc.HTTPClient = webclient.NewDefault(timeout)

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModelName
	}
	return &client{
		api: oai.NewClientWithConfig(oc),
		defaults: core.Options{
			Model:               model,
			Temperature:         orFloat(cfg.Temperature, 0.2),
			MaxCompletionTokens: cfg.MaxCompletionTokens,
			SystemPrompt:        cfg.SystemPrompt,
			RetryAttempts:       1,
		},
	}, nil
}

func (c *client) Analyze(ctx context.Context, req core.Request, opts core.Options) (string, error) {
	merged := c.merge(opts)

	user, err := userMessage(req)
	if err != nil {
		return "", err
	}
	messages := []oai.ChatCompletionMessage{}
	if strings.TrimSpace(merged.SystemPrompt) != "" {
		messages = append(messages, oai.ChatCompletionMessage{Role: oai.ChatMessageRoleSystem, Content: merged.SystemPrompt})
	}
	messages = append(messages, user)

	chatReq := oai.ChatCompletionRequest{
		Model:       merged.Model,
		Messages:    messages,
		Temperature: float32(merged.Temperature),
		MaxTokens:   merged.MaxCompletionTokens,
	}
	if req.Schema != nil {
		chatReq.ResponseFormat = &oai.ChatCompletionResponseFormat{
			Type: oai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &oai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: toDefinition(req.Schema),
				Strict: false,
			},
		}
	}

	var resp oai.ChatCompletionResponse
	_, _, err = webclient.DoWithRetry(ctx, merged.RetryAttempts, 2*time.Second, func() (int, []byte, error) {
		var callErr error
		resp, callErr = c.api.CreateChatCompletion(ctx, chatReq)
		return statusOf(callErr), nil, callErr
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", core.ErrMalformedResponse)
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: openai returned empty content (finish reason %q)", core.ErrMalformedResponse, resp.Choices[0].FinishReason)
	}
	return text, nil
}

// userMessage attaches images as data URLs. Audio has no single-call path through
// chat completions, so it is refused before anything is sent.
func userMessage(req core.Request) (oai.ChatCompletionMessage, error) {
	if req.Inline == nil {
		return oai.ChatCompletionMessage{Role: oai.ChatMessageRoleUser, Content: req.Prompt}, nil
	}
	if !strings.HasPrefix(req.Inline.MimeType, "image/") {
		return oai.ChatCompletionMessage{}, fmt.Errorf("%w: openai cannot analyse %q content", core.ErrUnsupportedInput, req.Inline.MimeType)
	}
	return oai.ChatCompletionMessage{
		Role: oai.ChatMessageRoleUser,
		MultiContent: []oai.ChatMessagePart{
			{Type: oai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: oai.ChatMessagePartTypeImageURL,
				ImageURL: &oai.ChatMessageImageURL{
					URL:    fmt.Sprintf("data:%s;base64,%s", req.Inline.MimeType, req.Inline.Data),
					Detail: oai.ImageURLDetailHigh,
				},
			},
		},
	}, nil
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var apiErr *oai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *oai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func (c *client) merge(opts core.Options) core.Options {
	out := c.defaults
	if strings.TrimSpace(opts.Model) != "" {
		out.Model = opts.Model
	}
	if opts.Temperature != 0 {
		out.Temperature = opts.Temperature
	}
	if opts.MaxCompletionTokens != 0 {
		out.MaxCompletionTokens = opts.MaxCompletionTokens
	}
	if strings.TrimSpace(opts.SystemPrompt) != "" {
		out.SystemPrompt = opts.SystemPrompt
	}
	if opts.RetryAttempts > 0 {
		out.RetryAttempts = opts.RetryAttempts
	}
	return out
}

func orFloat(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}
