package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stake-plus/veritrust/src/ai/core"
	"github.com/stake-plus/veritrust/src/webclient"
)

const (
	baseURL          = "https://generativelanguage.googleapis.com/v1beta"
	defaultModelName = "gemini-2.5-flash"
)

func init() {
	core.RegisterProvider("gemini", newClient, "gemini25", "gemini3")
}

type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	defaults   core.Options
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.GeminiKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}

	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = core.ResolveModelName(cfg.Provider, "")
		if model == "unknown" {
			model = defaultModelName
		}
	}
	endpoint := strings.TrimRight(cfg.BaseURL, "/")
	if endpoint == "" {
		endpoint = baseURL
	}

	return &client{
		apiKey:     cfg.GeminiKey,
		baseURL:    endpoint,
		httpClient: webclient.NewDefault(orDuration(cfg.Timeout, 120*time.Second)),
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
	body, err := json.Marshal(buildRequestBody(merged, req))
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}
	return c.send(ctx, merged, body)
}

func buildRequestBody(opts core.Options, req core.Request) map[string]interface{} {
	parts := []map[string]interface{}{}
	if req.Inline != nil {
		parts = append(parts, map[string]interface{}{
			"inlineData": map[string]string{
				"mimeType": req.Inline.MimeType,
				"data":     req.Inline.Data,
			},
		})
	}
	parts = append(parts, map[string]interface{}{"text": req.Prompt})

	genConfig := map[string]interface{}{
		"temperature": opts.Temperature,
	}
	// Thinking models spend output tokens before the answer, so only cap when asked.
	if opts.MaxCompletionTokens > 0 {
		genConfig["maxOutputTokens"] = opts.MaxCompletionTokens
	}
	if req.Schema != nil {
		genConfig["responseMimeType"] = "application/json"
		genConfig["responseSchema"] = toSchema(req.Schema)
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": parts},
		},
		"generationConfig": genConfig,
	}

	if strings.TrimSpace(opts.SystemPrompt) != "" {
		body["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]string{
				{"text": opts.SystemPrompt},
			},
		}
	}
	return body
}

func (c *client) send(ctx context.Context, opts core.Options, payload []byte) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL, normalizeModel(opts.Model))
	headers := map[string]string{"x-goog-api-key": c.apiKey}

	_, body, err := webclient.DoWithRetry(ctx, opts.RetryAttempts, 2*time.Second, func() (int, []byte, error) {
		return webclient.PostJSON(ctx, c.httpClient, url, headers, payload)
	})
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	var result generateContentResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: gemini envelope: %v", core.ErrMalformedResponse, err)
	}
	text := result.FirstText()
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned no text (finish reason %q)", core.ErrMalformedResponse, result.finishReason())
	}
	return text, nil
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

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModelName
	}
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (r generateContentResponse) FirstText() string {
	for _, candidate := range r.Candidates {
		for _, part := range candidate.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func (r generateContentResponse) finishReason() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].FinishReason
}

func orFloat(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
