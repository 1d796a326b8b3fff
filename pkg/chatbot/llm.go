package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Message is one turn of a conversation. Role is "user", "assistant" or
// "tool"; tool messages carry the output of a tool call back to the model.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant turns only
	ToolCallID string     // tool turns only
	ToolName   string     // tool turns only
}

// ToolCall is a model request to invoke one tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Completion is one model response: either final text or tool calls to run.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// Provider is a chat-completion backend with tool support.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, system string, msgs []Message, tools []ToolSpec) (*Completion, error)
}

// ProviderConfig configures an LLM backend.
type ProviderConfig struct {
	Provider    string // "openai" or "anthropic"
	Model       string
	APIKey      string
	BaseURL     string // custom endpoint (optional)
	Temperature float64
}

// NewProvider builds the configured backend.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	client := &http.Client{Timeout: 60 * time.Second}
	switch cfg.Provider {
	case "openai":
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com"
		}
		return &openAIProvider{client: client, cfg: cfg}, nil
	case "anthropic":
		if cfg.Model == "" {
			cfg.Model = "claude-sonnet-4-20250514"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.anthropic.com"
		}
		return &anthropicProvider{client: client, cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("chatbot: unknown provider %q", cfg.Provider)
	}
}

type openAIProvider struct {
	client *http.Client
	cfg    ProviderConfig
}

func (p *openAIProvider) Name() string  { return "openai" }
func (p *openAIProvider) Model() string { return p.cfg.Model }

func (p *openAIProvider) Complete(ctx context.Context, system string, msgs []Message, tools []ToolSpec) (*Completion, error) {
	apiMsgs := []map[string]any{{"role": "system", "content": system}}
	for _, m := range msgs {
		switch m.Role {
		case "assistant":
			msg := map[string]any{"role": "assistant", "content": m.Content}
			if len(m.ToolCalls) > 0 {
				var calls []map[string]any
				for _, tc := range m.ToolCalls {
					args, _ := json.Marshal(tc.Arguments)
					calls = append(calls, map[string]any{
						"id":   tc.ID,
						"type": "function",
						"function": map[string]any{
							"name":      tc.Name,
							"arguments": string(args),
						},
					})
				}
				msg["tool_calls"] = calls
			}
			apiMsgs = append(apiMsgs, msg)
		case "tool":
			apiMsgs = append(apiMsgs, map[string]any{
				"role":         "tool",
				"tool_call_id": m.ToolCallID,
				"content":      m.Content,
			})
		default:
			apiMsgs = append(apiMsgs, map[string]any{"role": "user", "content": m.Content})
		}
	}

	payload := map[string]any{
		"model":       p.cfg.Model,
		"messages":    apiMsgs,
		"temperature": p.cfg.Temperature,
	}
	if len(tools) > 0 {
		var apiTools []map[string]any
		for _, t := range tools {
			apiTools = append(apiTools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			})
		}
		payload["tools"] = apiTools
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("openai status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content   string `json:"content"`
				ToolCalls []struct {
					ID       string `json:"id"`
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}

	msg := result.Choices[0].Message
	completion := &Completion{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		args := make(map[string]any)
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("decode tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return completion, nil
}

type anthropicProvider struct {
	client *http.Client
	cfg    ProviderConfig
}

func (p *anthropicProvider) Name() string  { return "anthropic" }
func (p *anthropicProvider) Model() string { return p.cfg.Model }

func (p *anthropicProvider) Complete(ctx context.Context, system string, msgs []Message, tools []ToolSpec) (*Completion, error) {
	var apiMsgs []map[string]any
	for _, m := range msgs {
		switch m.Role {
		case "assistant":
			var blocks []map[string]any
			if m.Content != "" {
				blocks = append(blocks, map[string]any{"type": "text", "text": m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, map[string]any{
					"type":  "tool_use",
					"id":    tc.ID,
					"name":  tc.Name,
					"input": tc.Arguments,
				})
			}
			apiMsgs = append(apiMsgs, map[string]any{"role": "assistant", "content": blocks})
		case "tool":
			apiMsgs = append(apiMsgs, map[string]any{
				"role": "user",
				"content": []map[string]any{{
					"type":        "tool_result",
					"tool_use_id": m.ToolCallID,
					"content":     m.Content,
				}},
			})
		default:
			apiMsgs = append(apiMsgs, map[string]any{"role": "user", "content": m.Content})
		}
	}

	payload := map[string]any{
		"model":       p.cfg.Model,
		"max_tokens":  4096,
		"system":      system,
		"messages":    apiMsgs,
		"temperature": p.cfg.Temperature,
	}
	if len(tools) > 0 {
		var apiTools []map[string]any
		for _, t := range tools {
			apiTools = append(apiTools, map[string]any{
				"name":         t.Name,
				"description":  t.Description,
				"input_schema": t.Parameters,
			})
		}
		payload["tools"] = apiTools
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("anthropic status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Content []struct {
			Type  string         `json:"type"`
			Text  string         `json:"text"`
			ID    string         `json:"id"`
			Name  string         `json:"name"`
			Input map[string]any `json:"input"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(result.Content) == 0 {
		return nil, fmt.Errorf("anthropic: no content returned")
	}

	completion := &Completion{}
	for _, block := range result.Content {
		switch block.Type {
		case "text":
			completion.Content += block.Text
		case "tool_use":
			completion.ToolCalls = append(completion.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}
	return completion, nil
}
