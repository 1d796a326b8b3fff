// Package chatbot is a tool-calling agent over the HackerNews query layer.
package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

const systemPrompt = `You are a helpful AI assistant that specializes in analyzing HackerNews data.
You have access to a database containing HackerNews stories, comments, users, and job postings.

Your capabilities include:
- Searching and analyzing HackerNews stories by topics, keywords, or time periods
- Finding job postings with specific criteria (location, type, company, etc.)
- Analyzing user activity and karma scores
- Providing insights about trending topics and discussions

IMPORTANT: When using tools, always use the correct parameter types:
- Integer parameters (limit, days_back, min_score) must be numbers, not strings
- String parameters (query, username, location) should be text
- For time periods, use integers: 7 for last week, 30 for last month, 365 for last year

Always provide accurate, helpful responses based on the available data. If you don't have
enough information to answer a question, be honest about it and suggest what additional
data might be needed.`

// DefaultMaxIterations bounds the tool-call loop per chat turn.
const DefaultMaxIterations = 5

// Chatbot answers questions by letting the model call query tools. History is
// a plain conversation buffer, safe for concurrent callers.
type Chatbot struct {
	provider Provider
	tools    []Tool
	log      *slog.Logger
	maxIters int

	mu      sync.Mutex
	history []Message
}

// New creates a chatbot over the given provider and toolset.
func New(provider Provider, tools []Tool, log *slog.Logger, maxIterations int) *Chatbot {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if log == nil {
		log = slog.Default()
	}
	return &Chatbot{
		provider: provider,
		tools:    tools,
		log:      log,
		maxIters: maxIterations,
	}
}

// Chat sends one user message through the tool-calling loop and returns the
// final model response. The exchange is appended to the conversation buffer.
func (b *Chatbot) Chat(ctx context.Context, message string) (string, error) {
	b.mu.Lock()
	msgs := make([]Message, len(b.history), len(b.history)+1)
	copy(msgs, b.history)
	b.mu.Unlock()

	msgs = append(msgs, Message{Role: "user", Content: message})
	specs := b.toolSpecs()

	var final string
	for i := 0; i < b.maxIters; i++ {
		completion, err := b.provider.Complete(ctx, systemPrompt, msgs, specs)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}

		if len(completion.ToolCalls) == 0 {
			final = completion.Content
			break
		}

		msgs = append(msgs, Message{
			Role:      "assistant",
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			out := b.runTool(ctx, call)
			msgs = append(msgs, Message{
				Role:       "tool",
				Content:    out,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}
	if final == "" {
		final = "I could not complete the request within the tool call limit."
	}

	b.mu.Lock()
	b.history = append(b.history,
		Message{Role: "user", Content: message},
		Message{Role: "assistant", Content: final})
	b.mu.Unlock()

	return final, nil
}

func (b *Chatbot) runTool(ctx context.Context, call ToolCall) string {
	for _, t := range b.tools {
		if t.Name != call.Name {
			continue
		}
		b.log.Debug("tool call", "tool", call.Name, "args", call.Arguments)
		out, err := t.Run(ctx, call.Arguments)
		if err != nil {
			b.log.Warn("tool failed", "tool", call.Name, "err", err)
			return fmt.Sprintf("Error running %s: %v", call.Name, err)
		}
		return out
	}
	return fmt.Sprintf("Tool %q not found. Available tools: %v", call.Name, b.ToolNames())
}

// DirectToolCall invokes one tool by name, bypassing the model.
func (b *Chatbot) DirectToolCall(ctx context.Context, name string, args map[string]any) (string, error) {
	for _, t := range b.tools {
		if t.Name == name {
			return t.Run(ctx, args)
		}
	}
	return "", fmt.Errorf("tool %q not found", name)
}

// History returns a copy of the conversation buffer.
func (b *Chatbot) History() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.history))
	copy(out, b.history)
	return out
}

// ClearHistory drops the conversation buffer.
func (b *Chatbot) ClearHistory() {
	b.mu.Lock()
	b.history = nil
	b.mu.Unlock()
}

// ToolNames lists the registered tool names.
func (b *Chatbot) ToolNames() []string {
	names := make([]string, len(b.tools))
	for i, t := range b.tools {
		names[i] = t.Name
	}
	return names
}

// ToolDescriptions maps tool name to description.
func (b *Chatbot) ToolDescriptions() map[string]string {
	out := make(map[string]string, len(b.tools))
	for _, t := range b.tools {
		out[t.Name] = t.Description
	}
	return out
}

// SystemInfo describes the chatbot's configuration for the API surface.
type SystemInfo struct {
	Provider         string            `json:"provider"`
	Model            string            `json:"model"`
	AvailableTools   []string          `json:"available_tools"`
	ToolDescriptions map[string]string `json:"tool_descriptions"`
	MemoryType       string            `json:"memory_type"`
}

// Info returns the chatbot's configuration summary.
func (b *Chatbot) Info() SystemInfo {
	return SystemInfo{
		Provider:         b.provider.Name(),
		Model:            b.provider.Model(),
		AvailableTools:   b.ToolNames(),
		ToolDescriptions: b.ToolDescriptions(),
		MemoryType:       "conversation_buffer",
	}
}

// Suggestions returns canned example queries for the UI.
func (b *Chatbot) Suggestions() []string {
	return []string{
		"What are the top stories from the last week?",
		"Find job postings for remote Python developers",
		"Search for stories about artificial intelligence",
		"Get information about user 'pg'",
		"What are the trending topics right now?",
		"Find jobs in San Francisco",
		"Search for stories about blockchain from the last month",
		"Show me high-scoring stories about machine learning",
	}
}

func (b *Chatbot) toolSpecs() []ToolSpec {
	specs := make([]ToolSpec, len(b.tools))
	for i, t := range b.tools {
		specs[i] = t.ToolSpec
	}
	return specs
}
