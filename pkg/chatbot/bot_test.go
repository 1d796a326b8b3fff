package chatbot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider replays scripted completions and records what it was sent.
type fakeProvider struct {
	completions []*Completion
	calls       int
	lastMsgs    []Message
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Complete(ctx context.Context, system string, msgs []Message, tools []ToolSpec) (*Completion, error) {
	f.lastMsgs = msgs
	i := f.calls
	if i >= len(f.completions) {
		i = len(f.completions) - 1
	}
	f.calls++
	return f.completions[i], nil
}

func echoTool(name string) Tool {
	return Tool{
		ToolSpec: ToolSpec{Name: name, Description: "echoes its query argument"},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			q, _ := args["query"].(string)
			return "echo: " + q, nil
		},
	}
}

func TestChatToolLoop(t *testing.T) {
	provider := &fakeProvider{
		completions: []*Completion{
			{ToolCalls: []ToolCall{{ID: "c1", Name: "search_stories", Arguments: map[string]any{"query": "rust"}}}},
			{Content: "Here are the Rust stories."},
		},
	}
	bot := New(provider, []Tool{echoTool("search_stories")}, nil, 5)

	reply, err := bot.Chat(context.Background(), "anything about rust?")
	require.NoError(t, err)
	assert.Equal(t, "Here are the Rust stories.", reply)

	// The tool result went back to the model as a tool message.
	var toolMsg *Message
	for i := range provider.lastMsgs {
		if provider.lastMsgs[i].Role == "tool" {
			toolMsg = &provider.lastMsgs[i]
		}
	}
	require.NotNil(t, toolMsg)
	assert.Equal(t, "echo: rust", toolMsg.Content)
	assert.Equal(t, "c1", toolMsg.ToolCallID)
}

func TestChatIterationBound(t *testing.T) {
	// The model never stops asking for tools.
	provider := &fakeProvider{
		completions: []*Completion{
			{ToolCalls: []ToolCall{{ID: "c1", Name: "loop", Arguments: map[string]any{}}}},
		},
	}
	bot := New(provider, []Tool{echoTool("loop")}, nil, 3)

	reply, err := bot.Chat(context.Background(), "go forever")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	assert.Equal(t, 3, provider.calls)
}

func TestChatHistory(t *testing.T) {
	provider := &fakeProvider{completions: []*Completion{{Content: "hi"}}}
	bot := New(provider, nil, nil, 5)

	_, err := bot.Chat(context.Background(), "hello")
	require.NoError(t, err)

	history := bot.History()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)

	bot.ClearHistory()
	assert.Empty(t, bot.History())
}

func TestChatUnknownToolReported(t *testing.T) {
	provider := &fakeProvider{
		completions: []*Completion{
			{ToolCalls: []ToolCall{{ID: "c1", Name: "missing_tool", Arguments: map[string]any{}}}},
			{Content: "done"},
		},
	}
	bot := New(provider, []Tool{echoTool("real_tool")}, nil, 5)

	_, err := bot.Chat(context.Background(), "use the fake one")
	require.NoError(t, err)

	var toolMsg *Message
	for i := range provider.lastMsgs {
		if provider.lastMsgs[i].Role == "tool" {
			toolMsg = &provider.lastMsgs[i]
		}
	}
	require.NotNil(t, toolMsg)
	assert.Contains(t, toolMsg.Content, "not found")
}

func TestDirectToolCall(t *testing.T) {
	bot := New(&fakeProvider{}, []Tool{echoTool("echo")}, nil, 5)

	out, err := bot.DirectToolCall(context.Background(), "echo", map[string]any{"query": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)

	_, err = bot.DirectToolCall(context.Background(), "nope", nil)
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	bot := New(&fakeProvider{}, []Tool{echoTool("echo")}, nil, 5)

	info := bot.Info()
	assert.Equal(t, "fake", info.Provider)
	assert.Equal(t, "fake-model", info.Model)
	assert.Equal(t, []string{"echo"}, info.AvailableTools)
	assert.Equal(t, "conversation_buffer", info.MemoryType)
}
