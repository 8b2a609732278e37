package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelflow-ai/modelflow/llm"
)

func TestReadPrompt(t *testing.T) {
	got, err := readPrompt([]string{"hello", "world"}, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)

	got, err = readPrompt(nil, strings.NewReader("  from stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = readPrompt(nil, strings.NewReader("   \n"))
	require.Error(t, err)
}

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages("", "hi")
	require.Len(t, msgs, 1)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)

	msgs = buildMessages("be terse", "hi")
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, "be terse", msgs[0].Content)
	assert.Equal(t, "hi", msgs[1].Content)
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "-- finish=unknown", summaryLine("", nil))
	assert.Equal(t, "-- finish=stop", summaryLine("stop", nil))

	line := summaryLine("stop", &llm.ChatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	assert.Equal(t, "-- finish=stop tokens=10+5=15", line)

	line = summaryLine("stop", &llm.ChatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, Cost: 0.000123})
	assert.Contains(t, line, "cost=$0.000123")
}

func TestFormatToolCalls(t *testing.T) {
	out := formatToolCalls([]llm.ToolCall{
		{ID: "call_1", Name: "get_weather", Arguments: json.RawMessage(`{"location":"Tokyo"}`)},
		{ID: "call_2", Name: "noop", Arguments: json.RawMessage(`null`)},
	})
	assert.Contains(t, out, `call_1 get_weather({"location":"Tokyo"})`)
	assert.Contains(t, out, "call_2 noop(null)")
}
