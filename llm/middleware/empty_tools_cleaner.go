package middleware

import (
	"context"

	llmpkg "github.com/modelflow-ai/modelflow/llm"
)

// EmptyToolsCleaner clears ToolChoice when the request carries no tool
// definitions. OpenAI-compatible backends reject tool_choice alongside
// an empty tools array with a 400.
type EmptyToolsCleaner struct{}

func (r *EmptyToolsCleaner) Name() string {
	return "empty_tools_cleaner"
}

func (r *EmptyToolsCleaner) Rewrite(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatRequest, error) {
	if req == nil {
		return req, nil
	}

	if len(req.Tools) == 0 {
		req.ToolChoice = ""
	}

	return req, nil
}

func NewEmptyToolsCleaner() *EmptyToolsCleaner {
	return &EmptyToolsCleaner{}
}
