package middleware

import (
	"context"
	"fmt"

	llmpkg "github.com/modelflow-ai/modelflow/llm"
)

// RequestRewriter mutates or replaces a chat request before it is sent
// upstream. Rewriters run inside the provider, after decorators and
// before wire encoding.
type RequestRewriter interface {
	// Rewrite returns the request to send, or an error to abort the call.
	Rewrite(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatRequest, error)

	// Name identifies the rewriter in logs.
	Name() string
}

// RewriterChain runs rewriters in order. The zero value and nil are
// both usable and pass requests through unchanged.
type RewriterChain struct {
	rewriters []RequestRewriter
}

func NewRewriterChain(rewriters ...RequestRewriter) *RewriterChain {
	return &RewriterChain{
		rewriters: rewriters,
	}
}

// Execute applies every rewriter in order. The first failure aborts the
// chain.
func (c *RewriterChain) Execute(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatRequest, error) {
	if c == nil || len(c.rewriters) == 0 {
		return req, nil
	}

	var err error
	for _, rewriter := range c.rewriters {
		req, err = rewriter.Rewrite(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("rewriter [%s] failed: %w", rewriter.Name(), err)
		}
	}

	return req, nil
}

// AddRewriter appends a rewriter to the chain.
func (c *RewriterChain) AddRewriter(rewriter RequestRewriter) {
	c.rewriters = append(c.rewriters, rewriter)
}

// GetRewriters exposes the chain contents for inspection.
func (c *RewriterChain) GetRewriters() []RequestRewriter {
	return c.rewriters
}
