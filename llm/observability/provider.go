package observability

import (
	"context"
	"errors"
	"time"

	llmpkg "github.com/modelflow-ai/modelflow/llm"

	"go.uber.org/zap"
)

// RequestRecorder mirrors request outcomes into a second metrics
// backend. *metrics.Collector satisfies it.
type RequestRecorder interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int, cost float64)
	RecordStreamChunks(provider, model string, n int)
}

// ObservedProvider wraps a provider with spans, metrics and cost
// accounting. On streams the terminal chunk carries the usage that
// gets priced; chunks are counted as they pass through.
type ObservedProvider struct {
	llmpkg.Provider

	metrics  *Metrics
	costs    *CostCalculator
	tracker  *CostTracker
	recorder RequestRecorder
	logger   *zap.Logger
}

// NewObservedProvider wraps p. costs may be nil to disable pricing.
func NewObservedProvider(p llmpkg.Provider, m *Metrics, costs *CostCalculator, logger *zap.Logger) (*ObservedProvider, error) {
	if m == nil {
		var err error
		m, err = NewMetrics()
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObservedProvider{
		Provider: p,
		metrics:  m,
		costs:    costs,
		logger:   logger,
	}, nil
}

// SetRecorder mirrors outcomes into r, typically the Prometheus
// collector.
func (p *ObservedProvider) SetRecorder(r RequestRecorder) {
	p.recorder = r
}

// SetTracker folds priced requests into a session cost summary.
func (p *ObservedProvider) SetTracker(t *CostTracker) {
	p.tracker = t
}

// Completion records one span plus metrics around the wrapped call.
func (p *ObservedProvider) Completion(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatResponse, error) {
	attrs := p.requestAttrs(req)
	start := time.Now()
	ctx, span := p.metrics.StartRequest(ctx, "llm.completion", attrs)

	resp, err := p.Provider.Completion(ctx, req)

	outcome := ResponseAttrs{
		Status:   "success",
		Duration: time.Since(start),
	}
	model := req.Model
	if err != nil {
		outcome.Status = "error"
		outcome.ErrorCode = errorCode(err)
	} else {
		if resp.Model != "" {
			model = resp.Model
		}
		outcome.TokensPrompt = resp.Usage.PromptTokens
		outcome.TokensCompletion = resp.Usage.CompletionTokens
		outcome.Cost = p.price(model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	attrs.Model = model

	p.metrics.EndRequest(ctx, span, attrs, outcome)
	if p.recorder != nil {
		p.recorder.RecordLLMRequest(p.Name(), model, outcome.Status, outcome.Duration,
			outcome.TokensPrompt, outcome.TokensCompletion, outcome.Cost)
	}
	return resp, err
}

// Stream relays the wrapped stream, counting chunks and closing the
// span once the stream ends. Usage arrives on the terminal chunk, so
// pricing happens when the relay drains.
func (p *ObservedProvider) Stream(ctx context.Context, req *llmpkg.ChatRequest) (<-chan llmpkg.StreamChunk, error) {
	attrs := p.requestAttrs(req)
	start := time.Now()
	ctx, span := p.metrics.StartRequest(ctx, "llm.stream", attrs)

	upstream, err := p.Provider.Stream(ctx, req)
	if err != nil {
		outcome := ResponseAttrs{
			Status:    "error",
			ErrorCode: errorCode(err),
			Duration:  time.Since(start),
		}
		p.metrics.EndRequest(ctx, span, attrs, outcome)
		if p.recorder != nil {
			p.recorder.RecordLLMRequest(p.Name(), req.Model, outcome.Status, outcome.Duration, 0, 0, 0)
		}
		return nil, err
	}

	out := make(chan llmpkg.StreamChunk, cap(upstream))
	go func() {
		defer close(out)

		var (
			chunks int
			usage  *llmpkg.ChatUsage
			status = "success"
			code   string
			model  = req.Model
		)

	relay:
		for chunk := range upstream {
			chunks++
			if chunk.Model != "" {
				model = chunk.Model
			}
			if chunk.Usage != nil {
				usage = chunk.Usage
			}
			if chunk.Err != nil {
				status = "error"
				code = string(chunk.Err.Code)
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				status = "canceled"
				break relay
			}
		}

		outcome := ResponseAttrs{
			Status:    status,
			ErrorCode: code,
			Duration:  time.Since(start),
		}
		if usage != nil {
			outcome.TokensPrompt = usage.PromptTokens
			outcome.TokensCompletion = usage.CompletionTokens
			outcome.Cost = p.price(model, usage.PromptTokens, usage.CompletionTokens)
		}
		attrs.Model = model

		p.metrics.EndRequest(ctx, span, attrs, outcome)
		p.metrics.RecordStreamChunks(ctx, p.Name(), model, chunks)
		if p.recorder != nil {
			p.recorder.RecordLLMRequest(p.Name(), model, outcome.Status, outcome.Duration,
				outcome.TokensPrompt, outcome.TokensCompletion, outcome.Cost)
			p.recorder.RecordStreamChunks(p.Name(), model, chunks)
		}
	}()

	return out, nil
}

func (p *ObservedProvider) requestAttrs(req *llmpkg.ChatRequest) RequestAttrs {
	return RequestAttrs{
		Provider: p.Name(),
		Model:    req.Model,
		User:     req.User,
		TraceID:  req.TraceID,
	}
}

func (p *ObservedProvider) price(model string, tokensIn, tokensOut int) float64 {
	if p.tracker != nil {
		return p.tracker.Track(p.Name(), model, tokensIn, tokensOut)
	}
	if p.costs != nil {
		return p.costs.Calculate(p.Name(), model, tokensIn, tokensOut)
	}
	return 0
}

func errorCode(err error) string {
	var llmErr *llmpkg.Error
	if errors.As(err, &llmErr) {
		return string(llmErr.Code)
	}
	return "unknown"
}
