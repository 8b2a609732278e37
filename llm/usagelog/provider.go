package usagelog

import (
	"context"
	"strings"

	llmpkg "github.com/modelflow-ai/modelflow/llm"
	"github.com/modelflow-ai/modelflow/llm/tokenizer"

	"go.uber.org/zap"
)

// PriceFunc prices one request in USD. Wire the cost calculator's
// Calculate here; nil leaves Cost at zero.
type PriceFunc func(provider, model string, promptTokens, completionTokens int) float64

// RecordingProvider tees every successful request's usage into the
// ledger. Streams are relayed unchanged; the entry is written after
// the terminal chunk. When a provider omits usage the heuristic
// estimator fills in the counts and the entry is marked Estimated.
type RecordingProvider struct {
	llmpkg.Provider

	store     *Store
	price     PriceFunc
	estimator tokenizer.Tokenizer
	logger    *zap.Logger
}

// NewRecordingProvider wraps p so its usage lands in store.
func NewRecordingProvider(p llmpkg.Provider, store *Store, logger *zap.Logger) *RecordingProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingProvider{
		Provider:  p,
		store:     store,
		estimator: tokenizer.NewEstimatorTokenizer("", 0),
		logger:    logger,
	}
}

// SetPriceFunc prices recorded entries with f.
func (p *RecordingProvider) SetPriceFunc(f PriceFunc) {
	p.price = f
}

// Completion records the response usage after a successful call.
// Ledger failures are logged, never surfaced: accounting must not
// break requests.
func (p *RecordingProvider) Completion(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatResponse, error) {
	resp, err := p.Provider.Completion(ctx, req)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		TraceID:          req.TraceID,
		Provider:         p.Name(),
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if entry.Model == "" {
		entry.Model = req.Model
	}
	if entry.TotalTokens == 0 && entry.PromptTokens == 0 && entry.CompletionTokens == 0 {
		p.estimate(entry, req.Messages, joinedContent(resp))
	}
	p.record(entry)

	return resp, nil
}

// Stream relays chunks in order and records the terminal chunk's
// usage once the stream drains. Streams that end without a terminal
// chunk (transport errors) are not recorded.
func (p *RecordingProvider) Stream(ctx context.Context, req *llmpkg.ChatRequest) (<-chan llmpkg.StreamChunk, error) {
	upstream, err := p.Provider.Stream(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan llmpkg.StreamChunk, cap(upstream))
	go func() {
		defer close(out)

		var (
			content strings.Builder
			usage   *llmpkg.ChatUsage
			model   = req.Model
			sawDone bool
		)

	relay:
		for chunk := range upstream {
			if chunk.Model != "" {
				model = chunk.Model
			}
			content.WriteString(chunk.Delta.Content)
			if chunk.Usage != nil {
				usage = chunk.Usage
			}
			if chunk.Done {
				sawDone = true
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				break relay
			}
		}

		if !sawDone {
			return
		}

		entry := &Entry{
			TraceID:  req.TraceID,
			Provider: p.Name(),
			Model:    model,
		}
		if usage != nil {
			entry.PromptTokens = usage.PromptTokens
			entry.CompletionTokens = usage.CompletionTokens
			entry.TotalTokens = usage.TotalTokens
		} else {
			p.estimate(entry, req.Messages, content.String())
		}
		p.record(entry)
	}()

	return out, nil
}

// estimate fills token counts from the heuristic estimator.
func (p *RecordingProvider) estimate(entry *Entry, messages []llmpkg.Message, completion string) {
	prompt := make([]tokenizer.Message, len(messages))
	for i, m := range messages {
		prompt[i] = tokenizer.Message{Role: string(m.Role), Content: m.Content}
	}

	promptTokens, err := p.estimator.CountMessages(prompt)
	if err != nil {
		return
	}
	completionTokens, err := p.estimator.CountTokens(completion)
	if err != nil {
		return
	}

	entry.PromptTokens = promptTokens
	entry.CompletionTokens = completionTokens
	entry.TotalTokens = promptTokens + completionTokens
	entry.Estimated = true
}

func (p *RecordingProvider) record(entry *Entry) {
	if p.price != nil {
		entry.Cost = p.price(entry.Provider, entry.Model, entry.PromptTokens, entry.CompletionTokens)
	}
	// Detached context: the caller's may already be canceled once a
	// stream has drained.
	if err := p.store.Record(context.Background(), entry); err != nil {
		p.logger.Warn("usage ledger write failed",
			zap.String("provider", entry.Provider),
			zap.String("trace_id", entry.TraceID),
			zap.Error(err))
	}
}

func joinedContent(resp *llmpkg.ChatResponse) string {
	var b strings.Builder
	for _, c := range resp.Choices {
		b.WriteString(c.Message.Content)
	}
	return b.String()
}
