package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/modelflow-ai/modelflow/llm"
	"github.com/modelflow-ai/modelflow/llm/providers"
	"go.uber.org/zap"
)

const (
	// streamChannelCapacity bounds the chunk channel. A slow consumer
	// applies backpressure to the decode loop instead of growing memory.
	streamChannelCapacity = 100

	// streamReadBufferSize is the transport read granularity.
	streamReadBufferSize = 4096

	// doneSentinel is the event payload marking normal stream completion.
	doneSentinel = "[DONE]"
)

// StreamSSE decodes an OpenAI-compatible SSE body into a bounded chunk
// channel. The spawned goroutine owns body and the channel: it closes
// both on every exit path. Callers must have verified the response
// status before handing the body over.
//
// Decode semantics:
//   - transport bytes may fragment anywhere; partial lines are buffered
//     until complete
//   - non-text fragments are dropped and decoding continues
//   - only "data:" lines matter; the payload is trimmed before use
//   - malformed event JSON is skipped, never fatal
//   - tool-call deltas accumulate per wire position and surface only on
//     the terminal chunk, finalized
//   - usage frames are cumulative snapshots; the latest one wins
//   - the sentinel, or EOF without it, produces exactly one terminal
//     chunk; a transport read error produces an error chunk instead
func StreamSSE(ctx context.Context, body io.ReadCloser, providerName, model string, logger *zap.Logger) <-chan llm.StreamChunk {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &streamSession{
		provider: providerName,
		model:    model,
		logger:   logger,
		ch:       make(chan llm.StreamChunk, streamChannelCapacity),
	}
	go s.run(ctx, body)
	return s.ch
}

// streamSession owns one SSE decode loop: the producing goroutine feeds
// transport bytes through the line framer, classifies data events,
// accumulates tool calls and usage, and emits chunks on the bounded
// channel.
type streamSession struct {
	provider string
	model    string
	logger   *zap.Logger

	ch     chan llm.StreamChunk
	framer lineFramer
	calls  toolCallAssembler

	id           string
	usage        *llm.ChatUsage
	finishReason string
}

func (s *streamSession) run(ctx context.Context, body io.ReadCloser) {
	defer close(s.ch)
	defer body.Close()
	defer s.logCompletion()

	buf := make([]byte, streamReadBufferSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if !utf8.Valid(buf[:n]) {
				s.logger.Warn("dropping non-text stream fragment",
					zap.String("provider", s.provider),
					zap.Int("bytes", n),
				)
			} else {
				for _, line := range s.framer.feed(buf[:n]) {
					if s.handleLine(ctx, line) {
						return
					}
				}
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			// Upstream closed without the completion sentinel. Finalize
			// with whatever accumulated, same as the sentinel path.
			s.emit(ctx, s.terminalChunk())
			return
		default:
			if ctx.Err() != nil {
				// The consumer cancelled; the read failure is a
				// consequence, not a transport fault.
				return
			}
			s.emit(ctx, llm.StreamChunk{
				ID:       s.id,
				Provider: s.provider,
				Model:    s.model,
				Err: &llm.Error{
					Code:       llm.ErrUpstreamError,
					Message:    err.Error(),
					HTTPStatus: http.StatusBadGateway,
					Retryable:  true,
					Provider:   s.provider,
				},
			})
			return
		}
	}
}

// handleLine processes one framed line. True means the stream is
// finished and the producer must stop, either because the sentinel
// arrived or because the consumer went away.
func (s *streamSession) handleLine(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "data:") {
		return false
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if data == doneSentinel {
		s.emit(ctx, s.terminalChunk())
		return true
	}

	var ev providers.OpenAICompatStreamChunk
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		// Malformed events are dropped; the stream carries on.
		s.logger.Debug("skipping malformed stream event",
			zap.String("provider", s.provider),
			zap.Error(err),
		)
		return false
	}

	if ev.ID != "" {
		s.id = ev.ID
	}
	if ev.Model != "" {
		s.model = ev.Model
	}
	if ev.Usage != nil {
		// Usage frames carry cumulative totals, so snapshots replace
		// rather than add.
		s.usage = &llm.ChatUsage{
			PromptTokens:     ev.Usage.PromptTokens,
			CompletionTokens: ev.Usage.CompletionTokens,
			TotalTokens:      ev.Usage.TotalTokens,
		}
	}

	for _, choice := range ev.Choices {
		if choice.FinishReason != "" {
			s.finishReason = choice.FinishReason
		}
		for _, tc := range choice.Delta.ToolCalls {
			if tc.Index == nil {
				// Without a position the fragment cannot be attributed.
				continue
			}
			var name, args string
			if tc.Function != nil {
				name = tc.Function.Name
				args = tc.Function.Arguments
			}
			s.calls.merge(*tc.Index, tc.ID, name, args)
		}
		if choice.Delta.Content == "" {
			continue
		}
		chunk := llm.StreamChunk{
			ID:           s.id,
			Provider:     s.provider,
			Model:        s.model,
			Index:        choice.Index,
			FinishReason: choice.FinishReason,
			Delta: llm.Message{
				Role:    llm.RoleAssistant,
				Content: choice.Delta.Content,
			},
		}
		if !s.emit(ctx, chunk) {
			return true
		}
	}
	return false
}

// terminalChunk builds the closing chunk: empty content, finalized tool
// calls, the last usage snapshot, Done set. It is emitted exactly once
// per stream that terminates without a transport error.
func (s *streamSession) terminalChunk() llm.StreamChunk {
	return llm.StreamChunk{
		ID:       s.id,
		Provider: s.provider,
		Model:    s.model,
		Delta: llm.Message{
			Role:      llm.RoleAssistant,
			ToolCalls: s.calls.finalize(),
		},
		FinishReason: s.finishReason,
		Done:         true,
		Usage:        s.usage,
	}
}

// emit delivers one chunk, blocking until channel space frees or the
// consumer departs. False means the consumer cancelled and production
// must stop.
func (s *streamSession) emit(ctx context.Context, chunk llm.StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case s.ch <- chunk:
		return true
	}
}

func (s *streamSession) logCompletion() {
	if s.usage == nil {
		s.logger.Debug("stream closed without usage",
			zap.String("provider", s.provider),
			zap.String("model", s.model),
		)
		return
	}
	s.logger.Debug("stream closed",
		zap.String("provider", s.provider),
		zap.String("model", s.model),
		zap.Int("prompt_tokens", s.usage.PromptTokens),
		zap.Int("completion_tokens", s.usage.CompletionTokens),
		zap.Int("total_tokens", s.usage.TotalTokens),
	)
}

// lineFramer reassembles transport fragments into complete lines. SSE
// frames may split anywhere, including mid-line and mid-event, so the
// trailing partial line stays buffered until its newline arrives.
type lineFramer struct {
	buf []byte
}

// feed appends a fragment and returns the complete lines it unlocked,
// trimmed of surrounding whitespace. Blank lines are dropped.
func (f *lineFramer) feed(p []byte) []string {
	f.buf = append(f.buf, p...)
	var lines []string
	start := 0
	for {
		i := bytes.IndexByte(f.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(f.buf[start : start+i]))
		start += i + 1
		if line != "" {
			lines = append(lines, line)
		}
	}
	if start > 0 {
		f.buf = append(f.buf[:0], f.buf[start:]...)
	}
	return lines
}

// toolCallAssembler merges per-position tool-call fragments into
// complete calls. Positions index a dense slice that grows on demand,
// so fragments may arrive in any order; id and name take the latest
// value seen, argument text accumulates in arrival order.
type toolCallAssembler struct {
	frags []toolCallFragment
}

type toolCallFragment struct {
	id   string
	name string
	args []byte
}

func (a *toolCallAssembler) merge(index int, id, name, args string) {
	if index < 0 {
		return
	}
	for len(a.frags) <= index {
		a.frags = append(a.frags, toolCallFragment{})
	}
	f := &a.frags[index]
	if id != "" {
		f.id = id
	}
	if name != "" {
		f.name = name
	}
	if args != "" {
		f.args = append(f.args, args...)
	}
}

// finalize returns the completed calls. Fragments that never received
// both an id and a name are dropped; accumulated argument text that
// does not parse as JSON degrades to null. Argument text is parsed here
// once, not per delta, because fragments are rarely valid JSON on their
// own.
func (a *toolCallAssembler) finalize() []llm.ToolCall {
	var calls []llm.ToolCall
	for _, f := range a.frags {
		if f.id == "" || f.name == "" {
			continue
		}
		args := json.RawMessage("null")
		if json.Valid(f.args) {
			args = json.RawMessage(f.args)
		}
		calls = append(calls, llm.ToolCall{ID: f.id, Name: f.name, Arguments: args})
	}
	return calls
}
