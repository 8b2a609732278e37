package llm

import (
	"context"
	"encoding/json"
	"time"
)

// ErrorCode classifies provider failures so callers can align HTTP
// status, retryability and degradation policy without string matching.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "LLM_INVALID_REQUEST"      // malformed parameters or body
	ErrUnauthorized        ErrorCode = "LLM_UNAUTHORIZED"         // missing or invalid API key
	ErrForbidden           ErrorCode = "LLM_FORBIDDEN"            // permission or policy refusal
	ErrRateLimited         ErrorCode = "LLM_RATE_LIMITED"         // upstream or local throttling
	ErrQuotaExceeded       ErrorCode = "LLM_QUOTA_EXCEEDED"       // credits or quota exhausted
	ErrContentFiltered     ErrorCode = "LLM_CONTENT_FILTERED"     // blocked by content moderation
	ErrModelOverloaded     ErrorCode = "LLM_MODEL_OVERLOADED"     // model at capacity
	ErrUpstreamTimeout     ErrorCode = "LLM_UPSTREAM_TIMEOUT"     // upstream deadline exceeded
	ErrUpstreamError       ErrorCode = "LLM_UPSTREAM_ERROR"       // upstream 5xx or network failure
	ErrProviderUnavailable ErrorCode = "LLM_PROVIDER_UNAVAILABLE" // provider not configured or unreachable
)

// Error is the provider-facing error type. It implements error and is
// carried on StreamChunk.Err for mid-stream transport failures.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one finalized tool invocation. Arguments always hold a
// valid JSON value; callers that received malformed argument text from
// the wire see JSON null here rather than a missing call.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // links a tool result to its call
	Metadata   any        `json:"metadata,omitempty"`
}

// ToolSchema declares a callable tool. Parameters hold a JSON Schema
// document; it is passed through to the wire untouched.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type ChatRequest struct {
	TraceID     string            `json:"trace_id,omitempty"`
	Model       string            `json:"model"`
	Messages    []Message         `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float32           `json:"temperature,omitempty"`
	TopP        float32           `json:"top_p,omitempty"`
	Stop        []string          `json:"stop,omitempty"`
	Tools       []ToolSchema      `json:"tools,omitempty"`
	ToolChoice  string            `json:"tool_choice,omitempty"` // auto/none/<tool name>
	User        string            `json:"user,omitempty"`
	Timeout     time.Duration     `json:"timeout,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ChatUsage reports token accounting for one request. On streams the
// wire sends cumulative totals, so snapshots replace rather than add.
type ChatUsage struct {
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`
	Cost             float64 `json:"cost,omitempty"` // USD
}

type ChatChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Message      Message `json:"message"`
}

type ChatResponse struct {
	ID        string       `json:"id,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	Model     string       `json:"model"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
}

// StreamChunk is one unit of streaming output.
//
// Intermediate chunks carry Delta.Content and have Done unset. The
// terminal chunk has Done set, empty content, the finalized tool calls
// in Delta.ToolCalls, and the last usage snapshot seen on the wire; it
// is emitted exactly once per stream, whether the stream ended with the
// completion sentinel or an abrupt close. A chunk with Err set reports
// a transport failure and ends the sequence without a terminal chunk.
type StreamChunk struct {
	ID           string     `json:"id,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	Model        string     `json:"model,omitempty"`
	Index        int        `json:"index,omitempty"`
	Delta        Message    `json:"delta"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Done         bool       `json:"done,omitempty"`
	Usage        *ChatUsage `json:"usage,omitempty"`
	Err          *Error     `json:"error,omitempty"`
}

// Model is one entry from a provider's model listing.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	Created int64  `json:"created,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// HealthStatus is the result of a provider health probe.
type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
	Detail    string        `json:"detail,omitempty"`
}

// Provider is the uniform adapter interface for chat completion
// backends. Tool definitions travel in ChatRequest.Tools; returned
// tool calls appear in message ToolCalls. Execution of tools is the
// caller's concern.
type Provider interface {
	// Completion performs a blocking chat request and returns the full response.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream performs a streaming chat request. The returned channel is
	// closed by the producer; see StreamChunk for the termination contract.
	// Canceling ctx detaches the consumer and stops production.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// HealthCheck probes the provider with a lightweight request.
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Name returns the unique provider identifier.
	Name() string

	// SupportsNativeFunctionCalling reports whether the provider accepts
	// tool definitions natively. Callers should reject or strip Tools
	// when this is false.
	SupportsNativeFunctionCalling() bool
}
