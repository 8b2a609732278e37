package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/modelflow-ai/modelflow/internal/metrics"
	"github.com/modelflow-ai/modelflow/internal/telemetry"
	"github.com/modelflow-ai/modelflow/llm"
	"github.com/modelflow-ai/modelflow/llm/factory"
	"github.com/modelflow-ai/modelflow/llm/tokenizer"
)

func runChat(args []string) int {
	fs := flag.NewFlagSet("modelflow", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	providerName := fs.String("provider", "", "provider to use (default from config)")
	model := fs.String("model", "", "model override")
	system := fs.String("system", "", "system prompt")
	stream := fs.Bool("stream", false, "stream the response incrementally")
	metricsAddr := fs.String("metrics-addr", "", "expose Prometheus metrics on this address")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return exitCfgErr
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return exitCfgErr
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	prompt, err := readPrompt(fs.Args(), os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitCfgErr
	}

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if otelProviders != nil {
			if err := otelProviders.Shutdown(context.Background()); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}
	}()

	var collector *metrics.Collector
	if *metricsAddr != "" {
		collector = metrics.NewCollector("modelflow", logger)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	registry, cleanup, err := factory.BuildRegistry(cfg, collector, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return exitCfgErr
	}
	defer cleanup()

	provider, err := pickProvider(registry, *providerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return exitCfgErr
	}

	req := &llm.ChatRequest{
		Model:    *model,
		Messages: buildMessages(*system, prompt),
	}

	// Pre-flight prompt size, for operators watching the logs.
	est := tokenizer.GetTokenizerOrEstimator(*model)
	if n, err := est.CountTokens(prompt); err == nil {
		logger.Debug("prompt estimate",
			zap.Int("tokens", n),
			zap.String("tokenizer", est.Name()),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *stream {
		return streamChat(ctx, provider, req)
	}
	return blockingChat(ctx, provider, req)
}

// readPrompt takes the prompt from argv, falling back to stdin when no
// positional arguments remain.
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given; pass it as an argument or on stdin")
	}
	return prompt, nil
}

func buildMessages(system, prompt string) []llm.Message {
	var msgs []llm.Message
	if system != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: prompt})
}

func pickProvider(registry *llm.ProviderRegistry, name string) (llm.Provider, error) {
	if name == "" {
		return registry.Default()
	}
	p, ok := registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("provider %q not configured (have %v)", name, registry.List())
	}
	return p, nil
}

func blockingChat(ctx context.Context, provider llm.Provider, req *llm.ChatRequest) int {
	resp, err := provider.Completion(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		return exitReqErr
	}

	for _, choice := range resp.Choices {
		fmt.Println(choice.Message.Content)
		if len(choice.Message.ToolCalls) > 0 {
			fmt.Println(formatToolCalls(choice.Message.ToolCalls))
		}
	}
	fmt.Fprintln(os.Stderr, summaryLine(firstFinishReason(resp), &resp.Usage))
	return exitOK
}

func streamChat(ctx context.Context, provider llm.Provider, req *llm.ChatRequest) int {
	ch, err := provider.Stream(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		return exitReqErr
	}

	for chunk := range ch {
		if chunk.Err != nil {
			fmt.Fprintf(os.Stderr, "\nstream failed: %v\n", chunk.Err)
			return exitReqErr
		}
		if !chunk.Done {
			fmt.Print(chunk.Delta.Content)
			continue
		}
		// Terminal chunk: finish the content line, then report what
		// the stream accumulated.
		fmt.Println()
		if len(chunk.Delta.ToolCalls) > 0 {
			fmt.Println(formatToolCalls(chunk.Delta.ToolCalls))
		}
		fmt.Fprintln(os.Stderr, summaryLine(chunk.FinishReason, chunk.Usage))
	}
	return exitOK
}

func firstFinishReason(resp *llm.ChatResponse) string {
	if len(resp.Choices) > 0 {
		return resp.Choices[0].FinishReason
	}
	return ""
}

func formatToolCalls(calls []llm.ToolCall) string {
	var b strings.Builder
	b.WriteString("tool calls:")
	for _, c := range calls {
		fmt.Fprintf(&b, "\n  %s %s(%s)", c.ID, c.Name, string(c.Arguments))
	}
	return b.String()
}

// summaryLine renders the terminal report: finish reason, usage and
// cost when known.
func summaryLine(finishReason string, usage *llm.ChatUsage) string {
	var b strings.Builder
	b.WriteString("-- ")
	if finishReason != "" {
		fmt.Fprintf(&b, "finish=%s", finishReason)
	} else {
		b.WriteString("finish=unknown")
	}
	if usage != nil {
		fmt.Fprintf(&b, " tokens=%d+%d=%d", usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
		if usage.Cost > 0 {
			fmt.Fprintf(&b, " cost=$%.6f", usage.Cost)
		}
	}
	return b.String()
}
