// =============================================================================
// Modelflow CLI
// =============================================================================
// One-shot chat against a configured provider, streaming or blocking,
// plus a ledger summary.
//
// Usage:
//
//	modelflow "explain SSE in one sentence"
//	modelflow -stream -provider openrouter "write a haiku"
//	echo "prompt on stdin" | modelflow -model deepseek-chat
//	modelflow usage -since 24h
//	modelflow version
//
// Exit codes: 0 success, 1 request error, 2 config error.
// =============================================================================
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/modelflow-ai/modelflow/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	exitOK     = 0
	exitReqErr = 1
	exitCfgErr = 2
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "usage":
			os.Exit(runUsage(args[1:]))
		case "version":
			printVersion()
			os.Exit(exitOK)
		case "help", "-h", "--help":
			printUsage()
			os.Exit(exitOK)
		}
	}
	os.Exit(runChat(args))
}

func printVersion() {
	fmt.Printf("modelflow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`modelflow - streaming-first client for OpenAI-compatible LLM APIs

Usage:
  modelflow [options] <prompt>       One-shot chat (prompt from argv or stdin)
  modelflow usage [options]          Usage ledger summary
  modelflow version                  Show version information

Options:
  -config <path>        Path to configuration file (YAML)
  -provider <name>      Provider to use (openrouter, deepseek, grok)
  -model <id>           Model override
  -system <text>        System prompt
  -stream               Stream the response incrementally
  -metrics-addr <addr>  Expose Prometheus metrics on this address

Options for 'usage':
  -config <path>        Path to configuration file (YAML)
  -since <duration>     Aggregation window, e.g. 24h (default 720h)
  -recent <n>           Also print the n most recent entries

Examples:
  modelflow -stream "write a haiku about backpressure"
  modelflow -provider deepseek -model deepseek-chat "hello"
  modelflow usage -since 168h`)
}

// loadConfig merges defaults, the optional file and the environment,
// then validates. Any failure here is a config error (exit 2).
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoding := cfg.Format
	var encoderConfig zapcore.EncoderConfig
	if encoding == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		// Keep stdout clean for model output.
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
