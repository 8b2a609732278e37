package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/modelflow-ai/modelflow/llm/usagelog"
)

func runUsage(args []string) int {
	fs := flag.NewFlagSet("usage", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	since := fs.Duration("since", 30*24*time.Hour, "aggregation window")
	recent := fs.Int("recent", 0, "also print the n most recent entries")
	if err := fs.Parse(args); err != nil {
		return exitCfgErr
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return exitCfgErr
	}
	if !cfg.UsageLog.Enabled {
		fmt.Fprintln(os.Stderr, "usage log is disabled; enable usage_log in the config")
		return exitCfgErr
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	store, err := usagelog.Open(cfg.UsageLog.Path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open usage ledger: %v\n", err)
		return exitReqErr
	}
	defer store.Close()

	ctx := context.Background()
	summary, err := store.Summary(ctx, time.Now().Add(-*since))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read usage ledger: %v\n", err)
		return exitReqErr
	}

	fmt.Printf("usage since %s\n", summary.Since.Format(time.RFC3339))
	fmt.Printf("  requests:          %d\n", summary.Requests)
	fmt.Printf("  prompt tokens:     %d\n", summary.PromptTokens)
	fmt.Printf("  completion tokens: %d\n", summary.CompletionTokens)
	fmt.Printf("  total tokens:      %d\n", summary.TotalTokens)
	fmt.Printf("  cost:              $%.6f\n", summary.Cost)

	if *recent > 0 {
		entries, err := store.Recent(ctx, *recent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read usage ledger: %v\n", err)
			return exitReqErr
		}
		fmt.Println("recent entries:")
		for _, e := range entries {
			estimated := ""
			if e.Estimated {
				estimated = " (estimated)"
			}
			fmt.Printf("  %s %s/%s %d+%d=%d $%.6f%s\n",
				e.CreatedAt.Format(time.RFC3339), e.Provider, e.Model,
				e.PromptTokens, e.CompletionTokens, e.TotalTokens, e.Cost, estimated)
		}
	}
	return exitOK
}
