package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tahcohcat/qwen-tts-web/config"
	"github.com/tahcohcat/qwen-tts-web/internal/logger"
	"github.com/tahcohcat/qwen-tts-web/internal/smoke"
	"github.com/tahcohcat/qwen-tts-web/internal/tts"
)

var errorColour = color.New(color.FgRed, color.Bold)

type flags struct {
	apiKey   string
	endpoint string
	timeout  time.Duration
	rate     float64
	verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "qwen-tts-smoke",
		Short: "Live checks against the DashScope qwen-tts API",
		Long: `Runs real generations against the DashScope qwen-tts endpoint and reports
which cases passed. Rate-limited calls are skipped, not failed.

The API key is taken from --api-key or the QWEN_TTS_API_KEY environment variable.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&f.apiKey, "api-key", "", "DashScope API key (default $QWEN_TTS_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&f.endpoint, "endpoint", "", "override the generation host, e.g. http://localhost:3000 for the dev proxy")
	rootCmd.PersistentFlags().DurationVar(&f.timeout, "timeout", 30*time.Second, "per-call timeout")
	rootCmd.PersistentFlags().Float64Var(&f.rate, "rate", 0, "calls per second (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(ctx, f, smoke.DefaultCases())
		},
	}

	quickCmd := &cobra.Command{
		Use:   "quick",
		Short: "Run three basic generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(ctx, f, smoke.QuickCases())
		},
	}

	rootCmd.AddCommand(runCmd, quickCmd)

	if err := rootCmd.Execute(); err != nil {
		errorColour.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, f *flags, cases []smoke.Case) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if f.verbose {
		logger.SetGlobalLevel("debug")
	} else {
		logger.SetGlobalLevel(cfg.Log.Level)
	}

	if f.apiKey != "" {
		cfg.DashScope.APIKey = f.apiKey
	}
	if cfg.DashScope.APIKey == "" {
		return fmt.Errorf("no API key: pass --api-key or set QWEN_TTS_API_KEY")
	}
	if f.endpoint != "" {
		cfg.DashScope.Host = f.endpoint
	}
	if f.timeout > 0 {
		cfg.DashScope.Timeout = timeoutSeconds(f.timeout)
	}
	if f.rate > 0 {
		cfg.Smoke.RatePerSecond = f.rate
	}

	runner := smoke.NewRunner(
		tts.NewDashScope(&cfg.DashScope),
		cfg.DashScope.APIKey,
		smoke.WithRate(cfg.Smoke.RatePerSecond, cfg.Smoke.Burst),
	)

	results, err := runner.Run(ctx, cases)
	if err != nil {
		return err
	}
	if results.Failed > 0 {
		return fmt.Errorf("%d of %d cases failed", results.Failed, results.Total)
	}
	return nil
}

// timeoutSeconds rounds d up to whole seconds so sub-second flags never become 0.
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
