// Command tempoz-demo replays a scripted input session against the debounce,
// throttle and reducer primitives and prints what each demo page would show.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zoobzio/tempoz/internal/replay"
	"github.com/zoobzio/tempoz/internal/scenario"
)

func main() {
	var (
		scenarioPath string
		logLevel     string
		devLogs      bool
	)
	flag.StringVar(&scenarioPath, "scenario", "", "path to scenario yaml (built-in search box session if empty)")
	flag.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flag.BoolVar(&devLogs, "dev", false, "human-readable development logs")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger(logLevel, devLogs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, scenarioPath, logger, os.Stdout); err != nil {
		logger.Error("replay failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func run(ctx context.Context, path string, logger *zap.Logger, w io.Writer) error {
	sc := scenario.Default()
	if path != "" {
		loaded, err := scenario.Load(path)
		if err != nil {
			return err
		}
		sc = loaded
	}
	logger.Info("replaying scenario",
		zap.String("scenario", sc.Name),
		zap.Int("keystrokes", len(sc.Input)),
		zap.Int("actions", len(sc.Actions)))

	res, err := replay.Run(ctx, sc, logger)
	if err != nil {
		return err
	}
	render(w, sc, res)
	return nil
}

func render(w io.Writer, sc *scenario.Scenario, res *replay.Result) {
	leading, trailing := sc.Throttle.Edges()
	fmt.Fprintf(w, "scenario %q\n", sc.Name)
	fmt.Fprintf(w, "debounce delay=%s | throttle delay=%s leading=%t trailing=%t\n\n",
		sc.Debounce.Delay, sc.Throttle.Delay, leading, trailing)

	fmt.Fprintln(w, "Debounce & throttle page")
	for _, e := range res.Timeline {
		fmt.Fprintf(w, "  %8s  %-9s %q\n", e.At, e.Source, e.Text)
	}
	fmt.Fprintf(w, "  debounce: %d calls, %d runs, %d dropped\n",
		res.Debounce.Calls, res.Debounce.Invocations, res.Debounce.Dropped)
	fmt.Fprintf(w, "  throttle: %d calls, %d runs, %d dropped\n",
		res.Throttle.Calls, res.Throttle.Invocations, res.Throttle.Dropped)

	if len(res.Snapshots) == 0 {
		return
	}
	fmt.Fprintln(w, "\nReducer page")
	for _, s := range res.Snapshots {
		label := s.Action.Type
		if s.Action.Payload != "" {
			label += "(" + s.Action.Payload + ")"
		}
		fmt.Fprintf(w, "  %-22s -> %s\n", label, s.State)
	}
}
