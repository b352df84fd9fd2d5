// Command txinspect decodes raw transactions and prints them as JSON.
//
// Transactions are read as hex from the positional arguments, or one per
// line from stdin when no arguments are given.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/inspector"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/network"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/transaction"
	"github.com/goodnatureofminers/blockinsight7000-txcodec/pkg/batcher"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxLineSize bounds one hex transaction read from stdin.
const maxLineSize = 16 * 1024 * 1024

type config struct {
	Network     string `long:"network" env:"TXINSPECT_NETWORK" description:"network name" default:"bitcoin"`
	Sidechain   bool   `long:"sidechain" env:"TXINSPECT_SIDECHAIN" description:"decode the sidechain envelope"`
	NonStrict   bool   `long:"non-strict" env:"TXINSPECT_NON_STRICT" description:"ignore trailing bytes after the transaction"`
	Workers     int    `long:"workers" env:"TXINSPECT_WORKERS" description:"number of decode workers" default:"4"`
	Indent      bool   `long:"indent" env:"TXINSPECT_INDENT" description:"indent JSON output"`
	Debug       bool   `long:"debug" env:"TXINSPECT_DEBUG" description:"development logging"`
	MetricsAddr string `long:"metrics-addr" env:"TXINSPECT_METRICS_ADDR" description:"address for metrics server, disabled when empty"`

	Stream        bool          `long:"stream" env:"TXINSPECT_STREAM" description:"inspect stdin in batches as lines arrive"`
	BatchSize     int           `long:"batch-size" env:"TXINSPECT_BATCH_SIZE" description:"transactions per batch in stream mode" default:"100"`
	FlushInterval time.Duration `long:"flush-interval" env:"TXINSPECT_FLUSH_INTERVAL" description:"max delay before a partial batch is flushed in stream mode" default:"1s"`
	RPS           int           `long:"rps" env:"TXINSPECT_RPS" description:"max batches per second in stream mode, unlimited when zero"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args, err := flags.Parse(&cfg)
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(ctx, cfg, args, os.Stdin, os.Stdout, logger); err != nil {
		logger.Fatal("txinspect failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config, args []string, stdin io.Reader, stdout io.Writer, logger *zap.Logger) error {
	params, ok := network.Lookup(cfg.Network)
	if !ok {
		return fmt.Errorf("unsupported network %q, known: %s", cfg.Network, strings.Join(network.Names(), ", "))
	}
	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, logger)
	}

	decoder, err := inspector.NewScriptDecoder(params.Name)
	if err != nil {
		return fmt.Errorf("init script decoder: %w", err)
	}
	opts := []inspector.Option{
		inspector.WithMetrics(metrics.NewCodec(params.Name)),
		inspector.WithWorkers(cfg.Workers),
	}
	if cfg.NonStrict {
		opts = append(opts, inspector.WithDecodeOptions(transaction.NonStrict()))
	}
	insp := inspector.New(decoder, cfg.Sidechain, logger, opts...)

	enc := json.NewEncoder(stdout)
	if cfg.Indent {
		enc.SetIndent("", "  ")
	}

	if cfg.Stream && len(args) == 0 {
		return stream(ctx, cfg, insp, stdin, enc, logger)
	}

	raws, err := readTransactions(args, stdin)
	if err != nil {
		return err
	}
	logger.Debug("inspecting transactions",
		zap.String("network", params.Name),
		zap.Bool("sidechain", cfg.Sidechain),
		zap.Int("count", len(raws)),
	)

	return inspectBatch(ctx, insp, raws, enc)
}

func inspectBatch(ctx context.Context, insp *inspector.Inspector, raws [][]byte, enc *json.Encoder) error {
	results, err := insp.InspectBatch(ctx, raws)
	if err != nil {
		return err
	}
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

// stream inspects stdin lines in batches while they are still being read.
// A failing batch is logged and skipped; the first failure is returned once
// stdin is exhausted.
func stream(ctx context.Context, cfg config, insp *inspector.Inspector, stdin io.Reader, enc *json.Encoder, logger *zap.Logger) error {
	b := batcher.New(logger, func(ctx context.Context, raws [][]byte) error {
		return inspectBatch(ctx, insp, raws, enc)
	}, cfg.BatchSize, cfg.FlushInterval, cfg.RPS)
	b.Start(ctx)

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		raw, err := hex.DecodeString(text)
		if err != nil {
			_ = b.Close()
			return fmt.Errorf("transaction %d: decode hex: %w", n, err)
		}
		if err := b.Add(ctx, raw); err != nil {
			_ = b.Close()
			return fmt.Errorf("queue transaction %d: %w", n, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		_ = b.Close()
		return fmt.Errorf("read stdin: %w", err)
	}
	return b.Close()
}

// readTransactions decodes hex transactions from args, or from the non-empty
// lines of stdin when args is empty.
func readTransactions(args []string, stdin io.Reader) ([][]byte, error) {
	lines := args
	if len(lines) == 0 {
		scanner := bufio.NewScanner(stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}

	raws := make([][]byte, 0, len(lines))
	for i, line := range lines {
		raw, err := hex.DecodeString(strings.TrimSpace(line))
		if err != nil {
			return nil, fmt.Errorf("transaction %d: decode hex: %w", i, err)
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
