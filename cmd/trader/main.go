package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"

	"github.com/stratigo-lab/stratigo/internal/config"
	"github.com/stratigo-lab/stratigo/internal/engine"
	enginev1 "github.com/stratigo-lab/stratigo/internal/engine/engine_v1"
	"github.com/stratigo-lab/stratigo/internal/events"
	"github.com/stratigo-lab/stratigo/internal/ledger"
	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/risk"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/internal/version"
	"github.com/stratigo-lab/stratigo/pkg/feed"
)

// runAction wires the engine from CLI flags and runs it until interrupted.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	feedType := cmd.String("feed")
	interval := cmd.String("interval")
	dataDir := cmd.String("data")
	verbose := cmd.Bool("verbose")
	metricsAddr := cmd.String("metrics-addr")

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	l, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer l.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	eng := enginev1.NewTradingEngineV1WithLogger(l.Named("engine"))
	if err := eng.Initialize(*cfg); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	provider, err := feed.NewProvider(feed.ProviderType(feedType))
	if err != nil {
		return fmt.Errorf("failed to create feed provider: %w", err)
	}

	if err := eng.SetFeedProvider(provider); err != nil {
		return err
	}

	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		store, err := ledger.NewAuditStore(filepath.Join(dataDir, "audit.db"), l.Named("audit"))
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		defer func() {
			if err := store.Export(dataDir); err != nil {
				l.Warn("failed to export audit trail")
			}
			store.Close()
		}()

		if err := store.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize audit store: %w", err)
		}

		if err := eng.SetAuditStore(store); err != nil {
			return err
		}

		snapshotPath := filepath.Join(dataDir, "snapshot.yaml")
		if err := eng.SetSnapshotPath(snapshotPath); err != nil {
			return err
		}

		// Resume from the previous snapshot when one is present.
		if _, statErr := os.Stat(snapshotPath); statErr == nil {
			snapshot, loadErr := ledger.LoadSnapshot(snapshotPath)
			if loadErr != nil {
				return fmt.Errorf("failed to load snapshot: %w", loadErr)
			}

			if err := eng.RestoreLedger(snapshot); err != nil {
				return err
			}

			fmt.Printf("Restored ledger snapshot from %s\n", snapshotPath)
		}
	}

	// Log-based notifier; a Slack or Telegram notifier plugs in here.
	notifier := events.NotifierFunc(func(_ context.Context, event types.Event) error {
		fmt.Printf("[%s] %s %s\n", event.Type, event.Symbol, event.Message)
		return nil
	})
	if err := eng.SetNotifier(notifier); err != nil {
		return err
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				l.Warn("metrics server stopped")
			}
		}()
	}

	onFill := engine.OnFillCallback(func(fill types.Fill) error {
		fmt.Printf("Fill: %s %s %.6f @ %.4f (fee %.4f)\n",
			fill.Side, fill.Symbol, fill.Quantity, fill.Price, fill.Fee)
		return nil
	})
	onVeto := engine.OnVetoCallback(func(result risk.Result) error {
		fmt.Printf("Rejected: %s %s (%s)\n",
			result.Decision.Direction, result.Decision.Symbol, result.Reason)
		return nil
	})
	onError := engine.OnErrorCallback(func(err error) {
		fmt.Printf("Error: %v\n", err)
	})
	onStop := engine.OnStopCallback(func(err error) {
		account := eng.Account()
		fmt.Printf("Stopped. equity=%.2f cash=%.2f realized=%.2f fees=%.2f\n",
			account.Equity, account.Cash, account.RealizedPnL, account.TotalFees)
		if err != nil && err != context.Canceled {
			fmt.Printf("Stop reason: %v\n", err)
		}
	})

	callbacks := engine.Callbacks{
		OnFill:  &onFill,
		OnVeto:  &onVeto,
		OnError: &onError,
		OnStop:  &onStop,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, stopping...")
		cancel()
	}()

	fmt.Printf("Starting paper trading (%s feed, %d instruments)...\n", feedType, len(cfg.Instruments))

	if err := eng.Run(runCtx, interval, callbacks); err != nil && err != context.Canceled {
		return err
	}

	return nil
}

// schemaAction prints the JSON schema for the configuration file.
func schemaAction(_ context.Context, _ *cli.Command) error {
	cfg := config.EmptyConfig()

	schema, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "trader",
		Usage:   "Risk-constrained paper trading engine",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the trading pipeline",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML configuration file",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "feed",
						Aliases: []string{"f"},
						Usage:   fmt.Sprintf("Feed provider (%s, %s)", feed.ProviderSimulated, feed.ProviderBinance),
						Value:   string(feed.ProviderSimulated),
					},
					&cli.StringFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Bar interval for the feed",
						Value:   "1m",
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Directory for the audit store and ledger snapshot (empty disables persistence)",
					},
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Listen address for Prometheus metrics (empty disables)",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Enable debug logging",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the configuration JSON schema",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
