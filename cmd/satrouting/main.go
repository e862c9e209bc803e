package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/signalsfoundry/satrouting/core"
	"github.com/signalsfoundry/satrouting/internal/logging"
	"github.com/signalsfoundry/satrouting/internal/observability"
	"github.com/signalsfoundry/satrouting/model"
	"github.com/signalsfoundry/satrouting/render"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath   string
	snapshotPath string
	source       int
	target       int
	svgPath      string
	metricsAddr  string
	hold         time.Duration
	alternates   int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "satrouting",
		Short: "Find zone-constrained detour paths through a satellite constellation",
		Long: `satrouting loads a constellation topology snapshot and a scenario
configuration, computes the baseline shortest path between two ground
stations, and searches for a detour that crosses spare-capacity zones
while meeting the configured weight target.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to the scenario TOML file (required)")
	cmd.PersistentFlags().StringVarP(&flags.snapshotPath, "snapshot", "s", "", "path to the topology snapshot dump (required)")
	_ = cmd.MarkPersistentFlagRequired("config")
	_ = cmd.MarkPersistentFlagRequired("snapshot")

	cmd.Flags().IntVar(&flags.source, "source", 0, "override the configured source ground station id")
	cmd.Flags().IntVar(&flags.target, "target", 0, "override the configured target ground station id")
	cmd.Flags().StringVar(&flags.svgPath, "svg", "", "write an SVG rendering of the result to this path")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (disabled when empty)")
	cmd.Flags().DurationVar(&flags.hold, "hold", 0, "keep the process alive after the run so metrics can be scraped")

	cmd.AddCommand(newAlternatesCmd(flags))
	return cmd
}

func newAlternatesCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alternates",
		Short: "List node-disjoint paths between the configured endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlternates(cmd.Context(), flags)
		},
	}
	cmd.Flags().IntVarP(&flags.alternates, "limit", "n", 0, "maximum number of paths to report (0 for all)")
	return cmd
}

func runAnalysis(ctx context.Context, flags *rootFlags) error {
	log := logging.NewFromEnv()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	var collector *observability.RoutingCollector
	var metricsSrv *http.Server
	if flags.metricsAddr != "" {
		collector, err = observability.NewRoutingCollector(nil)
		if err != nil {
			return fmt.Errorf("init metrics collector: %w", err)
		}
		metricsSrv = serveMetrics(flags.metricsAddr, collector, log)
	}

	analyzer, cfg, graph, err := buildAnalyzer(flags, log, collector)
	if err != nil {
		return err
	}

	result, err := analyzer.Run(ctx)
	if err != nil {
		return err
	}

	printResult(result)

	if flags.svgPath != "" {
		if err := writeSVG(ctx, flags.svgPath, graph, analyzer, cfg, result); err != nil {
			return err
		}
		log.Info(ctx, "wrote rendering", logging.String("path", flags.svgPath))
	}

	if flags.hold > 0 {
		log.Info(ctx, "holding for metrics scrape", logging.String("duration", flags.hold.String()))
		time.Sleep(flags.hold)
	}
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func runAlternates(ctx context.Context, flags *rootFlags) error {
	log := logging.NewFromEnv()

	_, cfg, graph, err := buildAnalyzer(flags, log, nil)
	if err != nil {
		return err
	}

	source, target := cfg.Endpoints()
	paths, err := core.AlternatePaths(graph, source, target, flags.alternates)
	if err != nil {
		return err
	}
	for i, p := range paths {
		fmt.Printf("path %d (weight %.4f): %s\n", i+1, p.Weight, formatNodes(p.Nodes))
	}
	return nil
}

func buildAnalyzer(flags *rootFlags, log logging.Logger, collector *observability.RoutingCollector) (*core.Analyzer, *core.Config, *core.Graph, error) {
	cfg, err := core.LoadConfig(flags.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if flags.source != 0 {
		cfg.Source = model.NodeID(flags.source)
	}
	if flags.target != 0 {
		cfg.Target = model.NodeID(flags.target)
	}

	snap, err := core.LoadSnapshotFile(flags.snapshotPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info(context.Background(), "loaded snapshot",
		logging.String("path", flags.snapshotPath),
		logging.Int("nodes", snap.NodeCount),
		logging.Int("links", snap.LinkCount),
	)

	analyzer, err := core.NewAnalyzer(snap.Graph, cfg,
		core.WithLogger(log),
		core.WithCollector(collector),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	return analyzer, cfg, snap.Graph, nil
}

func printResult(result *core.Result) {
	fmt.Printf("baseline (weight %.4f): %s\n", result.Baseline.Weight, formatNodes(result.Baseline.Nodes))
	fmt.Printf("target weight: %.4f\n", result.TargetWeight)
	if result.Detour == nil {
		fmt.Println("no qualifying detour found; use the baseline path")
		return
	}
	d := result.Detour
	status := "meets target"
	if d.BelowTarget {
		status = "below target"
	}
	fmt.Printf("detour [%s, %s] (weight %.4f): %s\n",
		d.Strategy, status, d.Path.Weight, formatNodes(d.Path.Nodes))
	fmt.Printf("zones visited: %v\n", d.VisitedZones)
}

func writeSVG(ctx context.Context, path string, graph *core.Graph, analyzer *core.Analyzer, cfg *core.Config, result *core.Result) error {
	view := core.ApplyWindow(graph, analyzer.Positions(), cfg.Window)

	opts := render.Options{Baseline: &result.Baseline}
	if result.Detour != nil {
		opts.Detour = &result.Detour.Path
	}
	dot, err := render.ToDOT(view, analyzer.Positions(), analyzer.Zones(), opts)
	if err != nil {
		return fmt.Errorf("build DOT: %w", err)
	}
	svg, err := render.RenderSVG(ctx, dot)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, svg, 0o644); err != nil {
		return fmt.Errorf("write SVG: %w", err)
	}
	return nil
}

func serveMetrics(addr string, collector *observability.RoutingCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func formatNodes(nodes []model.NodeID) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = fmt.Sprintf("%d", int(n))
	}
	return strings.Join(parts, " -> ")
}
