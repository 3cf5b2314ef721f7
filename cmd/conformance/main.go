// Command conformance checks an include gardener binary against the
// reference graphs and prints a report.
//
// Usage:
//
//	conformance --analyzer build/include_gardener --testdata-dir test/test_files
//	conformance --simulate --serve --port 8080
//
// Exit status is 0 when every case passed, 1 when a case failed and 2 on
// configuration errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ritzau/gardener-conformance/pkg/catalog"
	"github.com/ritzau/gardener-conformance/pkg/config"
	"github.com/ritzau/gardener-conformance/pkg/finder"
	"github.com/ritzau/gardener-conformance/pkg/gateway"
	"github.com/ritzau/gardener-conformance/pkg/logging"
	"github.com/ritzau/gardener-conformance/pkg/report"
	"github.com/ritzau/gardener-conformance/pkg/runner"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
	"github.com/ritzau/gardener-conformance/pkg/simulator"
	"github.com/ritzau/gardener-conformance/pkg/web"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func newFlagSet() (*pflag.FlagSet, *string) {
	f := pflag.NewFlagSet("conformance", pflag.ContinueOnError)
	f.String("analyzer", "include_gardener", "Path to the include gardener binary")
	f.Bool("simulate", false, "Run against the built-in simulated analyzer")
	f.String("testdata-dir", "", "Directory holding the c, py and rb fixture trees")
	f.Int("max-jobs", 4, "Highest worker count of the determinism matrix")
	f.Int("repeats", 10, "Runs per worker count in the determinism matrix")
	f.StringSlice("suites", nil, fmt.Sprintf("Suites to run (%v)", runner.Suites))
	f.String("report", "", "Write the report to this file")
	f.String("report-format", "", "Report file format: json or yaml (default from extension)")
	f.Bool("serve", false, "Serve the report and live progress over HTTP")
	f.Int("port", 8080, "Port of the results server")
	f.Bool("watch", false, "Re-run when the analyzer or a fixture tree changes")
	f.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.Bool("log-json", false, "Log in JSON")
	configFile := f.String("config", config.DefaultFile, "Configuration file")
	return f, configFile
}

func run(ctx context.Context, args []string) int {
	f, configFile := newFlagSet()
	if err := f.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitConfig
	}

	cfg, err := config.LoadFile(f, *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitConfig
	}
	if err := setupLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitConfig
	}

	h, err := newHarness(cfg)
	if err != nil {
		logging.Error("invalid configuration", "error", err)
		return exitConfig
	}

	if !cfg.Serve && !cfg.Watch {
		rep := h.runOnce(ctx, cfg.Suites)
		return exitCode(rep)
	}
	return h.serve(ctx)
}

func setupLogging(cfg *config.Config) error {
	level := logging.LevelFromVerbosity(cfg.VerboseCnt)
	if cfg.Verbosity != "" {
		l, err := logging.ParseLevel(cfg.Verbosity)
		if err != nil {
			return err
		}
		level = l
	}

	if cfg.LogJSON {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}
	return nil
}

// harness wires configuration, gateway and catalog together
type harness struct {
	cfg      *config.Config
	analyzer string
	trees    map[scenario.Language]string
	gw       *gateway.Gateway
	cat      *catalog.Catalog
	server   *web.Server
}

func newHarness(cfg *config.Config) (*harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, s := range cfg.Suites {
		if !slices.Contains(runner.Suites, s) {
			return nil, fmt.Errorf("unknown suite %q, expected one of %v", s, runner.Suites)
		}
	}
	if cfg.Report != "" {
		if _, err := report.FormatFor(cfg.ReportFormat, cfg.Report); err != nil {
			return nil, err
		}
	}

	h := &harness{cfg: cfg, trees: cfg.Trees(), cat: catalog.Default()}

	if cfg.Simulate {
		if len(h.trees) == 0 {
			h.trees = map[scenario.Language]string{
				scenario.LanguageC:      "simulated/c",
				scenario.LanguagePython: "simulated/py",
				scenario.LanguageRuby:   "simulated/rb",
			}
		}
		sim, err := simulator.FromCatalog(h.cat, h.trees)
		if err != nil {
			return nil, err
		}
		// The simulator resolves every include, so the level goldens of the
		// real binary do not apply
		if err := h.cat.Calibrate(scenario.LanguageC, 1, 2); err != nil {
			return nil, err
		}
		h.analyzer = fmt.Sprintf("include_gardener %s (simulated)", simulator.Version)
		h.gw = gateway.New(sim)
	} else {
		path, err := exec.LookPath(cfg.Analyzer)
		if err != nil {
			return nil, fmt.Errorf("analyzer not found: %w", err)
		}
		h.analyzer = path
		h.gw = gateway.New(gateway.NewExecutor(path))
		h.checkTrees()
	}

	if len(h.trees) == 0 {
		logging.Warn("no fixture trees configured, only the basic suite can run")
	}
	if cfg.Serve {
		h.server = web.NewServer()
	}
	return h, nil
}

// checkTrees drops fixture trees that cannot be read, so their suites are
// skipped, and warns about trees lacking expected files
func (h *harness) checkTrees() {
	for lang, dir := range h.trees {
		tree, ok := h.cat.Tree(lang)
		if !ok {
			continue
		}
		missing, err := finder.MissingRoots(dir, lang, tree.Roots)
		if err != nil {
			logging.Warn("fixture tree unreadable, skipping its suite", "language", string(lang), "path", dir, "error", err)
			delete(h.trees, lang)
			continue
		}
		if len(missing) > 0 {
			logging.Warn("fixture tree lacks expected files", "language", string(lang), "path", dir, "missing", missing)
		}
	}
}

// runOnce runs the given suites, prints the report and publishes it
func (h *harness) runOnce(ctx context.Context, suites []string) *runner.Report {
	runID := logging.NewRunID()
	ctx = logging.WithRunID(ctx, runID)

	opts := runner.Options{
		Analyzer: h.analyzer,
		Trees:    h.trees,
		MaxJobs:  h.cfg.MaxJobs,
		Repeats:  h.cfg.Repeats,
		Suites:   suites,
	}
	if h.server != nil {
		h.server.BeginRun(runID)
		opts.Observer = h.server.Observe
	}

	rep := runner.New(h.gw, h.cat, opts).Run(ctx)

	report.Print(os.Stdout, rep)
	if h.cfg.Report != "" {
		h.export(ctx, rep)
	}
	if h.server != nil {
		h.server.SetReport(rep)
	}
	return rep
}

func (h *harness) export(ctx context.Context, rep *runner.Report) {
	format, err := report.FormatFor(h.cfg.ReportFormat, h.cfg.Report)
	if err == nil {
		err = report.Export(h.cfg.Report, format, rep)
	}
	if err != nil {
		logging.ErrorContext(ctx, "failed to export report", "path", h.cfg.Report, "error", err)
		return
	}
	logging.InfoContext(ctx, "report written", "path", h.cfg.Report, "format", string(format))
}

// serve runs the suites, then keeps serving results and re-running on
// changes until ctx is canceled
func (h *harness) serve(ctx context.Context) int {
	g, gctx := errgroup.WithContext(ctx)

	if h.server != nil {
		defer h.server.Close()
		g.Go(func() error {
			return h.server.Start(gctx, h.cfg.Port)
		})
	}

	var last *runner.Report
	g.Go(func() error {
		last = h.runOnce(gctx, h.cfg.Suites)
		if !h.cfg.Watch {
			return nil
		}
		if h.cfg.Simulate {
			logging.Warn("watch mode has nothing to watch with the simulated analyzer")
			return nil
		}
		return h.watch(gctx, func(suites []string) {
			last = h.runOnce(gctx, suites)
		})
	})

	if err := g.Wait(); err != nil {
		logging.Error("stopped", "error", err)
		return exitConfig
	}
	return exitCode(last)
}

func exitCode(rep *runner.Report) int {
	if rep.OK() {
		return exitOK
	}
	return exitFailed
}

// A watch batch is flushed after settle without changes, or maxWait after
// its first change
const (
	settle  = 500 * time.Millisecond
	maxWait = 5 * time.Second
)
