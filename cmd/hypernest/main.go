// HyperNest - 2D nesting of irregular parts on stock sheets
//
// Reads a project file, searches for a dense layout with a genetic
// algorithm and writes the layout as PDF, labels, spreadsheets, DXF and
// reports.
//
// Build:
//   go build -o hypernest ./cmd/hypernest
//
// Usage:
//   hypernest -project job.hnest -formats pdf,dxf,csv -timeout 2m
//
// Ctrl-C stops the search at the next generation and still writes the best
// layout found so far.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/piwi3910/hypernest/internal/engine"
	"github.com/piwi3910/hypernest/internal/export"
	"github.com/piwi3910/hypernest/internal/metrics"
	"github.com/piwi3910/hypernest/internal/model"
	"github.com/piwi3910/hypernest/internal/project"
)

type options struct {
	projectPath  string
	settingsPath string
	preset       string
	configPath   string
	outDir       string
	formats      string
	seed         int64
	seedSet      bool
	timeout      time.Duration
	compare      bool
	save         bool
	metricsAddr  string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("hypernest", flag.ContinueOnError)
	fs.StringVar(&o.projectPath, "project", "", "project file (*.hnest)")
	fs.StringVar(&o.settingsPath, "settings", "", "settings file (JSON or YAML) overriding the project settings")
	fs.StringVar(&o.preset, "preset", "", "named settings preset from the presets file")
	fs.StringVar(&o.configPath, "config", project.DefaultConfigPath(), "application config file")
	fs.StringVar(&o.outDir, "out", "", "output directory (default: config output_dir or next to the project)")
	fs.StringVar(&o.formats, "formats", "", "comma separated outputs: pdf,labels,xlsx,dxf,csv,txt")
	fs.Int64Var(&o.seed, "seed", 0, "random seed overriding the settings")
	fs.DurationVar(&o.timeout, "timeout", 0, "stop the search after this long (0 = no limit)")
	fs.BoolVar(&o.compare, "compare", false, "compare the default what-if scenarios and export the best")
	fs.BoolVar(&o.save, "save", false, "store the result in the project file")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			o.seedSet = true
		}
	})
	if o.projectPath == "" {
		return o, errors.New("-project is required")
	}
	return o, nil
}

func main() {
	log.SetFlags(log.LstdFlags)
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("hypernest: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if o.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		go func() {
			log.Printf("metrics listening on %s", o.metricsAddr)
			if err := http.ListenAndServe(o.metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	if err := run(ctx, o, os.Stdout); err != nil {
		log.Fatalf("hypernest: %v", err)
	}
}

// run executes one nesting job and writes its outputs.
func run(ctx context.Context, o options, stdout io.Writer) error {
	cfg, err := project.LoadAppConfig(o.configPath)
	if err != nil {
		return err
	}

	proj, err := project.LoadProject(o.projectPath)
	if err != nil {
		return err
	}
	settings, err := resolveSettings(o, proj.Settings)
	if err != nil {
		return err
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if len(proj.Sheets) > 0 {
		est := model.EstimateSheets(proj.Parts, proj.Sheets[0], settings.Spacing, 0)
		log.Printf("%s: %d parts, area estimate %d x %q", proj.Name, countInstances(proj.Parts), est.SheetsNeededMin, proj.Sheets[0].Name)
	}

	opts := []engine.Option{
		engine.WithRecorder(metrics.Default()),
		engine.WithProgress(progressLogger()),
	}

	var solutions []export.Solution
	var result model.NestingResult
	if o.compare {
		scenarios := engine.BuildDefaultScenarios(settings)
		compared := engine.CompareScenarios(ctx, scenarios, proj.Parts, proj.Sheets, opts...)
		best := engine.Best(compared)
		if best < 0 {
			if len(compared) > 0 && compared[0].Err != nil {
				return compared[0].Err
			}
			return errors.New("no scenario produced a layout")
		}
		for _, c := range compared {
			if c.Err != nil {
				log.Printf("scenario %q: %v", c.Scenario.Name, c.Err)
				continue
			}
			solutions = append(solutions, export.Solution{Name: c.Scenario.Name, Result: c.Result})
		}
		result = compared[best].Result
		settings = compared[best].Scenario.Settings
		fmt.Fprintln(stdout, renderComparison(compared, best))
	} else {
		result, err = engine.Nest(ctx, proj.Parts, proj.Sheets, settings, opts...)
		if err != nil {
			return err
		}
		solutions = []export.Solution{{Name: proj.Name, Result: result}}
	}
	if result.Cancelled {
		log.Printf("search stopped after %d generations, writing the best layout so far", result.Generations)
	}

	outDir := resolveOutDir(o, cfg)
	formats := resolveFormats(o, cfg)
	written, err := writeOutputs(outDir, formats, result, settings, solutions)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, renderSummary(proj.Name, result, written))

	if o.save {
		proj.Settings = settings
		proj.Result = &result
		path, err := project.SaveProject(o.projectPath, proj)
		if err != nil {
			return err
		}
		cfg.AddRecentProject(path, 10)
		if err := project.SaveAppConfig(o.configPath, cfg); err != nil {
			log.Printf("save config: %v", err)
		}
	}
	return nil
}

// resolveSettings layers preset, settings file and flags over the project
// settings, in that order.
func resolveSettings(o options, base model.Settings) (model.Settings, error) {
	settings := base
	if o.preset != "" {
		presets, err := project.LoadPresets(project.DefaultPresetsPath())
		if err != nil {
			return settings, err
		}
		p, ok := project.FindPreset(presets, o.preset)
		if !ok {
			return settings, fmt.Errorf("unknown preset %q", o.preset)
		}
		settings = p.Settings
	}
	if o.settingsPath != "" {
		s, err := project.LoadSettings(o.settingsPath)
		if err != nil {
			return settings, err
		}
		settings = s
	}
	if o.seedSet {
		settings.RandomSeed = o.seed
	}
	return settings, nil
}

func resolveOutDir(o options, cfg model.AppConfig) string {
	switch {
	case o.outDir != "":
		return o.outDir
	case cfg.OutputDir != "":
		return cfg.OutputDir
	default:
		return filepath.Dir(o.projectPath)
	}
}

func resolveFormats(o options, cfg model.AppConfig) []string {
	raw := o.formats
	if raw == "" {
		raw = strings.Join(cfg.ExportFormats, ",")
	}
	var formats []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// writeOutputs writes every requested format into dir. A format with
// nothing to draw is skipped with a log line.
func writeOutputs(dir string, formats []string, result model.NestingResult, settings model.Settings, solutions []export.Solution) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var written []string
	var reports []string
	for _, f := range formats {
		var path string
		var err error
		switch f {
		case "pdf":
			path = filepath.Join(dir, "layout.pdf")
			err = export.ExportPDF(path, result, settings)
		case "labels":
			path = filepath.Join(dir, "labels.pdf")
			err = export.ExportLabels(path, result)
		case "xlsx":
			path = filepath.Join(dir, "cutlist.xlsx")
			err = export.ExportXLSX(path, result)
		case "dxf":
			path = filepath.Join(dir, "layout.dxf")
			err = export.ExportDXF(path, result)
		case "csv", "txt":
			reports = append(reports, f)
			continue
		default:
			return written, fmt.Errorf("unknown output format %q", f)
		}
		if errors.Is(err, export.ErrNothingToExport) {
			log.Printf("%s: nothing placed, skipped", f)
			continue
		}
		if err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		written = append(written, path)
	}
	if len(reports) > 0 {
		paths, err := export.ExportReports(dir, solutions, reports, time.Now())
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// progressLogger logs search progress at most once per second.
func progressLogger() func(engine.Progress) {
	every := rate.Sometimes{Interval: time.Second}
	return func(p engine.Progress) {
		every.Do(func() {
			log.Printf("generation %d/%d: fitness %.4f, utilization %.1f%%, feasible %t",
				p.Generation, p.Generations, p.BestFitness, p.Utilization*100, p.Feasible)
		})
	}
}

func countInstances(parts []model.Part) int {
	n := 0
	for _, p := range parts {
		n += max(p.Quantity, 0)
	}
	return n
}
