package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungen/internal/app"
	"github.com/lawnchairsociety/dungen/internal/config"
	"github.com/lawnchairsociety/dungen/internal/export"
	"github.com/lawnchairsociety/dungen/internal/genlog"
	"github.com/lawnchairsociety/dungen/internal/logger"
	"github.com/lawnchairsociety/dungen/internal/mission"
	"github.com/lawnchairsociety/dungen/internal/params"
	"github.com/lawnchairsociety/dungen/internal/pipeline"
)

func main() {
	configFile := flag.String("config", config.DefaultPath, "Path to config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	seed := flag.Int64("seed", 0, "Generation seed (default: random based on current time)")
	algorithm := flag.String("algorithm", "", "Force a layout algorithm (e.g. maze, bsp, caves)")
	missionType := flag.String("mission", "", "Force a mission type (boss_fight, treasure_hunt, escape, exploration)")
	format := flag.String("format", "ascii", "Output format: ascii, yaml or json")
	save := flag.Bool("save", false, "Save each level as YAML in the output directory")
	offline := flag.Bool("offline", false, "Infer from keywords instead of asking the language model")
	noDB := flag.Bool("no-db", false, "Do not record generations in the database")
	history := flag.Int("history", 0, "Print the N most recent generations and exit")
	stats := flag.Bool("stats", false, "Print how often each algorithm was generated and exit")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*loggingConfig)
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := app.New(cfg, app.Options{Offline: *offline, NoDatabase: *noDB})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *history > 0:
		if err := printHistory(ctx, os.Stdout, a.History(), *history); err != nil {
			log.Fatalf("Failed to read history: %v", err)
		}
		return
	case *stats:
		if err := printStats(ctx, os.Stdout, a); err != nil {
			log.Fatalf("Failed to read stats: %v", err)
		}
		return
	}

	req := pipeline.Request{Seed: *seed}
	if *algorithm != "" {
		alg, ok := params.ParseAlgorithm(*algorithm)
		if !ok {
			log.Fatalf("Unknown algorithm %q", *algorithm)
		}
		req.PreferAlgorithm = alg
	}
	if *missionType != "" {
		t, ok := mission.ParseType(*missionType)
		if !ok {
			log.Fatalf("Unknown mission type %q", *missionType)
		}
		req.Mission = t
	}

	c := &cli{app: a, out: os.Stdout, format: *format, save: *save}
	if flag.NArg() > 0 {
		req.Input = strings.Join(flag.Args(), " ")
		if err := c.generate(ctx, req); err != nil {
			a.Close()
			os.Exit(1)
		}
		return
	}
	c.interactive(ctx, os.Stdin, req)
}

type cli struct {
	app    *app.App
	out    io.Writer
	format string
	save   bool
	last   *pipeline.Level
}

func (c *cli) generate(ctx context.Context, req pipeline.Request) error {
	level, err := c.app.Pipeline.Run(ctx, req)
	return c.show(level, err)
}

func (c *cli) regenerate(ctx context.Context) error {
	if c.last == nil {
		fmt.Fprintln(c.out, "Nothing to regenerate yet.")
		return nil
	}
	level, err := c.app.Pipeline.Regenerate(ctx, c.last)
	return c.show(level, err)
}

func (c *cli) show(level *pipeline.Level, err error) error {
	if err != nil {
		if errors.Is(err, pipeline.ErrGenerationExhausted) {
			fmt.Fprintln(c.out, "Generation failed, try different settings.")
		} else {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		return err
	}
	c.last = level

	if err := render(c.out, level, c.format); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return err
	}
	if c.save {
		if err := c.saveLast(); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) saveLast() error {
	if c.last == nil {
		fmt.Fprintln(c.out, "Nothing to save yet.")
		return nil
	}
	path, err := c.app.SaveLevel(c.last)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return err
	}
	fmt.Fprintf(c.out, "Saved %s\n", path)
	return nil
}

func render(w io.Writer, level *pipeline.Level, format string) error {
	doc := level.Document()
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "ascii", "":
		fmt.Fprintln(w, doc.Summary())
		if level.Reason != "" {
			fmt.Fprintf(w, "Reason: %s\n", level.Reason)
		}
		for _, warning := range level.Warnings {
			fmt.Fprintf(w, "Warning: %s\n", warning)
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, export.ASCII(level.Grid))
		fmt.Fprintln(w)
		fmt.Fprintln(w, export.Legend())
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

func (c *cli) interactive(ctx context.Context, in io.Reader, base pipeline.Request) {
	fmt.Fprintln(c.out, "DunGen - describe a level or pick a preset.")
	fmt.Fprintln(c.out, c.app.Pipeline.Presets().Menu())
	fmt.Fprintln(c.out, "Commands: regenerate, save, history, quit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(c.out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				return
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			return
		case "regenerate", "r":
			c.regenerate(ctx)
		case "save":
			c.saveLast()
		case "history":
			if err := printHistory(ctx, c.out, c.app.History(), 10); err != nil {
				fmt.Fprintf(c.out, "Error: %v\n", err)
			}
		default:
			req := base
			req.Input = line
			c.generate(ctx, req)
			// A fixed seed applies to the first level only.
			base.Seed = 0
		}
	}
}

func printHistory(ctx context.Context, w io.Writer, h genlog.History, limit int) error {
	if h == nil {
		return errors.New("no history store is configured")
	}
	entries, err := h.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No generations recorded yet.")
	}
	for _, e := range entries {
		fmt.Fprintln(w, genlog.Summary(e))
	}
	return nil
}

func printStats(ctx context.Context, w io.Writer, a *app.App) error {
	if a.DB == nil {
		return errors.New("stats need the database")
	}
	counts, err := a.DB.AlgorithmCounts(ctx)
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return counts[names[i]] > counts[names[j]] })

	fmt.Fprintf(w, "%d successful generations\n", total)
	for _, name := range names {
		fmt.Fprintf(w, "  %-22s %5d  %5.1f%%\n", name, counts[name], 100*float64(counts[name])/float64(total))
	}
	return nil
}
