// Package pipeline turns a level request into a finished level: preset or
// language model inference, parameter validation, mission adjustment,
// generation with seed retries, geometry post-processing and logging.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lawnchairsociety/dungen/internal/export"
	"github.com/lawnchairsociety/dungen/internal/genlog"
	"github.com/lawnchairsociety/dungen/internal/geometry"
	"github.com/lawnchairsociety/dungen/internal/grid"
	"github.com/lawnchairsociety/dungen/internal/llm"
	"github.com/lawnchairsociety/dungen/internal/logger"
	"github.com/lawnchairsociety/dungen/internal/mission"
	"github.com/lawnchairsociety/dungen/internal/params"
	"github.com/lawnchairsociety/dungen/internal/pcg"
	"github.com/lawnchairsociety/dungen/internal/presets"
)

// ErrGenerationExhausted is returned when every retry seed failed.
var ErrGenerationExhausted = errors.New("generation failed, try different settings")

const (
	// DefaultMaxRetries is the number of extra seeds tried after the first.
	DefaultMaxRetries = 5

	// SeedStride separates the seeds of consecutive attempts.
	SeedStride = 1000
)

// Request is one level request.
type Request struct {
	// Input is a preset number, a free-text description or empty for the
	// first preset.
	Input string
	// Seed 0 picks a seed from the clock.
	Seed int64
	// PreferAlgorithm replaces the algorithm chosen by the preset or model.
	PreferAlgorithm params.Algorithm
	// Overrides are applied on top of the chosen parameters.
	Overrides map[string]any
	// Mission, when set, replaces the mission type and redesigns it.
	Mission mission.Type
}

// Options configures a Pipeline. Zero values pick defaults.
type Options struct {
	Inferer    llm.Inferer
	Presets    *presets.Catalog
	Recorder   genlog.Recorder
	Geometry   geometry.Config
	MaxRetries int
	Now        func() time.Time
}

// Pipeline runs level requests. It is safe for concurrent use when its
// Inferer and Recorder are.
type Pipeline struct {
	inferer    llm.Inferer
	presets    *presets.Catalog
	recorder   genlog.Recorder
	geometry   geometry.Config
	maxRetries int
	now        func() time.Time
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		inferer:    opts.Inferer,
		presets:    opts.Presets,
		recorder:   opts.Recorder,
		geometry:   opts.Geometry,
		maxRetries: opts.MaxRetries,
		now:        opts.Now,
	}
	if p.inferer == nil {
		p.inferer = llm.KeywordInferer{}
	}
	if p.presets == nil {
		p.presets = presets.Default()
	}
	if p.maxRetries <= 0 {
		p.maxRetries = DefaultMaxRetries
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Presets returns the catalog used for numbered inputs.
func (p *Pipeline) Presets() *presets.Catalog { return p.presets }

// plan is a resolved request, ready to generate.
type plan struct {
	source   genlog.Source
	presetID int
	model    string
	reason   string
	params   params.Set
	mission  mission.Spec
	warnings []string
}

// Level is a finished level and how it was made.
type Level struct {
	ID       string
	Request  Request
	Source   genlog.Source
	PresetID int
	Model    string
	Reason   string
	Params   params.Set
	Mission  mission.Spec
	// Seed is the seed of the attempt that succeeded.
	Seed     int64
	Attempts int
	Grid     *grid.Grid
	Report   geometry.Report
	Warnings []string

	plan plan
}

// Algorithm returns the algorithm that laid out the level.
func (l *Level) Algorithm() params.Algorithm { return l.Params.Algorithm() }

// Document returns the level in renderer-ready form.
func (l *Level) Document() export.Document {
	return export.NewDocument(l.Grid, export.Info{
		Input:     l.Request.Input,
		Source:    string(l.Source),
		Algorithm: string(l.Algorithm()),
		Params:    l.Params.Values(),
		Mission:   l.Mission,
		Seed:      l.Seed,
	})
}

// Run resolves and generates one level. A failed generation is still
// recorded.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Level, error) {
	if req.Seed == 0 {
		req.Seed = p.clockSeed()
	}
	pl := p.resolve(ctx, req)
	return p.generate(ctx, req, pl)
}

// Regenerate reruns the request behind prev with a fresh seed. The model is
// not asked again.
func (p *Pipeline) Regenerate(ctx context.Context, prev *Level) (*Level, error) {
	if prev == nil {
		return nil, fmt.Errorf("no level to regenerate")
	}
	req := prev.Request
	req.Seed = p.clockSeed()
	if req.Seed == prev.Request.Seed {
		req.Seed++
	}
	return p.generate(ctx, req, prev.plan)
}

func (p *Pipeline) clockSeed() int64 {
	seed := p.now().UnixNano() % 1_000_000_000
	if seed <= 0 {
		seed += 1_000_000_000
	}
	return seed
}

// resolve picks the parameters and mission for a request. It never fails:
// inference and validation problems fall back to presets and defaults.
func (p *Pipeline) resolve(ctx context.Context, req Request) plan {
	input := strings.TrimSpace(req.Input)

	var pl plan
	switch preset, ok := p.presets.Select(input); {
	case input == "":
		pl = presetPlan(p.presets.First(), genlog.SourcePreset)
	case ok:
		pl = presetPlan(preset, genlog.SourcePreset)
	default:
		inf, err := p.inferer.Infer(ctx, llm.Request{Text: input, PreferAlgorithm: req.PreferAlgorithm})
		if err != nil {
			logger.Warning("Inference failed, using exploration preset", "input", input, "error", err)
			pl = presetPlan(p.presets.Exploration(), genlog.SourceFallback)
			pl.warnings = append(pl.warnings, "level description not understood, generated an exploration level")
			break
		}
		pl = plan{
			source:  genlog.SourceLLM,
			model:   inf.Model,
			reason:  inf.Reason,
			params:  inf.Params,
			mission: inf.Mission,
		}
	}

	if req.PreferAlgorithm != "" && req.PreferAlgorithm != pl.params.Algorithm() {
		set, err := params.Validate(req.PreferAlgorithm, pl.params.Values())
		if err != nil {
			logger.Warning("Preferred algorithm rejected", "algorithm", req.PreferAlgorithm, "error", err)
			pl.warnings = append(pl.warnings, fmt.Sprintf("unknown algorithm %q ignored", req.PreferAlgorithm))
		} else {
			pl.params = set
		}
	}

	if len(req.Overrides) > 0 {
		set, err := params.Adjust(pl.params, req.Overrides)
		var verr *params.ValidationError
		switch {
		case errors.As(err, &verr):
			logger.Warning("Parameter overrides rejected", "error", err)
			pl.warnings = append(pl.warnings, "overrides rejected: "+err.Error())
		case err != nil:
			logger.Warning("Parameter overrides failed", "error", err)
		default:
			pl.params = set
			for _, name := range set.Clamped() {
				pl.warnings = append(pl.warnings, fmt.Sprintf("%s clamped to %v", name, set.Values()[name]))
			}
		}
	}

	w, h := pl.params.Int("map_width"), pl.params.Int("map_height")
	if req.Mission != "" && req.Mission != pl.mission.Type {
		pl.mission = mission.Design(req.Mission, pl.mission.Intensity, w, h)
	}

	if set, err := mission.AdjustParams(pl.params, pl.mission); err != nil {
		logger.Warning("Mission adjustment failed", "mission", pl.mission.Type, "error", err)
	} else {
		pl.params = set
	}
	pl.mission = mission.Sanitize(pl.mission, pl.params.Int("map_width"), pl.params.Int("map_height"))
	pl.warnings = append(pl.warnings, mission.Feasibility(pl.params, pl.mission)...)
	return pl
}

func presetPlan(preset presets.Preset, source genlog.Source) plan {
	return plan{
		source:   source,
		presetID: preset.ID,
		reason:   preset.Name,
		params:   preset.Params,
		mission:  preset.Mission,
	}
}

// generate lays out the level, retrying with new seeds, then applies the
// mission and records the outcome.
func (p *Pipeline) generate(ctx context.Context, req Request, pl plan) (*Level, error) {
	start := p.now()
	entry := genlog.NewEntry(req.Input)
	entry.PresetID = pl.presetID
	entry.Source = pl.source
	entry.Model = pl.model
	entry.Reason = pl.reason
	entry.Algorithm = string(pl.params.Algorithm())
	entry.Params = pl.params.Values()
	entry.Mission = pl.mission
	entry.Seed = req.Seed
	entry.Warnings = pl.warnings

	level, err := p.attempt(ctx, req, pl, &entry)
	entry.DurationMS = p.now().Sub(start).Milliseconds()
	if err != nil {
		entry.Error = err.Error()
	}
	p.record(ctx, entry)
	if err != nil {
		return nil, err
	}
	level.ID = entry.ID
	return level, nil
}

func (p *Pipeline) attempt(ctx context.Context, req Request, pl plan, entry *genlog.Entry) (*Level, error) {
	var (
		g    *grid.Grid
		seed int64
		err  error
	)
	for k := 0; k <= p.maxRetries; k++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		seed = req.Seed + int64(k)*SeedStride
		entry.Attempts = k + 1
		g, err = pcg.Generate(pl.params, seed)
		if err == nil {
			break
		}
		if !errors.Is(err, pcg.ErrGenerationFailure) {
			return nil, err
		}
		logger.Debug("Generation attempt failed", "attempt", k+1, "error", err)
	}
	if err != nil {
		logger.Warning("Generation exhausted", "algorithm", pl.params.Algorithm(), "seed", req.Seed, "attempts", entry.Attempts)
		return nil, fmt.Errorf("%w: %v", ErrGenerationExhausted, err)
	}

	out, report, err := geometry.NewProcessor(p.geometry, postSeed(seed)).Apply(g, pl.mission)
	if err != nil {
		return nil, fmt.Errorf("post-processing failed: %w", err)
	}

	warnings := slices.Clone(pl.warnings)
	if report.Objectives < report.ObjectivesRequested {
		warnings = append(warnings, fmt.Sprintf("placed %d of %d objectives", report.Objectives, report.ObjectivesRequested))
	}

	entry.Seed = seed
	entry.Success = true
	entry.Fingerprint = out.Fingerprint()
	entry.Warnings = warnings
	logger.Info("Level generated",
		"algorithm", pl.params.Algorithm(),
		"mission", pl.mission.Type,
		"seed", seed,
		"attempts", entry.Attempts,
		"objectives", report.Objectives,
		"source", pl.source)

	return &Level{
		Request:  req,
		Source:   pl.source,
		PresetID: pl.presetID,
		Model:    pl.model,
		Reason:   pl.reason,
		Params:   pl.params,
		Mission:  pl.mission,
		Seed:     seed,
		Attempts: entry.Attempts,
		Grid:     out,
		Report:   report,
		Warnings: warnings,
		plan:     pl,
	}, nil
}

// postSeed derives the post-processing seed so mission placement does not
// replay the generator's random sequence.
func postSeed(seed int64) int64 {
	return seed*6364136223846793005 + 1442695040888963407
}

func (p *Pipeline) record(ctx context.Context, e genlog.Entry) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, e); err != nil {
		logger.Warning("Failed to record generation", "id", e.ID, "error", err)
	}
}
