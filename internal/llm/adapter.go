package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lawnchairsociety/dungen/internal/logger"
	"github.com/lawnchairsociety/dungen/internal/mission"
	"github.com/lawnchairsociety/dungen/internal/params"
)

// DefaultTimeout bounds one Infer call when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// DefaultModel is the Ollama model used when none is configured.
const DefaultModel = "llama3.2"

// ErrInferenceFailure is wrapped by every error Infer returns.
var ErrInferenceFailure = errors.New("llm: inference failed")

// InferenceError records which stage of inference failed.
type InferenceError struct {
	Stage string // "algorithm" or "details"
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("llm inference failed at %s: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInferenceFailure) hold for any InferenceError.
func (e *InferenceError) Is(target error) bool { return target == ErrInferenceFailure }

// Request is one inference request.
type Request struct {
	Text string
	// PreferAlgorithm, when set, skips the algorithm choice.
	PreferAlgorithm params.Algorithm
}

// Inference is the validated outcome of inference. Params always passed
// params.Validate and Mission always passed mission.Sanitize.
type Inference struct {
	Algorithm params.Algorithm
	Params    params.Set
	Mission   mission.Spec
	Reason    string
	Model     string
}

// Inferer turns a description into an Inference.
type Inferer interface {
	Infer(ctx context.Context, req Request) (Inference, error)
}

// Options configures an Adapter.
type Options struct {
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// Adapter asks a language model for an algorithm, parameters and mission.
type Adapter struct {
	client Client
	opts   Options
}

// NewAdapter creates an adapter. A zero timeout means DefaultTimeout.
func NewAdapter(client Client, opts Options) *Adapter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = DefaultModel
	}
	return &Adapter{client: client, opts: opts}
}

// Infer runs the two prompts within the adapter timeout. Every failure,
// including the timeout, is an *InferenceError.
func (a *Adapter) Infer(ctx context.Context, req Request) (Inference, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	text := strings.TrimSpace(req.Text)
	inf := Inference{Model: a.opts.Model}

	if req.PreferAlgorithm != "" {
		alg, ok := params.ParseAlgorithm(string(req.PreferAlgorithm))
		if !ok {
			return Inference{}, &InferenceError{Stage: "algorithm", Err: fmt.Errorf("unknown algorithm %q", req.PreferAlgorithm)}
		}
		inf.Algorithm = alg
		inf.Reason = "algorithm chosen by the request"
	} else {
		alg, reason, err := a.chooseAlgorithm(ctx, text)
		if err != nil {
			return Inference{}, &InferenceError{Stage: "algorithm", Err: err}
		}
		inf.Algorithm, inf.Reason = alg, reason
	}

	if err := a.details(ctx, text, &inf); err != nil {
		return Inference{}, &InferenceError{Stage: "details", Err: err}
	}

	logger.Debug("LLM inference complete",
		"algorithm", inf.Algorithm,
		"mission", inf.Mission.Type,
		"intensity", inf.Mission.Intensity,
		"clamped", inf.Params.Clamped())
	return inf, nil
}

func (a *Adapter) chat(ctx context.Context, prompt string, schema []byte) (map[string]any, error) {
	reply, err := a.client.Chat(ctx, ChatRequest{
		Model:       a.opts.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Schema:      schema,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, err
	}
	obj, err := decodeReply(reply)
	if err != nil {
		return nil, fmt.Errorf("unparseable reply: %w", err)
	}
	return obj, nil
}

func (a *Adapter) chooseAlgorithm(ctx context.Context, text string) (params.Algorithm, string, error) {
	hint, _ := KeywordAlgorithm(text)
	obj, err := a.chat(ctx, algorithmPrompt(text, hint), algorithmSchema())
	if err != nil {
		return "", "", err
	}
	chosen, ok := params.ParseAlgorithm(stringField(obj, "chosen_algorithm", "algorithm"))
	alg := balance(text, chosen, ok)
	reason := stringField(obj, "reason", "reasoning")
	if alg != chosen {
		logger.Debug("LLM algorithm rebalanced", "model_choice", chosen, "algorithm", alg)
		reason = strings.TrimSpace(fmt.Sprintf("%s (balanced to %s)", reason, alg))
	}
	return alg, reason, nil
}

func (a *Adapter) details(ctx context.Context, text string, inf *Inference) error {
	obj, err := a.chat(ctx, detailPrompt(text, inf.Algorithm), detailSchema(inf.Algorithm))
	if err != nil {
		return err
	}

	paramObj := objectField(obj, "parameters", "params", "config")
	if paramObj == nil {
		paramObj = obj
	}
	set, err := params.Validate(inf.Algorithm, rawParams(inf.Algorithm, paramObj))
	if err != nil {
		logger.Warning("LLM parameters rejected, using defaults", "algorithm", inf.Algorithm, "error", err)
		if set, err = params.Defaults(inf.Algorithm); err != nil {
			return err
		}
	}
	inf.Params = set
	inf.Mission = missionFrom(text, objectField(obj, "mission"), set)
	return nil
}

// missionFrom builds a sanitized mission from the reply. An unknown type
// falls back to the description's keywords. Without directives the
// objectives shape the geometry, and without either the designer fills
// the mission in.
func missionFrom(text string, obj map[string]any, set params.Set) mission.Spec {
	w, h := set.Int("map_width"), set.Int("map_height")

	t, ok := mission.ParseType(stringField(obj, "mission_type", "type"))
	if !ok {
		if t, ok = KeywordMission(text); !ok {
			t = mission.Exploration
		}
	}
	intensity, ok := numberField(obj, "intensity", "difficulty")
	if !ok {
		intensity = 0.5
	}

	directives, objectives := missionItems(obj)
	if len(directives) == 0 {
		directives = mission.DirectivesFor(mission.SanitizeObjectives(objectives))
	}
	if len(directives) == 0 {
		directives = mission.Design(t, intensity, w, h).Directives
	}
	return mission.Sanitize(mission.Spec{
		Type:        t,
		Intensity:   intensity,
		Description: stringField(obj, "description", "summary"),
		Directives:  directives,
		Objectives:  objectives,
	}, w, h)
}

// missionItems reads the "directives" and "objectives" lists. Models mix
// the two up, so every item of either list is read as a directive when its
// kind names one and as an objective otherwise.
func missionItems(obj map[string]any) ([]mission.Directive, []mission.Objective) {
	var (
		directives []mission.Directive
		objectives []mission.Objective
	)
	for _, key := range []string{"directives", "objectives"} {
		v, ok := field(obj, key)
		if !ok {
			continue
		}
		items, _ := v.([]any)
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if d, ok := directiveFrom(m); ok {
				directives = append(directives, d)
			} else if o, ok := objectiveFrom(m); ok {
				objectives = append(objectives, o)
			}
		}
	}
	return directives, objectives
}

func directiveFrom(m map[string]any) (mission.Directive, bool) {
	kind, ok := mission.ParseDirectiveKind(stringField(m, "kind", "type", "objective_type"))
	if !ok {
		return mission.Directive{}, false
	}
	d := mission.Directive{Kind: kind, Count: 1}
	if n, ok := numberField(m, "count"); ok {
		d.Count = int(n)
	}
	if n, ok := numberField(m, "width"); ok {
		d.Width = int(n)
	}
	if n, ok := numberField(m, "height"); ok {
		d.Height = int(n)
	}
	return d, true
}

func objectiveFrom(m map[string]any) (mission.Objective, bool) {
	kind, ok := mission.ParseObjectiveKind(stringField(m, "objective_type", "type", "kind"))
	if !ok {
		return mission.Objective{}, false
	}
	o := mission.Objective{
		Kind:        kind,
		Count:       1,
		Description: stringField(m, "description"),
	}
	if rule, ok := mission.ParsePlacementRule(stringField(m, "placement_rule", "placement")); ok {
		o.Placement = rule
	}
	if n, ok := numberField(m, "count"); ok {
		o.Count = int(n)
	}
	return o, true
}

// KeywordInferer infers levels from keywords alone. It never performs I/O
// and is used when no language model is configured.
type KeywordInferer struct{}

// Infer picks the algorithm and mission from keywords and designs the
// mission at medium intensity with default parameters.
func (KeywordInferer) Infer(_ context.Context, req Request) (Inference, error) {
	alg := req.PreferAlgorithm
	if alg == "" {
		hint, ok := KeywordAlgorithm(req.Text)
		alg = balance(req.Text, hint, ok)
	}
	set, err := params.Defaults(alg)
	if err != nil {
		return Inference{}, &InferenceError{Stage: "algorithm", Err: err}
	}
	t, ok := KeywordMission(req.Text)
	if !ok {
		t = mission.Exploration
	}
	return Inference{
		Algorithm: alg,
		Params:    set,
		Mission:   mission.Design(t, 0.5, set.Int("map_width"), set.Int("map_height")),
		Reason:    "keyword match",
	}, nil
}
