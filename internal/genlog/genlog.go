// Package genlog records one write-once entry per generation request.
package genlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungen/internal/mission"
)

// Source says where the parameters of a generation came from.
type Source string

const (
	SourcePreset   Source = "preset"
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Entry describes one generation request and its outcome.
type Entry struct {
	ID          string         `yaml:"id" json:"id"`
	Timestamp   time.Time      `yaml:"timestamp" json:"timestamp"`
	Input       string         `yaml:"input" json:"input"`
	PresetID    int            `yaml:"preset_id,omitempty" json:"preset_id,omitempty"`
	Source      Source         `yaml:"source" json:"source"`
	Model       string         `yaml:"model,omitempty" json:"model,omitempty"`
	Reason      string         `yaml:"reason,omitempty" json:"reason,omitempty"`
	Algorithm   string         `yaml:"algorithm" json:"algorithm"`
	Params      map[string]any `yaml:"params" json:"params"`
	Mission     mission.Spec   `yaml:"mission" json:"mission"`
	Seed        int64          `yaml:"seed" json:"seed"`
	Attempts    int            `yaml:"attempts" json:"attempts"`
	Success     bool           `yaml:"success" json:"success"`
	Error       string         `yaml:"error,omitempty" json:"error,omitempty"`
	Fingerprint string         `yaml:"fingerprint,omitempty" json:"fingerprint,omitempty"`
	Warnings    []string       `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	DurationMS  int64          `yaml:"duration_ms" json:"duration_ms"`
}

// NewEntry starts an entry for input with a fresh ID and timestamp.
func NewEntry(input string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Input:     input,
	}
}

// ShortID is the first eight characters of the entry ID.
func (e Entry) ShortID() string {
	if len(e.ID) < 8 {
		return e.ID
	}
	return e.ID[:8]
}

// Recorder stores generation entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// History lists the most recent entries, newest first.
type History interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// ErrEntryExists is returned when an entry file is already on disk.
var ErrEntryExists = errors.New("genlog: entry already recorded")

// FileRecorder writes each entry to its own YAML file.
type FileRecorder struct {
	dir string
}

// NewFileRecorder creates a recorder writing into dir.
func NewFileRecorder(dir string) *FileRecorder {
	return &FileRecorder{dir: dir}
}

// Dir returns the directory entries are written to.
func (r *FileRecorder) Dir() string { return r.dir }

// Path returns the file an entry is written to.
func (r *FileRecorder) Path(e Entry) string {
	name := fmt.Sprintf("generation_%s_%s.yaml", e.Timestamp.UTC().Format("20060102_150405"), e.ShortID())
	return filepath.Join(r.dir, name)
}

// Record writes e. Entries are never overwritten.
func (r *FileRecorder) Record(_ context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("genlog: entry has no id")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(r.Path(e), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrEntryExists, e.ID)
		}
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	return enc.Close()
}

// Recent reads back the newest entries in the directory.
func (r *FileRecorder) Recent(_ context.Context, limit int) ([]Entry, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, "generation_*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	var out []Entry
	for _, p := range paths {
		if limit > 0 && len(out) >= limit {
			break
		}
		e, err := ReadEntry(p)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// ReadEntry loads an entry file.
func ReadEntry(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read log entry: %w", err)
	}
	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("failed to parse log entry %s: %w", filepath.Base(path), err)
	}
	return e, nil
}

// MultiRecorder records to every recorder and joins their errors.
type MultiRecorder []Recorder

// Record writes e to all recorders, even when one of them fails.
func (m MultiRecorder) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Summary is a one-line description of an entry for listings.
func Summary(e Entry) string {
	status := "ok"
	if !e.Success {
		status = "failed"
	}
	input := e.Input
	if len(input) > 40 {
		input = input[:37] + "..."
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %-8s %-22s %-13s seed=%d %q",
		e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.ShortID(), e.Source, e.Algorithm, status, e.Seed, input))
}
