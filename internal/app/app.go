// Package app wires the configured components into a ready pipeline for
// the command line tools.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lawnchairsociety/dungen/internal/config"
	"github.com/lawnchairsociety/dungen/internal/database"
	"github.com/lawnchairsociety/dungen/internal/export"
	"github.com/lawnchairsociety/dungen/internal/genlog"
	"github.com/lawnchairsociety/dungen/internal/geometry"
	"github.com/lawnchairsociety/dungen/internal/llm"
	"github.com/lawnchairsociety/dungen/internal/logger"
	"github.com/lawnchairsociety/dungen/internal/pipeline"
	"github.com/lawnchairsociety/dungen/internal/presets"
)

// Options adjust the configured setup.
type Options struct {
	// Offline infers from keywords instead of asking the model.
	Offline bool
	// NoDatabase keeps history in log files only.
	NoDatabase bool
}

// App holds the wired components.
type App struct {
	Config   *config.AppConfig
	Pipeline *pipeline.Pipeline
	DB       *database.Database
	Files    *genlog.FileRecorder
}

// New builds the pipeline and its history stores from cfg.
func New(cfg *config.AppConfig, opts Options) (*App, error) {
	a := &App{Config: cfg}

	catalog := presets.Default()
	if cfg.PresetsFile != "" {
		c, err := presets.LoadPresetsFromYAML(cfg.PresetsFile)
		if err != nil {
			return nil, err
		}
		catalog = c
		logger.Info("Presets loaded", "path", cfg.PresetsFile, "count", len(c.All()))
	}

	var recorders genlog.MultiRecorder
	if cfg.Generation.LogDir != "" {
		a.Files = genlog.NewFileRecorder(cfg.Generation.LogDir)
		recorders = append(recorders, a.Files)
	}
	if cfg.Database.Enabled && !opts.NoDatabase {
		db, err := database.OpenWithConfig(cfg.Database.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.DB = db
		recorders = append(recorders, db)
	}

	a.Pipeline = pipeline.New(pipeline.Options{
		Inferer:    newInferer(cfg.LLM, opts.Offline),
		Presets:    catalog,
		Recorder:   recorders,
		Geometry:   geometry.Config{MinArenaFraction: cfg.Generation.MinArenaFraction},
		MaxRetries: cfg.Generation.MaxRetries,
	})
	return a, nil
}

func newInferer(cfg config.LLMConfig, offline bool) llm.Inferer {
	if offline || !cfg.Enabled {
		logger.Info("Using keyword inference")
		return llm.KeywordInferer{}
	}
	logger.Info("Using language model", "host", cfg.Host, "model", cfg.Model, "timeout", cfg.Timeout())
	client := llm.NewOllamaClient(cfg.Host, cfg.Timeout()+cfg.Timeout()/2)
	return llm.NewAdapter(client, llm.Options{
		Model:       cfg.Model,
		Timeout:     cfg.Timeout(),
		Temperature: cfg.Temperature,
	})
}

// History prefers the database and falls back to the log files. It is nil
// when neither is configured.
func (a *App) History() genlog.History {
	switch {
	case a.DB != nil:
		return a.DB
	case a.Files != nil:
		return a.Files
	}
	return nil
}

// SaveLevel writes a level document into the output directory and
// returns its path.
func (a *App) SaveLevel(level *pipeline.Level) (string, error) {
	doc := level.Document()
	name := fmt.Sprintf("level_%s_%d.yaml", doc.Algorithm, doc.Seed)
	path := filepath.Join(a.Config.Generation.OutputDir, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	return path, export.WriteYAML(doc, path)
}

// Close releases the database.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
