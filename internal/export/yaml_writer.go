package export

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes a document to path, creating parent directories.
func WriteYAML(doc Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// Write header comment
	fmt.Fprintf(f, "# %s level, %dx%d\n", doc.Algorithm, doc.Width, doc.Height)
	fmt.Fprintf(f, "# Generated with seed: %d\n", doc.Seed)
	fmt.Fprintf(f, "# Mission: %s, room count: %d\n\n", doc.Mission.Type, len(doc.Rooms))

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// ReadYAML loads a document written by WriteYAML.
func ReadYAML(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read level file: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse level YAML: %w", err)
	}
	if doc.Version != FormatVersion {
		return Document{}, fmt.Errorf("unsupported level format version %d", doc.Version)
	}
	return doc, nil
}
