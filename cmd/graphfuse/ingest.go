package graphfuse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/graphfuse/graphfuse/pkg/config"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest documents into the engine",
	Long: `Ingest one or more text files, or a whole corpus described by a YAML
manifest. Each entry becomes a document: chunked, embedded, entity-linked
and indexed.

A manifest lists documents explicitly:

  documents:
    - title: "Curie biography"
      path: docs/curie.txt
    - title: "Inline note"
      text: "Marie Curie discovered radium."`,
	RunE: runIngest,
}

var (
	ingestTitle    string
	ingestManifest string
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "Document title (single file; defaults to the file name)")
	ingestCmd.Flags().StringVar(&ingestManifest, "manifest", "", "YAML corpus manifest")
}

// corpusManifest is the YAML shape accepted by --manifest.
type corpusManifest struct {
	Documents []manifestEntry `yaml:"documents"`
}

type manifestEntry struct {
	Title string `yaml:"title"`
	Path  string `yaml:"path"`
	Text  string `yaml:"text"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestManifest == "" && len(args) == 0 {
		return fmt.Errorf("provide files to ingest or a --manifest")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := buildLogger(cfg)
	engine, err := buildEngine(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	ctx := context.Background()
	defer engine.Close(ctx)

	entries, err := collectEntries(args, ingestManifest)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		text := entry.Text
		if text == "" {
			data, err := os.ReadFile(entry.Path)
			if err != nil {
				return fmt.Errorf("read %s: %w", entry.Path, err)
			}
			text = string(data)
		}

		result, err := engine.IngestDocument(ctx, entry.Title, text)
		if err != nil {
			return fmt.Errorf("ingest %q: %w", entry.Title, err)
		}

		status := "ingested"
		if result.Skipped {
			status = "skipped (already ingested)"
		}
		fmt.Printf("%s  %s  chunks=%d entities=%d\n", result.DocumentID, status, result.Chunks, result.Entities)
	}
	return nil
}

func collectEntries(files []string, manifestPath string) ([]manifestEntry, error) {
	var entries []manifestEntry

	if manifestPath != "" {
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		var manifest corpusManifest
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		for _, entry := range manifest.Documents {
			if entry.Path == "" && entry.Text == "" {
				return nil, fmt.Errorf("manifest entry %q has neither path nor text", entry.Title)
			}
			if entry.Title == "" && entry.Path != "" {
				entry.Title = filepath.Base(entry.Path)
			}
			entries = append(entries, entry)
		}
	}

	for _, path := range files {
		title := ingestTitle
		if title == "" || len(files) > 1 {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		entries = append(entries, manifestEntry{Title: title, Path: path})
	}
	return entries, nil
}
