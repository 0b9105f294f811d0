// Package storage writes collected tweets to disk as JSON documents.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xscraper/pkg/logger"
	"xscraper/pkg/models"
)

// Slug turns a search query into a filesystem-friendly name.
func Slug(query string) string {
	return strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
}

// DefaultFilename returns the output filename derived from the query.
func DefaultFilename(query string) string {
	return Slug(query) + "_tweets.json"
}

// Writer persists scrape results under an output directory.
type Writer struct {
	outputDir string
	logger    logger.Logger
}

// NewWriter creates a writer rooted at the output directory, creating it
// if needed.
func NewWriter(outputDir string, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{outputDir: outputDir, logger: log}, nil
}

// OutputDir returns the output directory path.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// Write saves the tweets as an indented JSON array. The file is written
// through a temp file and renamed, so readers never see a partial
// document. An empty result set still produces a valid empty array.
func (w *Writer) Write(filename string, tweets []models.Tweet) (string, error) {
	if tweets == nil {
		tweets = []models.Tweet{}
	}

	data, err := json.MarshalIndent(tweets, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal tweets: %w", err)
	}

	path := filepath.Join(w.outputDir, filename)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to replace output file: %w", err)
	}

	w.logger.InfoWithFields("results written", map[string]interface{}{
		"path":  path,
		"count": len(tweets),
	})
	return path, nil
}
