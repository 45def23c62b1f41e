package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"blueduck/internal/aggregator"
	"blueduck/internal/models"
)

// Feed is the JSON document written by the watch command.
type Feed struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Report      aggregator.Report `json:"report"`
	Items       []models.NewsItem `json:"items"`
}

// WriteJSON encodes feed to w, indented when pretty is set.
func WriteJSON(w io.Writer, feed Feed, pretty bool) error {
	if feed.Items == nil {
		feed.Items = []models.NewsItem{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if pretty {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(feed); err != nil {
		return fmt.Errorf("failed to encode feed: %w", err)
	}

	return nil
}

// SaveJSON writes feed to path, creating parent directories and keeping the
// previous file as path.bak.
func SaveJSON(feed Feed, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteJSON(f, feed, true); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
