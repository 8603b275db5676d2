package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// Supported reports whether files with this suffix can be ingested
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".txt":
		return true
	}
	return false
}

// LoadFile reads a single text document. Blank files yield no document.
func LoadFile(path string) ([]domain.Document, error) {
	if !Supported(path) {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []domain.Document{{
		Content:  text,
		Metadata: map[string]any{"source": path},
	}}, nil
}

// LoadDir walks dir recursively and loads every supported file
func LoadDir(dir string) ([]domain.Document, error) {
	var docs []domain.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		loaded, err := LoadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load documents from %s: %w", dir, err)
	}
	return docs, nil
}
