package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
)

// fileDocument is the on-disk layout of a cart file.
type fileDocument struct {
	Items []domain.LineItem `json:"items"`
}

// FileRepository keeps the cart in a single JSON file, the way the app
// kept it in local preferences.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Load returns an empty cart when the file does not exist yet.
func (r *FileRepository) Load(ctx context.Context) ([]domain.LineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.LineItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode cart file: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []domain.LineItem{}
	}
	return doc.Items, nil
}

// Save writes the whole cart to a temp file in the same directory and
// renames it over the previous one, so a crash never leaves a torn file.
func (r *FileRepository) Save(ctx context.Context, items []domain.LineItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []domain.LineItem{}
	}

	data, err := marshalDocument(fileDocument{Items: items})
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cart directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cart-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cart file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cart file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync cart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cart file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace cart file: %w", err)
	}
	return nil
}

func marshalDocument(doc fileDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
