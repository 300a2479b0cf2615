// Package archive holds the filesystem snapshot store for the order table.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

// FileArchive writes orders_YYYYMMDD.json files under a directory. Writes go
// to a temp file that is renamed over the target, so a crash mid-write leaves
// the previous snapshot intact.
type FileArchive struct {
	dir string
}

func NewFileArchive(dir string) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	return &FileArchive{dir: dir}, nil
}

func (a *FileArchive) Path(day time.Time) string {
	return filepath.Join(a.dir, "orders_"+interfaces.ArchiveKey(day)+".json")
}

func (a *FileArchive) Load(ctx context.Context, day time.Time) (map[string]*domain.Order, error) {
	data, err := os.ReadFile(a.Path(day))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]*domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	orders := make(map[string]*domain.Order)
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode archive %s: %w", a.Path(day), err)
	}
	return orders, nil
}

func (a *FileArchive) Save(ctx context.Context, day time.Time, orders map[string]*domain.Order) error {
	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	tmp, err := os.CreateTemp(a.dir, ".orders-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}

	if err := os.Rename(tmp.Name(), a.Path(day)); err != nil {
		return fmt.Errorf("failed to replace archive: %w", err)
	}
	return nil
}

var _ interfaces.OrderArchive = (*FileArchive)(nil)
