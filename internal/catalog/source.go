package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

//go:embed vending_inventory.json
var bundledInventory []byte

// BundledSource loads the inventory compiled into the binary.
type BundledSource struct{}

func (BundledSource) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	return Decode(bytes.NewReader(bundledInventory))
}

// FileSource loads a catalog document from disk.
type FileSource struct {
	Path string
}

func (s FileSource) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResource, err)
	}
	defer f.Close()

	cat, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return cat, nil
}
