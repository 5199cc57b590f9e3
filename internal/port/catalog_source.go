package port

import (
	"context"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

type CatalogSource interface {
	// LoadCatalog reads and validates the full catalog; any malformed entry fails the load
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}
