package memory

import (
	"context"
	"slices"

	"quiz-result-service/internal/domain"
)

// Catalog serves recommendation items from a fixed set, keeping their order.
type Catalog struct {
	items map[domain.CatalogKind][]domain.CatalogItem
}

func NewCatalog(items map[domain.CatalogKind][]domain.CatalogItem) *Catalog {
	return &Catalog{items: items}
}

func (c *Catalog) ItemsByTag(_ context.Context, kind domain.CatalogKind, tag string) ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	for _, item := range c.items[kind] {
		if slices.Contains(item.Tags, tag) {
			out = append(out, item)
		}
	}
	return out, nil
}
