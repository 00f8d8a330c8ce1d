package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-result-service/internal/domain"
)

type catalogRow struct {
	bun.BaseModel `bun:"table:catalog_items"`

	Kind     string   `bun:"kind,pk"`
	ID       string   `bun:"id,pk"`
	Name     string   `bun:"name"`
	Tags     []string `bun:"tags,array"`
	Levels   []string `bun:"levels,array"`
	Position int      `bun:"position"`
}

// Catalog reads recommendable items from catalog_items in position order.
type Catalog struct {
	db *bun.DB
}

func NewCatalog(db *bun.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) ItemsByTag(ctx context.Context, kind domain.CatalogKind, tag string) ([]domain.CatalogItem, error) {
	var rows []catalogRow
	err := c.db.NewSelect().
		Model(&rows).
		Where("kind = ?", string(kind)).
		Where("? = ANY(tags)", tag).
		OrderExpr("position ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCatalogUnavailable, kind, err)
	}
	items := make([]domain.CatalogItem, 0, len(rows))
	for _, row := range rows {
		item := domain.CatalogItem{ID: row.ID, Name: row.Name, Tags: row.Tags}
		for _, l := range row.Levels {
			item.Levels = append(item.Levels, domain.Level(l))
		}
		items = append(items, item)
	}
	return items, nil
}

// Replace swaps the whole catalog of one kind; item order becomes position.
func (c *Catalog) Replace(ctx context.Context, kind domain.CatalogKind, items []domain.CatalogItem) error {
	return c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*catalogRow)(nil)).Where("kind = ?", string(kind)).Exec(ctx); err != nil {
			return fmt.Errorf("clear catalog %s: %w", kind, err)
		}
		if len(items) == 0 {
			return nil
		}
		rows := make([]catalogRow, 0, len(items))
		for i, item := range items {
			row := catalogRow{Kind: string(kind), ID: item.ID, Name: item.Name, Tags: item.Tags, Levels: []string{}, Position: i}
			if row.Tags == nil {
				row.Tags = []string{}
			}
			for _, l := range item.Levels {
				row.Levels = append(row.Levels, string(l))
			}
			rows = append(rows, row)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert catalog %s: %w", kind, err)
		}
		return nil
	})
}
