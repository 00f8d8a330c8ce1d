package recommend

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quiz-result-service/internal/domain"
	"quiz-result-service/internal/metrics"
)

// DefaultLimit caps the picks per catalog when no limit is configured.
const DefaultLimit = 3

// Catalog reads recommendable items tagged with a quiz category or tag.
type Catalog interface {
	ItemsByTag(ctx context.Context, kind domain.CatalogKind, tag string) ([]domain.CatalogItem, error)
}

// Recommender picks related catalog items for a classified result.
type Recommender struct {
	catalog Catalog
	limit   int
	log     *zap.Logger
}

func NewRecommender(catalog Catalog, limit int, log *zap.Logger) *Recommender {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Recommender{catalog: catalog, limit: limit, log: log}
}

// Select returns up to limit items per catalog relevant to the quiz's
// category/tags and the level. A failing catalog contributes an empty list;
// Select itself never fails.
func (r *Recommender) Select(ctx context.Context, quiz domain.Quiz, level domain.Level) domain.Recommendations {
	recs := domain.Recommendations{
		Courses:  []domain.ItemRef{},
		Products: []domain.ItemRef{},
		Streaks:  []domain.ItemRef{},
	}
	if r.catalog == nil {
		return recs
	}

	tags := quizTags(quiz)
	picks := make([][]domain.ItemRef, len(domain.CatalogKinds))

	var g errgroup.Group
	for i, kind := range domain.CatalogKinds {
		g.Go(func() error {
			items, err := r.selectFrom(ctx, kind, tags, level)
			if err != nil {
				r.log.Warn("recommendation catalog unavailable, using empty list",
					zap.String("catalog", string(kind)),
					zap.String("quizId", quiz.ID),
					zap.Error(err),
				)
				metrics.CatalogFallbacks.WithLabelValues(string(kind)).Inc()
				items = []domain.ItemRef{}
			}
			picks[i] = items
			return nil
		})
	}
	_ = g.Wait()

	recs.Courses, recs.Products, recs.Streaks = picks[0], picks[1], picks[2]
	return recs
}

func (r *Recommender) selectFrom(ctx context.Context, kind domain.CatalogKind, tags []string, level domain.Level) ([]domain.ItemRef, error) {
	out := make([]domain.ItemRef, 0, r.limit)
	seen := make(map[string]struct{})
	for _, tag := range tags {
		items, err := r.catalog.ItemsByTag(ctx, kind, tag)
		if err != nil {
			if errors.Is(err, domain.ErrCatalogUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}
		for _, item := range items {
			if _, dup := seen[item.ID]; dup || !matchesLevel(item, level) {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item.Ref())
			if len(out) == r.limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// quizTags lists the category first, then the quiz tags, without duplicates.
func quizTags(quiz domain.Quiz) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, tag := range append([]string{quiz.Category}, quiz.Tags...) {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func matchesLevel(item domain.CatalogItem, level domain.Level) bool {
	if len(item.Levels) == 0 {
		return true
	}
	for _, l := range item.Levels {
		if l == level {
			return true
		}
	}
	return false
}
