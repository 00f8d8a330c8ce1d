package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-result-service/internal/domain"
)

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	ID          string            `bun:"id,pk"`
	AttemptID   string            `bun:"attempt_id"`
	QuizID      string            `bun:"quiz_id"`
	UserID      string            `bun:"user_id"`
	Percentage  int               `bun:"percentage"`
	Level       string            `bun:"level"`
	Sharing     string            `bun:"sharing"`
	Data        domain.QuizResult `bun:"data,type:jsonb"`
	CompletedAt time.Time         `bun:"completed_at"`
}

// ResultRepository stores results in quiz_results. The full result lives in
// the data column; the other columns exist for querying.
type ResultRepository struct {
	db *bun.DB
}

func NewResultRepository(db *bun.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) SaveResult(ctx context.Context, result domain.QuizResult) error {
	row := &resultRow{
		ID:          result.ID,
		AttemptID:   result.AttemptID,
		QuizID:      result.QuizID,
		UserID:      result.UserID,
		Percentage:  result.Percentage,
		Level:       string(result.Level),
		Sharing:     string(result.Sharing),
		Data:        result,
		CompletedAt: result.CompletedAt,
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (r *ResultRepository) GetResult(ctx context.Context, resultID string) (domain.QuizResult, error) {
	row := new(resultRow)
	err := r.db.NewSelect().Model(row).Where("id = ?", resultID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("select result: %w", err)
	}
	result := row.Data
	result.Sharing = domain.SharingMode(row.Sharing)
	return result, nil
}

// ResultsByUser lists a user's results, newest first.
func (r *ResultRepository) ResultsByUser(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error) {
	var rows []resultRow
	q := r.db.NewSelect().Model(&rows).Where("user_id = ?", userID).Order("completed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}
	out := make([]domain.QuizResult, 0, len(rows))
	for _, row := range rows {
		result := row.Data
		result.Sharing = domain.SharingMode(row.Sharing)
		out = append(out, result)
	}
	return out, nil
}

func (r *ResultRepository) UpdateSharing(ctx context.Context, resultID string, mode domain.SharingMode) error {
	res, err := r.db.NewUpdate().
		Model((*resultRow)(nil)).
		Set("sharing = ?", string(mode)).
		Where("id = ?", resultID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update sharing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrResultNotFound
	}
	return nil
}
