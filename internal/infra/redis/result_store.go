package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-result-service/internal/domain"
)

// ResultStore keeps results as JSON under result:{id}. It serves deployments
// with Redis but no Postgres; ttl 0 keeps results forever.
//
//	SET  result:{id}             <result json>
//	ZADD user:{userID}:results   <completedAt unix ms> {id}
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.QuizResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(result.ID), raw, s.ttl)
	if result.UserID != "" {
		pipe.ZAdd(ctx, s.userKey(result.UserID), redis.Z{Score: float64(result.CompletedAt.UnixMilli()), Member: result.ID})
	}
	_, err = pipe.Exec(ctx)
	return err
}

// ResultsByUser reads the user's index newest first. Ids whose result has
// expired are dropped from the index.
func (s *ResultStore) ResultsByUser(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, s.userKey(userID), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.QuizResult, 0, len(ids))
	for _, id := range ids {
		result, err := s.GetResult(ctx, id)
		if errors.Is(err, domain.ErrResultNotFound) {
			s.client.ZRem(ctx, s.userKey(userID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

func (s *ResultStore) GetResult(ctx context.Context, resultID string) (domain.QuizResult, error) {
	raw, err := s.client.Get(ctx, s.key(resultID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.QuizResult{}, err
	}
	var result domain.QuizResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.QuizResult{}, err
	}
	return result, nil
}

func (s *ResultStore) UpdateSharing(ctx context.Context, resultID string, mode domain.SharingMode) error {
	result, err := s.GetResult(ctx, resultID)
	if err != nil {
		return err
	}
	result.Sharing = mode
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(resultID), raw, redis.KeepTTL).Err()
}

func (s *ResultStore) key(resultID string) string {
	return "result:" + resultID
}

func (s *ResultStore) userKey(userID string) string {
	return "user:" + userID + ":results"
}
