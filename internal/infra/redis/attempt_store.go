package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-result-service/internal/app"
	"quiz-result-service/internal/domain"
)

// AttemptStore is a Redis-backed implementation of app.AttemptRepository.
// Live attempts stay in a local map so subscribers keep working in process;
// Redis holds their state so another instance, or this one after a restart,
// can restore an attempt it has not seen:
//
//	SET  attempt:{id}          <meta json>        EX ttl
//	HSET attempt:{id}:answers  {questionID} {optionID}
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger

	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

type attemptMeta struct {
	ID        string        `json:"id"`
	QuizID    string        `json:"quizId"`
	UserID    string        `json:"userId"`
	Total     int           `json:"total"`
	StartedAt time.Time     `json:"startedAt"`
	Elapsed   time.Duration `json:"elapsed"`
}

func NewAttemptStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *AttemptStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		log:      log,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Create(ctx context.Context, attempt *app.Attempt) error {
	s.mu.Lock()
	s.attempts[attempt.ID()] = attempt
	s.mu.Unlock()
	return s.persist(ctx, attempt.State())
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (*app.Attempt, bool) {
	s.mu.RLock()
	attempt, ok := s.attempts[attemptID]
	s.mu.RUnlock()
	if ok {
		return attempt, true
	}

	state, ok := s.load(ctx, attemptID)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a concurrent Get may have restored it first
	if existing, ok := s.attempts[attemptID]; ok {
		return existing, true
	}
	attempt = app.RestoreAttempt(state)
	s.attempts[attemptID] = attempt
	return attempt, true
}

func (s *AttemptStore) Save(ctx context.Context, attempt *app.Attempt) error {
	return s.persist(ctx, attempt.State())
}

func (s *AttemptStore) Delete(ctx context.Context, attemptID string) {
	s.mu.Lock()
	delete(s.attempts, attemptID)
	s.mu.Unlock()
	if err := s.client.Del(ctx, s.metaKey(attemptID), s.answersKey(attemptID)).Err(); err != nil {
		s.log.Warn("delete attempt state failed", zap.String("attemptId", attemptID), zap.Error(err))
	}
}

func (s *AttemptStore) persist(ctx context.Context, state app.AttemptState) error {
	meta, err := json.Marshal(attemptMeta{
		ID:        state.ID,
		QuizID:    state.QuizID,
		UserID:    state.UserID,
		Total:     state.Total,
		StartedAt: state.StartedAt,
		Elapsed:   state.Elapsed,
	})
	if err != nil {
		return err
	}

	answersKey := s.answersKey(state.ID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.metaKey(state.ID), meta, s.ttl)
	pipe.Del(ctx, answersKey)
	if len(state.Answers) > 0 {
		fields := make(map[string]interface{}, len(state.Answers))
		for q, o := range state.Answers {
			fields[q] = o
		}
		pipe.HSet(ctx, answersKey, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, answersKey, s.ttl)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *AttemptStore) load(ctx context.Context, attemptID string) (app.AttemptState, bool) {
	raw, err := s.client.Get(ctx, s.metaKey(attemptID)).Bytes()
	if err != nil {
		return app.AttemptState{}, false
	}
	var meta attemptMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		s.log.Warn("discarding corrupt attempt state", zap.String("attemptId", attemptID), zap.Error(err))
		return app.AttemptState{}, false
	}
	answers, err := s.client.HGetAll(ctx, s.answersKey(attemptID)).Result()
	if err != nil {
		s.log.Warn("read attempt answers failed", zap.String("attemptId", attemptID), zap.Error(err))
		return app.AttemptState{}, false
	}
	return app.AttemptState{
		ID:        meta.ID,
		QuizID:    meta.QuizID,
		UserID:    meta.UserID,
		Total:     meta.Total,
		StartedAt: meta.StartedAt,
		Elapsed:   meta.Elapsed,
		Answers:   domain.AnswerMap(answers),
	}, true
}

func (s *AttemptStore) metaKey(attemptID string) string {
	return "attempt:" + attemptID
}

func (s *AttemptStore) answersKey(attemptID string) string {
	return "attempt:" + attemptID + ":answers"
}
