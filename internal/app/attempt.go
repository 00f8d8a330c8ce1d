package app

import (
	"sync"
	"time"

	"quiz-result-service/internal/domain"
)

// Attempt is an in-memory representation of one user's pass through a quiz.
// Elapsed time only advances on tick, so a restored attempt resumes from its
// persisted duration instead of wall-clock time.
type Attempt struct {
	id        string
	quizID    string
	userID    string
	total     int
	startedAt time.Time
	now       func() time.Time

	mu          sync.RWMutex
	answers     domain.AnswerMap
	elapsed     time.Duration
	lastTick    time.Time
	frozen      bool
	closed      bool
	subscribers map[chan domain.AttemptProgress]struct{}
}

// NewAttempt is exported for infrastructure layers that need to seed attempts.
func NewAttempt(id, quizID, userID string, total int) *Attempt {
	return NewAttemptWithClock(id, quizID, userID, total, time.Now)
}

// NewAttemptWithClock is test-only for deterministic timestamps.
func NewAttemptWithClock(id, quizID, userID string, total int, now func() time.Time) *Attempt {
	started := now()
	return &Attempt{
		id:          id,
		quizID:      quizID,
		userID:      userID,
		total:       total,
		startedAt:   started,
		now:         now,
		answers:     make(domain.AnswerMap),
		lastTick:    started,
		subscribers: make(map[chan domain.AttemptProgress]struct{}),
	}
}

// AttemptState is the persisted form of an attempt.
type AttemptState struct {
	ID        string           `json:"id"`
	QuizID    string           `json:"quizId"`
	UserID    string           `json:"userId"`
	Total     int              `json:"total"`
	StartedAt time.Time        `json:"startedAt"`
	Elapsed   time.Duration    `json:"elapsed"`
	Answers   domain.AnswerMap `json:"answers"`
}

// RestoreAttempt rebuilds an attempt from persisted state.
func RestoreAttempt(state AttemptState) *Attempt {
	return RestoreAttemptWithClock(state, time.Now)
}

// RestoreAttemptWithClock is RestoreAttempt with an injected clock.
func RestoreAttemptWithClock(state AttemptState, now func() time.Time) *Attempt {
	a := NewAttemptWithClock(state.ID, state.QuizID, state.UserID, state.Total, now)
	a.startedAt = state.StartedAt
	a.elapsed = state.Elapsed
	if state.Answers != nil {
		a.answers = state.Answers.Clone()
	}
	return a
}

func (a *Attempt) ID() string     { return a.id }
func (a *Attempt) QuizID() string { return a.quizID }
func (a *Attempt) UserID() string { return a.userID }

// State returns a copy suitable for persistence.
func (a *Attempt) State() AttemptState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return AttemptState{
		ID:        a.id,
		QuizID:    a.quizID,
		UserID:    a.userID,
		Total:     a.total,
		StartedAt: a.startedAt,
		Elapsed:   a.elapsed,
		Answers:   a.answers.Clone(),
	}
}

// Answers returns a copy of the answers recorded so far.
func (a *Attempt) Answers() domain.AnswerMap {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.answers.Clone()
}

// Progress returns the current snapshot without advancing the timer.
func (a *Attempt) Progress() domain.AttemptProgress {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

// record replaces any previous answer to the question.
func (a *Attempt) record(questionID, optionID string) (domain.AttemptProgress, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen || a.closed {
		return domain.AttemptProgress{}, domain.ErrAttemptClosed
	}
	a.advanceLocked()
	a.answers[questionID] = optionID
	return a.broadcastLocked(), nil
}

func (a *Attempt) tick() domain.AttemptProgress {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.frozen && !a.closed {
		a.advanceLocked()
	}
	return a.broadcastLocked()
}

// freeze stops the timer and rejects further answers until thaw or close.
func (a *Attempt) freeze() (domain.AnswerMap, time.Duration, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen || a.closed {
		return nil, 0, domain.ErrAttemptClosed
	}
	a.advanceLocked()
	a.frozen = true
	return a.answers.Clone(), a.elapsed, nil
}

// thaw reopens a frozen attempt after a failed submission.
func (a *Attempt) thaw() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frozen = false
	a.lastTick = a.now()
}

// close releases every subscriber; the attempt accepts nothing afterwards.
func (a *Attempt) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
}

func (a *Attempt) advanceLocked() {
	now := a.now()
	if now.After(a.lastTick) {
		a.elapsed += now.Sub(a.lastTick)
	}
	a.lastTick = now
}

func (a *Attempt) subscribe() (<-chan domain.AttemptProgress, func()) {
	ch := make(chan domain.AttemptProgress, 8)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	a.subscribers[ch] = struct{}{}
	// buffered, so this never blocks; sending under the lock keeps close from
	// racing the first snapshot
	ch <- a.snapshotLocked()
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) broadcastLocked() domain.AttemptProgress {
	p := a.snapshotLocked()
	for ch := range a.subscribers {
		select {
		case ch <- p:
		default:
			// slow reader: replace its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
	return p
}

func (a *Attempt) snapshotLocked() domain.AttemptProgress {
	return domain.AttemptProgress{
		AttemptID:      a.id,
		QuizID:         a.quizID,
		Answered:       len(a.answers),
		Total:          a.total,
		ElapsedSeconds: int(a.elapsed / time.Second),
		StartedAt:      a.startedAt,
	}
}
