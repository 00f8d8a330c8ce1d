package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-result-service/internal/domain"
	"quiz-result-service/internal/metrics"
	"quiz-result-service/internal/recommend"
	"quiz-result-service/internal/report"
	"quiz-result-service/internal/scoring"
)

// AttemptRepository abstracts how open attempts are stored (in-memory, Redis, etc).
type AttemptRepository interface {
	Create(ctx context.Context, attempt *Attempt) error
	Get(ctx context.Context, attemptID string) (*Attempt, bool)
	Save(ctx context.Context, attempt *Attempt) error
	Delete(ctx context.Context, attemptID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultRepository persists finished results.
type ResultRepository interface {
	SaveResult(ctx context.Context, result domain.QuizResult) error
	GetResult(ctx context.Context, resultID string) (domain.QuizResult, error)
	UpdateSharing(ctx context.Context, resultID string, mode domain.SharingMode) error
	// ResultsByUser lists a user's results newest first; limit <= 0 means all.
	ResultsByUser(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error)
}

// Submitter forwards a finished attempt to an authoritative remote scorer.
type Submitter interface {
	Submit(ctx context.Context, quizID string, answers []domain.Answer, timeSpent int) (domain.QuizResult, error)
}

// ResultPublisher announces completed results to other services.
type ResultPublisher interface {
	PublishResult(ctx context.Context, result domain.QuizResult) error
}

// ReportStore keeps rendered reports and returns where they can be fetched.
type ReportStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Dependencies wires a ResultService. Submitter, Publisher and Reports are optional.
type Dependencies struct {
	Attempts    AttemptRepository
	Quizzes     QuizRepository
	Results     ResultRepository
	Classifier  *scoring.Classifier
	Recommender *recommend.Recommender
	Renderer    *report.Renderer
	Submitter   Submitter
	Publisher   ResultPublisher
	Reports     ReportStore
	Logger      *zap.Logger
	Clock       func() time.Time
}

// ResultService runs the attempt lifecycle and the scoring pipeline:
// answers are collected, scored, classified, enriched with catalog picks and
// stored as an immutable result that can be rendered as a PDF report.
type ResultService struct {
	attempts    AttemptRepository
	quizzes     QuizRepository
	results     ResultRepository
	classifier  *scoring.Classifier
	recommender *recommend.Recommender
	renderer    *report.Renderer
	submitter   Submitter
	publisher   ResultPublisher
	reports     ReportStore
	log         *zap.Logger
	now         func() time.Time
	newID       func() string
}

func NewResultService(deps Dependencies) *ResultService {
	s := &ResultService{
		attempts:    deps.Attempts,
		quizzes:     deps.Quizzes,
		results:     deps.Results,
		classifier:  deps.Classifier,
		recommender: deps.Recommender,
		renderer:    deps.Renderer,
		submitter:   deps.Submitter,
		publisher:   deps.Publisher,
		reports:     deps.Reports,
		log:         deps.Logger,
		now:         deps.Clock,
		newID:       uuid.NewString,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.renderer == nil {
		s.renderer = report.NewRenderer(report.Config{}, s.log)
	}
	return s
}

// Quiz returns quiz content, wrapping any load failure as ErrQuizFetchFailed.
func (s *ResultService) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %w", domain.ErrQuizFetchFailed, err)
	}
	return quiz, nil
}

// StartAttempt opens an attempt; users cannot start quizzes that fail to load.
func (s *ResultService) StartAttempt(ctx context.Context, quizID, userID string) (domain.AttemptProgress, error) {
	quiz, err := s.Quiz(ctx, quizID)
	if err != nil {
		return domain.AttemptProgress{}, err
	}
	attempt := NewAttemptWithClock(s.newID(), quiz.ID, userID, len(quiz.Questions), s.now)
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return domain.AttemptProgress{}, err
	}
	s.log.Debug("attempt started",
		zap.String("attemptId", attempt.ID()),
		zap.String("quizId", quiz.ID),
		zap.String("userId", userID))
	return attempt.Progress(), nil
}

// RecordAnswer stores or replaces the answer to one question.
func (s *ResultService) RecordAnswer(ctx context.Context, attemptID, questionID, optionID string) (domain.AttemptProgress, error) {
	attempt, ok := s.attempts.Get(ctx, attemptID)
	if !ok {
		return domain.AttemptProgress{}, domain.ErrAttemptNotFound
	}
	quiz, err := s.Quiz(ctx, attempt.QuizID())
	if err != nil {
		return domain.AttemptProgress{}, err
	}
	question, ok := quiz.Question(questionID)
	if !ok {
		return domain.AttemptProgress{}, domain.ErrQuestionNotFound
	}
	if _, ok := question.Option(optionID); !ok {
		return domain.AttemptProgress{}, domain.ErrOptionNotFound
	}

	progress, err := attempt.record(questionID, optionID)
	if err != nil {
		return domain.AttemptProgress{}, err
	}
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return domain.AttemptProgress{}, err
	}
	return progress, nil
}

// Tick advances the attempt timer, persists it and notifies subscribers.
// A failed save only costs the time since the last successful one, so it is
// logged rather than returned.
func (s *ResultService) Tick(ctx context.Context, attemptID string) (domain.AttemptProgress, error) {
	attempt, ok := s.attempts.Get(ctx, attemptID)
	if !ok {
		return domain.AttemptProgress{}, domain.ErrAttemptNotFound
	}
	progress := attempt.tick()
	if err := s.attempts.Save(ctx, attempt); err != nil {
		s.log.Warn("save attempt on tick failed", zap.String("attemptId", attemptID), zap.Error(err))
	}
	return progress, nil
}

// Subscribe returns a channel that receives progress updates for an attempt.
// The channel is closed once the attempt is submitted or abandoned; the caller
// must still invoke cancel to avoid leaks.
func (s *ResultService) Subscribe(ctx context.Context, attemptID string) (<-chan domain.AttemptProgress, func(), error) {
	attempt, ok := s.attempts.Get(ctx, attemptID)
	if !ok {
		return nil, nil, domain.ErrAttemptNotFound
	}
	ch, cancel := attempt.subscribe()
	return ch, cancel, nil
}

// Preview scores the attempt's current answers without submitting them.
func (s *ResultService) Preview(ctx context.Context, attemptID string) (domain.QuizResult, error) {
	attempt, ok := s.attempts.Get(ctx, attemptID)
	if !ok {
		return domain.QuizResult{}, domain.ErrAttemptNotFound
	}
	quiz, err := s.Quiz(ctx, attempt.QuizID())
	if err != nil {
		return domain.QuizResult{}, err
	}
	return s.evaluate(ctx, quiz, attempt.Answers())
}

// Submit finalises an attempt. Every question must be answered. On failure
// the attempt stays open with its answers intact so the caller can retry.
func (s *ResultService) Submit(ctx context.Context, attemptID string) (domain.QuizResult, error) {
	attempt, ok := s.attempts.Get(ctx, attemptID)
	if !ok {
		return domain.QuizResult{}, domain.ErrAttemptNotFound
	}
	quiz, err := s.Quiz(ctx, attempt.QuizID())
	if err != nil {
		metrics.SubmissionFailures.WithLabelValues("quiz_fetch").Inc()
		return domain.QuizResult{}, err
	}

	answers, elapsed, err := attempt.freeze()
	if err != nil {
		return domain.QuizResult{}, err
	}

	result, err := s.finalise(ctx, attempt, quiz, answers, elapsed)
	if err != nil {
		attempt.thaw()
		metrics.SubmissionFailures.WithLabelValues(failureReason(err)).Inc()
		s.log.Warn("submission rejected",
			zap.String("attemptId", attemptID),
			zap.String("quizId", quiz.ID),
			zap.Error(err))
		return domain.QuizResult{}, err
	}

	s.attempts.Delete(ctx, attemptID)
	attempt.close()
	metrics.ResultsTotal.WithLabelValues(string(result.Level)).Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, result); err != nil {
			s.log.Warn("publish result failed", zap.String("resultId", result.ID), zap.Error(err))
		}
	}
	s.log.Info("quiz submitted",
		zap.String("resultId", result.ID),
		zap.String("quizId", quiz.ID),
		zap.Int("percentage", result.Percentage),
		zap.String("level", string(result.Level)))
	return result, nil
}

func (s *ResultService) finalise(ctx context.Context, attempt *Attempt, quiz domain.Quiz, answers domain.AnswerMap, elapsed time.Duration) (domain.QuizResult, error) {
	result, err := s.evaluate(ctx, quiz, answers)
	if err != nil {
		return domain.QuizResult{}, err
	}
	result.ID = s.newID()
	result.AttemptID = attempt.ID()
	result.UserID = attempt.UserID()
	result.TimeSpent = minutes(elapsed)
	result.CompletedAt = s.now().UTC()
	result.Sharing = domain.SharingPrivate

	if s.submitter != nil {
		remote, err := s.submitter.Submit(ctx, quiz.ID, result.Answers, result.TimeSpent)
		if err != nil {
			if errors.Is(err, domain.ErrSubmissionFailed) {
				return domain.QuizResult{}, err
			}
			return domain.QuizResult{}, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
		}
		result = mergeRemote(result, remote)
	}

	if err := s.results.SaveResult(ctx, result); err != nil {
		return domain.QuizResult{}, fmt.Errorf("%w: save result: %w", domain.ErrSubmissionFailed, err)
	}
	return result, nil
}

// evaluate runs scoring, classification and recommendation on an answer set.
func (s *ResultService) evaluate(ctx context.Context, quiz domain.Quiz, answers domain.AnswerMap) (domain.QuizResult, error) {
	score, err := scoring.Score(quiz, answers)
	if err != nil {
		return domain.QuizResult{}, err
	}
	class, err := s.classifier.Classify(quiz.Title, score.Percentage)
	if err != nil {
		return domain.QuizResult{}, err
	}

	result := domain.QuizResult{
		QuizID:          quiz.ID,
		Score:           score.Score,
		MaxScore:        score.MaxScore,
		Percentage:      score.Percentage,
		Level:           class.Level,
		Feedback:        class.Feedback,
		Recommendations: class.Recommendations,
		Answers:         answers.List(quiz),
	}
	if s.recommender != nil {
		result.ApplyRecommendations(s.recommender.Select(ctx, quiz, class.Level))
	} else {
		result.ApplyRecommendations(domain.Recommendations{
			Courses:  []domain.ItemRef{},
			Products: []domain.ItemRef{},
			Streaks:  []domain.ItemRef{},
		})
	}
	return result, nil
}

// Abandon drops an open attempt without producing a result.
func (s *ResultService) Abandon(ctx context.Context, attemptID string) error {
	attempt, ok := s.attempts.Get(ctx, attemptID)
	if !ok {
		return domain.ErrAttemptNotFound
	}
	s.attempts.Delete(ctx, attemptID)
	attempt.close()
	return nil
}

// Result returns a stored result.
func (s *ResultService) Result(ctx context.Context, resultID string) (domain.QuizResult, error) {
	return s.results.GetResult(ctx, resultID)
}

// UserResults lists a user's past results, newest first.
func (s *ResultService) UserResults(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error) {
	results, err := s.results.ResultsByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.QuizResult{}
	}
	return results, nil
}

// SetSharing changes who can see a result; it is the only mutable field.
func (s *ResultService) SetSharing(ctx context.Context, resultID string, mode domain.SharingMode) (domain.QuizResult, error) {
	if _, err := domain.ParseSharingMode(string(mode)); err != nil {
		return domain.QuizResult{}, err
	}
	if err := s.results.UpdateSharing(ctx, resultID, mode); err != nil {
		return domain.QuizResult{}, err
	}
	return s.results.GetResult(ctx, resultID)
}

// ReportFile is a rendered report ready for download.
type ReportFile struct {
	Name  string
	Bytes []byte
	Pages int
	URL   string
}

// Report renders a stored result as a PDF. A non-empty tier restricts the
// optional sections to what the tier includes.
func (s *ResultService) Report(ctx context.Context, resultID string, opts report.Options, tier domain.Tier) (ReportFile, error) {
	if tier != "" {
		if !tier.CanAccess(domain.FeatureReportExport) {
			return ReportFile{}, domain.ErrFeatureUnavailable
		}
		opts.OmitAnswers = opts.OmitAnswers || !tier.CanAccess(domain.FeatureAnswerReview)
		opts.OmitRecommendations = opts.OmitRecommendations || !tier.CanAccess(domain.FeatureRecommendations)
	}

	result, err := s.results.GetResult(ctx, resultID)
	if err != nil {
		return ReportFile{}, err
	}
	quiz, err := s.Quiz(ctx, result.QuizID)
	if err != nil {
		return ReportFile{}, err
	}

	doc, err := s.renderer.Render(quiz, result, opts, s.now())
	if err != nil {
		return ReportFile{}, err
	}
	metrics.ReportPages.Observe(float64(doc.Pages))

	file := ReportFile{
		Name:  report.Filename(quiz.Title, result.ID),
		Bytes: doc.Bytes,
		Pages: doc.Pages,
	}
	if s.reports != nil {
		url, err := s.reports.Put(ctx, file.Name, doc.Bytes, "application/pdf")
		if err != nil {
			s.log.Warn("store report failed", zap.String("resultId", result.ID), zap.Error(err))
		} else {
			file.URL = url
		}
	}
	return file, nil
}

// mergeRemote lets the remote scorer override the derived fields while
// keeping identity and timing from the local attempt.
func mergeRemote(local, remote domain.QuizResult) domain.QuizResult {
	merged := local
	if remote.ID != "" {
		merged.ID = remote.ID
	}
	merged.Score = remote.Score
	merged.MaxScore = remote.MaxScore
	merged.Percentage = remote.Percentage
	if remote.Level.Valid() {
		merged.Level = remote.Level
	}
	if remote.Feedback != "" {
		merged.Feedback = remote.Feedback
	}
	if remote.Recommendations != nil {
		merged.Recommendations = remote.Recommendations
	}
	if remote.ProposedCourses != nil {
		merged.ProposedCourses = remote.ProposedCourses
	}
	if remote.ProposedProducts != nil {
		merged.ProposedProducts = remote.ProposedProducts
	}
	if remote.ProposedStreaks != nil {
		merged.ProposedStreaks = remote.ProposedStreaks
	}
	return merged
}

func minutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrIncompleteSubmission):
		return "incomplete"
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrOptionNotFound):
		return "invalid_answer"
	case errors.Is(err, domain.ErrInvariantViolation):
		return "classification"
	case errors.Is(err, domain.ErrSubmissionFailed):
		return "remote"
	default:
		return "internal"
	}
}
