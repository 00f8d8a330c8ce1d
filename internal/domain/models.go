package domain

import "time"

// Option represents a possible answer for a question.
// Value is the point value awarded in weighted quizzes; Correct is used by
// non-weighted quizzes where the question carries a fixed weight.
type Option struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Value   *float64 `json:"value,omitempty"`
	Correct bool     `json:"correct,omitempty"`
}

// Question models an MCQ question belonging to exactly one quiz.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
	Points  int      `json:"points"` // defaults to 1 if zero
}

// Weight returns the fixed per-question weight used by non-weighted quizzes.
func (q Question) Weight() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Option looks up an option by id.
func (q Question) Option(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Quiz is read-only catalog content: an ordered collection of questions plus metadata.
type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Subtitle      string     `json:"subtitle,omitempty"`
	Description   string     `json:"description,omitempty"`
	Questions     []Question `json:"questions"`
	Category      string     `json:"category,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Difficulty    string     `json:"difficulty,omitempty"`
	EstimatedTime int        `json:"estimatedTime,omitempty"` // minutes
	IsPublic      bool       `json:"isPublic"`
	Status        string     `json:"status,omitempty"`
}

// Weighted reports whether any option carries an explicit point value.
func (q Quiz) Weighted() bool {
	for _, question := range q.Questions {
		for _, opt := range question.Options {
			if opt.Value != nil {
				return true
			}
		}
	}
	return false
}

// Question looks up a question by id.
func (q Quiz) Question(questionID string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == questionID {
			return question, true
		}
	}
	return Question{}, false
}

// ItemRef references an entry of an external catalog.
type ItemRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CatalogKind names one of the recommendable catalogs.
type CatalogKind string

const (
	CatalogCourses  CatalogKind = "courses"
	CatalogProducts CatalogKind = "products"
	CatalogStreaks  CatalogKind = "streaks"
)

// CatalogKinds lists the catalogs in the order they are presented.
var CatalogKinds = []CatalogKind{CatalogCourses, CatalogProducts, CatalogStreaks}

// CatalogItem is a recommendable course, product or streak.
// An empty Levels list means the item is relevant to every level.
type CatalogItem struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Tags   []string `json:"tags,omitempty"`
	Levels []Level  `json:"levels,omitempty"`
}

// Ref returns the lightweight reference stored on results.
func (c CatalogItem) Ref() ItemRef {
	return ItemRef{ID: c.ID, Name: c.Name}
}

// Recommendations groups the catalog picks attached to a result.
type Recommendations struct {
	Courses  []ItemRef `json:"proposedCourses"`
	Products []ItemRef `json:"proposedProducts"`
	Streaks  []ItemRef `json:"proposedStreaks"`
}

// QuizResult is derived once per submission and immutable afterwards
// (except for its sharing mode).
type QuizResult struct {
	ID               string      `json:"id"`
	AttemptID        string      `json:"attemptId"`
	QuizID           string      `json:"quizId"`
	UserID           string      `json:"userId"`
	Score            float64     `json:"score"`
	MaxScore         float64     `json:"maxScore"`
	Percentage       int         `json:"percentage"`
	Level            Level       `json:"level"`
	Feedback         string      `json:"feedback"`
	Recommendations  []string    `json:"recommendations"`
	ProposedCourses  []ItemRef   `json:"proposedCourses"`
	ProposedProducts []ItemRef   `json:"proposedProducts"`
	ProposedStreaks  []ItemRef   `json:"proposedStreaks"`
	Answers          []Answer    `json:"answers"`
	TimeSpent        int         `json:"timeSpent"` // minutes
	CompletedAt      time.Time   `json:"completedAt"`
	Sharing          SharingMode `json:"sharing"`
}

// ApplyRecommendations copies catalog picks onto the result.
func (r *QuizResult) ApplyRecommendations(recs Recommendations) {
	r.ProposedCourses = recs.Courses
	r.ProposedProducts = recs.Products
	r.ProposedStreaks = recs.Streaks
}

// AttemptProgress is a snapshot of an open attempt pushed to clients.
type AttemptProgress struct {
	AttemptID      string    `json:"attemptId"`
	QuizID         string    `json:"quizId"`
	Answered       int       `json:"answered"`
	Total          int       `json:"total"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	StartedAt      time.Time `json:"startedAt"`
}
