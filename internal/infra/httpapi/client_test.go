package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-result-service/internal/domain"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/api", Timeout: time.Second}, nil)
	require.NoError(t, err)
	return c
}

func TestLoadQuiz(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quizzes/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "quiz-1" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.Quiz{ID: "quiz-1", Title: "Basics", Questions: []domain.Question{{ID: "q1"}}})
	})
	c := newTestClient(t, mux)

	quiz, err := c.LoadQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "Basics", quiz.Title)
	assert.Len(t, quiz.Questions, 1)

	_, err = c.LoadQuiz(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestLoadQuizServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	_, err := c.LoadQuiz(context.Background(), "quiz-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrQuizNotFound)
	assert.Contains(t, err.Error(), "500")
}

func TestItemsByTag(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/catalog/courses", r.URL.Path)
		assert.Equal(t, "grammar", r.URL.Query().Get("tag"))
		_ = json.NewEncoder(w).Encode([]domain.CatalogItem{{ID: "c1", Name: "Course", Tags: []string{"grammar"}}})
	}))
	items, err := c.ItemsByTag(context.Background(), domain.CatalogCourses, "grammar")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c1", items[0].ID)
}

func TestItemsByTagFailureIsCatalogUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := c.ItemsByTag(context.Background(), domain.CatalogStreaks, "x")
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestSubmit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/quizzes/quiz-1/submit", r.URL.Path)
		var body submitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Answers, 2)
		assert.Equal(t, 4, body.TimeSpent)
		_ = json.NewEncoder(w).Encode(domain.QuizResult{ID: "r1", Percentage: 50, Level: domain.LevelFair})
	}))
	res, err := c.Submit(context.Background(), "quiz-1", []domain.Answer{{QuestionID: "q1", OptionID: "a"}, {QuestionID: "q2", OptionID: "b"}}, 4)
	require.NoError(t, err)
	assert.Equal(t, "r1", res.ID)
	assert.Equal(t, 50, res.Percentage)
}

func TestSubmitFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad answers", http.StatusUnprocessableEntity)
	}))
	_, err := c.Submit(context.Background(), "quiz-1", nil, 0)
	assert.True(t, errors.Is(err, domain.ErrSubmissionFailed))
	assert.Contains(t, err.Error(), "bad answers")
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.Quiz{ID: "quiz-1"})
	}))
	defer srv.Close()
	c, err := NewClient(Config{BaseURL: srv.URL, RatePerSecond: 0.1}, nil)
	require.NoError(t, err)

	_, err = c.LoadQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.LoadQuiz(ctx, "quiz-1")
	require.Error(t, err, "second call should wait longer than the deadline")
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "/only/path"}, nil)
	assert.Error(t, err)
}
