package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-result-service/internal/domain"
)

func newRESTServer(t *testing.T, reportsPerMinute float64) *httptest.Server {
	t.Helper()
	service, _ := newTestService(t)
	mux := http.NewServeMux()
	NewRESTHandler(service, reportsPerMinute, nil).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func startAndAnswer(t *testing.T, base string) string {
	t.Helper()
	resp, started := doJSON(t, http.MethodPost, base+"/attempts", map[string]string{"quizId": "quiz-1", "userId": "u1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := started["attemptId"].(string)
	for q, o := range map[string]string{"q1": "o2", "q2": "o2"} {
		resp, _ := doJSON(t, http.MethodPut, base+"/attempts/"+id+"/answers", map[string]string{"questionId": q, "optionId": o})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	return id
}

func TestRESTSubmitAndFetchResult(t *testing.T) {
	srv := newRESTServer(t, 0)
	id := startAndAnswer(t, srv.URL)

	resp, result := doJSON(t, http.MethodPost, srv.URL+"/attempts/"+id+"/submit", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 100, result["percentage"])
	assert.Equal(t, string(domain.LevelExcellent), result["level"])

	resultID := result["id"].(string)
	resp, fetched := doJSON(t, http.MethodGet, srv.URL+"/results/"+resultID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "private", fetched["sharing"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/attempts/"+id+"/submit", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "a submitted attempt is gone")
}

func TestRESTIncompleteSubmission(t *testing.T) {
	srv := newRESTServer(t, 0)
	resp, started := doJSON(t, http.MethodPost, srv.URL+"/attempts", map[string]string{"quizId": "quiz-1", "userId": "u1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := started["attemptId"].(string)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/attempts/"+id+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "incomplete_submission", body["code"])
	assert.Len(t, body["missing"], 2)
}

func TestRESTValidation(t *testing.T) {
	srv := newRESTServer(t, 0)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/attempts", map[string]string{"quizId": "quiz-1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", body["code"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/attempts", map[string]string{"quizId": "quiz-1", "userId": "u1", "extra": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/attempts", map[string]string{"quizId": "nope", "userId": "u1"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "quiz_not_found", body["code"])

	id := startAndAnswer(t, srv.URL)
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/attempts/"+id+"/answers", map[string]string{"questionId": "q1", "optionId": "zz"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_answer", body["code"])
}

func TestRESTSharing(t *testing.T) {
	srv := newRESTServer(t, 0)
	id := startAndAnswer(t, srv.URL)
	_, result := doJSON(t, http.MethodPost, srv.URL+"/attempts/"+id+"/submit", nil)
	resultID := result["id"].(string)

	resp, updated := doJSON(t, http.MethodPut, srv.URL+"/results/"+resultID+"/sharing", map[string]string{"mode": "public"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public", updated["sharing"])

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/results/"+resultID+"/sharing", map[string]string{"mode": "everyone"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRESTUserResults(t *testing.T) {
	srv := newRESTServer(t, 0)
	for i := 0; i < 2; i++ {
		id := startAndAnswer(t, srv.URL)
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/attempts/"+id+"/submit", nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/users/u1/results?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var results []domain.QuizResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, "u1", results[0].UserID)

	empty, err := http.Get(srv.URL + "/users/nobody/results")
	require.NoError(t, err)
	defer empty.Body.Close()
	var none []domain.QuizResult
	require.NoError(t, json.NewDecoder(empty.Body).Decode(&none))
	assert.NotNil(t, none)
	assert.Empty(t, none)

	bad, err := http.Get(srv.URL + "/users/u1/results?limit=0")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRESTReport(t *testing.T) {
	srv := newRESTServer(t, 0)
	id := startAndAnswer(t, srv.URL)
	_, result := doJSON(t, http.MethodPost, srv.URL+"/attempts/"+id+"/submit", nil)
	resultID := result["id"].(string)

	resp, err := http.Get(srv.URL + "/results/" + resultID + "/report?includeAnswers=false&title=My%20Report")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "quiz-results-arithmetic-"+resultID+".pdf")
	assert.NotEmpty(t, resp.Header.Get("X-Report-Pages"))

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF"))

	bad, err := http.Get(srv.URL + "/results/" + resultID + "/report?includeAnswers=maybe")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRESTReportRateLimited(t *testing.T) {
	srv := newRESTServer(t, 1)
	id := startAndAnswer(t, srv.URL)
	_, result := doJSON(t, http.MethodPost, srv.URL+"/attempts/"+id+"/submit", nil)
	url := srv.URL + "/results/" + result["id"].(string) + "/report"

	first, err := http.Get(url)
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Get(url)
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}

func TestRESTQuizHidesScoring(t *testing.T) {
	srv := newRESTServer(t, 0)
	resp, err := http.Get(srv.URL + "/quizzes/quiz-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var quiz domain.Quiz
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&quiz))
	require.Len(t, quiz.Questions, 2)
	for _, q := range quiz.Questions {
		for _, o := range q.Options {
			assert.False(t, o.Correct)
			assert.Nil(t, o.Value)
		}
	}
}

func TestRESTAbandon(t *testing.T) {
	srv := newRESTServer(t, 0)
	id := startAndAnswer(t, srv.URL)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/attempts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/attempts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
