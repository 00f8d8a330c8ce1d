package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quiz-result-service/internal/app"
	"quiz-result-service/internal/domain"
	"quiz-result-service/internal/metrics"
	"quiz-result-service/internal/report"
)

const maxBodyBytes = 1 << 20

// RESTHandler exposes attempts, results and reports over JSON/HTTP.
type RESTHandler struct {
	service       *app.ResultService
	validate      *validator.Validate
	reportLimiter *rate.Limiter
	log           *zap.Logger
}

// NewRESTHandler builds the handler. reportsPerMinute throttles PDF
// rendering across all callers; zero disables the limit.
func NewRESTHandler(service *app.ResultService, reportsPerMinute float64, log *zap.Logger) *RESTHandler {
	if log == nil {
		log = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if reportsPerMinute > 0 {
		burst := int(reportsPerMinute / 6)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(reportsPerMinute/60), burst)
	}
	return &RESTHandler{
		service:       service,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		reportLimiter: limiter,
		log:           log,
	}
}

// Register mounts every route on mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /quizzes/{id}", h.getQuiz},
		{"POST /attempts", h.startAttempt},
		{"GET /attempts/{id}", h.getAttempt},
		{"PUT /attempts/{id}/answers", h.recordAnswer},
		{"POST /attempts/{id}/submit", h.submit},
		{"DELETE /attempts/{id}", h.abandon},
		{"GET /results/{id}", h.getResult},
		{"PUT /results/{id}/sharing", h.setSharing},
		{"GET /results/{id}/report", h.getReport},
		{"GET /users/{id}/results", h.userResults},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, metrics.Middleware(rt.pattern, rt.handler))
	}
}

type startAttemptRequest struct {
	QuizID string `json:"quizId" validate:"required,max=128"`
	UserID string `json:"userId" validate:"required,max=128"`
}

type answerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	OptionID   string `json:"optionId" validate:"required"`
}

type sharingRequest struct {
	Mode string `json:"mode" validate:"required,oneof=private link followers public"`
}

func (h *RESTHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.Quiz(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publicQuiz(quiz))
}

func (h *RESTHandler) startAttempt(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if !h.decode(w, r, &req) {
		return
	}
	progress, err := h.service.StartAttempt(r.Context(), req.QuizID, req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, progress)
}

func (h *RESTHandler) getAttempt(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.Tick(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *RESTHandler) recordAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.decode(w, r, &req) {
		return
	}
	progress, err := h.service.RecordAnswer(r.Context(), r.PathValue("id"), req.QuestionID, req.OptionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *RESTHandler) submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *RESTHandler) abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Abandon(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) getResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

const (
	defaultResultsLimit = 20
	maxResultsLimit     = 100
)

func (h *RESTHandler) userResults(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxResultsLimit {
			writeJSON(w, http.StatusBadRequest, errorPayload{Code: "invalid_request", Message: "limit must be between 1 and 100"})
			return
		}
		limit = n
	}
	results, err := h.service.UserResults(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *RESTHandler) setSharing(w http.ResponseWriter, r *http.Request) {
	var req sharingRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.SetSharing(r.Context(), r.PathValue("id"), domain.SharingMode(req.Mode))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RESTHandler) getReport(w http.ResponseWriter, r *http.Request) {
	if !h.reportLimiter.Allow() {
		w.Header().Set("Retry-After", "10")
		writeJSON(w, http.StatusTooManyRequests, errorPayload{Code: "rate_limited", Message: "too many report requests"})
		return
	}

	q := r.URL.Query()
	opts := report.DefaultOptions()
	includeAnswers, err := boolParam(q.Get("includeAnswers"), true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "invalid_request", Message: "includeAnswers: " + err.Error()})
		return
	}
	includeRecommendations, err := boolParam(q.Get("includeRecommendations"), true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "invalid_request", Message: "includeRecommendations: " + err.Error()})
		return
	}
	opts.OmitAnswers = !includeAnswers
	opts.OmitRecommendations = !includeRecommendations
	if title := q.Get("title"); title != "" {
		opts.Title = title
	}

	file, err := h.service.Report(r.Context(), r.PathValue("id"), opts, domain.ParseTier(q.Get("tier")))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Bytes)))
	w.Header().Set("X-Report-Pages", strconv.Itoa(file.Pages))
	if file.URL != "" {
		w.Header().Set("X-Report-URL", file.URL)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Bytes)
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (h *RESTHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "invalid_request", Message: "invalid JSON body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		msg := err.Error()
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = verrs[0].Field() + " failed " + verrs[0].Tag()
		}
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "invalid_request", Message: msg})
		return false
	}
	return true
}

func (h *RESTHandler) writeError(w http.ResponseWriter, err error) {
	status, payload := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func boolParam(raw string, fallback bool) (bool, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseBool(raw)
}

// publicQuiz hides scoring data from quiz content served to players.
func publicQuiz(quiz domain.Quiz) domain.Quiz {
	out := quiz
	out.Questions = make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.Options = append([]domain.Option(nil), q.Options...)
		for j := range q.Options {
			q.Options[j].Value = nil
			q.Options[j].Correct = false
		}
		out.Questions[i] = q
	}
	return out
}
