// Package httpapi talks to the upstream quiz platform: quiz content,
// recommendation catalogs and authoritative submission.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quiz-result-service/internal/domain"
)

const maxErrorBody = 512

// Config configures the upstream client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client is a rate-limited JSON client for the upstream platform.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:    base,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}, nil
}

// statusError carries a non-2xx upstream response.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// LoadQuiz fetches GET /quizzes/{id}.
func (c *Client) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.do(ctx, http.MethodGet, "/quizzes/"+quizID, nil, nil, &quiz)
	var se *statusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}
	return quiz, nil
}

// ItemsByTag fetches GET /catalog/{kind}?tag=.
func (c *Client) ItemsByTag(ctx context.Context, kind domain.CatalogKind, tag string) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	query := url.Values{"tag": {tag}}
	if err := c.do(ctx, http.MethodGet, "/catalog/"+string(kind), query, nil, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCatalogUnavailable, kind, err)
	}
	return items, nil
}

type submitRequest struct {
	Answers   []domain.Answer `json:"answers"`
	TimeSpent int             `json:"timeSpent"`
}

// Submit posts the answers to POST /quizzes/{id}/submit and returns the
// upstream result.
func (c *Client) Submit(ctx context.Context, quizID string, answers []domain.Answer, timeSpent int) (domain.QuizResult, error) {
	var result domain.QuizResult
	body := submitRequest{Answers: answers, TimeSpent: timeSpent}
	if err := c.do(ctx, http.MethodPost, "/quizzes/"+quizID+"/submit", nil, body, &result); err != nil {
		return domain.QuizResult{}, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, err)
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("upstream call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
