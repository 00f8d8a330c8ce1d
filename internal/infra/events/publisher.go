// Package events announces finished quiz results on a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"quiz-result-service/internal/domain"
)

const (
	DefaultExchange = "quiz.events"

	// RoutingResultCompleted is the routing key of ResultCompleted events.
	RoutingResultCompleted = "quiz.result.completed"
)

// ResultCompleted is the payload published after a successful submission.
// Answers are left out; consumers fetch the result when they need them.
type ResultCompleted struct {
	EventType   string       `json:"eventType"`
	ResultID    string       `json:"resultId"`
	AttemptID   string       `json:"attemptId"`
	QuizID      string       `json:"quizId"`
	UserID      string       `json:"userId"`
	Score       float64      `json:"score"`
	MaxScore    float64      `json:"maxScore"`
	Percentage  int          `json:"percentage"`
	Level       domain.Level `json:"level"`
	TimeSpent   int          `json:"timeSpent"`
	CompletedAt time.Time    `json:"completedAt"`
}

// NewResultCompleted builds the event for a result.
func NewResultCompleted(r domain.QuizResult) ResultCompleted {
	return ResultCompleted{
		EventType:   RoutingResultCompleted,
		ResultID:    r.ID,
		AttemptID:   r.AttemptID,
		QuizID:      r.QuizID,
		UserID:      r.UserID,
		Score:       r.Score,
		MaxScore:    r.MaxScore,
		Percentage:  r.Percentage,
		Level:       r.Level,
		TimeSpent:   r.TimeSpent,
		CompletedAt: r.CompletedAt,
	}
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes result events. A Publisher built without a URL is
// disabled and drops every event.
type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
	log      *zap.Logger
}

// NewPublisher dials RabbitMQ and declares a durable topic exchange.
func NewPublisher(url, exchange string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	if url == "" {
		log.Warn("amqp url is empty, result events are disabled")
		return &Publisher{exchange: exchange, log: log}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

// Enabled reports whether events are actually sent.
func (p *Publisher) Enabled() bool {
	return p.ch != nil
}

func (p *Publisher) PublishResult(ctx context.Context, result domain.QuizResult) error {
	return p.publish(ctx, RoutingResultCompleted, NewResultCompleted(result))
}

func (p *Publisher) publish(ctx context.Context, routingKey string, event any) error {
	if !p.Enabled() {
		p.log.Debug("event publishing disabled, skipping", zap.String("routingKey", routingKey))
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(pubCtx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.log.Debug("published event", zap.String("routingKey", routingKey))
	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
