package queue

import (
	"context"
	"errors"
	"fmt"

	"ewintr.nl/vidsum/model"
	"ewintr.nl/vidsum/normalize"
	"ewintr.nl/vidsum/pipeline"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/exp/slog"
)

type Processor interface {
	Process(ctx context.Context, event model.NotificationEvent) model.ProcessingResult
}

func NewAMQPConnection(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	return conn, nil
}

// Listener consumes pull-style notification envelopes from a queue. It runs
// next to the HTTP handlers and shares only the stateless pipeline with
// them: when the listener dies, request handling keeps going, and the other
// way around.
type Listener struct {
	conn       *amqp.Connection
	queueName  string
	normalizer *normalize.Normalizer
	pipeline   Processor
	logger     *slog.Logger
}

func NewListener(conn *amqp.Connection, queueName string, normalizer *normalize.Normalizer, pipe Processor, logger *slog.Logger) *Listener {
	return &Listener{
		conn:       conn,
		queueName:  queueName,
		normalizer: normalizer,
		pipeline:   pipe,
		logger:     logger,
	}
}

func (l *Listener) Run(ctx context.Context) error {
	ch, err := l.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(l.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	deliveries, err := ch.Consume(l.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}

	l.logger.Info("started queue listener", slog.String("queue", l.queueName))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("queue listener stopped")
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			l.handle(ctx, delivery)
		}
	}
}

func (l *Listener) handle(ctx context.Context, delivery amqp.Delivery) {
	contentType := delivery.ContentType
	if contentType == "" {
		contentType = "application/json"
	}

	events, err := l.normalizer.Notifications(contentType, delivery.Body)
	if err != nil {
		if errors.Is(err, normalize.ErrMalformedPayload) {
			l.logger.Warn("dropping malformed delivery", slog.String("error", err.Error()))
			if err := delivery.Nack(false, false); err != nil {
				l.logger.Error("failed to nack delivery", err)
			}
			return
		}
		l.logger.Error("failed to normalize delivery", err)
	}

	results := make([]model.ProcessingResult, 0, len(events))
	for _, event := range events {
		results = append(results, l.pipeline.Process(ctx, event))
	}
	report := pipeline.Aggregate(results)
	if report.Total > 0 {
		l.logger.Info("processed queue delivery",
			slog.Int("total", report.Total),
			slog.Int("succeeded", report.Succeeded),
			slog.Int("failed", report.Failed))
	}

	if err := delivery.Ack(false); err != nil {
		l.logger.Error("failed to ack delivery", err)
	}
}
