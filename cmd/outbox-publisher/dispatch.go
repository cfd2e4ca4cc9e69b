package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	"github.com/angelmondragon/stockpos-backend/pkg/outbox/registry"
)

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

// delivery is the result of one publish attempt for one outbox row.
type delivery struct {
	outcome outcome
	reason  enums.OutboxDLQErrorReason
	err     error
	fields  map[string]any
}

type batchTally struct {
	published, retried, deadLettered int
}

// processBatch claims a batch inside one transaction, publishes each row and
// records its outcome. It reports whether any row was claimed.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	var tally batchTally
	claimed := 0
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.settings.batchSize, s.settings.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox batch: %w", err)
		}
		claimed = len(events)
		for _, event := range events {
			d := s.dispatch(ctx, event)
			if err := s.settle(ctx, tx, event, d); err != nil {
				return err
			}
			switch d.outcome {
			case outcomePublished:
				tally.published++
			case outcomeRetry:
				tally.retried++
			case outcomeDeadLetter:
				tally.deadLettered++
			}
		}
		return nil
	})
	if err == nil && claimed > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"claimed":       claimed,
			"published":     tally.published,
			"retried":       tally.retried,
			"dead_lettered": tally.deadLettered,
		}), "outbox.batch_done")
	}
	return claimed > 0, err
}

// dispatch resolves and publishes a single event without touching the database.
func (s *Service) dispatch(ctx context.Context, event models.OutboxEvent) delivery {
	fields := baseFields(event)
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return delivery{outcome: outcomeDeadLetter, reason: enums.OutboxDLQReasonNonRetryable, err: err, fields: fields}
	}
	topic := resolved.Descriptor.Topic
	fields["topic"] = topic
	fields["event_id"] = resolved.Envelope.EventID

	err = s.publish(ctx, topic, buildMessage(event, resolved, s.settings.storeName))
	if err == nil {
		return delivery{outcome: outcomePublished, fields: fields}
	}

	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) || errors.Is(err, errNoPublisher) {
		return delivery{outcome: outcomeDeadLetter, reason: enums.OutboxDLQReasonNonRetryable, err: err, fields: fields}
	}
	attempt := event.AttemptCount + 1
	fields["attempt_count"] = attempt
	if attempt >= s.settings.maxAttempts {
		return delivery{
			outcome: outcomeDeadLetter,
			reason:  enums.OutboxDLQReasonMaxAttempts,
			err:     fmt.Errorf("gave up after %d attempts: %w", attempt, err),
			fields:  fields,
		}
	}
	return delivery{outcome: outcomeRetry, err: err, fields: fields}
}

func (s *Service) publish(ctx context.Context, topic string, msg *message) error {
	pub := s.publisherFactory(topic)
	if pub == nil {
		return fmt.Errorf("%w for topic %s", errNoPublisher, topic)
	}
	publishCtx, cancel := context.WithTimeout(ctx, s.settings.publishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg.pubsub())
	if result == nil {
		return fmt.Errorf("%w: nil result for topic %s", errNoPublisher, topic)
	}
	_, err := result.Get(publishCtx)
	return err
}

// settle writes the outcome of a delivery back to the outbox within tx.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, d delivery) error {
	eventType := string(event.EventType)
	logCtx := s.logg.WithFields(ctx, d.fields)

	switch d.outcome {
	case outcomePublished:
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.metrics.IncPublished(eventType)
		s.logg.Info(logCtx, "outbox.published")
		return nil

	case outcomeRetry:
		s.logg.Warn(s.logg.WithField(logCtx, "error", d.err.Error()), "outbox.publish_retry")
		if err := s.repo.MarkFailedTx(tx, event.ID, d.err); err != nil {
			return fmt.Errorf("mark failure %s: %w", event.ID, err)
		}
		s.metrics.IncFailed(eventType)
		return nil
	}

	s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
		"error":        d.err.Error(),
		"error_reason": d.reason,
	}), "outbox.dead_lettered")
	msg := d.err.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   d.reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, d.err, s.settings.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	s.metrics.IncDeadLettered(eventType, string(d.reason))
	return nil
}

func baseFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}
