package main

import (
	"context"
	"errors"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/outbox/registry"
)

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// message carries the raw envelope plus routing attributes so subscribers
// can filter by event type or store without decoding the body.
type message struct {
	data       []byte
	attributes map[string]string
}

func buildMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent, storeName string) *message {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"schema_version": strconv.Itoa(resolved.Envelope.Version),
		"occurred_at":    resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if storeName != "" {
		attrs["store"] = storeName
	}
	return &message{data: event.Payload, attributes: attrs}
}

func (m *message) pubsub() *gcppubsub.Message {
	return &gcppubsub.Message{Data: m.data, Attributes: m.attributes}
}

func wrapPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return gcpPublisher{p}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return gcpResult{g.p.Publish(ctx, msg)}
}

type gcpResult struct {
	r *gcppubsub.PublishResult
}

func (g gcpResult) Get(ctx context.Context) (string, error) {
	if g.r == nil {
		return "", errors.New("publish result is nil")
	}
	return g.r.Get(ctx)
}
