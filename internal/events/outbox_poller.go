package events

import (
	"context"
	"log"
	"time"

	"tokoshop/internal/repositories"
)

const (
	DefaultPollInterval = time.Second
	DefaultBatchSize    = 100
)

// OutboxPoller publishes outbox events in insertion order and marks them
// published. Delivery is at least once: an event whose mark fails is sent
// again on the next tick.
type OutboxPoller struct {
	repo      repositories.OutboxRepository
	publisher Publisher
	interval  time.Duration
	batchSize int
}

func NewOutboxPoller(repo repositories.OutboxRepository, publisher Publisher, interval time.Duration) *OutboxPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &OutboxPoller{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: DefaultBatchSize,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.ProcessOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ProcessOnce publishes one batch and returns how many events were marked
// published. It stops at the first publish failure so later events of the
// same order are not delivered ahead of it.
func (p *OutboxPoller) ProcessOnce(ctx context.Context) int {
	events, err := p.repo.Unpublished(ctx, p.batchSize)
	if err != nil {
		log.Printf("failed to fetch events %v", err)
		return 0
	}

	published := 0
	for _, event := range events {
		msg := Message{
			EventID:   event.EventID,
			EventType: event.EventType,
			Key:       event.AggregateID,
			Body:      event.Payload,
		}
		if err := p.publisher.Publish(ctx, msg); err != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, err)
			return published
		}

		if err := p.repo.MarkPublished(ctx, event.ID); err != nil {
			log.Printf("failed to mark event as published id = %v with error %v", event.ID, err)
			return published
		}
		published++
	}
	return published
}
