package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/logger"
)

func TestOutboxRetentionJobUsesCutoffs(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	outbox := &fakeOutboxPurger{}
	dlq := &fakeDLQPurger{}
	job := newOutboxRetentionJob(t, outbox, dlq)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-defaultOutboxRetention); !outbox.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, outbox.cutoff)
	}
	if want := now.Add(-defaultDLQRetention); !dlq.cutoff.Equal(want) {
		t.Fatalf("expected dlq cutoff %s, got %s", want, dlq.cutoff)
	}
	if outbox.called != 1 || dlq.called != 1 {
		t.Fatalf("expected each purger called once, got %d/%d", outbox.called, dlq.called)
	}
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	job := newOutboxRetentionJob(t, &fakeOutboxPurger{err: errors.New("boom")}, &fakeDLQPurger{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestOutboxRetentionJobWithoutDLQ(t *testing.T) {
	outbox := &fakeOutboxPurger{}
	job := newOutboxRetentionJob(t, outbox, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outbox.called != 1 {
		t.Fatalf("expected outbox purge to run")
	}
}

func newOutboxRetentionJob(t *testing.T, outbox *fakeOutboxPurger, dlq *fakeDLQPurger) *outboxRetentionJob {
	t.Helper()
	params := OutboxRetentionJobParams{
		Logger: logger.Nop(),
		DB:     passthroughTx{},
		Outbox: outbox,
	}
	if dlq != nil {
		params.DLQ = dlq
	}
	jobIface, err := NewOutboxRetentionJob(params)
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job, ok := jobIface.(*outboxRetentionJob)
	if !ok {
		t.Fatalf("expected outboxRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeOutboxPurger struct {
	cutoff time.Time
	called int
	err    error
}

func (f *fakeOutboxPurger) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.cutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

type fakeDLQPurger struct {
	cutoff time.Time
	called int
}

func (f *fakeDLQPurger) DeleteFailedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.cutoff = cutoff
	return 2, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
