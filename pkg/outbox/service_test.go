package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/outbox/payloads"
)

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}))
	return db
}

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, logger.Nop())

	saleID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventSaleCompleted,
			AggregateType: enums.AggregateSale,
			AggregateID:   saleID,
			Actor:         &ActorRef{EmployeeID: uuid.New()},
			Data:          payloads.SaleCompletedEvent{SaleID: saleID, TotalCents: 1500},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, saleID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, CurrentVersion, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.False(t, envelope.OccurredAt.IsZero())

	var data payloads.SaleCompletedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, int64(1500), data.TotalCents)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventLowStock,
			AggregateType: enums.AggregateProduct,
			AggregateID:   uuid.New(),
			Data:          payloads.LowStockEvent{Stock: 1},
		}))
		return errors.New("abort")
	})

	rows, err := repo.FetchUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEmitRejectsMissingTxAndUnknownType(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	assert.Error(t, svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventSaleCompleted}))

	db := setupOutboxDB(t)
	assert.Error(t, NewService(NewRepository(db), nil).Emit(context.Background(), db, DomainEvent{EventType: "bogus"}))
}

func TestPublishAndDeadLetterLifecycle(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	dlq := NewDLQRepository(db)
	svc := NewService(repo, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Emit(ctx, db, DomainEvent{
			EventType:     enums.EventSaleCompleted,
			AggregateType: enums.AggregateSale,
			AggregateID:   uuid.New(),
			Data:          map[string]int{"n": i},
		}))
	}

	var rows []models.OutboxEvent
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	}))
	require.Len(t, rows, 3)

	cause := errors.New("bad payload")
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkPublishedTx(tx, rows[0].ID); err != nil {
			return err
		}
		if err := repo.MarkFailedTx(tx, rows[1].ID, errors.New("pubsub down")); err != nil {
			return err
		}
		msg := cause.Error()
		if err := dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       rows[2].ID,
			EventType:     rows[2].EventType,
			AggregateType: rows[2].AggregateType,
			AggregateID:   rows[2].AggregateID,
			Payload:       rows[2].Payload,
			ErrorReason:   enums.OutboxDLQReasonNonRetryable,
			ErrorMessage:  &msg,
		}); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, rows[2].ID, cause, 5)
	}))

	var pending []models.OutboxEvent
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		pending, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	}))
	require.Len(t, pending, 1)
	assert.Equal(t, rows[1].ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].AttemptCount)

	var entries []models.OutboxDLQ
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, rows[2].ID, entries[0].EventID)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, entries[0].ErrorReason)

	assert.Error(t, dlq.InsertTx(db, models.OutboxDLQ{ErrorReason: "nope"}))
}

func TestRetentionDeletesOnlyOldPublishedRows(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	dlq := NewDLQRepository(db)
	svc := NewService(repo, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Emit(ctx, db, DomainEvent{
			EventType:     enums.EventSaleCompleted,
			AggregateType: enums.AggregateSale,
			AggregateID:   uuid.New(),
			Data:          map[string]int{"n": i},
		}))
	}
	rows, err := repo.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", rows[0].ID).
		Update("published_at", now.Add(-40*24*time.Hour)).Error)
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", rows[1].ID).
		Update("published_at", now.Add(-time.Hour)).Error)

	require.NoError(t, dlq.InsertTx(db, models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventLowStock,
		AggregateType: enums.AggregateProduct,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		FailedAt:      now.Add(-100 * 24 * time.Hour),
	}))

	cutoff := now.Add(-30 * 24 * time.Hour)
	deleted, err := repo.DeletePublishedBefore(ctx, db, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.EqualValues(t, 2, remaining)

	purged, err := dlq.DeleteFailedBefore(ctx, db, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = repo.DeletePublishedBefore(ctx, nil, cutoff)
	assert.Error(t, err)
}
