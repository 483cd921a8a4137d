package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
)

// dryRunDB builds statements without a live server
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=ytmagic dbname=ytmagic sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestListQuery(t *testing.T) {
	repo := NewDeliveryRepository(dryRunDB(t))

	stmt := repo.listQuery(context.Background(), 42, 0).Find(&[]Delivery{}).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, `FROM "deliveries"`)
	assert.Contains(t, sql, "chat_id = $1")
	assert.Contains(t, sql, "ORDER BY created_at DESC")
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, stmt.Vars, int64(42))
}

func TestModelConversion(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	attempt := &entities.DeliveryAttempt{
		ChatID:    42,
		VideoID:   "abc123",
		FormatID:  22,
		Title:     "Cats",
		Bytes:     1024,
		Outcome:   entities.OutcomeFailed,
		Reason:    "upload-failed",
		Duration:  1500 * time.Millisecond,
		CreatedAt: created,
	}

	row := toModel(attempt)
	assert.Equal(t, int64(1500), row.DurationMS)
	assert.Equal(t, "deliveries", row.TableName())

	assert.Equal(t, *attempt, toEntity(row))
}

func TestToModel_DefaultsCreatedAt(t *testing.T) {
	row := toModel(&entities.DeliveryAttempt{ChatID: 1})
	assert.False(t, row.CreatedAt.IsZero())
}

func TestNoopDeliveryRepository(t *testing.T) {
	var repo NoopDeliveryRepository

	assert.NoError(t, repo.Save(context.Background(), &entities.DeliveryAttempt{}))

	_, err := repo.ListByChat(context.Background(), 42, 5)
	assert.ErrorIs(t, err, mediaerrors.ErrHistoryDisabled)
}
