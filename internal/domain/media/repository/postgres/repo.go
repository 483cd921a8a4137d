package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
)

// DefaultHistoryLimit is used when ListByChat is called with limit <= 0
const DefaultHistoryLimit = 10

// Delivery is the gorm model of the deliveries table
type Delivery struct {
	ID         uint   `gorm:"primaryKey"`
	ChatID     int64  `gorm:"not null;index:idx_deliveries_chat_created,priority:1"`
	VideoID    string `gorm:"size:64;not null"`
	FormatID   int    `gorm:"not null"`
	Title      string `gorm:"size:512"`
	Bytes      int64
	Outcome    string `gorm:"size:16;not null"`
	Reason     string `gorm:"size:64"`
	DurationMS int64
	CreatedAt  time.Time `gorm:"not null;index:idx_deliveries_chat_created,priority:2,sort:desc"`
}

// TableName overrides the table name
func (Delivery) TableName() string {
	return "deliveries"
}

// DeliveryRepository stores delivery attempts in the deliveries table
type DeliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository creates a new delivery history repository
func NewDeliveryRepository(db *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

var (
	_ deps.DeliveryRepository = (*DeliveryRepository)(nil)
	_ deps.HealthChecker      = (*DeliveryRepository)(nil)
)

// Save saves a delivery attempt
func (r *DeliveryRepository) Save(ctx context.Context, attempt *entities.DeliveryAttempt) error {
	row := toModel(attempt)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("save delivery: %w", err)
	}
	return nil
}

// ListByChat returns the latest attempts of a chat, newest first
func (r *DeliveryRepository) ListByChat(ctx context.Context, chatID int64, limit int) ([]entities.DeliveryAttempt, error) {
	var rows []Delivery
	if err := r.listQuery(ctx, chatID, limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}

	attempts := make([]entities.DeliveryAttempt, 0, len(rows))
	for i := range rows {
		attempts = append(attempts, toEntity(&rows[i]))
	}
	return attempts, nil
}

func (r *DeliveryRepository) listQuery(ctx context.Context, chatID int64, limit int) *gorm.DB {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit)
}

// Name implements deps.HealthChecker
func (r *DeliveryRepository) Name() string {
	return "postgres"
}

// HealthCheck pings the database
func (r *DeliveryRepository) HealthCheck(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toModel(a *entities.DeliveryAttempt) *Delivery {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &Delivery{
		ChatID:     a.ChatID,
		VideoID:    a.VideoID,
		FormatID:   a.FormatID,
		Title:      a.Title,
		Bytes:      a.Bytes,
		Outcome:    a.Outcome,
		Reason:     a.Reason,
		DurationMS: a.Duration.Milliseconds(),
		CreatedAt:  createdAt,
	}
}

func toEntity(d *Delivery) entities.DeliveryAttempt {
	return entities.DeliveryAttempt{
		ChatID:    d.ChatID,
		VideoID:   d.VideoID,
		FormatID:  d.FormatID,
		Title:     d.Title,
		Bytes:     d.Bytes,
		Outcome:   d.Outcome,
		Reason:    d.Reason,
		Duration:  time.Duration(d.DurationMS) * time.Millisecond,
		CreatedAt: d.CreatedAt,
	}
}
