package postgres

import (
	"context"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	mediaerrors "github.com/Marinerbyte/Ytmagic/internal/domain/media/errors"
)

// NoopDeliveryRepository is used when the database is disabled
type NoopDeliveryRepository struct{}

// Save discards the attempt
func (NoopDeliveryRepository) Save(context.Context, *entities.DeliveryAttempt) error {
	return nil
}

// ListByChat always reports that history is disabled
func (NoopDeliveryRepository) ListByChat(context.Context, int64, int) ([]entities.DeliveryAttempt, error) {
	return nil, mediaerrors.ErrHistoryDisabled
}
