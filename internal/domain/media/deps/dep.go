// Package deps contains interface definitions for the media domain dependencies
package deps

import (
	"context"
	"time"

	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
)

// Messenger is the chat transport used by the pipeline
type Messenger interface {
	// SendText sends a text message and returns a handle for later edits
	SendText(ctx context.Context, chatID int64, text string) (entities.MessageRef, error)

	// EditText replaces a message's text; keyboard may be nil to drop controls
	EditText(ctx context.Context, ref entities.MessageRef, text string, keyboard [][]entities.Button) error

	// DeleteMessage deletes a message from the chat
	DeleteMessage(ctx context.Context, ref entities.MessageRef) error

	// SendFile uploads a local file to the chat within the given timeout
	SendFile(ctx context.Context, chatID int64, path, caption string, streamable bool, timeout time.Duration) error

	// AnswerSelection acknowledges an inline button press
	AnswerSelection(ctx context.Context, queryID, text string) error
}

// MediaProvider is the remote extraction source.
// Errors wrap mediaerrors.ErrProviderUnavailable or mediaerrors.ErrRestricted.
type MediaProvider interface {
	// FetchMetadata returns the video and all its encodings
	FetchMetadata(ctx context.Context, url string) (*entities.Video, error)

	// Download writes the given format of the video to dest
	Download(ctx context.Context, url string, formatID int, dest string) error
}

// SessionStore bridges the listing step and the selection step
type SessionStore interface {
	// Put stores url under key, overwriting any previous value
	Put(ctx context.Context, key entities.SessionKey, url string) error

	// Take returns and removes the url under key, or a SessionError when absent
	Take(ctx context.Context, key entities.SessionKey) (string, error)
}

// DeliveryRepository stores finished delivery attempts
type DeliveryRepository interface {
	// Save stores one attempt
	Save(ctx context.Context, attempt *entities.DeliveryAttempt) error

	// ListByChat returns the latest attempts of a chat, newest first
	ListByChat(ctx context.Context, chatID int64, limit int) ([]entities.DeliveryAttempt, error)
}

// DeliveryEventProducer publishes finished delivery attempts
type DeliveryEventProducer interface {
	// SendDeliveryFinished publishes one attempt
	SendDeliveryFinished(ctx context.Context, attempt *entities.DeliveryAttempt) error

	// Close closes the producer
	Close() error
}

// HealthChecker is a backend that can report its liveness on /health
type HealthChecker interface {
	// Name identifies the component in the health response
	Name() string

	// HealthCheck returns nil when the component is reachable
	HealthCheck(ctx context.Context) error
}
