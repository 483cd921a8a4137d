// Package entities contains domain entities
package entities

import (
	"fmt"
	"strconv"
	"time"
	"unicode"
)

// ActionDownload is the only selection action the bot offers
const ActionDownload = "download"

// Video is the provider's view of one video
type Video struct {
	ID              string
	Title           string
	Author          string
	DurationSeconds int
	Encodings       []Encoding
}

// Encoding is one downloadable format of a video
type Encoding struct {
	FormatID        int
	ResolutionLabel string
	DeclaredSize    *int64 // nil when the provider does not report a size
	Container       string
	Progressive     bool
}

// Height returns the numeric prefix of the resolution label ("1080p" -> 1080), 0 if none
func (e Encoding) Height() int {
	end := 0
	for end < len(e.ResolutionLabel) && unicode.IsDigit(rune(e.ResolutionLabel[end])) {
		end++
	}
	if end == 0 {
		return 0
	}
	h, err := strconv.Atoi(e.ResolutionLabel[:end])
	if err != nil {
		return 0
	}
	return h
}

// SizeMB returns the declared size in MiB rounded to one decimal
func (e Encoding) SizeMB() float64 {
	if e.DeclaredSize == nil {
		return 0
	}
	return float64(int64(float64(*e.DeclaredSize)/(1024*1024)*10+0.5)) / 10
}

// Label renders the button text, e.g. "720p (40.0 MB)"
func (e Encoding) Label() string {
	return fmt.Sprintf("%s (%.1f MB)", e.ResolutionLabel, e.SizeMB())
}

// Resolution is the outcome of resolving a submitted URL
type Resolution struct {
	URL        string
	Video      *Video
	Candidates []Encoding
}

// SessionKey identifies one requester's pending choice for one video
type SessionKey struct {
	ChatID  int64
	VideoID string
}

func (k SessionKey) String() string {
	return fmt.Sprintf("session:%d:%s", k.ChatID, k.VideoID)
}

// Selection is a decoded selection token
type Selection struct {
	Action   string
	VideoID  string
	FormatID int
}

// MessageRef points at a sent chat message
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Button is one inline keyboard button
type Button struct {
	Text string
	Data string
}

// DeliveryResult describes a successful delivery
type DeliveryResult struct {
	Title    string
	Bytes    int64
	Duration time.Duration
}

// Delivery outcomes
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

// DeliveryAttempt is one finished download attempt, recorded for history and events
type DeliveryAttempt struct {
	ChatID    int64         `json:"chat_id"`
	VideoID   string        `json:"video_id"`
	FormatID  int           `json:"format_id"`
	Title     string        `json:"title,omitempty"`
	Bytes     int64         `json:"bytes"`
	Outcome   string        `json:"outcome"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}
