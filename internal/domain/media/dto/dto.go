// Package dto contains data transfer objects for the media domain
package dto

// TextEvent is an inbound chat message
type TextEvent struct {
	ChatID   int64  `json:"chatId"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// SelectionEvent is an inline button press
type SelectionEvent struct {
	QueryID   string `json:"queryId"`
	ChatID    int64  `json:"chatId"`
	UserID    int64  `json:"userId"`
	MessageID int    `json:"messageId"`
	Token     string `json:"token"`
}

// CommandResponse represents a response for bot commands
type CommandResponse struct {
	Message string `json:"message"`
}

// DeliveryEvent is the Kafka payload for a finished delivery attempt
type DeliveryEvent struct {
	ChatID     int64  `json:"chat_id"`
	VideoID    string `json:"video_id"`
	FormatID   int    `json:"format_id"`
	Title      string `json:"title,omitempty"`
	Bytes      int64  `json:"bytes"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	FinishedAt string `json:"finished_at"`
}
