// Package domain contains core concepts of the real-time subsystem.
// This file defines Message variants and their validation rules.
// Messages are immutable once appended to a chat.
package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageAudio    MessageType = "audio"
	MessageDocument MessageType = "document"
)

var validate = validator.New()

// Message is a tagged variant: Text is present iff Type is text,
// MediaRef points into the media vault otherwise.
type Message struct {
	ID       uuid.UUID   `json:"id"`
	Type     MessageType `json:"type" validate:"required,oneof=text image audio document"`
	Text     string      `json:"text,omitempty" validate:"required_if=Type text,excluded_unless=Type text"`
	MediaRef string      `json:"mediaRef,omitempty" validate:"required_unless=Type text,excluded_if=Type text"`
	Sender   string      `json:"sender"`
	SentAt   time.Time   `json:"timestamp"`
	FileName string      `json:"fileName,omitempty"`
	FileSize int64       `json:"fileSize,omitempty"`
}

// Validate enforces the per-variant required fields at the API boundary,
// before a message is accepted into the system.
func (m Message) Validate() error {
	return validate.Struct(m)
}

// Preview is the short form shown in chat summaries.
func (m Message) Preview() string {
	if m.Type == MessageText {
		return m.Text
	}
	return "[" + string(m.Type) + "]"
}
