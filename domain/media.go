package domain

import (
	"time"

	"social-live/errors"
)

type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaAudio    MediaType = "audio"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
)

func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(s) {
	case MediaImage, MediaAudio, MediaVideo, MediaDocument:
		return MediaType(s), nil
	}
	return "", errors.ErrInvalidMedia
}

// MaxBytes is the per-type upload ceiling, enforced on the client side
// before any network call is made.
func MaxBytes(t MediaType) int64 {
	switch t {
	case MediaImage:
		return 5 << 20
	case MediaAudio:
		return 10 << 20
	case MediaVideo:
		return 50 << 20
	default:
		return 10 << 20
	}
}

// MediaBlob is an opaque attachment, referenced from messages by ID so
// chat documents stay small regardless of attachment size. Immutable.
type MediaBlob struct {
	ID        string    `json:"id"`
	Type      MediaType `json:"type"`
	Payload   []byte    `json:"payload"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}
