package services

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"social-live/domain"
	"social-live/errors"
	"social-live/repositories"
)

type IMediaService interface {
	Put(declaredType, mimeType string, payload []byte) (domain.MediaBlob, error)
	Get(declaredType, id string) (domain.MediaBlob, error)
}

// MediaService fronts the blob vault. Payloads are stored byte for byte:
// whatever the client uploads is exactly what a later download returns.
type MediaService struct {
	log   *slog.Logger
	media repositories.IMediaRepository
}

func NewMediaService(log *slog.Logger, media repositories.IMediaRepository) *MediaService {
	return &MediaService{log: log, media: media}
}

// Put stores an attachment under a fresh id. The content is sniffed to
// fill in a missing mime type; a declared type that disagrees with the
// sniffed one is logged but not rejected, the bytes are kept as-is.
func (s *MediaService) Put(declaredType, mimeType string, payload []byte) (domain.MediaBlob, error) {
	mediaType, err := domain.ParseMediaType(declaredType)
	if err != nil {
		return domain.MediaBlob{}, err
	}
	if len(payload) == 0 {
		return domain.MediaBlob{}, errors.ErrInvalidMedia
	}
	if int64(len(payload)) > domain.MaxBytes(mediaType) {
		return domain.MediaBlob{}, errors.ErrMediaTooLarge
	}

	sniffed := mimetype.Detect(payload)
	if mimeType == "" {
		mimeType = sniffed.String()
	} else if !strings.HasPrefix(sniffed.String(), mimeBase(mimeType)) {
		s.log.Warn("declared mime type disagrees with content",
			"declared", mimeType, "sniffed", sniffed.String())
	}

	blob := domain.MediaBlob{
		ID:        uuid.NewString(),
		Type:      mediaType,
		Payload:   payload,
		MimeType:  mimeType,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.media.Put(blob); err != nil {
		return domain.MediaBlob{}, err
	}
	return blob, nil
}

// Get fetches a blob by declared type and id. A wrong type reads as
// not-found, it never returns a blob of another type.
func (s *MediaService) Get(declaredType, id string) (domain.MediaBlob, error) {
	mediaType, err := domain.ParseMediaType(declaredType)
	if err != nil {
		return domain.MediaBlob{}, err
	}
	return s.media.Get(mediaType, id)
}

func mimeBase(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}
