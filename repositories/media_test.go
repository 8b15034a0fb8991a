package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"social-live/domain"
	"social-live/errors"
)

func Test_Media_Roundtrip_Is_Exact(t *testing.T) {
	req := require.New(t)
	repository := NewMediaRepository(openTestDB(t))

	payload := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x01}
	blob := domain.MediaBlob{
		ID:        "blob-1",
		Type:      domain.MediaImage,
		Payload:   payload,
		MimeType:  "image/png",
		CreatedAt: time.Now().UTC(),
	}
	req.NoError(repository.Put(blob))

	fetched, err := repository.Get(domain.MediaImage, "blob-1")
	req.NoError(err)
	req.Equal(payload, fetched.Payload)
	req.Equal("image/png", fetched.MimeType)
}

func Test_Media_Wrong_Type_Reads_As_Not_Found(t *testing.T) {
	req := require.New(t)
	repository := NewMediaRepository(openTestDB(t))

	req.NoError(repository.Put(domain.MediaBlob{
		ID: "blob-1", Type: domain.MediaImage, Payload: []byte("x"), MimeType: "image/png",
	}))

	_, err := repository.Get(domain.MediaAudio, "blob-1")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Media_Is_Immutable(t *testing.T) {
	req := require.New(t)
	repository := NewMediaRepository(openTestDB(t))

	original := domain.MediaBlob{
		ID: "blob-1", Type: domain.MediaDocument, Payload: []byte("v1"), MimeType: "text/plain",
	}
	req.NoError(repository.Put(original))

	overwrite := original
	overwrite.Payload = []byte("v2")
	req.ErrorIs(repository.Put(overwrite), errors.ErrMediaExists)

	fetched, err := repository.Get(domain.MediaDocument, "blob-1")
	req.NoError(err)
	req.Equal([]byte("v1"), fetched.Payload)
}
