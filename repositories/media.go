//go:generate go run go.uber.org/mock/mockgen -source=media.go -destination=../mocks/mock_media_repository.go -package=mocks
package repositories

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"social-live/domain"
	"social-live/errors"
)

type IMediaRepository interface {
	Put(blob domain.MediaBlob) error
	Get(mediaType domain.MediaType, id string) (domain.MediaBlob, error)
}

// MediaRepository is the blob vault. Blobs are stored whole under
// "media:{type}:{id}" and are immutable once written: a lookup with the
// wrong declared type misses the key and reads as not-found.
type MediaRepository struct {
	db *badger.DB
}

func NewMediaRepository(db *badger.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Put(blob domain.MediaBlob) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		key := mediaKey(blob.Type, blob.ID)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrMediaExists
		}
		return txn.Set(key, data)
	})
}

func (r *MediaRepository) Get(mediaType domain.MediaType, id string) (domain.MediaBlob, error) {
	var blob domain.MediaBlob
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(mediaKey(mediaType, id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &blob)
		})
	})
	if err != nil {
		return domain.MediaBlob{}, err
	}
	return blob, nil
}

func mediaKey(mediaType domain.MediaType, id string) []byte {
	return []byte("media:" + string(mediaType) + ":" + id)
}
