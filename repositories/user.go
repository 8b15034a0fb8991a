//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"social-live/errors"
)

type IUserRepository interface {
	CreateUser(email, name, hashedPassword string) (string, error)
	GetByEmail(email string) (User, error)
	GetByID(id string) (User, error)
	ListIDs() ([]string, error)
}

// User is the directory entry the chat summaries resolve display data from.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRepository is the identity directory. The primary record lives
// under "user:{email}"; "uid:{id}" is a secondary index for the
// lookup-by-id interface the chat layer consumes.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(email, name, hashedPassword string) (string, error) {
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(user)
	if err != nil {
		return "", err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		key := []byte("user:" + email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte("uid:"+user.ID), []byte(email))
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(email string) (User, error) {
	var user User
	err := r.db.View(func(txn *badger.Txn) error {
		return getUser(txn, email, &user)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(id string) (User, error) {
	var user User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("uid:" + id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrNotFound
		}
		if err != nil {
			return err
		}
		var email string
		if err := item.Value(func(val []byte) error {
			email = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getUser(txn, email, &user)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ListIDs returns every identity in the directory. Group chat creation
// subscribes them all (see design notes).
func (r *UserRepository) ListIDs() ([]string, error) {
	var ids []string
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("uid:")
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), "uid:"))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func getUser(txn *badger.Txn, email string, user *User) error {
	item, err := txn.Get([]byte("user:" + email))
	if err == badger.ErrKeyNotFound {
		return errors.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, user)
	})
}
