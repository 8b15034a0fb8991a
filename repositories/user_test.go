package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"social-live/errors"
)

func Test_CreateUser_And_Lookups(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	id, err := repository.CreateUser("alice@example.com", "Alice", "hash")
	req.NoError(err)
	req.NotEmpty(id)

	byEmail, err := repository.GetByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(id, byEmail.ID)
	req.Equal("Alice", byEmail.Name)

	byID, err := repository.GetByID(id)
	req.NoError(err)
	req.Equal("alice@example.com", byID.Email)
}

func Test_CreateUser_Rejects_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.CreateUser("alice@example.com", "Alice", "hash")
	req.NoError(err)

	_, err = repository.CreateUser("alice@example.com", "Imposter", "hash2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Unknown_User_Lookups(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.GetByEmail("nobody@example.com")
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = repository.GetByID("no-such-id")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_ListIDs_Covers_The_Directory(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	a, err := repository.CreateUser("a@example.com", "A", "h")
	req.NoError(err)
	b, err := repository.CreateUser("b@example.com", "B", "h")
	req.NoError(err)

	ids, err := repository.ListIDs()
	req.NoError(err)
	req.ElementsMatch([]string{a, b}, ids)
}
