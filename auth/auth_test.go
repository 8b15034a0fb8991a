package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"social-live/errors"
)

func Test_Token_Roundtrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-1", "alice@example.com", time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("alice@example.com", claims.Email)
	req.Equal("social-live", claims.Issuer)
}

func Test_Expired_Token_Is_Rejected(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-1", "alice@example.com", -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
}

func Test_Tampered_Token_Is_Rejected(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-1", "alice@example.com", time.Hour)
	req.NoError(err)

	_, err = ValidateToken(token + "x")
	req.Error(err)
}

func Test_Password_Hash_And_Compare(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Secret123456!")
	req.NoError(err)
	req.NotContains(hash, "Secret123456!")

	ok, err := ComparePassword("Secret123456!", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePassword("WrongPass123!", hash)
	req.NoError(err)
	req.False(ok)
}

func Test_Hashes_Are_Salted(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("Secret123456!")
	req.NoError(err)
	second, err := HashPassword("Secret123456!")
	req.NoError(err)
	req.NotEqual(first, second)
}

func Test_ValidateRegister(t *testing.T) {
	req := require.New(t)

	valid := RegisterRequest{Email: "alice@example.com", Password: "ComplexPass123!", Name: "Alice"}
	req.NoError(ValidateRegister(valid))

	weak := valid
	weak.Password = "alllowercase12345"
	req.ErrorIs(ValidateRegister(weak), errors.ErrInvalidPassword)

	short := valid
	short.Password = "Aa1!"
	req.Error(ValidateRegister(short))

	badEmail := valid
	badEmail.Email = "not-an-email"
	req.Error(ValidateRegister(badEmail))
}

func Test_FromRequest_Header_And_Query(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-1", "alice@example.com", time.Hour)
	req.NoError(err)

	withHeader := httptest.NewRequest("GET", "/ws", nil)
	withHeader.Header.Set("Authorization", "Bearer "+token)
	claims, err := FromRequest(withHeader)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)

	// The websocket handshake path: token as a query parameter.
	withQuery := httptest.NewRequest("GET", "/ws?token="+token, nil)
	claims, err = FromRequest(withQuery)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)

	bare := httptest.NewRequest("GET", "/ws", nil)
	_, err = FromRequest(bare)
	req.ErrorIs(err, errors.ErrUnauthenticated)
}
