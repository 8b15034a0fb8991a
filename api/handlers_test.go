package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"social-live/auth"
	"social-live/domain"
	"social-live/moderation"
	"social-live/observability"
	"social-live/projection"
	"social-live/realtime"
	"social-live/repositories"
	"social-live/search"
	"social-live/services"
)

type apiFixture struct {
	router *gin.Engine
	chats  services.IChatService
	index  *search.Index
	tokens map[string]string // email -> session token
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	moderator, err := moderation.NewModerator([]string{"damn"}, '*')
	require.NoError(t, err)

	monitor := observability.NewMonitor(log)
	registry := realtime.NewRegistry()
	events := make(chan domain.DomainEvent, 64)

	chatRepo := repositories.NewChatRepository(db, log)
	userRepo := repositories.NewUserRepository(db)
	mediaRepo := repositories.NewMediaRepository(db)

	chatService := services.NewChatService(log, chatRepo, userRepo, &moderator, monitor, events)
	mediaService := services.NewMediaService(log, mediaRepo)
	authService := services.NewAuthService(log, userRepo, 24*time.Hour)
	index := search.NewIndex(writer, log)

	gateway := realtime.NewGateway(log, registry, chatService, monitor)
	handlers := NewHandlers(log, authService, chatService, mediaService,
		index, projection.NewActivity(), monitor, gateway)

	return &apiFixture{
		router: handlers.Router(),
		chats:  chatService,
		index:  index,
		tokens: make(map[string]string),
	}
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	httpReq := httptest.NewRequest(method, path, reader)
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, httpReq)
	return recorder
}

func (f *apiFixture) signUp(t *testing.T, email, name string) string {
	t.Helper()
	resp := f.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "ComplexPass123!", "name": name,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = f.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "ComplexPass123!",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	f.tokens[email] = out.Token
	return out.Token
}

// userID recovers the identity a session token carries.
func (f *apiFixture) userID(t *testing.T, token string) string {
	t.Helper()
	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	return claims.UserID
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func Test_Register_Login_And_Open_A_Chat(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	alice := fixture.signUp(t, "alice@example.com", "Alice")
	fixture.signUp(t, "bob@example.com", "Bob")

	// Duplicate registration conflicts.
	resp := fixture.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "ComplexPass123!", "name": "Alice",
	})
	req.Equal(http.StatusConflict, resp.Code)

	// Wrong password is refused.
	resp = fixture.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "WrongPass123!",
	})
	req.Equal(http.StatusUnauthorized, resp.Code)

	// First creation answers 201, the repeat answers 200 with the same chat.
	resp = fixture.request(t, http.MethodPost, "/chat/new", alice,
		map[string]string{"participantEmail": "bob@example.com"})
	req.Equal(http.StatusCreated, resp.Code)
	first := decode[services.ChatSummary](t, resp)
	req.Equal("Bob", first.OtherParticipantName)

	resp = fixture.request(t, http.MethodPost, "/chat/new", alice,
		map[string]string{"participantEmail": "bob@example.com"})
	req.Equal(http.StatusOK, resp.Code)
	second := decode[services.ChatSummary](t, resp)
	req.Equal(first.ChatID, second.ChatID)

	// Unknown peers and self chats are rejected.
	resp = fixture.request(t, http.MethodPost, "/chat/new", alice,
		map[string]string{"participantEmail": "ghost@example.com"})
	req.Equal(http.StatusNotFound, resp.Code)

	resp = fixture.request(t, http.MethodPost, "/chat/new", alice,
		map[string]string{"participantEmail": "alice@example.com"})
	req.Equal(http.StatusBadRequest, resp.Code)

	// The listing is a bare array and shows the chat for both sides.
	resp = fixture.request(t, http.MethodGet, "/chat/fetch", fixture.tokens["bob@example.com"], nil)
	req.Equal(http.StatusOK, resp.Code)
	listing := decode[[]services.ChatSummary](t, resp)
	req.Len(listing, 1)
	req.Equal("Alice", listing[0].OtherParticipantName)
}

func Test_Chat_Routes_Require_A_Token(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	for _, path := range []string{"/chat/fetch", "/chat/42/messages", "/debug/stats"} {
		resp := fixture.request(t, http.MethodGet, path, "", nil)
		req.Equal(http.StatusUnauthorized, resp.Code, path)
	}
}

func Test_Message_History_Over_HTTP(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	alice := fixture.signUp(t, "alice@example.com", "Alice")
	fixture.signUp(t, "bob@example.com", "Bob")
	fixture.signUp(t, "mallory@example.com", "Mallory")

	resp := fixture.request(t, http.MethodPost, "/chat/new", alice,
		map[string]string{"participantEmail": "bob@example.com"})
	chat := decode[services.ChatSummary](t, resp)

	aliceClaims := fixture.userID(t, alice)
	for i := 1; i <= 5; i++ {
		err := fixture.chats.PostMessage(context.Background(), services.PostMessageCommand{
			ChatID:  domain.ChatID(chat.ChatID),
			Sender:  aliceClaims,
			Message: domain.Message{Type: domain.MessageText, Text: fmt.Sprintf("m%d", i)},
		})
		req.NoError(err)
	}

	resp = fixture.request(t, http.MethodGet,
		fmt.Sprintf("/chat/%s/messages?page=1&limit=2", chat.ChatID), alice, nil)
	req.Equal(http.StatusOK, resp.Code)
	page := decode[services.MessagePage](t, resp)
	req.Equal([]string{"m4", "m5"}, []string{page.Messages[0].Text, page.Messages[1].Text})
	req.Equal("Bob", page.Participant)
	req.True(page.Pagination.HasMore)
	req.Equal(5, page.Pagination.TotalMessages)

	// A non-participant is locked out of the history.
	resp = fixture.request(t, http.MethodGet,
		fmt.Sprintf("/chat/%s/messages", chat.ChatID), fixture.tokens["mallory@example.com"], nil)
	req.Equal(http.StatusForbidden, resp.Code)

	// Bad pagination parameters never reach the store.
	resp = fixture.request(t, http.MethodGet,
		fmt.Sprintf("/chat/%s/messages?page=0", chat.ChatID), alice, nil)
	req.Equal(http.StatusBadRequest, resp.Code)
}

func Test_Media_Upload_Roundtrip(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)
	alice := fixture.signUp(t, "alice@example.com", "Alice")

	payload := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 1, 2, 3}
	resp := fixture.request(t, http.MethodPost, "/media/upload", alice, map[string]any{
		"type": "image", "buffer": payload, "mimeType": "image/png",
	})
	req.Equal(http.StatusCreated, resp.Code)
	uploaded := decode[struct {
		ID string `json:"id"`
	}](t, resp)

	resp = fixture.request(t, http.MethodGet, "/media/image/"+uploaded.ID, alice, nil)
	req.Equal(http.StatusOK, resp.Code)
	req.Equal(payload, resp.Body.Bytes())
	req.Equal("image/png", resp.Header().Get("Content-Type"))

	// Wrong declared type reads as not found.
	resp = fixture.request(t, http.MethodGet, "/media/audio/"+uploaded.ID, alice, nil)
	req.Equal(http.StatusNotFound, resp.Code)

	// Oversized uploads answer 413.
	resp = fixture.request(t, http.MethodPost, "/media/upload", alice, map[string]any{
		"type": "image", "buffer": make([]byte, 6<<20), "mimeType": "image/png",
	})
	req.Equal(http.StatusRequestEntityTooLarge, resp.Code)
}

func Test_Search_Endpoint(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)

	alice := fixture.signUp(t, "alice@example.com", "Alice")
	fixture.signUp(t, "bob@example.com", "Bob")

	resp := fixture.request(t, http.MethodPost, "/chat/new", alice,
		map[string]string{"participantEmail": "bob@example.com"})
	chat := decode[services.ChatSummary](t, resp)

	req.NoError(fixture.index.IndexMessage(domain.ChatID(chat.ChatID), domain.Message{
		Type: domain.MessageText, Text: "meet me at the station", Sender: "alice",
	}))

	resp = fixture.request(t, http.MethodGet,
		fmt.Sprintf("/chat/%s/search?q=station", chat.ChatID), alice, nil)
	req.Equal(http.StatusOK, resp.Code)
	found := decode[struct {
		Hits []search.Hit `json:"hits"`
	}](t, resp)
	req.Len(found.Hits, 1)

	resp = fixture.request(t, http.MethodGet,
		fmt.Sprintf("/chat/%s/search", chat.ChatID), alice, nil)
	req.Equal(http.StatusBadRequest, resp.Code)
}

func Test_Stats_Endpoint(t *testing.T) {
	req := require.New(t)
	fixture := newAPIFixture(t)
	alice := fixture.signUp(t, "alice@example.com", "Alice")

	resp := fixture.request(t, http.MethodGet, "/debug/stats", alice, nil)
	req.Equal(http.StatusOK, resp.Code)

	stats := decode[map[string]json.RawMessage](t, resp)
	req.Contains(stats, "relay")
	req.Contains(stats, "activity")
}
