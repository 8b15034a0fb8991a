package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-live/auth"
	"social-live/domain"
	"social-live/errors"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxSearchHits    = 25
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createChatRequest struct {
	ParticipantEmail string `json:"participantEmail"`
}

type uploadMediaRequest struct {
	Type     string `json:"type"`
	Buffer   []byte `json:"buffer"`
	MimeType string `json:"mimeType"`
}

func (h *Handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	id, err := h.auths.Register(req.Email, req.Password, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"userId": id})
}

func (h *Handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	token, err := h.auths.Login(req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// createDirectChat is idempotent per participant pair: a repeat call
// answers 200 with the existing chat instead of creating a duplicate.
func (h *Handlers) createDirectChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ParticipantEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	summary, created, err := h.chats.CreateDirectChat(c.GetString(auth.UserIDKey), req.ParticipantEmail)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, summary)
}

func (h *Handlers) createGroupChat(c *gin.Context) {
	chat, err := h.chats.CreateGroupChat(c.GetString(auth.UserIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

func (h *Handlers) fetchChats(c *gin.Context) {
	summaries, err := h.chats.FetchSummaries(c.GetString(auth.UserIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *Handlers) messages(c *gin.Context) {
	page, limit, ok := pageParams(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid pagination parameters"})
		return
	}

	window, err := h.chats.Messages(c.GetString(auth.UserIDKey),
		domain.ChatID(c.Param("chatId")), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, window)
}

func (h *Handlers) searchMessages(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing query"})
		return
	}

	chatID := domain.ChatID(c.Param("chatId"))
	if _, err := h.chats.ChatForUser(chatID, c.GetString(auth.UserIDKey)); err != nil {
		h.fail(c, err)
		return
	}

	hits, err := h.index.Search(c.Request.Context(), chatID, query, maxSearchHits)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits})
}

func (h *Handlers) uploadMedia(c *gin.Context) {
	var req uploadMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	blob, err := h.media.Put(req.Type, req.MimeType, req.Buffer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       blob.ID,
		"type":     blob.Type,
		"mimeType": blob.MimeType,
	})
}

// downloadMedia streams the stored bytes verbatim under the stored mime
// type, so an upload round-trips exactly.
func (h *Handlers) downloadMedia(c *gin.Context) {
	blob, err := h.media.Get(c.Param("type"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, blob.MimeType, blob.Payload)
}

func (h *Handlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"relay":    h.monitor.Snapshot(),
		"activity": h.activity.Snapshot(),
	})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"message": "internal error"})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

func pageParams(c *gin.Context) (page, limit int, ok bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, false
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 || limit > maxPageLimit {
		return 0, 0, false
	}
	return page, limit, true
}
