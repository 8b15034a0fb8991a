package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"social-live/domain"
	"social-live/services"
)

// RestClient wraps the request surface. Calls are single-shot primitives:
// no retry lives here, retry policy belongs to the controllers that know
// what is safe to repeat.
type RestClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewRestClient(baseURL string, timeout time.Duration) *RestClient {
	return &RestClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken installs the session token used on authorized calls.
func (c *RestClient) SetToken(token string) {
	c.token = token
}

func (c *RestClient) Token() string {
	return c.token
}

func (c *RestClient) Register(email, password, name string) (string, error) {
	var out struct {
		UserID string `json:"userId"`
	}
	err := c.post("/auth/register", map[string]string{
		"email": email, "password": password, "name": name,
	}, &out)
	return out.UserID, err
}

// Login authenticates and installs the returned token on the client.
func (c *RestClient) Login(email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	err := c.post("/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

func (c *RestClient) CreateDirectChat(participantEmail string) (services.ChatSummary, error) {
	var out services.ChatSummary
	err := c.post("/chat/new", map[string]string{"participantEmail": participantEmail}, &out)
	return out, err
}

func (c *RestClient) FetchChats() ([]services.ChatSummary, error) {
	var out []services.ChatSummary
	err := c.get("/chat/fetch", &out)
	return out, err
}

func (c *RestClient) Messages(chatID string, page, limit int) (services.MessagePage, error) {
	var out services.MessagePage
	err := c.get(fmt.Sprintf("/chat/%s/messages?page=%d&limit=%d", chatID, page, limit), &out)
	return out, err
}

// UploadMedia sends the attachment bytes base64-encoded in a JSON body
// and returns the vault id to reference from a media message.
func (c *RestClient) UploadMedia(mediaType domain.MediaType, mimeType string, payload []byte) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.post("/media/upload", map[string]any{
		"type":     mediaType,
		"buffer":   payload,
		"mimeType": mimeType,
	}, &out)
	return out.ID, err
}

func (c *RestClient) DownloadMedia(mediaType domain.MediaType, id string) ([]byte, string, error) {
	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("%s/media/%s/%s", c.baseURL, mediaType, id), nil)
	if err != nil {
		return nil, "", err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apiError(resp)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return payload, resp.Header.Get("Content-Type"), nil
}

func (c *RestClient) post(path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *RestClient) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *RestClient) do(req *http.Request, out any) error {
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *RestClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		return fmt.Errorf("server answered %d: %s", resp.StatusCode, body.Message)
	}
	return fmt.Errorf("server answered %d", resp.StatusCode)
}
