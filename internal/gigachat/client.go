package gigachat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gigacal/gigacal/internal/logging"
)

// Default GigaChat API endpoints.
const (
	DefaultOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	DefaultBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"

	// oauthScope requests a personal API token.
	oauthScope = "GIGACHAT_API_PERS"

	// tokenSlack is subtracted from the token lifetime so a token is never
	// used right at its expiry boundary.
	tokenSlack = time.Minute
)

// ClientConfig holds settings for the GigaChat client.
type ClientConfig struct {
	// AuthKey is the base64 authorization key issued by the provider (required).
	AuthKey string

	// Model is the model name used for all requests (required).
	Model string

	// BaseURL overrides the API base URL. Used by tests.
	BaseURL string

	// OAuthURL overrides the token endpoint URL. Used by tests.
	OAuthURL string

	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client

	// Logger receives structured log output.
	Logger logging.Logger
}

// Client calls the GigaChat API: OAuth token acquisition, file upload,
// chat completions. It is stateless apart from the cached access token and
// safe for concurrent use.
type Client struct {
	authKey    string
	model      string
	baseURL    string
	oauthURL   string
	httpClient *http.Client
	logger     logging.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a GigaChat client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.AuthKey == "" {
		return nil, fmt.Errorf("gigachat auth key cannot be empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gigachat model cannot be empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = DefaultOAuthURL
	}
	if cfg.HTTPClient == nil {
		// The GigaChat endpoints are signed by the Russian Trusted CA,
		// which is absent from most system trust stores.
		cfg.HTTPClient = &http.Client{
			Timeout: 2 * time.Minute,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.DefaultLogger()
	}

	return &Client{
		authKey:    cfg.AuthKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		oauthURL:   cfg.OAuthURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

// Transcribe uploads the audio file, asks the model for a transcript and
// returns the raw response text. The uploaded file is deleted afterwards
// regardless of the outcome; deletion failure is logged, not propagated.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	fileID, err := c.uploadFile(ctx, audioPath)
	if err != nil {
		return "", err
	}

	c.logger.Info("audio file uploaded", "file_id", fileID, "path", audioPath)

	defer func() {
		if err := c.deleteFile(ctx, fileID); err != nil {
			c.logger.Warn("failed to delete uploaded file", "file_id", fileID, "error", err)
		}
	}()

	text, err := c.chat(ctx, []message{
		{Role: roleSystem, Content: transcriptionPrompt},
		{Role: roleUser, Content: transcriptionUserMessage, Attachments: []string{fileID}},
	})
	if err != nil {
		return "", err
	}

	return text, nil
}

// ExtractEvent asks the model to extract structured event fields from free
// text. A transport or API failure is returned as an error; a response from
// which no JSON object can be parsed yields (nil, nil), meaning "no event
// found".
func (c *Client) ExtractEvent(ctx context.Context, text string) (*EventRequest, error) {
	today := time.Now().Format("2006-01-02")

	content, err := c.chat(ctx, []message{
		{Role: roleSystem, Content: extractionPrompt(today)},
		{Role: roleUser, Content: text},
	})
	if err != nil {
		return nil, err
	}

	raw, ok := extractJSON(content)
	if !ok {
		c.logger.Debug("no JSON object in extraction response", "content", content)
		return nil, nil
	}

	var req EventRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		c.logger.Debug("extraction response is not valid JSON", "error", err)
		return nil, nil
	}

	return &req, nil
}

// extractJSON returns the slice from the first '{' to the last '}' of text.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// chat issues a chat completion request and returns the response content.
func (c *Client) chat(ctx context.Context, messages []message) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", &APIError{Op: "chat", Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Op: "chat", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var resp chatResponse
	if status, err := c.do(req, &resp); err != nil {
		return "", &APIError{Op: "chat", StatusCode: status, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &APIError{Op: "chat", Err: fmt.Errorf("response contains no choices")}
	}

	return resp.Choices[0].Message.Content, nil
}

// uploadFile uploads the file for use as a chat attachment and returns its id.
func (c *Client) uploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &APIError{Op: "upload", Err: err}
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", &APIError{Op: "upload", Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", &APIError{Op: "upload", Err: err}
	}
	if err := w.WriteField("purpose", "general"); err != nil {
		return "", &APIError{Op: "upload", Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &APIError{Op: "upload", Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", &APIError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var file uploadedFile
	if status, err := c.do(req, &file); err != nil {
		return "", &APIError{Op: "upload", StatusCode: status, Err: err}
	}

	return file.ID, nil
}

// deleteFile removes an uploaded file from the provider.
func (c *Client) deleteFile(ctx context.Context, fileID string) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/files/"+fileID+"/delete", nil)
	if err != nil {
		return &APIError{Op: "delete_file", Err: err}
	}

	if status, err := c.do(req, nil); err != nil {
		return &APIError{Op: "delete_file", StatusCode: status, Err: err}
	}

	c.logger.Info("uploaded file deleted", "file_id", fileID)
	return nil
}

// newRequest builds an authenticated API request.
func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return req, nil
}

// do executes the request and decodes the JSON response into out (if non-nil).
// The returned int is the HTTP status code when one was received.
func (c *Client) do(req *http.Request, out interface{}) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body)))
	}

	if out == nil {
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	return resp.StatusCode, nil
}

// token returns a valid access token, requesting a new one from the OAuth
// endpoint when the cached token is missing or about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL,
		strings.NewReader("scope="+oauthScope))
	if err != nil {
		return "", &APIError{Op: "auth", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+c.authKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Op: "auth", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{
			Op:         "auth",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))),
		}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", &APIError{Op: "auth", Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if tok.AccessToken == "" {
		return "", &APIError{Op: "auth", Err: fmt.Errorf("empty access token in response")}
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.UnixMilli(tok.ExpiresAt).Add(-tokenSlack)

	c.logger.Debug("gigachat access token acquired",
		"token", logging.SanitizeToken(tok.AccessToken),
		"expires_at", time.UnixMilli(tok.ExpiresAt))

	return c.accessToken, nil
}
