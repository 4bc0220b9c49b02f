package gigachat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigacal/gigacal/internal/logging"
)

// fakeAPI emulates the GigaChat OAuth and API endpoints.
type fakeAPI struct {
	mu           sync.Mutex
	authCalls    int
	chatRequests []chatRequest
	deletedFiles []string

	chatContent string
	chatStatus  int
	deleteFails bool
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()

	api := &fakeAPI{chatStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.authCalls++
		api.mu.Unlock()

		if r.Header.Get("Authorization") != "Basic test-auth-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("RqUID") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-1","expires_at":%d}`,
			time.Now().Add(30*time.Minute).UnixMilli())
	})
	mux.HandleFunc("/api/v1/files", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"file-1","filename":"voice.ogg","bytes":42,"purpose":"general"}`)
	})
	mux.HandleFunc("/api/v1/files/file-1/delete", func(w http.ResponseWriter, r *http.Request) {
		if api.deleteFails {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		api.mu.Lock()
		api.deletedFiles = append(api.deletedFiles, "file-1")
		api.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/api/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		_ = json.Unmarshal(body, &req)
		api.mu.Lock()
		api.chatRequests = append(api.chatRequests, req)
		api.mu.Unlock()

		if api.chatStatus != http.StatusOK {
			w.WriteHeader(api.chatStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message message `json:"message"`
		}{Message: message{Role: "assistant", Content: api.chatContent}})
		_ = json.NewEncoder(w).Encode(resp)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		AuthKey:    "test-auth-key",
		Model:      "GigaChat-2-Pro",
		BaseURL:    server.URL + "/api/v1",
		OAuthURL:   server.URL + "/oauth",
		HTTPClient: server.Client(),
		Logger:     logging.NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil))),
	})
	require.NoError(t, err)

	return api, client
}

func (a *fakeAPI) lastChatRequest(t *testing.T) chatRequest {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(t, a.chatRequests)
	return a.chatRequests[len(a.chatRequests)-1]
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(ClientConfig{Model: "GigaChat-2-Pro"})
	assert.Error(t, err)

	_, err = NewClient(ClientConfig{AuthKey: "key"})
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			name: "json embedded in prose",
			text: `Here is the result: {"title":"Meeting","date":"2024-01-01"} thanks`,
			want: `{"title":"Meeting","date":"2024-01-01"}`,
			ok:   true,
		},
		{name: "bare json", text: `{"title":"x"}`, want: `{"title":"x"}`, ok: true},
		{name: "no opening brace", text: "no json here", ok: false},
		{name: "empty", text: "", ok: false},
		{name: "only closing before opening", text: "} {", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractEvent(t *testing.T) {
	api, client := newFakeAPI(t)
	api.chatContent = `Вот результат: {"title":"встреча с командой","date":"2024-01-01","time_start":"15:00","color":"красный"} готово`

	req, err := client.ExtractEvent(context.Background(), "завтра в 15 встреча с командой, красная")
	require.NoError(t, err)
	require.NotNil(t, req)

	assert.Equal(t, "встреча с командой", req.Title)
	assert.Equal(t, "2024-01-01", req.Date)
	assert.Equal(t, "15:00", req.TimeStart)
	assert.Equal(t, "красный", req.Color)
	assert.Empty(t, req.TimeEnd)
}

func TestExtractEventPromptSeedsToday(t *testing.T) {
	api, client := newFakeAPI(t)
	api.chatContent = `{"title":"x","date":"2024-01-01"}`

	_, err := client.ExtractEvent(context.Background(), "обед")
	require.NoError(t, err)

	chat := api.lastChatRequest(t)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, roleSystem, chat.Messages[0].Role)
	assert.Contains(t, chat.Messages[0].Content, time.Now().Format("2006-01-02"))
	assert.Equal(t, "обед", chat.Messages[1].Content)
	assert.Equal(t, "GigaChat-2-Pro", chat.Model)
}

func TestExtractEventNoJSONMeansAbsent(t *testing.T) {
	api, client := newFakeAPI(t)
	api.chatContent = "Не удалось разобрать сообщение"

	req, err := client.ExtractEvent(context.Background(), "привет")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestExtractEventMalformedJSONMeansAbsent(t *testing.T) {
	api, client := newFakeAPI(t)
	api.chatContent = `{"title": незакрытая строка}`

	req, err := client.ExtractEvent(context.Background(), "привет")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestExtractEventAPIError(t *testing.T) {
	api, client := newFakeAPI(t)
	api.chatStatus = http.StatusTooManyRequests

	_, err := client.ExtractEvent(context.Background(), "обед")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "chat", apiErr.Op)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestTranscribe(t *testing.T) {
	api, client := newFakeAPI(t)
	api.chatContent = "завтра в 15 встреча"

	audioPath := filepath.Join(t.TempDir(), "voice.ogg")
	require.NoError(t, os.WriteFile(audioPath, []byte("OggS"), 0600))

	text, err := client.Transcribe(context.Background(), audioPath)
	require.NoError(t, err)
	assert.Equal(t, "завтра в 15 встреча", text)

	// The chat request carried the uploaded file as attachment.
	chat := api.lastChatRequest(t)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, []string{"file-1"}, chat.Messages[1].Attachments)

	// The uploaded file was deleted afterwards.
	assert.Equal(t, []string{"file-1"}, api.deletedFiles)
}

func TestTranscribeDeleteFailureIsNotPropagated(t *testing.T) {
	api, client := newFakeAPI(t)
	api.chatContent = "текст"
	api.deleteFails = true

	audioPath := filepath.Join(t.TempDir(), "voice.ogg")
	require.NoError(t, os.WriteFile(audioPath, []byte("OggS"), 0600))

	text, err := client.Transcribe(context.Background(), audioPath)
	require.NoError(t, err)
	assert.Equal(t, "текст", text)
}

func TestTranscribeMissingFile(t *testing.T) {
	_, client := newFakeAPI(t)

	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.ogg"))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upload", apiErr.Op)
}

func TestAccessTokenIsCached(t *testing.T) {
	api, client := newFakeAPI(t)
	api.chatContent = `{"title":"x","date":"2024-01-01"}`

	ctx := context.Background()
	_, err := client.ExtractEvent(ctx, "один")
	require.NoError(t, err)
	_, err = client.ExtractEvent(ctx, "два")
	require.NoError(t, err)

	assert.Equal(t, 1, api.authCalls)
}
