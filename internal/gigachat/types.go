package gigachat

import "fmt"

// EventRequest holds the structured event fields extracted from free text.
// The JSON tags match the schema the extraction prompt asks the model for.
type EventRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`       // YYYY-MM-DD
	TimeStart   string `json:"time_start"` // HH:MM
	TimeEnd     string `json:"time_end"`   // HH:MM
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// APIError represents a failed GigaChat API call.
type APIError struct {
	// Op is the operation that failed (e.g. "auth", "upload", "chat").
	Op string

	// StatusCode is the HTTP status returned by the API, if any.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gigachat %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gigachat %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *APIError) Unwrap() error {
	return e.Err
}

// message roles used by the chat API.
const (
	roleSystem = "system"
	roleUser   = "user"
)

// message is one entry in a chat request or response.
type message struct {
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

// chatRequest is the body of a chat completion call.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

// chatResponse is the body of a chat completion response.
type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// uploadedFile is the response to a file upload.
type uploadedFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
	Purpose  string `json:"purpose"`
}

// tokenResponse is the response of the OAuth token endpoint.
// ExpiresAt is a unix timestamp in milliseconds.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}
