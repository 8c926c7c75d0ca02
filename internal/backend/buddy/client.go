// Package buddy implements service.Service against the assistant backend's
// HTTP/JSON API. The TUI never imports net/http directly.
package buddy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/icexbuddy/buddyterm/internal/config"
	"github.com/icexbuddy/buddyterm/internal/service"
)

var _ service.Service = (*Client)(nil)

// Client talks to the assistant backend.
type Client struct {
	baseURL string
	userID  string
	timeout time.Duration
	http    *http.Client
}

// New creates a client from the application configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL(),
		userID:  cfg.UserID(),
		timeout: cfg.RequestTimeout(),
		http:    &http.Client{},
	}
}

// NewWithHTTPClient creates a client bound to a specific base URL and HTTP
// client, used by tests against httptest servers.
func NewWithHTTPClient(baseURL, userID string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    hc,
	}
}

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("buddy: %s returned status %d", e.Endpoint, e.Code)
}

type chatRequest struct {
	Message      string `json:"message"`
	UserID       string `json:"user_id"`
	IncludeVoice bool   `json:"include_voice"`
}

type chatResponse struct {
	Text           string `json:"text"`
	TasksExtracted int    `json:"tasks_extracted"`
}

type voiceResponse struct {
	Text           string `json:"text"`
	Transcription  string `json:"transcription"`
	TasksExtracted int    `json:"tasks_extracted"`
	VoiceData      string `json:"voice_data"`
}

type taskPayload struct {
	ID          flexID `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type tasksResponse struct {
	Tasks []taskPayload `json:"tasks"`
}

type updateRequest struct {
	Status string `json:"status"`
}

// flexID accepts both numeric and string task identifiers; the backend
// stores them as database row ids but the contract treats them as opaque.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("task id is neither string nor number: %s", data)
	}
	*f = flexID(n.String())
	return nil
}

// SendMessage implements service.Service.
func (c *Client) SendMessage(ctx context.Context, text string) (service.ChatReply, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	body, err := json.Marshal(chatRequest{Message: text, UserID: c.userID})
	if err != nil {
		return service.ChatReply{}, fmt.Errorf("buddy: encode chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return service.ChatReply{}, fmt.Errorf("buddy: build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var parsed chatResponse
	if err := c.do(req, "/api/chat", &parsed); err != nil {
		return service.ChatReply{}, err
	}
	return service.ChatReply{Text: parsed.Text, TasksExtracted: parsed.TasksExtracted}, nil
}

// SendVoice implements service.Service. The clip is uploaded as multipart
// form data with an "audio" file part and a "user_id" field.
func (c *Client) SendVoice(ctx context.Context, audio []byte) (service.VoiceReply, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("audio", fmt.Sprintf("clip-%s.wav", uuid.NewString()))
	if err != nil {
		return service.VoiceReply{}, fmt.Errorf("buddy: build voice form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return service.VoiceReply{}, fmt.Errorf("buddy: write voice clip: %w", err)
	}
	if err := form.WriteField("user_id", c.userID); err != nil {
		return service.VoiceReply{}, fmt.Errorf("buddy: write user field: %w", err)
	}
	if err := form.Close(); err != nil {
		return service.VoiceReply{}, fmt.Errorf("buddy: finalize voice form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/voice", &buf)
	if err != nil {
		return service.VoiceReply{}, fmt.Errorf("buddy: build voice request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var parsed voiceResponse
	if err := c.do(req, "/api/voice", &parsed); err != nil {
		return service.VoiceReply{}, err
	}
	reply := service.VoiceReply{
		Transcript:     parsed.Transcription,
		Text:           parsed.Text,
		TasksExtracted: parsed.TasksExtracted,
	}
	if parsed.VoiceData != "" {
		data, err := base64.StdEncoding.DecodeString(parsed.VoiceData)
		if err != nil {
			return service.VoiceReply{}, fmt.Errorf("buddy: decode voice_data: %w", err)
		}
		reply.Audio = data
	}
	return reply, nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	query := url.Values{"user_id": {c.userID}}
	if status, ok := filter.Status(); ok {
		query.Set("status", string(status))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tasks?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("buddy: build tasks request: %w", err)
	}

	var parsed tasksResponse
	if err := c.do(req, "/api/tasks", &parsed); err != nil {
		return nil, err
	}
	tasks := make([]service.Task, 0, len(parsed.Tasks))
	for _, p := range parsed.Tasks {
		tasks = append(tasks, service.Task{
			ID:          string(p.ID),
			Description: p.Description,
			Status:      service.Status(p.Status),
			CreatedAt:   parseCreatedAt(p.CreatedAt),
		})
	}
	return tasks, nil
}

// UpdateTaskStatus implements service.Service. Any 2xx response counts as
// success; the body is discarded.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status service.Status) error {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	body, err := json.Marshal(updateRequest{Status: string(status)})
	if err != nil {
		return fmt.Errorf("buddy: encode update request: %w", err)
	}
	endpoint := "/api/tasks/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("buddy: build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint, nil)
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("buddy: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("buddy: decode %s response: %w", endpoint, err)
	}
	return nil
}

// parseCreatedAt tolerates the two timestamp layouts the backend has been
// observed to emit. Unparseable values collapse to the zero time; the UI
// simply omits the age in that case.
func parseCreatedAt(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
