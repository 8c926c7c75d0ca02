package buddy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/icexbuddy/buddyterm/internal/service"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL, "default_user", srv.Client())
}

func TestSendMessage(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"text": "Noted!", "tasks_extracted": 2})
	})

	reply, err := client.SendMessage(context.Background(), "remind me to water the plants")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if reply.Text != "Noted!" || reply.TasksExtracted != 2 {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if got["message"] != "remind me to water the plants" {
		t.Errorf("message field not sent, got %v", got["message"])
	}
	if got["user_id"] != "default_user" {
		t.Errorf("user_id field not sent, got %v", got["user_id"])
	}
	if v, ok := got["include_voice"]; !ok || v != false {
		t.Errorf("include_voice must be sent as false, got %v (present=%v)", v, ok)
	}
}

func TestSendMessageStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := client.SendMessage(context.Background(), "hello")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status code %d", se.Code)
	}
}

func TestListTasksSendsStatusOnlyWhenFiltered(t *testing.T) {
	var lastQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{
				{"id": 1, "description": "water plants", "status": "pending", "created_at": "2026-08-20T10:00:00"},
				{"id": "t-2", "description": "call dentist", "status": "completed", "created_at": "2026-08-21 09:30:00"},
			},
		})
	})

	tasks, err := client.ListTasks(context.Background(), service.FilterAll)
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	if _, ok := lastQuery["status"]; ok {
		t.Error("status must be omitted for the all filter")
	}
	if got := lastQuery["user_id"]; len(got) != 1 || got[0] != "default_user" {
		t.Errorf("user_id query missing, got %v", got)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "1" || tasks[1].ID != "t-2" {
		t.Errorf("ids not normalized: %q, %q", tasks[0].ID, tasks[1].ID)
	}
	if tasks[0].Status != service.StatusPending || tasks[1].Status != service.StatusCompleted {
		t.Errorf("statuses mismatched: %+v", tasks)
	}
	if tasks[0].CreatedAt.IsZero() || tasks[1].CreatedAt.IsZero() {
		t.Errorf("created_at not parsed: %v, %v", tasks[0].CreatedAt, tasks[1].CreatedAt)
	}

	if _, err := client.ListTasks(context.Background(), service.FilterPending); err != nil {
		t.Fatalf("ListTasks(pending) returned error: %v", err)
	}
	if got := lastQuery["status"]; len(got) != 1 || got[0] != "pending" {
		t.Errorf("expected status=pending in query, got %v", got)
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	var gotPath, gotStatus string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotStatus = body["status"]
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.UpdateTaskStatus(context.Background(), "42", service.StatusCompleted); err != nil {
		t.Fatalf("UpdateTaskStatus returned error: %v", err)
	}
	if gotPath != "/api/tasks/42" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotStatus != "completed" {
		t.Errorf("unexpected status %q", gotStatus)
	}
}

func TestSendVoiceUploadsMultipartAndDecodesAudio(t *testing.T) {
	audio := []byte("RIFF....WAVEfake")
	spoken := []byte("spoken-reply-bytes")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not multipart: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if got := r.FormValue("user_id"); got != "default_user" {
			t.Errorf("user_id field missing, got %q", got)
		}
		file, _, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("audio part missing: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer file.Close()
		clip, _ := io.ReadAll(file)
		if string(clip) != string(audio) {
			t.Errorf("clip bytes corrupted in transit")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"text":            "Done, I added that.",
			"transcription":   "add milk to the list",
			"tasks_extracted": 1,
			"voice_data":      base64.StdEncoding.EncodeToString(spoken),
		})
	})

	reply, err := client.SendVoice(context.Background(), audio)
	if err != nil {
		t.Fatalf("SendVoice returned error: %v", err)
	}
	if reply.Transcript != "add milk to the list" {
		t.Errorf("unexpected transcript %q", reply.Transcript)
	}
	if reply.Text != "Done, I added that." {
		t.Errorf("unexpected reply text %q", reply.Text)
	}
	if reply.TasksExtracted != 1 {
		t.Errorf("unexpected tasks_extracted %d", reply.TasksExtracted)
	}
	if string(reply.Audio) != string(spoken) {
		t.Errorf("voice_data not decoded, got %d bytes", len(reply.Audio))
	}
}

func TestSendVoiceWithoutVoiceData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"text": "ok", "transcription": "", "tasks_extracted": 0})
	})
	reply, err := client.SendVoice(context.Background(), []byte("clip"))
	if err != nil {
		t.Fatalf("SendVoice returned error: %v", err)
	}
	if reply.Audio != nil {
		t.Errorf("expected no audio, got %d bytes", len(reply.Audio))
	}
}

func TestRequestTimeoutApplied(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	client := NewWithHTTPClient(srv.URL, "default_user", srv.Client())
	client.timeout = 50 * time.Millisecond
	start := time.Now()
	_, err := client.SendMessage(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout not enforced, took %v", elapsed)
	}
}

func TestParseCreatedAtLayouts(t *testing.T) {
	cases := []struct {
		in   string
		zero bool
	}{
		{"2026-08-20T10:00:00Z", false},
		{"2026-08-20T10:00:00.123456", false},
		{"2026-08-20 10:00:00", false},
		{"", true},
		{"yesterday", true},
	}
	for _, tc := range cases {
		got := parseCreatedAt(tc.in)
		if got.IsZero() != tc.zero {
			t.Errorf("parseCreatedAt(%q): zero=%v, want zero=%v", tc.in, got.IsZero(), tc.zero)
		}
	}
}
