// Package testutil provides testing utilities shared across packages.
package testutil

import (
	"context"
	"sync"

	"github.com/icexbuddy/buddyterm/internal/service"
)

var _ service.Service = (*FakeService)(nil)

// FakeService is an in-memory implementation of service.Service. Tests seed
// tasks and canned replies, inject errors, and inspect call counts.
type FakeService struct {
	mu    sync.Mutex
	tasks []service.Task

	ChatReply  service.ChatReply
	VoiceReply service.VoiceReply

	SendMessageErr      error
	SendVoiceErr        error
	ListTasksErr        error
	UpdateTaskStatusErr error

	SendMessageCalls []string
	SendVoiceCalls   [][]byte
	ListTasksCalls   []service.Filter
	UpdateCalls      []UpdateCall
}

// UpdateCall records one UpdateTaskStatus invocation.
type UpdateCall struct {
	ID     string
	Status service.Status
}

// NewFakeService creates an empty fake.
func NewFakeService() *FakeService {
	return &FakeService{}
}

// SeedTasks replaces the fake's task set.
func (f *FakeService) SeedTasks(tasks ...service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append([]service.Task(nil), tasks...)
}

// SendMessage implements service.Service.
func (f *FakeService) SendMessage(ctx context.Context, text string) (service.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SendMessageCalls = append(f.SendMessageCalls, text)
	if f.SendMessageErr != nil {
		return service.ChatReply{}, f.SendMessageErr
	}
	return f.ChatReply, nil
}

// SendVoice implements service.Service.
func (f *FakeService) SendVoice(ctx context.Context, audio []byte) (service.VoiceReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SendVoiceCalls = append(f.SendVoiceCalls, append([]byte(nil), audio...))
	if f.SendVoiceErr != nil {
		return service.VoiceReply{}, f.SendVoiceErr
	}
	return f.VoiceReply, nil
}

// ListTasks implements service.Service, applying the filter the way the
// backend does.
func (f *FakeService) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListTasksCalls = append(f.ListTasksCalls, filter)
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	status, constrained := filter.Status()
	out := []service.Task{}
	for _, task := range f.tasks {
		if constrained && task.Status != status {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

// UpdateTaskStatus implements service.Service, mutating the seeded task.
func (f *FakeService) UpdateTaskStatus(ctx context.Context, id string, status service.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls = append(f.UpdateCalls, UpdateCall{ID: id, Status: status})
	if f.UpdateTaskStatusErr != nil {
		return f.UpdateTaskStatusErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Status = status
		}
	}
	return nil
}
