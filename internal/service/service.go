package service

import "context"

// Service is the contract between the terminal UI and the assistant backend.
// All HTTP calls go through this interface; the UI never talks to the wire
// format directly.
type Service interface {
	// SendMessage submits one user message and returns the assistant reply.
	// Callers are responsible for dropping empty input before calling.
	SendMessage(ctx context.Context, text string) (ChatReply, error)

	// SendVoice uploads one finalized WAV clip for transcription and reply.
	SendVoice(ctx context.Context, audio []byte) (VoiceReply, error)

	// ListTasks returns the user's tasks, constrained by the filter's status
	// when one applies. Results are in backend order.
	ListTasks(ctx context.Context, filter Filter) ([]Task, error)

	// UpdateTaskStatus asks the backend to move a task to the given status.
	// Callers refetch afterwards; the response body carries nothing useful.
	UpdateTaskStatus(ctx context.Context, id string, status Status) error
}
