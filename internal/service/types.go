// Package service defines the backend-agnostic surface for assistant operations.
package service

import "time"

// Status is the lifecycle state of a task. The backend only ever reports
// pending or completed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Toggled returns the opposite status: complete a pending task, reopen a
// completed one.
func (s Status) Toggled() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// Filter constrains the task view by status.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// Status returns the status constraint carried by the filter, and whether
// one applies. FilterAll applies no constraint.
func (f Filter) Status() (Status, bool) {
	switch f {
	case FilterPending:
		return StatusPending, true
	case FilterCompleted:
		return StatusCompleted, true
	}
	return "", false
}

// Next cycles all -> pending -> completed -> all.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterPending
	case FilterPending:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Task is a reminder extracted by the assistant from conversation.
// The backend owns the authoritative copy; clients never mutate one locally.
type Task struct {
	ID          string
	Description string
	Status      Status
	CreatedAt   time.Time
}

// ChatReply is the assistant's answer to one text message.
type ChatReply struct {
	Text           string
	TasksExtracted int
}

// VoiceReply is the result of uploading one recorded clip.
type VoiceReply struct {
	// Transcript is what the assistant heard. May be empty when the audio
	// could not be transcribed.
	Transcript string
	// Text is the assistant's reply to the transcribed message.
	Text           string
	TasksExtracted int
	// Audio holds a synthesized spoken reply when the backend returned one.
	Audio []byte
}
