// Package recorder manages microphone capture sessions. Audio is acquired
// by running an external capture command (arecord, sox, ffmpeg) that writes
// WAV to stdout; the session accumulates the stream until stopped.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/google/uuid"
)

// State is the recording session state. There is no third state: a session
// is either idle or actively capturing.
type State int

const (
	StateIdle State = iota
	StateRecording
)

// Clip is one finalized recording, ready for upload.
type Clip struct {
	ID   string
	Data []byte
}

// Source yields a raw audio stream. The stream must unblock readers when
// closed or when the context is canceled.
type Source func(ctx context.Context) (io.ReadCloser, error)

// Option customizes Session construction for tests and alternate platforms.
type Option func(*Session)

// WithSource replaces the capture-command source with a custom one.
func WithSource(src Source) Option {
	return func(s *Session) {
		if src != nil {
			s.source = src
		}
	}
}

// Session owns at most one live capture at a time. Toggling into the state
// the session is already in is a no-op, so a double keypress cannot leak a
// microphone handle or start a second capture.
type Session struct {
	source Source

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	stream io.ReadCloser
	chunks [][]byte
	done   chan struct{}
}

// NewSession creates an idle session that captures via the given command
// line when started.
func NewSession(captureCmd []string, opts ...Option) *Session {
	s := &Session{source: commandSource(captureCmd)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// State reports the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Recording reports whether a capture is live.
func (s *Session) Recording() bool {
	return s.State() == StateRecording
}

// Start acquires the audio source and begins accumulating chunks. Starting
// an already-recording session is a no-op. On acquisition failure the
// session stays idle and the error describes why (the microphone-denied
// case on this platform).
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRecording {
		return nil
	}
	captureCtx, cancel := context.WithCancel(ctx)
	stream, err := s.source(captureCtx)
	if err != nil {
		cancel()
		return err
	}
	s.state = StateRecording
	s.cancel = cancel
	s.stream = stream
	s.chunks = nil
	s.done = make(chan struct{})
	go s.consume(stream, s.done)
	return nil
}

// Stop finalizes the accumulated chunks into a single clip and releases the
// audio source. Stopping an idle session returns ok=false. The source is
// always closed exactly once per recording, even when no audio arrived.
func (s *Session) Stop() (Clip, bool) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return Clip{}, false
	}
	cancel, stream, done := s.cancel, s.stream, s.done
	s.state = StateIdle
	s.cancel = nil
	s.stream = nil
	s.done = nil
	s.mu.Unlock()

	cancel()
	_ = stream.Close()
	<-done

	s.mu.Lock()
	var size int
	for _, chunk := range s.chunks {
		size += len(chunk)
	}
	data := make([]byte, 0, size)
	for _, chunk := range s.chunks {
		data = append(data, chunk...)
	}
	s.chunks = nil
	s.mu.Unlock()

	return Clip{ID: uuid.NewString(), Data: data}, true
}

func (s *Session) consume(stream io.Reader, done chan struct{}) {
	defer close(done)
	buf := make([]byte, 4096)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.mu.Lock()
			s.chunks = append(s.chunks, chunk)
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// commandSource launches the capture command and streams its stdout.
func commandSource(cmdline []string) Source {
	return func(ctx context.Context) (io.ReadCloser, error) {
		if len(cmdline) == 0 {
			return nil, errors.New("recorder: no capture command configured")
		}
		cmd := exec.CommandContext(ctx, cmdline[0], cmdline[1:]...)
		pipe, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("recorder: capture stdout: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("recorder: start %s: %w", cmdline[0], err)
		}
		return &captureStream{pipe: pipe, cmd: cmd}, nil
	}
}

type captureStream struct {
	pipe io.ReadCloser
	cmd  *exec.Cmd
	once sync.Once
}

func (c *captureStream) Read(p []byte) (int, error) {
	return c.pipe.Read(p)
}

// Close tears down the pipe and reaps the capture process. The process is
// killed by the session's context cancel, so Wait returning a signal error
// is the normal shutdown path.
func (c *captureStream) Close() error {
	c.once.Do(func() {
		_ = c.pipe.Close()
		_ = c.cmd.Wait()
	})
	return nil
}
