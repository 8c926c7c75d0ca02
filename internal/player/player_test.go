package player

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPlayDisabledWithoutCommand(t *testing.T) {
	p := New(nil, t.TempDir())
	if err := p.Play(context.Background(), []byte("audio")); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestPlayNoAudioIsNoOp(t *testing.T) {
	p := New([]string{"definitely-not-a-player"}, t.TempDir())
	if err := p.Play(context.Background(), nil); err != nil {
		t.Fatalf("empty audio must be a no-op, got %v", err)
	}
}

func TestPlayRunsCommandAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	// "true" accepts the clip path argument and exits cleanly.
	p := New([]string{"true"}, dir)
	if err := p.Play(context.Background(), []byte("RIFF")); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".wav" {
			t.Fatalf("temp clip %s not removed", e.Name())
		}
	}
}

func TestPlayReportsCommandFailure(t *testing.T) {
	p := New([]string{"false"}, t.TempDir())
	if err := p.Play(context.Background(), []byte("RIFF")); err == nil {
		t.Fatal("expected error from failing playback command")
	}
}
