// Package player plays synthesized assistant replies through an external
// playback command.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrDisabled is returned when no playback command is configured.
var ErrDisabled = errors.New("player: playback disabled")

// Player writes reply audio to a temp file inside dir and hands it to the
// configured command as its final argument.
type Player struct {
	cmdline []string
	dir     string
}

// New creates a player. An empty command line disables playback; Play then
// reports ErrDisabled.
func New(cmdline []string, dir string) *Player {
	return &Player{cmdline: cmdline, dir: dir}
}

// Play blocks until the playback command exits. The temp file is removed
// afterwards regardless of outcome.
func (p *Player) Play(ctx context.Context, audio []byte) error {
	if p == nil || len(p.cmdline) == 0 {
		return ErrDisabled
	}
	if len(audio) == 0 {
		return nil
	}
	path := filepath.Join(p.dir, fmt.Sprintf("reply-%s.wav", uuid.NewString()))
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return fmt.Errorf("player: write clip: %w", err)
	}
	defer os.Remove(path)

	args := append(append([]string{}, p.cmdline[1:]...), path)
	cmd := exec.CommandContext(ctx, p.cmdline[0], args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("player: run %s: %w", p.cmdline[0], err)
	}
	return nil
}
