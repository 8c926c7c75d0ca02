package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/icexbuddy/buddyterm/internal/player"
	"github.com/icexbuddy/buddyterm/internal/recorder"
	"github.com/icexbuddy/buddyterm/internal/service"
)

// Async results delivered back into Update. One typed message per backend
// interaction; rendering order follows completion order.

type chatReplyMsg struct {
	reply service.ChatReply
	err   error
}

type voiceReplyMsg struct {
	// placeholder indexes the provisional "processing" message to rewrite.
	placeholder int
	reply       service.VoiceReply
	err         error
}

type tasksLoadedMsg struct {
	filter service.Filter
	tasks  []service.Task
	err    error
}

type taskUpdatedMsg struct {
	id  string
	err error
}

type playbackDoneMsg struct {
	err error
}

func (a *App) sendChatCmd(text string) tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		reply, err := svc.SendMessage(context.Background(), text)
		return chatReplyMsg{reply: reply, err: err}
	}
}

func (a *App) uploadVoiceCmd(clip recorder.Clip, placeholder int) tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		reply, err := svc.SendVoice(context.Background(), clip.Data)
		return voiceReplyMsg{placeholder: placeholder, reply: reply, err: err}
	}
}

func (a *App) loadTasksCmd(filter service.Filter) tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		tasks, err := svc.ListTasks(context.Background(), filter)
		return tasksLoadedMsg{filter: filter, tasks: tasks, err: err}
	}
}

func (a *App) updateTaskCmd(id string, status service.Status) tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		err := svc.UpdateTaskStatus(context.Background(), id, status)
		return taskUpdatedMsg{id: id, err: err}
	}
}

func (a *App) playReplyCmd(audio []byte) tea.Cmd {
	p := a.player
	return func() tea.Msg {
		err := p.Play(context.Background(), audio)
		if errors.Is(err, player.ErrDisabled) {
			err = nil
		}
		return playbackDoneMsg{err: err}
	}
}
