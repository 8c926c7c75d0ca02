// Package tui is the terminal front end for the Buddy assistant backend.
// It follows The Elm Architecture via bubbletea: App holds all state,
// Update folds messages into new state, View projects state to the screen.
//
// The flow is: keypress -> command (HTTP call) -> typed result message ->
// Update -> View.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/icexbuddy/buddyterm/internal/backend/buddy"
	"github.com/icexbuddy/buddyterm/internal/config"
	"github.com/icexbuddy/buddyterm/internal/logbook"
	"github.com/icexbuddy/buddyterm/internal/player"
	"github.com/icexbuddy/buddyterm/internal/recorder"
	"github.com/icexbuddy/buddyterm/internal/service"
)

// focusArea marks which panel receives navigation keys.
type focusArea int

const (
	focusChat focusArea = iota
	focusTasks
)

type sender int

const (
	senderUser sender = iota
	senderAssistant
)

// message is one chat entry. Held only in memory, append-only per session.
type message struct {
	sender sender
	text   string
}

// Fixed user-facing strings. Failures degrade to these; nothing retries.
const (
	chatFallbackText      = "Sorry, something went wrong. Please try again."
	voiceFallbackText     = "Sorry, I couldn't process your voice message."
	transcribeFallback    = "(could not transcribe audio)"
	processingPlaceholder = "Processing voice message..."
	emptyTasksNotice      = "No tasks found."
	tasksErrorNotice      = "Could not load tasks."
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithService overrides the backend used for all assistant operations.
func WithService(svc service.Service) AppOption {
	return func(a *App) {
		if svc != nil {
			a.svc = svc
		}
	}
}

// WithRecorderSession overrides the microphone capture session.
func WithRecorderSession(s *recorder.Session) AppOption {
	return func(a *App) {
		if s != nil {
			a.session = s
		}
	}
}

// WithPlayer overrides reply-audio playback.
func WithPlayer(p *player.Player) AppOption {
	return func(a *App) {
		if p != nil {
			a.player = p
		}
	}
}

// App is the main application model; it holds all UI state.
type App struct {
	cfg     *config.Config
	svc     service.Service
	book    *logbook.Logbook
	session *recorder.Session
	player  *player.Player

	focus    focusArea
	messages []message
	input    textarea.Model
	history  viewport.Model
	spin     spinner.Model
	inFlight int

	filter    service.Filter
	tasks     []service.Task
	taskIndex int
	tasksErr  string

	statusMsg string
	width     int
	height    int
}

// NewApp creates the application model from loaded configuration.
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	book, err := logbook.New(filepath.Join(cfg.LogsDir(), "session.log"))
	if err != nil {
		book = nil
	}

	input := textarea.New()
	input.Placeholder = "Message Buddy (enter to send)"
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.CharLimit = 0
	input.Focus()

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	app := &App{
		cfg:     cfg,
		svc:     buddy.New(cfg),
		book:    book,
		session: recorder.NewSession(cfg.RecordCommand()),
		player:  player.New(cfg.PlayCommand(), cfg.ClipsDir()),
		focus:   focusChat,
		input:   input,
		history: viewport.New(0, 0),
		spin:    spin,
		filter:  service.FilterAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.logInfo("Session opened · backend %s · user %s", cfg.BaseURL(), cfg.UserID())
	app.refreshHistory()
	return app
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.loadTasksCmd(a.filter))
}

// Update is called for every message; it returns the next model state and
// any follow-up commands.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case spinner.TickMsg:
		if a.inFlight <= 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case chatReplyMsg:
		return a, a.handleChatReply(msg)

	case voiceReplyMsg:
		return a, a.handleVoiceReply(msg)

	case tasksLoadedMsg:
		a.handleTasksLoaded(msg)
		return a, nil

	case taskUpdatedMsg:
		return a, a.handleTaskUpdated(msg)

	case playbackDoneMsg:
		if msg.err != nil {
			a.logWarn("Playback failed: %v", msg.err)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.focus == focusChat {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.logInfo("Session closed")
		return a, tea.Quit
	case "ctrl+r":
		return a, a.toggleRecording()
	case "tab":
		if a.focus == focusChat {
			a.focus = focusTasks
			a.input.Blur()
		} else {
			a.focus = focusChat
			a.input.Focus()
		}
		return a, nil
	case "esc":
		if a.focus == focusTasks {
			a.focus = focusChat
			a.input.Focus()
		}
		return a, nil
	}

	if a.focus == focusTasks {
		return a, a.handleTasksKey(msg)
	}

	if msg.String() == "enter" {
		return a, a.submitChat()
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleTasksKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if a.taskIndex > 0 {
			a.taskIndex--
		}
	case "down", "j":
		if a.taskIndex < len(a.tasks)-1 {
			a.taskIndex++
		}
	case "f":
		a.filter = a.filter.Next()
		a.logInfo("Filter · %s", a.filter)
		return a.loadTasksCmd(a.filter)
	case "r":
		return a.loadTasksCmd(a.filter)
	case "enter":
		return a.toggleSelectedTask()
	}
	return nil
}

// submitChat validates and sends the typed message. Empty or whitespace-only
// input is silently dropped: no request, no rendered message.
func (a *App) submitChat() tea.Cmd {
	text := strings.TrimSpace(a.input.Value())
	if text == "" {
		return nil
	}
	a.appendMessage(senderUser, text)
	a.input.Reset()
	return a.trackRequest(a.sendChatCmd(text))
}

// toggleRecording drives the recorder state machine. Stop always hands the
// finalized clip straight to upload, behind a provisional placeholder.
func (a *App) toggleRecording() tea.Cmd {
	if a.session.Recording() {
		clip, ok := a.session.Stop()
		if !ok {
			return nil
		}
		a.logInfo("Recording stopped · clip %s (%d bytes)", clip.ID, len(clip.Data))
		a.statusMsg = ""
		idx := a.appendMessage(senderUser, processingPlaceholder)
		return a.trackRequest(a.uploadVoiceCmd(clip, idx))
	}
	if err := a.session.Start(context.Background()); err != nil {
		a.statusMsg = fmt.Sprintf("Microphone unavailable: %v", err)
		a.logError("Recording start failed: %v", err)
		return nil
	}
	a.statusMsg = "● Recording... press ctrl+r to stop"
	a.logInfo("Recording started")
	return nil
}

// toggleSelectedTask round-trips the status change through the backend.
// The local list is never mutated; a reload follows on success.
func (a *App) toggleSelectedTask() tea.Cmd {
	if a.taskIndex < 0 || a.taskIndex >= len(a.tasks) {
		return nil
	}
	task := a.tasks[a.taskIndex]
	return a.updateTaskCmd(task.ID, task.Status.Toggled())
}

func (a *App) handleChatReply(msg chatReplyMsg) tea.Cmd {
	a.requestDone()
	if msg.err != nil {
		a.logError("Chat request failed: %v", msg.err)
		a.appendMessage(senderAssistant, chatFallbackText)
		return nil
	}
	a.appendMessage(senderAssistant, msg.reply.Text)
	if msg.reply.TasksExtracted > 0 {
		a.logInfo("Assistant extracted %d task(s)", msg.reply.TasksExtracted)
		return a.loadTasksCmd(a.filter)
	}
	return nil
}

func (a *App) handleVoiceReply(msg voiceReplyMsg) tea.Cmd {
	a.requestDone()
	if msg.err != nil {
		a.logError("Voice request failed: %v", msg.err)
		a.rewriteMessage(msg.placeholder, voiceFallbackText)
		return nil
	}
	transcript := strings.TrimSpace(msg.reply.Transcript)
	if transcript == "" {
		transcript = transcribeFallback
	}
	a.rewriteMessage(msg.placeholder, transcript)
	a.appendMessage(senderAssistant, msg.reply.Text)

	var cmds []tea.Cmd
	if len(msg.reply.Audio) > 0 {
		cmds = append(cmds, a.playReplyCmd(msg.reply.Audio))
	}
	if msg.reply.TasksExtracted > 0 {
		a.logInfo("Assistant extracted %d task(s) from voice", msg.reply.TasksExtracted)
		cmds = append(cmds, a.loadTasksCmd(a.filter))
	}
	return tea.Batch(cmds...)
}

func (a *App) handleTasksLoaded(msg tasksLoadedMsg) {
	if msg.err != nil {
		a.logError("Task load failed: %v", msg.err)
		a.tasksErr = tasksErrorNotice
		return
	}
	a.tasksErr = ""
	a.tasks = msg.tasks
	if len(a.tasks) == 0 {
		a.taskIndex = 0
	} else if a.taskIndex >= len(a.tasks) {
		a.taskIndex = len(a.tasks) - 1
	}
}

func (a *App) handleTaskUpdated(msg taskUpdatedMsg) tea.Cmd {
	if msg.err != nil {
		a.logError("Task %s update failed: %v", msg.id, msg.err)
		a.statusMsg = "Task update failed"
		return nil
	}
	a.logInfo("Task %s updated", msg.id)
	return a.loadTasksCmd(a.filter)
}

// appendMessage adds a chat entry and returns its index so asynchronous
// results can rewrite it later.
func (a *App) appendMessage(s sender, text string) int {
	a.messages = append(a.messages, message{sender: s, text: text})
	a.refreshHistory()
	return len(a.messages) - 1
}

func (a *App) rewriteMessage(idx int, text string) {
	if idx < 0 || idx >= len(a.messages) {
		return
	}
	a.messages[idx].text = text
	a.refreshHistory()
}

func (a *App) refreshHistory() {
	a.history.SetContent(renderMessages(a.messages, a.chatWidth()))
	a.history.GotoBottom()
}

// trackRequest counts an in-flight request and starts the spinner when the
// first one begins.
func (a *App) trackRequest(cmd tea.Cmd) tea.Cmd {
	a.inFlight++
	if a.inFlight == 1 {
		return tea.Batch(cmd, a.spin.Tick)
	}
	return cmd
}

func (a *App) requestDone() {
	if a.inFlight > 0 {
		a.inFlight--
	}
}

func (a *App) logInfo(format string, args ...any) {
	if a.book != nil {
		a.book.Info(format, args...)
	}
}

func (a *App) logWarn(format string, args ...any) {
	if a.book != nil {
		a.book.Warn(format, args...)
	}
}

func (a *App) logError(format string, args ...any) {
	if a.book != nil {
		a.book.Error(format, args...)
	}
}

func (a *App) chatWidth() int {
	if a.width <= 0 {
		return 72
	}
	return max(20, a.width-a.tasksWidth()-10)
}

func (a *App) tasksWidth() int {
	if a.width <= 0 {
		return 36
	}
	return max(32, a.width/3)
}

func (a *App) resize() {
	chatW := a.chatWidth()
	a.input.SetWidth(chatW)
	a.history.Width = chatW
	a.history.Height = max(5, a.height-16)
	a.refreshHistory()
}

// View renders the current state to a string.
func (a *App) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ BUDDY")

	chatBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(a.chatWidth() + 4).
		Render(a.renderChatPanel())
	tasksBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(a.tasksWidth()).
		Render(a.renderTasksPanel())
	body := lipgloss.JoinHorizontal(lipgloss.Top, chatBox, tasksBox)

	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusLine())
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderChatPanel() string {
	title := assistantLabelStyle.Render("Chat")
	parts := []string{title, a.history.View()}
	if a.inFlight > 0 {
		parts = append(parts, metaStyle.Render(a.spin.View()+" waiting for Buddy..."))
	}
	parts = append(parts, a.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderTasksPanel() string {
	title := assistantLabelStyle.Render(fmt.Sprintf("Tasks (%d)", len(a.tasks)))
	tabs := renderFilterTabs(a.filter)
	parts := []string{title, tabs}

	switch {
	case a.tasksErr != "":
		parts = append(parts, errorTextStyle.Render(a.tasksErr))
	case len(a.tasks) == 0:
		parts = append(parts, metaStyle.Render(emptyTasksNotice))
	default:
		now := time.Now()
		cardW := a.tasksWidth() - 4
		for i, task := range a.tasks {
			selected := a.focus == focusTasks && i == a.taskIndex
			parts = append(parts, renderTaskCard(task, selected, cardW, now))
		}
	}

	parts = append(parts, hintStyle.Render("tab → switch panel    f → filter    r → reload"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderLogPanel() string {
	if a.book == nil {
		return ""
	}
	lines := a.book.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("LOG · " + filepath.Base(a.book.Path()))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(head + "\n" + body)
}

func (a *App) statusLine() string {
	if a.statusMsg != "" {
		return a.statusMsg
	}
	if a.session.Recording() {
		return "● Recording... press ctrl+r to stop"
	}
	return "enter → send    ctrl+r → record    ctrl+c → quit"
}
