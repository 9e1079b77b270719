package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"spaceblack/internal/agent"
	"spaceblack/internal/brain"
	"spaceblack/internal/config"
	"spaceblack/internal/schedule"
)

// heartbeatCheck is how often the TUI gives the heartbeat a chance to
// fire; the 3 hour gate lives in the agent.
const heartbeatCheck = time.Minute

// turnTimeout bounds one conversational turn including tool calls.
const turnTimeout = 30 * time.Minute

// Options wires the chat interface to the runtime.
type Options struct {
	Workspace string
	Config    *config.Config
	Agent     *agent.Agent
	Paths     brain.Paths
	Schedule  *schedule.Store
}

// Message is one rendered line group in the history.
type Message struct {
	Role    string // "user", "assistant", "system", "error"
	Content string
	Time    time.Time
}

// Messages for tea updates.
type (
	responseMsg      string
	errorMsg         error
	heartbeatTickMsg time.Time
	heartbeatMsg     string
)

// Model is the bubbletea model for the chat interface.
type Model struct {
	opts Options

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles
	renderer *glamour.TermRenderer

	history   []Message
	isLoading bool
	width     int
	height    int
	ready     bool

	wizard *configWizard // non-nil while /config is active
}

// NewModel builds the chat model.
func NewModel(opts Options) Model {
	styles := stylesFor(opts.Config.Theme)

	ta := textarea.New()
	ta.Placeholder = "Talk to your ghost... (Enter to send, Ctrl+C to exit)"
	ta.Focus()
	ta.Prompt = "| "
	ta.CharLimit = 8192
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)

	m := Model{
		opts:     opts,
		textarea: ta,
		spinner:  sp,
		viewport: vp,
		styles:   styles,
	}
	m.history = append(m.history, Message{
		Role:    "system",
		Content: "Connected. Type /help for commands.",
		Time:    time.Now(),
	})
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		heartbeatTick(),
	)
}

func heartbeatTick() tea.Cmd {
	return tea.Tick(heartbeatCheck, func(t time.Time) tea.Msg {
		return heartbeatTickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatHeight := msg.Height - m.textarea.Height() - 3
		if chatHeight < 3 {
			chatHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, chatHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = chatHeight
		}
		m.textarea.SetWidth(msg.Width - 2)
		m.renderer = newRenderer(m.styles.Theme, msg.Width)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			if msg.Alt {
				break // alt+enter inserts a newline
			}
			return m.submit()
		}

	case responseMsg:
		m.isLoading = false
		m.append("assistant", string(msg))
		return m, nil

	case errorMsg:
		m.isLoading = false
		m.append("error", msg.Error())
		return m, nil

	case heartbeatTickMsg:
		return m, tea.Batch(heartbeatTick(), m.runHeartbeat())

	case heartbeatMsg:
		if msg == "" {
			return m, nil
		}
		m.append("system", "Heartbeat: "+string(msg))
		m.isLoading = true
		return m, m.processInput(fmt.Sprintf("[HEARTBEAT ALERT]\n%s\nDecide whether anything needs doing and report briefly.", msg))

	case spinner.TickMsg:
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, spCmd
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// submit handles an Enter press on the input.
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	m.textarea.Reset()

	// An active config wizard consumes all input.
	if m.wizard != nil {
		return m.updateWizard(input)
	}

	switch strings.ToLower(input) {
	case "exit", "quit":
		return m, tea.Quit
	}

	m.append("user", input)

	if strings.HasPrefix(input, "/") {
		return m.runCommand(input)
	}

	if m.isLoading {
		m.append("system", "Still working on the previous message.")
		return m, nil
	}
	m.isLoading = true
	return m, m.processInput(input)
}

// processInput runs one agent turn off the UI goroutine.
func (m Model) processInput(input string) tea.Cmd {
	ag := m.opts.Agent
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		reply, err := ag.Process(ctx, input)
		if err != nil {
			return errorMsg(err)
		}
		if reply == "" {
			reply = "(no response)"
		}
		return responseMsg(reply)
	}
}

// runHeartbeat checks the heartbeat gate in the background.
func (m Model) runHeartbeat() tea.Cmd {
	ag := m.opts.Agent
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		alert, err := ag.Heartbeat(ctx, false)
		if err != nil {
			return heartbeatMsg("") // background noise, not worth a UI error
		}
		return heartbeatMsg(alert)
	}
}

// append adds a message to the history and scrolls to the bottom.
func (m *Model) append(role, content string) {
	m.history = append(m.history, Message{Role: role, Content: content, Time: time.Now()})
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func newRenderer(theme Theme, width int) *glamour.TermRenderer {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	var r *glamour.TermRenderer
	if theme.IsDark {
		r, _ = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap))
	} else {
		r, _ = glamour.NewTermRenderer(glamour.WithStylePath("light"), glamour.WithWordWrap(wrap))
	}
	return r
}
