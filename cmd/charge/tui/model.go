package tuicmder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/workcharge/charge/pkg/chat"
	"github.com/workcharge/charge/pkg/cliui"
	"github.com/workcharge/charge/pkg/llm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginLeft(2)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)

const (
	headerHeight = 3
	footerHeight = 5
)

// streamMsg carries one text fragment of the reply in flight.
type streamMsg string

// replyMsg ends the exchange in flight.
type replyMsg struct {
	reply llm.ChatMessage
	err   error
}

// sessionFactory starts a fresh conversation for /new.
type sessionFactory func() *chat.Session

// model is the bubbletea model of the chat screen. Key presses are ignored
// while an exchange is in flight, except for quitting.
type model struct {
	ctx        context.Context
	session    *chat.Session
	newSession sessionFactory
	dispatcher *chat.Dispatcher
	render     func(string) string
	baseURL    string

	spinner  spinner.Model
	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int
	ready    bool

	busy     bool
	stream   chan tea.Msg
	partial  strings.Builder
	notices  []string
	inflight sync.WaitGroup

	// next is set by dispatcher handlers and returned from Update.
	next     tea.Cmd
	quitting bool
}

func newModel(ctx context.Context, baseURL string, newSession sessionFactory, render func(string) string) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	ti := textinput.New()
	ti.Placeholder = "Ask the agent, or /help"
	ti.Prompt = cliui.UserPrompt
	ti.CharLimit = 4000
	ti.Width = 60
	ti.Focus()

	if render == nil {
		render = func(s string) string { return s }
	}

	m := &model{
		ctx:        ctx,
		session:    newSession(),
		newSession: newSession,
		render:     render,
		baseURL:    baseURL,
		spinner:    s,
		input:      ti,
		viewport:   viewport.New(80, 20),
	}
	m.dispatcher = m.newDispatcher()
	return m
}

func (m *model) newDispatcher() *chat.Dispatcher {
	d := chat.NewDispatcher()

	d.Register(chat.SendAction, "", m.send)
	d.Register("help", "list actions", func(context.Context, string) error {
		for _, a := range d.Actions() {
			m.notices = append(m.notices, fmt.Sprintf("/%-13s %s", a.Name, a.Help))
		}
		return nil
	})
	d.Register("new", "start a new conversation", func(context.Context, string) error {
		m.session = m.newSession()
		m.notices = nil
		return nil
	})
	chat.RegisterFeatures(d, m.send)

	return d
}

// send starts an exchange in the background. Text fragments and the final
// reply come back through m.stream until m.ctx is done; after that they are
// dropped so the exchange can finish with nobody reading.
func (m *model) send(_ context.Context, text string) error {
	ch := make(chan tea.Msg, 64)
	session := m.session
	deliver := func(msg tea.Msg) {
		select {
		case ch <- msg:
		case <-m.ctx.Done():
		}
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		defer close(ch)
		reply, err := session.Send(m.ctx, text, chat.OnText(func(s string) {
			deliver(streamMsg(s))
		}))
		deliver(replyMsg{reply: reply, err: err})
	}()

	m.busy = true
	m.stream = ch
	m.partial.Reset()
	m.notices = nil
	m.next = tea.Batch(m.spinner.Tick, waitFor(ch))
	return nil
}

// wait blocks until every exchange started by send has returned.
func (m *model) wait() {
	m.inflight.Wait()
}

func waitFor(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.busy {
			return m, nil
		}

		if msg.Type == tea.KeyEnter {
			return m, m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.Width = max(msg.Width-4, 10)
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 3)
		m.input.Width = max(msg.Width-12, 10)
		m.refresh()

	case streamMsg:
		m.partial.WriteString(string(msg))
		m.refresh()
		return m, waitFor(m.stream)

	case replyMsg:
		m.busy = false
		m.stream = nil
		m.partial.Reset()
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit dispatches the input line.
func (m *model) submit() tea.Cmd {
	line := m.input.Value()
	m.input.SetValue("")
	m.next = nil

	err := m.dispatcher.Dispatch(m.ctx, line)
	switch {
	case errors.Is(err, chat.ErrQuit):
		m.quitting = true
		return tea.Quit
	case err != nil:
		m.notices = append(m.notices, err.Error())
	}

	m.refresh()
	return m.next
}

// refresh rebuilds the viewport content from the transcript.
func (m *model) refresh() {
	var b strings.Builder

	for _, msg := range m.session.Transcript() {
		if msg.Role == llm.RoleUser {
			b.WriteString(cliui.UserPrompt + msg.Content + "\n\n")
			continue
		}
		b.WriteString(cliui.AssistantPrompt + "\n")
		if msg.Failed {
			b.WriteString(cliui.ErrorStyle.Render(msg.Content) + "\n\n")
			continue
		}
		b.WriteString(m.render(msg.Content) + "\n")
	}

	if m.busy && m.partial.Len() > 0 {
		b.WriteString(cliui.AssistantPrompt + "\n" + m.partial.String() + "\n")
	}

	for _, n := range m.notices {
		b.WriteString(noticeStyle.Render(n) + "\n")
	}

	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(b.String()))
	m.viewport.GotoBottom()
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("charge") + " " + infoStyle.Render(m.baseURL) + "\n\n")
	b.WriteString(boxStyle.Width(m.width-2).Render(m.viewport.View()) + "\n")

	if m.busy {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", m.spinner.View(), infoStyle.Render("waiting for the agent...")))
	} else {
		b.WriteString("\n  " + m.input.View() + "\n")
	}

	b.WriteString(infoStyle.Render("  enter send • pgup/pgdn scroll • /help actions • ctrl+c quit"))
	return b.String()
}
