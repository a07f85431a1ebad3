package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/taskmirror/internal/store"
)

// Snapshot is what one live step reports back to the view.
type Snapshot struct {
	Applied      int
	Items        []store.Item
	Polling      bool
	Disconnected bool
}

// LiveConfig wires the live view to a running session.
type LiveConfig struct {
	Title    string
	Interval time.Duration
	// Step polls the session, applies the result and lists the mirror.
	Step func() (Snapshot, error)
	// Wake, when set, triggers a step ahead of the next tick.
	Wake <-chan struct{}
	// Rescan, when set, is bound to the r key and followed by a step.
	Rescan func()
}

// ErrDisconnected is reported when the session's watcher went away.
var ErrDisconnected = errors.New("watcher disconnected")

type liveTickMsg struct{ seq int }

type liveWakeMsg struct{}

type liveStepMsg struct {
	snap Snapshot
	err  error
}

// LiveModel is the bubbletea model behind watch --tui.
type LiveModel struct {
	cfg      LiveConfig
	spinner  spinner.Model
	viewport viewport.Model

	width, height int

	seq      int
	stepping bool

	items        []store.Item
	applied      int
	steps        int
	polling      bool
	err          error
	disconnected bool
	done         bool
}

// NewLiveModel returns a live view that steps every cfg.Interval.
func NewLiveModel(cfg LiveConfig) LiveModel {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = TitleStyle

	return LiveModel{
		cfg:      cfg,
		spinner:  sp,
		viewport: viewport.New(DefaultWidth, 20),
		width:    DefaultWidth,
	}
}

func (m LiveModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.step()}
	if m.cfg.Wake != nil {
		cmds = append(cmds, m.waitWake())
	}
	return tea.Batch(cmds...)
}

func (m LiveModel) step() tea.Cmd {
	step := m.cfg.Step
	return func() tea.Msg {
		snap, err := step()
		return liveStepMsg{snap: snap, err: err}
	}
}

func (m LiveModel) waitWake() tea.Cmd {
	wake := m.cfg.Wake
	return func() tea.Msg {
		if _, ok := <-wake; !ok {
			return nil
		}
		return liveWakeMsg{}
	}
}

func (m LiveModel) scheduleTick() tea.Cmd {
	seq := m.seq
	return tea.Tick(m.cfg.Interval, func(time.Time) tea.Msg {
		return liveTickMsg{seq: seq}
	})
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		case "r":
			if m.cfg.Rescan == nil {
				return m, nil
			}
			m.cfg.Rescan()
			if m.stepping {
				return m, nil
			}
			m.stepping = true
			return m, m.step()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-3)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case liveTickMsg:
		// A wake-triggered step already rescheduled; drop the old timer.
		if msg.seq != m.seq || m.stepping {
			return m, nil
		}
		m.stepping = true
		return m, m.step()

	case liveWakeMsg:
		next := m.waitWake()
		if m.stepping {
			return m, next
		}
		m.stepping = true
		return m, tea.Batch(m.step(), next)

	case liveStepMsg:
		m.stepping = false
		m.steps++
		m.err = msg.err
		if msg.err == nil {
			m.items = msg.snap.Items
			m.applied += msg.snap.Applied
			m.polling = msg.snap.Polling
			m.refresh()
		}
		if msg.snap.Disconnected {
			m.err = ErrDisconnected
			m.disconnected = true
			m.done = true
			return m, tea.Quit
		}
		m.seq++
		return m, m.scheduleTick()
	}
	return m, nil
}

func (m *LiveModel) refresh() {
	m.viewport.SetContent(RenderItems(m.items, TableOptions{Width: m.width}))
}

func (m LiveModel) View() string {
	if m.done {
		if m.err != nil {
			return ErrorStyle.Render(m.err.Error()) + "\n"
		}
		return ""
	}

	mode := "watching"
	if m.polling {
		mode = "polling"
	}
	header := fmt.Sprintf("%s %s  %s",
		m.spinner.View(),
		TitleStyle.Render(m.cfg.Title),
		MutedStyle.Render(fmt.Sprintf("%s · %d ops applied", mode, m.applied)))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(ErrorStyle.Render("error: " + m.err.Error()))
	} else {
		b.WriteString(HelpStyle.Render(Summary(m.items) + " · r rescan · q quit · ↑/↓ scroll"))
	}
	return b.String()
}

// Err returns the last step error.
func (m LiveModel) Err() error {
	return m.err
}

// Steps returns how many steps have completed.
func (m LiveModel) Steps() int {
	return m.steps
}

// RunLive runs the live view until the user quits, ctx is cancelled or the
// watcher disconnects.
func RunLive(ctx context.Context, cfg LiveConfig) error {
	final, err := tea.NewProgram(NewLiveModel(cfg), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("live view: %w", err)
	}
	if lm, ok := final.(LiveModel); ok && lm.disconnected {
		return ErrDisconnected
	}
	return nil
}
