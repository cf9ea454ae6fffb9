// Package tui is the interactive conversation browser: a filterable list of
// conversations beside a scrollable transcript.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/render"
)

// Library is what the browser reads conversations and transcripts from.
type Library interface {
	Conversations(ctx context.Context) ([]archive.Conversation, error)
	Participants(conv archive.Conversation) []string
	TranscriptString(ctx context.Context, conv archive.Conversation) (string, error)
}

// message types

type conversationsLoadedMsg struct {
	items []item
	err   error
}

type item struct {
	conv         archive.Conversation
	participants string
}

// model

type model struct {
	ctx         context.Context
	lib         Library
	copy        func(string) error
	all         []item
	results     []item
	query       string
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewID   int64 // conversation shown in the preview, 0 for none
	transcript  string
	status      string
	width       int
	height      int
	ready       bool
	quitting    bool
}

func initialModel(ctx context.Context, lib Library) model {
	ti := textinput.New()
	ti.Placeholder = "Filter conversations..."
	ti.Focus()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		ctx:         ctx,
		lib:         lib,
		copy:        clipboard.WriteAll,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
}

// Run starts the browser and blocks until it exits.
func Run(ctx context.Context, lib Library) error {
	p := tea.NewProgram(initialModel(ctx, lib), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadConversationsCmd(m.ctx, m.lib))
}

func loadConversationsCmd(ctx context.Context, lib Library) tea.Cmd {
	return func() tea.Msg {
		convs, err := lib.Conversations(ctx)
		if err != nil {
			return conversationsLoadedMsg{err: err}
		}
		var items []item
		for _, c := range convs {
			if c.MessageCount == 0 {
				continue
			}
			items = append(items, item{conv: c, participants: strings.Join(lib.Participants(c), ", ")})
		}
		return conversationsLoadedMsg{items: items}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.setPreviewContent()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Copy):
			m.copyTranscript()
			return m, nil

		case key.Matches(msg, keys.ClearFilter):
			m.filterInput.Reset()
			if m.query != "" {
				m.query = ""
				m.applyFilter()
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.HalfUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.HalfDown):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.Oldest):
			m.preview.GotoTop()
			return m, nil

		case key.Matches(msg, keys.Newest):
			m.preview.GotoBottom()
			return m, nil
		}

		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if q := m.filterInput.Value(); q != m.query {
			m.query = q
			m.applyFilter()
			cmds = append(cmds, m.loadCurrentPreview())
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready || len(m.results) == 0 {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			maxOffset := len(m.results) - m.panelHeight()/linesPerItem
			if m.listOffset < maxOffset {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.results) && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.preview, vpCmd = m.preview.Update(msg)
			return m, vpCmd
		}
		return m, nil

	case conversationsLoadedMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.all = msg.items
		m.applyFilter()
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		if cur, ok := m.current(); !ok || cur.conv.ID != msg.id {
			return m, nil // stale
		}
		if msg.err != nil {
			m.transcript = ""
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			m.transcript = msg.content
			m.setPreviewContent()
			m.preview.GotoTop()
		}
		m.previewID = msg.id
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m *model) copyTranscript() {
	cur, ok := m.current()
	if !ok || m.previewID != cur.conv.ID || m.transcript == "" {
		return
	}
	if err := m.copy(m.transcript); err != nil {
		m.status = "Clipboard unavailable: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("Copied %q to clipboard", cur.conv.Label)
}

func (m *model) setPreviewContent() {
	if m.transcript == "" {
		m.preview.SetContent("")
		return
	}
	m.preview.SetContent(render.Wrap(m.transcript, m.previewWidth()))
}

func (m model) current() (item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return item{}, false
	}
	return m.results[m.cursor], true
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

// layout

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	w := m.width*35/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := m.width*65/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row, status bar and the panel borders
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	contentYStart := 2 // input row + top border
	contentYEnd := contentYStart + m.panelHeight() - 1
	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	if x >= 1 && x <= lw {
		return regionList, m.listOffset + relY/linesPerItem
	}
	if x > lw+2 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	parts := []string{fmt.Sprintf("%d/%d conversations", len(m.results), len(m.all))}
	if m.status != "" {
		parts = append([]string{m.status}, parts...)
	}
	for _, b := range keys.statusHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}
