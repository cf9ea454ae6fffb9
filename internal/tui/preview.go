package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/msgexport/internal/archive"
)

// previewRenderedMsg is sent when an async transcript render completes.
type previewRenderedMsg struct {
	id      int64
	content string
	err     error
}

func loadPreviewCmd(ctx context.Context, lib Library, conv archive.Conversation) tea.Cmd {
	return func() tea.Msg {
		content, err := lib.TranscriptString(ctx, conv)
		return previewRenderedMsg{id: conv.ID, content: content, err: err}
	}
}

// loadCurrentPreview renders the selected conversation unless it is already
// on screen.
func (m model) loadCurrentPreview() tea.Cmd {
	cur, ok := m.current()
	if !ok {
		return nil
	}
	if cur.conv.ID == m.previewID {
		return nil
	}
	return loadPreviewCmd(m.ctx, m.lib, cur.conv)
}

func newViewport(width, height int) viewport.Model {
	return viewport.New(width, height)
}
