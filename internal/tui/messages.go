package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aymanbagabas/go-osc52/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/strrl/text-summarizer/internal/api"
	"github.com/strrl/text-summarizer/internal/export"
	"github.com/strrl/text-summarizer/pkg/models"
)

// noticeFadeDelay is how long status bar notices stay visible
const noticeFadeDelay = 2 * time.Second

// Message types for async operations
type (
	// SummarizeDoneMsg carries the outcome of the in-flight summarize call
	SummarizeDoneMsg struct {
		Response *api.Response
		Error    error
	}

	// CopiedMsg reports that the summary text was sent to the clipboard
	CopiedMsg struct {
		Error error
	}

	// ExportedMsg reports where an export was written
	ExportedMsg struct {
		Path  string
		Error error
	}

	// noticeFadeMsg clears the status notice it was scheduled for
	noticeFadeMsg struct {
		seq int
	}

	// TickMsg is sent periodically for spinner animation. Only ticks of the
	// current request's chain keep it going.
	TickMsg struct {
		seq int
	}
)

// summarizeCmd runs the summarize request off the update loop
func summarizeCmd(ctx context.Context, client Summarizer, req api.Request) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.Summarize(ctx, req)
		return SummarizeDoneMsg{
			Response: resp,
			Error:    err,
		}
	}
}

// copyCmd writes text to the system clipboard with an OSC 52 escape sequence
func copyCmd(w io.Writer, text string) tea.Cmd {
	return func() tea.Msg {
		seq := osc52.New(text)
		term := os.Getenv("TERM")
		switch {
		case os.Getenv("TMUX") != "" || strings.HasPrefix(term, "tmux"):
			seq = seq.Tmux()
		case strings.HasPrefix(term, "screen"):
			seq = seq.Screen()
		}
		if _, err := seq.WriteTo(w); err != nil {
			return CopiedMsg{Error: fmt.Errorf("failed to write to clipboard: %w", err)}
		}
		return CopiedMsg{}
	}
}

// exportCmd saves the summary document into dir
func exportCmd(dir string, summary models.Summary) tea.Cmd {
	return func() tea.Msg {
		path, err := export.Save(dir, summary)
		return ExportedMsg{
			Path:  path,
			Error: err,
		}
	}
}

// fadeNoticeCmd schedules removal of the notice identified by seq
func fadeNoticeCmd(seq int) tea.Cmd {
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{seq: seq}
	})
}

// tickCmd creates a ticker for spinner animation
func tickCmd(seq int) tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{seq: seq}
	})
}
