package tui

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/text-summarizer/internal/api"
	"github.com/strrl/text-summarizer/internal/journal"
	"github.com/strrl/text-summarizer/internal/panel"
	"github.com/strrl/text-summarizer/pkg/models"
)

var longText = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 3)

// fakeSummarizer records every call and answers with a fixed result
type fakeSummarizer struct {
	calls atomic.Int32
	last  api.Request
	resp  *api.Response
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, req api.Request) (*api.Response, error) {
	f.calls.Add(1)
	f.last = req
	return f.resp, f.err
}

func okSummarizer() *fakeSummarizer {
	return &fakeSummarizer{resp: &api.Response{
		Summary:           "S",
		OriginalWordCount: 10,
		SummaryWordCount:  3,
		CompressionRatio:  70,
	}}
}

func newTestModel(t *testing.T, client Summarizer, opts ...func(*Options)) model {
	t.Helper()
	o := Options{Client: client, ExportDir: t.TempDir(), Clipboard: &bytes.Buffer{}}
	for _, fn := range opts {
		fn(&o)
	}
	m := initialModel(context.Background(), o)

	ids := 0
	m.newID = func() string {
		ids++
		return "id-" + string(rune('0'+ids))
	}
	m.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(model)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(model), cmd
}

func typeText(t *testing.T, m model, text string) model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// runSummarize executes the batch returned by a submit and feeds the
// summarize result back into the model
func runSummarize(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "submit returns a batch of request and spinner tick")

	for _, c := range batch {
		if c == nil {
			continue
		}
		// the spinner tick blocks on a timer, only run the request
		done := make(chan tea.Msg, 1)
		go func(c tea.Cmd) { done <- c() }(c)
		select {
		case msg := <-done:
			if res, ok := msg.(SummarizeDoneMsg); ok {
				m, _ = update(t, m, res)
				return m
			}
		case <-time.After(500 * time.Millisecond):
		}
	}
	t.Fatal("no summarize result produced")
	return m
}

func submit(t *testing.T, m model) (model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
}

func TestModelInitialization(t *testing.T) {
	m := initialModel(context.Background(), Options{})

	assert.Equal(t, panel.StateIdle, m.state.Status())
	assert.Equal(t, models.StyleConcise, m.state.Style)
	assert.Equal(t, focusInput, m.focus)
	assert.NotNil(t, m.logger)
	assert.NotNil(t, m.clipboard)
	assert.False(t, m.ready)
	assert.Contains(t, m.View(), "Initializing")
}

func TestViewportInitialization(t *testing.T) {
	m := newTestModel(t, okSummarizer())

	assert.True(t, m.ready)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)

	left, right := m.columnWidths()
	assert.LessOrEqual(t, left+right, m.width)
	assert.Greater(t, m.summaryView.Width, 0)
}

func TestTypingUpdatesInputAndWordCount(t *testing.T) {
	m := newTestModel(t, okSummarizer())
	m = typeText(t, m, "  hello   world  ")

	assert.Equal(t, "  hello   world  ", m.state.Input)
	assert.Equal(t, 2, m.state.WordCount())
	assert.Contains(t, m.View(), "2 words")
}

func TestSubmit_BelowMinimumSendsNothing(t *testing.T) {
	client := okSummarizer()
	m := newTestModel(t, client)
	m = typeText(t, m, "too short")

	m, cmd := submit(t, m)
	assert.Nil(t, cmd)
	assert.False(t, m.state.InFlight)
	assert.Equal(t, int32(0), client.calls.Load())
	assert.Contains(t, m.View(), "Text must be at least 50 characters long (9/50)")
}

func TestSubmit_Success(t *testing.T) {
	client := okSummarizer()
	m := newTestModel(t, client)
	m = typeText(t, m, longText)

	m, cmd := submit(t, m)
	assert.True(t, m.state.InFlight)
	assert.False(t, m.input.Focused(), "input is disabled while in flight")
	assert.Contains(t, m.View(), "Summarizing...")

	m = runSummarize(t, m, cmd)

	assert.Equal(t, int32(1), client.calls.Load())
	assert.Equal(t, longText, client.last.Text)
	assert.Equal(t, models.StyleConcise, client.last.Style)
	assert.Equal(t, api.MaxLength, client.last.MaxLength)

	require.Len(t, m.state.History, 1)
	sel := m.state.Selected()
	require.NotNil(t, sel)
	assert.Equal(t, "id-1", sel.ID)
	assert.Equal(t, "S", sel.Text)
	assert.Nil(t, m.state.Err)
	assert.False(t, m.state.InFlight)
	assert.True(t, m.input.Focused())

	view := m.View()
	assert.Contains(t, view, "Concise style")
	assert.Contains(t, view, "Recent Summaries")
	assert.Contains(t, view, "10 → 3 words")
}

func TestSubmit_WhileInFlightIsIgnored(t *testing.T) {
	client := okSummarizer()
	m := newTestModel(t, client)
	m = typeText(t, m, longText)

	m, _ = submit(t, m)
	m, cmd := submit(t, m)
	assert.Nil(t, cmd)
	assert.True(t, m.state.InFlight)
}

func TestInputLockedWhileInFlight(t *testing.T) {
	m := newTestModel(t, okSummarizer())
	m = typeText(t, m, longText)
	m, _ = submit(t, m)

	m = typeText(t, m, "more")
	assert.Equal(t, longText, m.state.Input)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.StyleConcise, m.state.Style, "style selector is disabled")
}

func TestSubmit_FailureKeepsHistory(t *testing.T) {
	client := okSummarizer()
	m := newTestModel(t, client)
	m = typeText(t, m, longText)
	m, cmd := submit(t, m)
	m = runSummarize(t, m, cmd)
	require.Len(t, m.state.History, 1)

	client.resp = nil
	client.err = &api.APIError{StatusCode: 500, Detail: "API key missing"}

	m, cmd = submit(t, m)
	m = runSummarize(t, m, cmd)

	assert.Equal(t, "API key missing", m.state.ErrorMessage())
	assert.Len(t, m.state.History, 1)
	assert.Equal(t, "id-1", m.state.SelectedID)
	assert.Contains(t, m.View(), "Error generating summary")
}

func TestRetry(t *testing.T) {
	client := &fakeSummarizer{err: errors.New("WRITER_API_KEY is not set")}
	m := newTestModel(t, client)
	m = typeText(t, m, longText)
	m, cmd := submit(t, m)
	m = runSummarize(t, m, cmd)
	require.Equal(t, panel.StateError, m.state.Status())
	assert.True(t, m.state.ShowAPIKeyHint())
	assert.Contains(t, m.View(), "Make sure the backend")

	client.err = nil
	client.resp = &api.Response{Summary: "ok", OriginalWordCount: 27, SummaryWordCount: 1, CompressionRatio: 96.3}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.True(t, m.state.InFlight)
	m = runSummarize(t, m, cmd)

	assert.Equal(t, int32(2), client.calls.Load())
	assert.Equal(t, panel.StateSuccess, m.state.Status())
	assert.Equal(t, "ok", m.state.Selected().Text)
}

func TestMalformedNilResponse(t *testing.T) {
	client := &fakeSummarizer{}
	m := newTestModel(t, client)
	m = typeText(t, m, longText)
	m, cmd := submit(t, m)
	m = runSummarize(t, m, cmd)

	assert.Equal(t, panel.StateError, m.state.Status())
	assert.Empty(t, m.state.History)
}

func TestStyleCycling(t *testing.T) {
	m := newTestModel(t, okSummarizer())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.StyleDetailed, m.state.Style)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.StyleBulletPoints, m.state.Style)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.StyleConcise, m.state.Style)
}

func TestHistorySelectionDoesNotCallService(t *testing.T) {
	client := okSummarizer()
	m := newTestModel(t, client)
	m = typeText(t, m, longText)
	m, cmd := submit(t, m)
	m = runSummarize(t, m, cmd)
	m, cmd = submit(t, m)
	m = runSummarize(t, m, cmd)
	require.Len(t, m.state.History, 2)
	require.Equal(t, "id-2", m.state.SelectedID)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, focusHistory, m.focus)

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, cmd)
	assert.Equal(t, "id-1", m.state.SelectedID)
	assert.False(t, m.state.InFlight)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "id-2", m.state.SelectedID)
	assert.Equal(t, int32(2), client.calls.Load())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, focusInput, m.focus)
}

func TestClear(t *testing.T) {
	m := newTestModel(t, okSummarizer())
	m = typeText(t, m, longText)
	m, cmd := submit(t, m)
	m = runSummarize(t, m, cmd)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Empty(t, m.state.Input)
	assert.Empty(t, m.input.Value())
	assert.Empty(t, m.state.History)
	assert.Nil(t, m.state.Selected())
	assert.Nil(t, m.state.Err)
	assert.Contains(t, m.View(), "No Summary Yet")
}

func TestClear_WhileInFlight(t *testing.T) {
	client := okSummarizer()
	m := newTestModel(t, client)
	m = typeText(t, m, longText)
	m, cmd := submit(t, m)
	m = runSummarize(t, m, cmd)
	require.Len(t, m.state.History, 1)

	m = typeText(t, m, " and more")
	m, cmd = submit(t, m)
	require.True(t, m.state.InFlight)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.state.Input)
	assert.Empty(t, m.input.Value())
	assert.Empty(t, m.state.History)
	assert.True(t, m.state.InFlight, "the outstanding request keeps submit disabled")
	assert.Contains(t, m.View(), "Summarizing...")

	m = runSummarize(t, m, cmd)
	assert.Equal(t, int32(2), client.calls.Load())
	assert.False(t, m.state.InFlight)
	assert.Empty(t, m.state.History, "the late result is dropped")
	assert.True(t, m.input.Focused())
	assert.Contains(t, m.View(), "No Summary Yet")
}

func TestPasteKeepsEveryLine(t *testing.T) {
	m := newTestModel(t, okSummarizer())

	lines := make([]string, 150)
	for i := range lines {
		lines[i] = "one two three four five six seven"
	}
	text := strings.Join(lines, "\n")
	m = typeText(t, m, text)

	assert.Equal(t, text, m.state.Input)
	assert.Equal(t, 1050, m.state.WordCount())
}

func TestSummarizeDoneRefocusesInput(t *testing.T) {
	m := newTestModel(t, okSummarizer())
	m = typeText(t, m, longText)
	m, _ = submit(t, m)
	require.False(t, m.input.Focused())

	m, cmd := update(t, m, SummarizeDoneMsg{Response: okSummarizer().resp})
	assert.True(t, m.input.Focused())
	assert.NotNil(t, cmd, "cursor blink restarts with focus")
}

func TestEmptyStateShowsServiceURL(t *testing.T) {
	m := newTestModel(t, api.NewClient("http://summarizer.test/"))
	assert.Contains(t, m.View(), "http://summarizer.test")
}

func TestCopy(t *testing.T) {
	var clip bytes.Buffer
	m := newTestModel(t, okSummarizer(), func(o *Options) { o.Clipboard = &clip })

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Nil(t, cmd, "nothing selected, nothing to copy")

	m = typeText(t, m, longText)
	m, cmd = submit(t, m)
	m = runSummarize(t, m, cmd)

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, CopiedMsg{}, msg)
	assert.Contains(t, clip.String(), base64.StdEncoding.EncodeToString([]byte("S")))

	m, fade := update(t, m, msg)
	assert.NotNil(t, fade)
	assert.Equal(t, "Copied to clipboard", m.notice)

	m, _ = update(t, m, noticeFadeMsg{seq: m.noticeSeq})
	assert.Empty(t, m.notice)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(t, okSummarizer(), func(o *Options) { o.ExportDir = dir })
	m = typeText(t, m, longText)
	m, cmd := submit(t, m)
	m = runSummarize(t, m, cmd)

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.NotNil(t, cmd)
	msg := cmd()
	exported, ok := msg.(ExportedMsg)
	require.True(t, ok)
	require.NoError(t, exported.Error)
	assert.Equal(t, filepath.Join(dir, "summary-concise-2026-10-17.txt"), exported.Path)

	data, err := os.ReadFile(exported.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Original Text (10 words):")
	assert.Contains(t, string(data), "Compression: 70%")

	m, _ = update(t, m, msg)
	assert.Contains(t, m.notice, "Saved")
}

func TestJournalStats(t *testing.T) {
	j, err := journal.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	m := newTestModel(t, okSummarizer(), func(o *Options) { o.Journal = j })
	m = typeText(t, m, longText)
	m, cmd := submit(t, m)
	m = runSummarize(t, m, cmd)

	assert.Equal(t, 1, m.stats.Count)
	assert.Contains(t, m.View(), "1 summaries")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd = submit(t, m)
	m = runSummarize(t, m, cmd)
	require.Len(t, m.byStyle, 2)
	view := m.View()
	assert.Contains(t, view, "Concise 1")
	assert.Contains(t, view, "Detailed 1")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, 0, m.stats.Count)
	assert.Empty(t, m.byStyle)

	stats, err := j.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
}

func TestTickOnlyWhileInFlight(t *testing.T) {
	m := newTestModel(t, okSummarizer())
	_, cmd := update(t, m, TickMsg{seq: m.tickSeq})
	assert.Nil(t, cmd)

	m = typeText(t, m, longText)
	m, _ = submit(t, m)
	_, cmd = update(t, m, TickMsg{seq: m.tickSeq})
	assert.NotNil(t, cmd)
}

func TestTickFromPreviousRequestStops(t *testing.T) {
	m := newTestModel(t, okSummarizer())
	m = typeText(t, m, longText)
	m, _ = submit(t, m)
	first := m.tickSeq

	m, _ = update(t, m, SummarizeDoneMsg{Response: okSummarizer().resp})
	m, _ = submit(t, m)
	require.True(t, m.state.InFlight)
	require.NotEqual(t, first, m.tickSeq)

	frame := m.loading.View()
	_, cmd := update(t, m, TickMsg{seq: first})
	assert.Nil(t, cmd, "an old chain does not reschedule itself")
	assert.Equal(t, frame, m.loading.View())

	_, cmd = update(t, m, TickMsg{seq: m.tickSeq})
	assert.NotNil(t, cmd)
}

func TestStaleNoticeFadeIsIgnored(t *testing.T) {
	m := newTestModel(t, okSummarizer())
	m, _ = update(t, m, ExportedMsg{Path: "a.txt"})
	m, _ = update(t, m, ExportedMsg{Path: "b.txt"})

	m, _ = update(t, m, noticeFadeMsg{seq: m.noticeSeq - 1})
	assert.Equal(t, "Saved b.txt", m.notice)
}

// TestSpinnerAnimation tests spinner tick updates
func TestSpinnerAnimation(t *testing.T) {
	spinner := NewSpinner()
	initialFrame := spinner.View()

	spinner.Next()
	assert.NotEqual(t, initialFrame, spinner.View())

	// 8 frames in a full rotation
	for i := 0; i < 7; i++ {
		spinner.Next()
	}
	assert.Equal(t, initialFrame, spinner.View())

	spinner.Next()
	spinner.Reset()
	assert.Equal(t, initialFrame, spinner.View())
}

func TestLoadingIndicator(t *testing.T) {
	indicator := NewLoadingIndicator("Summarizing...")
	view := indicator.View()
	assert.Contains(t, view, "Summarizing...")

	indicator.Tick()
	assert.NotEqual(t, view, indicator.View())

	indicator.Reset()
	assert.Equal(t, view, indicator.View())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text...", preview("short   text"))
	assert.Equal(t, strings.Repeat("a", 60)+"...", preview(strings.Repeat("a", 100)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello world", 6))
}

// BenchmarkSpinnerAnimation benchmarks spinner performance
func BenchmarkSpinnerAnimation(b *testing.B) {
	spinner := NewSpinner()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		spinner.Next()
		_ = spinner.View()
	}
}
