package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"
	"github.com/strrl/text-summarizer/internal/api"
	"github.com/strrl/text-summarizer/internal/journal"
	"github.com/strrl/text-summarizer/internal/panel"
	"github.com/strrl/text-summarizer/pkg/models"
)

const previewLength = 60

// Summarizer sends a summarize request to the remote service
type Summarizer interface {
	Summarize(ctx context.Context, req api.Request) (*api.Response, error)
}

// Options configures the panel program
type Options struct {
	Client    Summarizer
	Journal   *journal.Journal // optional
	Logger    *slog.Logger
	ExportDir string

	// Clipboard receives OSC 52 sequences. Defaults to stderr.
	Clipboard io.Writer
}

type focusArea int

const (
	focusInput focusArea = iota
	focusHistory
)

type model struct {
	ctx       context.Context
	state     panel.State
	client    Summarizer
	journal   *journal.Journal
	logger    *slog.Logger
	exportDir string
	apiURL    string
	clipboard io.Writer
	now       func() time.Time
	newID     func() string

	input       textarea.Model
	summaryView viewport.Model
	loading     *LoadingIndicator
	keys        keyMap
	help        help.Model
	focus       focusArea
	stats       journal.Stats
	byStyle     []journal.StyleStats
	tickSeq     int
	notice      string
	noticeSeq   int
	ready       bool
	width       int
	height      int
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func initialModel(ctx context.Context, opts Options) model {
	input := textarea.New()
	input.Placeholder = "Paste or type your text here to generate a summary... (minimum 50 characters)"
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.MaxHeight = 0
	input.Focus()

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clipboard := opts.Clipboard
	if clipboard == nil {
		clipboard = os.Stderr
	}
	// shown in the empty-state tip
	var apiURL string
	if c, ok := opts.Client.(interface{ BaseURL() string }); ok {
		apiURL = c.BaseURL()
	}

	return model{
		ctx:         ctx,
		state:       panel.New(),
		client:      opts.Client,
		journal:     opts.Journal,
		logger:      logger,
		exportDir:   opts.ExportDir,
		apiURL:      apiURL,
		clipboard:   clipboard,
		now:         time.Now,
		newID:       newID,
		input:       input,
		summaryView: viewport.New(0, 0),
		loading:     NewLoadingIndicator("Summarizing..."),
		keys:        newKeyMap(),
		help:        help.New(),
		focus:       focusInput,
	}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.resize()
		return m, nil

	case SummarizeDoneMsg:
		return m.handleSummarizeDone(msg)

	case TickMsg:
		if !m.state.InFlight || msg.seq != m.tickSeq {
			return m, nil
		}
		m.loading.Tick()
		return m, tickCmd(msg.seq)

	case CopiedMsg:
		if msg.Error != nil {
			m.logger.Warn("copy to clipboard failed", slog.Any("error", msg.Error))
			return m, m.setNotice("Copy failed: " + msg.Error.Error())
		}
		return m, m.setNotice("Copied to clipboard")

	case ExportedMsg:
		if msg.Error != nil {
			m.logger.Error("export failed", slog.Any("error", msg.Error))
			return m, m.setNotice("Export failed: " + msg.Error.Error())
		}
		m.logger.Info("summary exported", slog.String("path", msg.Path))
		return m, m.setNotice("Saved " + msg.Path)

	case noticeFadeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Submit):
			next, req, ok := m.state.Submit()
			return m.startRequest(next, req, ok)

		case key.Matches(msg, m.keys.Retry):
			next, req, ok := m.state.Retry()
			return m.startRequest(next, req, ok)

		case key.Matches(msg, m.keys.Style):
			m.state = m.state.SetStyle(m.state.Style.Next())
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.state = m.state.Clear()
			m.input.Reset()
			m.resetJournal()
			m.focus = focusInput
			m.updateViewport()
			if m.state.InFlight {
				return m, nil
			}
			return m, m.input.Focus()

		case key.Matches(msg, m.keys.Copy):
			if sel := m.state.Selected(); sel != nil {
				return m, copyCmd(m.clipboard, sel.Text)
			}
			return m, nil

		case key.Matches(msg, m.keys.Export):
			if sel := m.state.Selected(); sel != nil {
				return m, exportCmd(m.exportDir, *sel)
			}
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil

		case key.Matches(msg, m.keys.Focus):
			return m.toggleFocus()
		}

		if m.focus == focusHistory {
			switch {
			case key.Matches(msg, m.keys.Up):
				m.state = m.state.SelectPrev()
				m.updateViewport()
				return m, nil
			case key.Matches(msg, m.keys.Down):
				m.state = m.state.SelectNext()
				m.updateViewport()
				return m, nil
			}
			var cmd tea.Cmd
			m.summaryView, cmd = m.summaryView.Update(msg)
			return m, cmd
		}
	}

	// The input is locked while a request is in flight
	if m.focus == focusInput && !m.state.InFlight {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.state = m.state.SetInput(m.input.Value())
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// startRequest applies a Submit or Retry result and launches the request
func (m model) startRequest(next panel.State, req api.Request, ok bool) (tea.Model, tea.Cmd) {
	if !ok {
		return m, nil
	}
	m.state = next
	m.input.Blur()
	m.loading.Reset()
	m.tickSeq++
	m.logger.Info("summarize request started",
		slog.String("style", string(req.Style)),
		slog.Int("words", panel.CountWords(req.Text)))
	return m, tea.Batch(summarizeCmd(m.ctx, m.client, req), tickCmd(m.tickSeq))
}

func (m model) handleSummarizeDone(msg SummarizeDoneMsg) (model, tea.Cmd) {
	switch {
	case msg.Error != nil:
		m.logger.Error("summarize request failed", slog.Any("error", msg.Error))
		m.state = m.state.Fail(msg.Error)
	case msg.Response == nil:
		m.state = m.state.Fail(api.ErrMalformedResponse)
	default:
		m.state = m.state.Succeed(*msg.Response, m.newID(), m.now())
		if sel := m.state.Selected(); sel != nil {
			m.logger.Info("summary created",
				slog.String("id", sel.ID),
				slog.String("style", string(sel.Style)),
				slog.Float64("compression_ratio", sel.CompressionRatio))
			m.recordSummary(*sel)
		}
	}

	m.updateViewport()
	if m.focus == focusInput {
		return m, m.input.Focus()
	}
	return m, nil
}

func (m model) toggleFocus() (tea.Model, tea.Cmd) {
	if m.focus == focusInput {
		m.focus = focusHistory
		m.input.Blur()
		return m, nil
	}
	m.focus = focusInput
	if m.state.InFlight {
		return m, nil
	}
	return m, m.input.Focus()
}

func (m *model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	return fadeNoticeCmd(m.noticeSeq)
}

// Journal failures are logged and never reach the panel state
func (m *model) recordSummary(s models.Summary) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Record(m.ctx, s); err != nil {
		m.logger.Warn("journal record failed", slog.Any("error", err))
		return
	}
	m.refreshStats()
}

func (m *model) resetJournal() {
	m.stats = journal.Stats{}
	m.byStyle = nil
	if m.journal == nil {
		return
	}
	if err := m.journal.Reset(m.ctx); err != nil {
		m.logger.Warn("journal reset failed", slog.Any("error", err))
	}
}

func (m *model) refreshStats() {
	stats, err := m.journal.Stats(m.ctx)
	if err != nil {
		m.logger.Warn("journal stats failed", slog.Any("error", err))
		return
	}
	m.stats = stats

	byStyle, err := m.journal.StatsByStyle(m.ctx)
	if err != nil {
		m.logger.Warn("journal style stats failed", slog.Any("error", err))
		return
	}
	m.byStyle = byStyle
}

func (m model) columnWidths() (int, int) {
	left := m.width/2 - 1
	right := m.width - left - 1
	return left, right
}

func (m *model) resize() {
	if !m.ready {
		return
	}
	left, right := m.columnWidths()

	inputHeight := m.height - 16
	if inputHeight < 3 {
		inputHeight = 3
	}
	m.input.SetWidth(left - 2)
	m.input.SetHeight(inputHeight)

	m.summaryView.Width = right - 2
	m.summaryView.Height = m.summaryHeight()
	m.updateViewport()
}

func (m model) summaryHeight() int {
	h := m.height / 3
	if h < 3 {
		h = 3
	}
	return h
}

func (m *model) updateViewport() {
	sel := m.state.Selected()
	if sel == nil {
		m.summaryView.SetContent("")
		return
	}
	width := m.summaryView.Width
	if width < 20 {
		width = 20
	}
	m.summaryView.SetContent(wordwrap.String(sel.Text, width))
	m.summaryView.GotoTop()
}

// View

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("63")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1)

	activeStyleButton = lipgloss.NewStyle().
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("33")).
				Padding(0, 1)

	inactiveStyleButton = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("237")).
				Padding(0, 1)

	metricStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Align(lipgloss.Center)
)

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	left, right := m.columnWidths()

	leftContent := lipgloss.NewStyle().Width(left).Render(m.renderInput(left))
	rightContent := lipgloss.NewStyle().Width(right).Render(m.renderOutput(right))

	divider := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")).
		Render(strings.TrimSuffix(strings.Repeat("│\n", lipgloss.Height(leftContent)), "\n"))

	body := lipgloss.JoinHorizontal(lipgloss.Top, leftContent, divider, rightContent)

	return fmt.Sprintf("%s\n%s\n%s", m.renderHeader(), body, m.renderFooter())
}

func (m model) renderHeader() string {
	title := titleStyle.Render("Text Summarizer")
	subtitle := dimStyle.Render(" Transform long texts into concise summaries")
	return title + subtitle
}

func (m model) renderInput(width int) string {
	var s strings.Builder

	count := fmt.Sprintf("%d words", m.state.WordCount())
	heading := sectionStyle.Render("Input Text")
	gap := width - lipgloss.Width(heading) - len(count)
	if gap < 1 {
		gap = 1
	}
	s.WriteString(heading + strings.Repeat(" ", gap) + dimStyle.Render(count) + "\n")
	s.WriteString(m.input.View() + "\n\n")

	s.WriteString(sectionStyle.Render("Summary Style") + "\n")
	buttons := make([]string, 0, len(models.Styles))
	for _, style := range models.Styles {
		b := inactiveStyleButton
		if style == m.state.Style {
			b = activeStyleButton
		}
		if m.state.InFlight {
			b = b.Faint(true)
		}
		buttons = append(buttons, b.Render(style.Label()))
	}
	s.WriteString(strings.Join(buttons, " ") + "\n\n")

	if m.state.Err != nil {
		s.WriteString(m.renderError(width) + "\n")
	}

	if m.state.InFlight {
		s.WriteString(m.loading.View())
	} else if m.state.CanSubmit() {
		s.WriteString(selectedStyle.Render("✦ Generate Summary") + dimStyle.Render("  ctrl+s"))
	} else {
		s.WriteString(dimStyle.Render("✦ Generate Summary"))
	}

	if hint := m.state.ValidationHint(); hint != "" {
		s.WriteString("\n" + hintStyle.Render(hint))
	}

	return s.String()
}

func (m model) renderError(width int) string {
	var s strings.Builder
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("160")).Render("Error generating summary") + "\n")
	s.WriteString(wordwrap.String(m.state.ErrorMessage(), width-4))
	if m.state.ShowAPIKeyHint() {
		s.WriteString("\n" + dimStyle.Render("Make sure the backend server is running with a valid Writer API key."))
	}
	retry := "ctrl+r: Try Again"
	if m.state.CanRetry() {
		s.WriteString("\n" + selectedStyle.Render(retry))
	} else {
		s.WriteString("\n" + dimStyle.Render(retry))
	}
	return errorStyle.Width(width - 2).Render(s.String())
}

func (m model) renderOutput(width int) string {
	var s strings.Builder

	if sel := m.state.Selected(); sel != nil {
		s.WriteString(sectionStyle.Render("Summary") + "  " + dimStyle.Render(sel.Style.Label()+" style") + "\n")
		s.WriteString(m.summaryView.View() + "\n")
		s.WriteString(renderMetrics(*sel, width) + "\n")
	} else {
		s.WriteString(sectionStyle.Render("No Summary Yet") + "\n\n")
		s.WriteString(wordwrap.String("Enter some text (at least 50 characters) and press ctrl+s to get started.", width-2) + "\n\n")
		tip := "Tip: Make sure the backend API is accessible"
		if m.apiURL != "" {
			tip += " at " + m.apiURL
		}
		s.WriteString(dimStyle.Render(wordwrap.String(tip, width-2)) + "\n")
	}

	if len(m.state.History) > 0 {
		s.WriteString("\n" + m.renderHistory(width))
	}

	return s.String()
}

func renderMetrics(sel models.Summary, width int) string {
	boxWidth := width/3 - 2
	if boxWidth < 10 {
		boxWidth = 10
	}
	box := metricStyle.Width(boxWidth)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box.Render(fmt.Sprintf("%d\nSummary Words", sel.WordCount.Summary)),
		box.Render(fmt.Sprintf("%d\nOriginal Words", sel.WordCount.Original)),
		box.Render(fmt.Sprintf("%g%%\nCompression", sel.CompressionRatio)),
	)
}

func (m model) renderHistory(width int) string {
	var s strings.Builder

	heading := "Recent Summaries"
	if m.focus == focusHistory {
		heading += dimStyle.Render("  ↑/↓ to browse")
	}
	s.WriteString(sectionStyle.Render(heading) + "\n")
	s.WriteString(strings.Repeat("─", max(width-2, 10)) + "\n")

	for _, entry := range m.state.History {
		cursor := "  "
		lineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
		if entry.ID == m.state.SelectedID {
			cursor = "> "
			lineStyle = selectedStyle
		}

		s.WriteString(lineStyle.Render(cursor+truncate(preview(entry.OriginalText), width-4)) + "\n")
		meta := fmt.Sprintf("  %d → %d words  %s  %s",
			entry.WordCount.Original,
			entry.WordCount.Summary,
			entry.Style.Label(),
			entry.CreatedAt.Local().Format("15:04:05"))
		s.WriteString(dimStyle.Render(meta) + "\n")
	}

	if m.stats.Count > 0 {
		s.WriteString(dimStyle.Render(fmt.Sprintf("%d summaries · %d → %d words · avg %.1f%% compression",
			m.stats.Count, m.stats.OriginalWords, m.stats.SummaryWords, m.stats.AverageCompression)))
	}
	if len(m.byStyle) > 1 {
		parts := make([]string, 0, len(m.byStyle))
		for _, st := range m.byStyle {
			parts = append(parts, fmt.Sprintf("%s %d (avg %.1f%%)", st.Style.Label(), st.Count, st.AverageCompression))
		}
		s.WriteString("\n" + dimStyle.Render(wordwrap.String(strings.Join(parts, " · "), width-2)))
	}

	return s.String()
}

func (m model) renderFooter() string {
	var s strings.Builder
	if m.notice != "" {
		s.WriteString(hintStyle.Render(m.notice) + "\n")
	}
	s.WriteString(m.help.View(m.keys))
	return s.String()
}

// preview is the history label: the first characters of the original text
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return string(runes) + "..."
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 3 || len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// Run displays the panel until the user quits
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(
		initialModel(ctx, opts),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
