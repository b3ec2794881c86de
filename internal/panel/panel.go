// Package panel holds the summarizer panel state and its transitions.
//
// State is a plain value. Every transition is a method with a value receiver
// that returns the next State, so callers (the TUI, the CLI, tests) decide
// when a request is actually sent.
package panel

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/strrl/text-summarizer/internal/api"
	"github.com/strrl/text-summarizer/pkg/models"
)

// MinInputLength is the minimum trimmed input length, in characters, for a submit
const MinInputLength = 50

// apiKeyMarker triggers the backend configuration hint in the error panel
const apiKeyMarker = "WRITER_API_KEY"

const genericFailure = "Failed to generate summary"

// ErrInputTooShort is returned by Validate when the input cannot be submitted
var ErrInputTooShort = errors.New("text must be at least 50 characters long")

// LoadingState is the panel status derived from its fields
type LoadingState int

const (
	StateIdle LoadingState = iota
	StateLoading
	StateError
	StateSuccess
)

func (s LoadingState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateSuccess:
		return "success"
	default:
		return "idle"
	}
}

// pending captures what was submitted so the result is recorded against it
type pending struct {
	text  string
	style models.Style

	// stale is set when Clear runs before the outstanding request answers
	stale bool
}

// State is the whole session state of the panel
type State struct {
	Input      string
	InFlight   bool
	History    []models.Summary // most recent first
	SelectedID string
	Style      models.Style
	Err        *string

	pending pending
}

// New returns the initial panel state
func New() State {
	return State{Style: models.StyleConcise}
}

// Status derives the current state machine position
func (s State) Status() LoadingState {
	switch {
	case s.InFlight:
		return StateLoading
	case s.Err != nil:
		return StateError
	case s.SelectedID != "":
		return StateSuccess
	default:
		return StateIdle
	}
}

// ErrorMessage returns the last error or an empty string
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return *s.Err
}

// Selected returns the selected summary, or nil when nothing is selected
func (s State) Selected() *models.Summary {
	if i := s.SelectedIndex(); i >= 0 {
		return &s.History[i]
	}
	return nil
}

// SelectedIndex returns the position of the selection in History, or -1
func (s State) SelectedIndex() int {
	if s.SelectedID == "" {
		return -1
	}
	for i := range s.History {
		if s.History[i].ID == s.SelectedID {
			return i
		}
	}
	return -1
}

// TrimmedLength is the input length in characters after trimming whitespace
func (s State) TrimmedLength() int {
	return utf8.RuneCountInString(strings.TrimSpace(s.Input))
}

// WordCount is the live word count of the input
func (s State) WordCount() int {
	return CountWords(s.Input)
}

// Validate reports whether the input text passes the submission gate
func (s State) Validate() error {
	if s.TrimmedLength() < MinInputLength {
		return ErrInputTooShort
	}
	return nil
}

// CanSubmit reports whether the submit action is available
func (s State) CanSubmit() bool {
	return !s.InFlight && s.Validate() == nil
}

// CanRetry reports whether the "try again" action is available
func (s State) CanRetry() bool {
	return s.Err != nil && !s.InFlight && strings.TrimSpace(s.Input) != ""
}

// ValidationHint is the inline guidance shown for short, non-empty input
func (s State) ValidationHint() string {
	n := s.TrimmedLength()
	if n == 0 || n >= MinInputLength {
		return ""
	}
	return fmt.Sprintf("Text must be at least %d characters long (%d/%d)", MinInputLength, n, MinInputLength)
}

// ShowAPIKeyHint reports whether the error mentions the backend API key
func (s State) ShowAPIKeyHint() bool {
	return s.Err != nil && strings.Contains(*s.Err, apiKeyMarker)
}

// SetInput replaces the input text. The input is locked while a request is in flight.
func (s State) SetInput(text string) State {
	if s.InFlight {
		return s
	}
	s.Input = text
	return s
}

// SetStyle changes the style used for the next request
func (s State) SetStyle(style models.Style) State {
	if s.InFlight {
		return s
	}
	s.Style = style
	return s
}

// Submit moves Idle to Loading. When the gate fails the state is returned
// unchanged with ok=false and no request must be sent.
func (s State) Submit() (next State, req api.Request, ok bool) {
	if !s.CanSubmit() {
		return s, api.Request{}, false
	}
	s.InFlight = true
	s.Err = nil
	s.pending = pending{text: s.Input, style: s.Style}
	return s, api.Request{
		Text:      s.Input,
		Style:     s.Style,
		MaxLength: api.MaxLength,
	}, true
}

// Retry replays the current input text after a failure
func (s State) Retry() (next State, req api.Request, ok bool) {
	if !s.CanRetry() {
		return s, api.Request{}, false
	}
	return s.Submit()
}

// Succeed records a successful response: the new summary is prepended to
// History and becomes the selection.
func (s State) Succeed(resp api.Response, id string, now time.Time) State {
	if !s.InFlight {
		return s
	}
	if s.pending.stale {
		return s.settleStale()
	}
	summary := models.Summary{
		ID:           id,
		OriginalText: s.pending.text,
		Text:         resp.Summary,
		CreatedAt:    now,
		WordCount: models.WordCount{
			Original: resp.OriginalWordCount,
			Summary:  resp.SummaryWordCount,
		},
		CompressionRatio: resp.CompressionRatio,
		Style:            s.pending.style,
	}

	history := make([]models.Summary, 0, len(s.History)+1)
	history = append(history, summary)
	history = append(history, s.History...)

	s.History = history
	s.SelectedID = id
	s.Err = nil
	s.InFlight = false
	s.pending = pending{}
	return s
}

// Fail records a failed request. History and selection are left untouched.
func (s State) Fail(err error) State {
	if !s.InFlight {
		return s
	}
	if s.pending.stale {
		return s.settleStale()
	}
	msg := genericFailure
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	s.Err = &msg
	s.InFlight = false
	s.pending = pending{}
	return s
}

// Clear resets input, history, selection and error together from any state.
// A request still in flight stays outstanding, but its result is dropped.
func (s State) Clear() State {
	s.Input = ""
	s.History = nil
	s.SelectedID = ""
	s.Err = nil
	if s.InFlight {
		s.pending.stale = true
	}
	return s
}

// settleStale ends a request whose result was cleared away
func (s State) settleStale() State {
	s.InFlight = false
	s.pending = pending{}
	return s
}

// Select makes the history entry with the given id the selection.
// Unknown ids leave the state unchanged.
func (s State) Select(id string) State {
	for i := range s.History {
		if s.History[i].ID == id {
			s.SelectedID = id
			return s
		}
	}
	return s
}

// SelectNext moves the selection one entry towards older summaries
func (s State) SelectNext() State {
	if len(s.History) == 0 {
		return s
	}
	i := s.SelectedIndex()
	if i < len(s.History)-1 {
		i++
	}
	return s.Select(s.History[i].ID)
}

// SelectPrev moves the selection one entry towards newer summaries
func (s State) SelectPrev() State {
	if len(s.History) == 0 {
		return s
	}
	i := s.SelectedIndex()
	if i > 0 {
		i--
	} else {
		i = 0
	}
	return s.Select(s.History[i].ID)
}
