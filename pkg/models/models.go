package models

import (
	"fmt"
	"strings"
	"time"
)

// Style is the requested summarization mode
type Style string

const (
	StyleConcise      Style = "concise"
	StyleDetailed     Style = "detailed"
	StyleBulletPoints Style = "bullet_points"
)

// Styles lists every style in selector order
var Styles = []Style{StyleConcise, StyleDetailed, StyleBulletPoints}

// ParseStyle converts a wire name into a Style
func ParseStyle(s string) (Style, error) {
	for _, style := range Styles {
		if string(style) == s {
			return style, nil
		}
	}
	return "", fmt.Errorf("unknown summary style %q (want concise, detailed or bullet_points)", s)
}

// Label returns the human readable name, e.g. "Bullet Points"
func (s Style) Label() string {
	words := strings.Fields(strings.ReplaceAll(string(s), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Next returns the style following s in selector order, wrapping around
func (s Style) Next() Style {
	for i, style := range Styles {
		if style == s {
			return Styles[(i+1)%len(Styles)]
		}
	}
	return StyleConcise
}

// WordCount holds the word counts reported by the summarization service
type WordCount struct {
	Original int
	Summary  int
}

// Summary is one completed summarization result
type Summary struct {
	ID               string
	OriginalText     string
	Text             string // Summary text returned by the service
	CreatedAt        time.Time
	WordCount        WordCount
	CompressionRatio float64
	Style            Style
}
