package progress

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Default palette
const (
	DefaultTextColor     = "#ffffff"
	DefaultBarColor      = "#2f80ed"
	DefaultBarBackground = "#3a3a3a"
	defaultBarWidth      = 30
)

// Style configures the terminal renderer. Colours are "#rrggbb"; empty
// values fall back to the defaults.
type Style struct {
	Title         string
	TextColor     string
	BarColor      string
	BarBackground string
	Width         int
}

// Terminal renders events as one line each: label, bar and percentage.
type Terminal struct {
	w      io.Writer
	title  string
	bar    progress.Model
	label  lipgloss.Style
	failed lipgloss.Style

	showedFailure bool
}

// NewTerminal creates a renderer writing to w.
func NewTerminal(w io.Writer, style Style) *Terminal {
	width := style.Width
	if width <= 0 {
		width = defaultBarWidth
	}

	bar := progress.New(
		progress.WithSolidFill(orDefault(style.BarColor, DefaultBarColor)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = orDefault(style.BarBackground, DefaultBarBackground)

	return &Terminal{
		w:      w,
		title:  style.Title,
		bar:    bar,
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color(orDefault(style.TextColor, DefaultTextColor))).Width(20),
		failed: lipgloss.NewStyle().Foreground(lipgloss.Color("#eb5757")).Bold(true),
	}
}

// Render formats one event.
func (t *Terminal) Render(ev Event) string {
	if ev.Status == Failed {
		msg := "failed"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		return t.failed.Render("Error: " + msg)
	}
	return fmt.Sprintf("%s %s %3.0f%%", t.label.Render(ev.Label), t.bar.ViewAs(ev.Fraction), ev.Fraction*100)
}

// Report implements Reporter by writing the rendered line synchronously.
func (t *Terminal) Report(ev Event) {
	fmt.Fprintln(t.w, t.Render(ev))
	if ev.Status == Failed {
		t.showedFailure = true
	}
}

// ShowedFailure reports whether a Failed event has been rendered. Read it
// only after Consume returns.
func (t *Terminal) ShowedFailure() bool {
	return t.showedFailure
}

// Consume renders events until the channel is closed. The title, when set,
// is printed first.
func (t *Terminal) Consume(events <-chan Event) {
	if t.title != "" {
		fmt.Fprintln(t.w, t.title)
	}
	for ev := range events {
		t.Report(ev)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
