package suggest

import "github.com/rivo/uniseg"

// Suggestion is a continuation ready to be displayed next to the caret.
type Suggestion struct {
	// Seq is the request that produced this suggestion.
	Seq int64

	// Suffix is the text to display (and insert on accept).
	Suffix string

	// Anchor is the display column of the caret the suffix continues from.
	Anchor int
}

// Presenter displays suggestions for one input field. The controller calls
// it while holding its lock, so implementations must not block and must not
// call back into the controller.
type Presenter interface {
	Show(s Suggestion)
	Hide()
}

// Anchor returns the display column of caret within text. caret counts runes,
// as text inputs report cursor positions; wide characters count as two columns.
func Anchor(text string, caret int) int {
	runes := []rune(text)
	if caret < 0 {
		caret = 0
	}
	if caret > len(runes) {
		caret = len(runes)
	}
	return uniseg.StringWidth(string(runes[:caret]))
}

// Ghost holds the suggestion currently displayed in a field. It belongs to the
// UI goroutine and is not safe for concurrent use.
type Ghost struct {
	current *Suggestion
}

// Show replaces the displayed suggestion.
func (g *Ghost) Show(s Suggestion) {
	if s.Suffix == "" {
		g.current = nil
		return
	}
	g.current = &s
}

// Hide clears the displayed suggestion.
func (g *Ghost) Hide() {
	g.current = nil
}

// OnEdit clears the suggestion; it was computed against text that no longer
// exists.
func (g *Ghost) OnEdit() {
	g.current = nil
}

// Accept returns the displayed suffix and clears it.
func (g *Ghost) Accept() (string, bool) {
	if g.current == nil {
		return "", false
	}
	suffix := g.current.Suffix
	g.current = nil
	return suffix, true
}

// Visible reports whether a suggestion is displayed.
func (g Ghost) Visible() bool {
	return g.current != nil
}

// Suffix returns the displayed suffix, or "".
func (g Ghost) Suffix() string {
	if g.current == nil {
		return ""
	}
	return g.current.Suffix
}

// Anchor returns the caret column of the displayed suggestion.
func (g Ghost) Anchor() int {
	if g.current == nil {
		return 0
	}
	return g.current.Anchor
}

// Seq returns the request id of the displayed suggestion.
func (g Ghost) Seq() int64 {
	if g.current == nil {
		return 0
	}
	return g.current.Seq
}
