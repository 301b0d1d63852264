// Package hook is the operating-system input capability: a system-wide source
// of key events and a way to type text into the focused application.
package hook

import (
	"context"
	"errors"
)

// ErrUnsupported is returned where no keyboard source exists for the platform.
var ErrUnsupported = errors.New("system keyboard hook is not supported on this platform")

// ErrNoKeyboard is returned when no keyboard device can be opened.
var ErrNoKeyboard = errors.New("no readable keyboard device found")

// Key classifies a key event.
type Key int

const (
	// KeyRune is a printable character, including space.
	KeyRune Key = iota
	KeyBackspace
	KeyEnter
	KeyTab
	KeyEscape
	// KeyNavigation moves the caret or is otherwise not text (arrows, home,
	// delete, function keys).
	KeyNavigation
	// KeyChord is any key pressed while ctrl, alt or meta is held.
	KeyChord
)

// String returns the string representation of the key.
func (k Key) String() string {
	switch k {
	case KeyRune:
		return "rune"
	case KeyBackspace:
		return "backspace"
	case KeyEnter:
		return "enter"
	case KeyTab:
		return "tab"
	case KeyEscape:
		return "escape"
	case KeyNavigation:
		return "navigation"
	case KeyChord:
		return "chord"
	default:
		return "unknown"
	}
}

// KeyEvent is a single key press (or auto-repeat).
type KeyEvent struct {
	Key Key

	// Rune is set for KeyRune, KeyEnter ('\n') and KeyTab ('\t').
	Rune rune
}

// RuneEvent returns the KeyEvent for typing r.
func RuneEvent(r rune) KeyEvent {
	switch r {
	case '\n', '\r':
		return KeyEvent{Key: KeyEnter, Rune: '\n'}
	case '\t':
		return KeyEvent{Key: KeyTab, Rune: '\t'}
	case '\b':
		return KeyEvent{Key: KeyBackspace}
	default:
		return KeyEvent{Key: KeyRune, Rune: r}
	}
}

// Injection replaces text just before the caret of the focused application.
type Injection struct {
	// Erase is the number of characters (grapheme clusters) to delete with
	// backspace before typing.
	Erase int

	// Text is typed after erasing.
	Text string
}

// Source delivers system-wide key events.
type Source interface {
	// Subscribe calls fn for every key event, from a single goroutine, until
	// ctx is done. It returns nil on cancellation.
	Subscribe(ctx context.Context, fn func(KeyEvent)) error
}

// Injector types into the focused application.
type Injector interface {
	Inject(ctx context.Context, inj Injection) error
}

// Hook combines a Source and an Injector.
type Hook interface {
	Source
	Injector
}

// System pairs a key source with an injector.
type System struct {
	Source
	Injector
}
