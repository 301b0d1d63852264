package hook

import (
	"context"
	"strings"
	"sync"

	"github.com/rivo/uniseg"
)

// Virtual is an in-memory focused text surface. Typing into it updates its
// text and delivers key events to the subscriber; injections edit the text
// the way a real application would receive them.
type Virtual struct {
	events  chan KeyEvent
	pending sync.WaitGroup

	mu         sync.Mutex
	text       string
	injections []Injection
	injectErr  error
}

// NewVirtual creates an empty surface.
func NewVirtual() *Virtual {
	return &Virtual{
		events: make(chan KeyEvent, 1024),
	}
}

// Subscribe implements Source.
func (v *Virtual) Subscribe(ctx context.Context, fn func(KeyEvent)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-v.events:
			fn(ev)
			v.pending.Done()
		}
	}
}

// Type types s one key at a time. '\b' is a backspace.
func (v *Virtual) Type(s string) {
	for _, r := range s {
		v.Press(RuneEvent(r))
	}
}

// Press applies ev to the text and delivers it.
func (v *Virtual) Press(ev KeyEvent) {
	v.mu.Lock()
	switch ev.Key {
	case KeyRune, KeyEnter, KeyTab:
		v.text += string(ev.Rune)
	case KeyBackspace:
		v.text = eraseGraphemes(v.text, 1)
	}
	v.mu.Unlock()

	v.pending.Add(1)
	v.events <- ev
}

// Settle blocks until a subscriber has handled every pressed key. It must
// not be called concurrently with Press, nor without a running Subscribe.
func (v *Virtual) Settle() {
	v.pending.Wait()
}

// Inject implements Injector.
func (v *Virtual) Inject(ctx context.Context, inj Injection) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.injectErr != nil {
		return v.injectErr
	}
	v.text = eraseGraphemes(v.text, inj.Erase) + inj.Text
	v.injections = append(v.injections, inj)
	return nil
}

// FailInjections makes every later Inject return err. A nil err restores
// normal behaviour.
func (v *Virtual) FailInjections(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.injectErr = err
}

// Text returns the surface content.
func (v *Virtual) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text
}

// Injections returns the injections applied so far.
func (v *Virtual) Injections() []Injection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Injection(nil), v.injections...)
}

// Reset clears the text and the injection record.
func (v *Virtual) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.text = ""
	v.injections = nil
}

func eraseGraphemes(s string, n int) string {
	if n <= 0 {
		return s
	}

	var clusters []string
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		clusters = append(clusters, cluster)
	}

	if n >= len(clusters) {
		return ""
	}
	return strings.Join(clusters[:len(clusters)-n], "")
}
