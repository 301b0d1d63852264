//go:build !linux

package hook

import (
	"context"
)

// Keyboard is unavailable on this platform; Subscribe always fails.
type Keyboard struct{}

// NewKeyboard returns ErrUnsupported.
func NewKeyboard(cfg KeyboardConfig) (*Keyboard, error) {
	return nil, ErrUnsupported
}

// Subscribe implements Source.
func (k *Keyboard) Subscribe(ctx context.Context, fn func(KeyEvent)) error {
	return ErrUnsupported
}
