package hook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtual_TypeAndInject(t *testing.T) {
	v := NewVirtual()

	v.Type("brb ")
	assert.Equal(t, "brb ", v.Text())

	require.NoError(t, v.Inject(context.Background(), Injection{Erase: 4, Text: "be right back "}))
	assert.Equal(t, "be right back ", v.Text())
	assert.Len(t, v.Injections(), 1)

	v.Type("\b\b")
	assert.Equal(t, "be right bac", v.Text())
}

func TestVirtual_EraseCountsGraphemes(t *testing.T) {
	v := NewVirtual()
	v.Type("ok 👍🏽")

	require.NoError(t, v.Inject(context.Background(), Injection{Erase: 1}))
	assert.Equal(t, "ok ", v.Text())

	require.NoError(t, v.Inject(context.Background(), Injection{Erase: 10, Text: "x"}))
	assert.Equal(t, "x", v.Text())
}

func TestVirtual_FailInjections(t *testing.T) {
	v := NewVirtual()
	v.Type("brb")
	v.FailInjections(errors.New("no display"))

	assert.Error(t, v.Inject(context.Background(), Injection{Erase: 3, Text: "x"}))
	assert.Equal(t, "brb", v.Text())

	v.FailInjections(nil)
	assert.NoError(t, v.Inject(context.Background(), Injection{Erase: 3, Text: "x"}))
}

func TestVirtual_Subscribe(t *testing.T) {
	v := NewVirtual()
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan KeyEvent, 8)
	done := make(chan error, 1)
	go func() {
		done <- v.Subscribe(ctx, func(ev KeyEvent) { got <- ev })
	}()

	v.Type("a\n")
	assert.Equal(t, KeyEvent{Key: KeyRune, Rune: 'a'}, <-got)
	assert.Equal(t, KeyEvent{Key: KeyEnter, Rune: '\n'}, <-got)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Subscribe did not return")
	}
}

func TestVirtual_Settle(t *testing.T) {
	v := NewVirtual()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled []KeyEvent
	go v.Subscribe(ctx, func(ev KeyEvent) {
		time.Sleep(time.Millisecond)
		handled = append(handled, ev)
	})

	v.Type("hi ")
	v.Settle()
	assert.Len(t, handled, 3)
}
