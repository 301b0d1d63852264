package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnchor(t *testing.T) {
	assert.Equal(t, 0, Anchor("", 0))
	assert.Equal(t, 2, Anchor("he", 2))
	assert.Equal(t, 1, Anchor("he", 1))
	assert.Equal(t, 2, Anchor("he", 10))
	assert.Equal(t, 0, Anchor("he", -1))
	assert.Equal(t, 4, Anchor("日本", 2))
	assert.Equal(t, 6, Anchor("café x", 6))
}

func TestGhost(t *testing.T) {
	var ghost Ghost
	assert.False(t, ghost.Visible())
	assert.Equal(t, "", ghost.Suffix())

	ghost.Show(Suggestion{Seq: 3, Suffix: "llo", Anchor: 2})
	assert.True(t, ghost.Visible())
	assert.Equal(t, "llo", ghost.Suffix())
	assert.Equal(t, 2, ghost.Anchor())
	assert.Equal(t, int64(3), ghost.Seq())

	suffix, ok := ghost.Accept()
	assert.True(t, ok)
	assert.Equal(t, "llo", suffix)
	assert.False(t, ghost.Visible())

	_, ok = ghost.Accept()
	assert.False(t, ok)

	ghost.Show(Suggestion{Seq: 4, Suffix: "lp"})
	ghost.OnEdit()
	assert.False(t, ghost.Visible())

	ghost.Show(Suggestion{Seq: 5, Suffix: ""})
	assert.False(t, ghost.Visible())
}
