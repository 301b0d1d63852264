package ui

import (
	"sync"
	"testing"
	"time"

	"github.com/atinylittleshell/texpand/internal/suggest"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// The genai client pulls in opencensus, which starts a stats worker at init.
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSender) Msgs() []tea.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tea.Msg(nil), s.msgs...)
}

func TestPresenter_DeliversInOrderAfterAttach(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	presenter := NewPresenter(nil)
	presenter.Hide()
	presenter.Show(suggest.Suggestion{Seq: 2, Suffix: "llo"})

	sender := &recordingSender{}
	presenter.Attach(sender)
	presenter.Hide()

	require.Eventually(t, func() bool {
		return len(sender.Msgs()) == 3
	}, time.Second, 5*time.Millisecond)
	presenter.Close()

	assert.Equal(t, []tea.Msg{
		HideSuggestionMsg{},
		ShowSuggestionMsg{Suggestion: suggest.Suggestion{Seq: 2, Suffix: "llo"}},
		HideSuggestionMsg{},
	}, sender.Msgs())
}

func TestPresenter_NeverBlocks(t *testing.T) {
	presenter := NewPresenter(nil)
	for range 1000 {
		presenter.Hide()
	}
	presenter.Close()
}
