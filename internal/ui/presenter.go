package ui

import (
	"sync"

	"github.com/atinylittleshell/texpand/internal/suggest"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ShowSuggestionMsg asks the model to display a suggestion.
type ShowSuggestionMsg struct {
	Suggestion suggest.Suggestion
}

// HideSuggestionMsg asks the model to clear the suggestion.
type HideSuggestionMsg struct{}

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Presenter implements suggest.Presenter for the Bubble Tea program. Show and
// Hide never block: messages are queued in order and delivered by a single
// goroutine once a Sender is attached.
type Presenter struct {
	queue  chan tea.Msg
	logger *zap.Logger

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// NewPresenter creates a Presenter. Messages queue up until Attach.
func NewPresenter(logger *zap.Logger) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{
		queue:  make(chan tea.Msg, 64),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Attach starts delivering queued messages to sender.
func (p *Presenter) Attach(sender Sender) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-p.done:
				return
			case msg := <-p.queue:
				sender.Send(msg)
			}
		}
	}()
}

// Show implements suggest.Presenter.
func (p *Presenter) Show(s suggest.Suggestion) {
	p.enqueue(ShowSuggestionMsg{Suggestion: s})
}

// Hide implements suggest.Presenter.
func (p *Presenter) Hide() {
	p.enqueue(HideSuggestionMsg{})
}

// Close stops delivery. Call it after the program has exited.
func (p *Presenter) Close() {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *Presenter) enqueue(msg tea.Msg) {
	select {
	case p.queue <- msg:
	default:
		p.logger.Debug("suggestion queue full, dropping message")
	}
}
