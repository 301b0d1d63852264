// Package ui is the terminal shortcut manager: a form to add shortcuts with
// inline suggestions for the expansion, a live search box and a table of
// stored shortcuts.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinylittleshell/texpand/internal/shortcuts"
	"github.com/atinylittleshell/texpand/internal/suggest"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"go.uber.org/zap"
)

const (
	MsgFieldsRequired = "Both fields are required!"
	MsgDuplicate      = "This shortcut already exists!"
	MsgInvalidTrigger = "Shortcuts cannot contain spaces or punctuation!"
)

// Store is the part of the shortcut store the UI uses.
type Store interface {
	Add(trigger, expansion string, temporary bool) error
	Remove(trigger string) error
	List() ([]shortcuts.ShortcutEntry, error)
}

// Suggester is the suggestion controller of the expansion field.
type Suggester interface {
	OnTextChanged(text string, caret int)
	OnBlur()
	Dismiss()
	Accept() (string, bool)
	IsCurrent(seq int64) bool
}

// RefreshMsg asks the model to reload the table, e.g. after another process
// changed the store.
type RefreshMsg struct{}

type entriesMsg struct {
	entries []shortcuts.ShortcutEntry
	err     error
}

type addedMsg struct {
	trigger string
	err     error
}

type removedMsg struct {
	trigger string
	err     error
}

type focus int

const (
	focusShortcut focus = iota
	focusExpansion
	focusSearch
	focusTable
	focusCount
)

// Model is the Bubble Tea model of the shortcut manager.
type Model struct {
	store     Store
	suggester Suggester
	keymap    KeyMap
	styles    RenderConfig
	logger    *zap.Logger
	now       func() time.Time

	shortcut  textinput.Model
	expansion textinput.Model
	search    textinput.Model
	table     table.Model
	help      help.Model
	ghost     suggest.Ghost

	focus     focus
	temporary bool

	entries []shortcuts.ShortcutEntry
	visible []shortcuts.ShortcutEntry

	status      string
	statusError bool

	width int
}

// Config holds configuration for creating a new Model.
type Config struct {
	// Store persists shortcuts. Required.
	Store Store

	// Suggester drives suggestions for the expansion field. If nil, no
	// suggestions are shown.
	Suggester Suggester

	// KeyMap provides key bindings. If nil, DefaultKeyMap is used.
	KeyMap *KeyMap

	// RenderConfig provides styling. If nil, DefaultRenderConfig is used.
	RenderConfig *RenderConfig

	// Width is the initial terminal width.
	Width int

	// Now returns the current time for the "added" column. Defaults to time.Now.
	Now func() time.Time

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// New creates a new Model with the given configuration.
func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	keymap := DefaultKeyMap()
	if cfg.KeyMap != nil {
		keymap = *cfg.KeyMap
	}

	styles := DefaultRenderConfig()
	if cfg.RenderConfig != nil {
		styles = *cfg.RenderConfig
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	width := cfg.Width
	if width <= 0 {
		width = 80
	}

	shortcutInput := textinput.New()
	shortcutInput.Placeholder = "brb"
	shortcutInput.Prompt = ""
	shortcutInput.Focus()

	expansionInput := textinput.New()
	expansionInput.Placeholder = "be right back"
	expansionInput.Prompt = ""

	searchInput := textinput.New()
	searchInput.Placeholder = "filter shortcuts"
	searchInput.Prompt = ""

	m := Model{
		store:     cfg.Store,
		suggester: cfg.Suggester,
		keymap:    keymap,
		styles:    styles,
		logger:    logger,
		now:       now,
		shortcut:  shortcutInput,
		expansion: expansionInput,
		search:    searchInput,
		table: table.New(
			table.WithHeight(10),
		),
		help:  help.New(),
		focus: focusShortcut,
		width: width,
	}
	m.resize()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadEntries())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case entriesMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Failed to load shortcuts: %v", msg.err))
			return m, nil
		}
		m.entries = msg.entries
		m.applyFilter()
		return m, nil

	case addedMsg:
		return m.handleAdded(msg)

	case removedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Failed to remove %q: %v", msg.trigger, msg.err))
			return m, nil
		}
		m.setInfo(fmt.Sprintf("Removed %q", msg.trigger))
		return m, m.loadEntries()

	case RefreshMsg:
		return m, m.loadEntries()

	case ShowSuggestionMsg:
		if m.focus == focusExpansion && m.suggester != nil && m.suggester.IsCurrent(msg.Suggestion.Seq) {
			m.ghost.Show(msg.Suggestion)
		}
		return m, nil

	case HideSuggestionMsg:
		m.ghost.Hide()
		return m, nil
	}

	return m.updateFocused(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.TitleStyle.Render("texpand"))
	b.WriteString("\n\n")
	b.WriteString(m.renderField("Shortcut", focusShortcut, m.shortcut.View()))
	b.WriteString(m.renderField("Expansion", focusExpansion, m.expansionView()))

	checkbox := "[ ]"
	if m.temporary {
		checkbox = "[x]"
	}
	b.WriteString(checkbox + " Temporary\n")

	if m.status != "" {
		style := m.styles.InfoStyle
		if m.statusError {
			style = m.styles.ErrorStyle
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderField("Search", focusSearch, m.search.View()))
	b.WriteString(m.styles.TableStyle.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))

	return b.String()
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// Temporary reports whether the temporary toggle is on.
func (m Model) Temporary() bool {
	return m.temporary
}

// Visible returns the rows currently shown in the table.
func (m Model) Visible() []shortcuts.ShortcutEntry {
	return m.visible
}

// Ghost returns the suggestion displayed in the expansion field.
func (m Model) Ghost() suggest.Ghost {
	return m.ghost
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Dismiss):
		if m.ghost.Visible() {
			m.ghost.Hide()
			if m.suggester != nil {
				m.suggester.Dismiss()
			}
		} else {
			m.status = ""
		}
		return m, nil

	case key.Matches(msg, m.keymap.Accept):
		if m.focus == focusExpansion && m.ghost.Visible() {
			m.acceptSuggestion()
			return m, nil
		}
		cmd := m.setFocus((m.focus + 1) % focusCount)
		return m, cmd

	case key.Matches(msg, m.keymap.PrevField):
		cmd := m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, cmd

	case key.Matches(msg, m.keymap.ToggleTemporary):
		m.temporary = !m.temporary
		return m, nil

	case key.Matches(msg, m.keymap.Add) && (m.focus == focusShortcut || m.focus == focusExpansion):
		return m.submit()

	case key.Matches(msg, m.keymap.Remove) && m.focus == focusTable:
		return m.removeSelected()
	}

	return m.updateFocused(msg)
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.focus {
	case focusShortcut:
		m.shortcut, cmd = m.shortcut.Update(msg)

	case focusExpansion:
		value, pos := m.expansion.Value(), m.expansion.Position()
		m.expansion, cmd = m.expansion.Update(msg)
		if m.expansion.Value() != value || m.expansion.Position() != pos {
			m.onExpansionChanged()
		}

	case focusSearch:
		value := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != value {
			m.applyFilter()
		}

	case focusTable:
		m.table, cmd = m.table.Update(msg)
	}

	return m, cmd
}

// onExpansionChanged reports the text before the caret to the suggester; the
// suggestion always continues the word at the caret.
func (m *Model) onExpansionChanged() {
	m.ghost.OnEdit()
	if m.suggester == nil {
		return
	}

	runes := []rune(m.expansion.Value())
	pos := min(m.expansion.Position(), len(runes))
	m.suggester.OnTextChanged(string(runes[:pos]), pos)
}

func (m *Model) acceptSuggestion() {
	suffix, ok := m.ghost.Accept()
	if !ok {
		return
	}
	if m.suggester != nil {
		m.suggester.Accept()
	}

	runes := []rune(m.expansion.Value())
	pos := min(m.expansion.Position(), len(runes))
	m.expansion.SetValue(string(runes[:pos]) + suffix + string(runes[pos:]))
	m.expansion.SetCursor(pos + len([]rune(suffix)))
	m.onExpansionChanged()
}

func (m *Model) setFocus(f focus) tea.Cmd {
	if m.focus == focusExpansion && f != focusExpansion {
		m.ghost.Hide()
		if m.suggester != nil {
			m.suggester.OnBlur()
		}
	}

	m.focus = f
	m.shortcut.Blur()
	m.expansion.Blur()
	m.search.Blur()
	m.table.Blur()

	switch f {
	case focusShortcut:
		return m.shortcut.Focus()
	case focusExpansion:
		return m.expansion.Focus()
	case focusSearch:
		return m.search.Focus()
	case focusTable:
		m.table.Focus()
	}
	return nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	trigger := strings.TrimSpace(m.shortcut.Value())
	expansion := strings.TrimSpace(m.expansion.Value())
	if trigger == "" || expansion == "" {
		m.setError(MsgFieldsRequired)
		return m, nil
	}

	store, temporary := m.store, m.temporary
	return m, func() tea.Msg {
		return addedMsg{
			trigger: trigger,
			err:     store.Add(trigger, expansion, temporary),
		}
	}
}

func (m Model) handleAdded(msg addedMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, shortcuts.ErrDuplicateTrigger):
		m.setError(MsgDuplicate)
		return m, nil
	case errors.Is(msg.err, shortcuts.ErrEmptyField):
		m.setError(MsgFieldsRequired)
		return m, nil
	case errors.Is(msg.err, shortcuts.ErrInvalidTrigger):
		m.setError(MsgInvalidTrigger)
		return m, nil
	case msg.err != nil:
		m.logger.Warn("failed to add shortcut", zap.String("trigger", msg.trigger), zap.Error(msg.err))
		m.setError(fmt.Sprintf("Failed to save shortcut: %v", msg.err))
		return m, nil
	}

	m.shortcut.Reset()
	m.expansion.Reset()
	m.temporary = false
	m.ghost.Hide()
	if m.suggester != nil {
		m.suggester.Dismiss()
	}
	m.setInfo(fmt.Sprintf("Added %q", msg.trigger))

	cmd := m.setFocus(focusShortcut)
	return m, tea.Batch(cmd, m.loadEntries())
}

func (m Model) removeSelected() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return m, nil
	}

	trigger := m.visible[idx].Trigger
	store := m.store
	return m, func() tea.Msg {
		return removedMsg{
			trigger: trigger,
			err:     shortcuts.IgnoreNotFound(store.Remove(trigger)),
		}
	}
}

func (m Model) loadEntries() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		entries, err := store.List()
		return entriesMsg{entries: entries, err: err}
	}
}

func (m *Model) applyFilter() {
	m.visible = shortcuts.Filter(m.entries, m.search.Value())

	expansionWidth := m.expansionColumnWidth()
	now := m.now()
	rows := make([]table.Row, 0, len(m.visible))
	for _, entry := range m.visible {
		temporary := ""
		if entry.Temporary {
			temporary = "yes"
		}
		added := ""
		if entry.AddedAt.Valid {
			added = humanize.RelTime(entry.AddedAt.Time, now, "ago", "from now")
		}
		rows = append(rows, table.Row{
			entry.Trigger,
			truncate.StringWithTail(entry.Expansion, uint(expansionWidth), "…"),
			temporary,
			added,
		})
	}

	m.table.SetRows(rows)
	// SetCursor on an empty table leaves the cursor at -1.
	switch {
	case len(rows) == 0:
	case m.table.Cursor() < 0:
		m.table.SetCursor(0)
	case m.table.Cursor() >= len(rows):
		m.table.SetCursor(len(rows) - 1)
	}
}

const (
	shortcutColumnWidth  = 14
	temporaryColumnWidth = 9
	addedColumnWidth     = 16
)

func (m Model) expansionColumnWidth() int {
	// Borders and cell padding take roughly two columns per cell.
	return max(m.width-shortcutColumnWidth-temporaryColumnWidth-addedColumnWidth-12, 10)
}

func (m *Model) resize() {
	m.shortcut.Width = max(m.width-14, 10)
	m.expansion.Width = max(m.width-14, 10)
	m.search.Width = max(m.width-14, 10)
	m.help.Width = m.width

	m.table.SetColumns([]table.Column{
		{Title: "Shortcut", Width: shortcutColumnWidth},
		{Title: "Expansion", Width: m.expansionColumnWidth()},
		{Title: "Temporary", Width: temporaryColumnWidth},
		{Title: "Added", Width: addedColumnWidth},
	})
	m.applyFilter()
}

func (m Model) renderField(label string, f focus, view string) string {
	style := m.styles.LabelStyle
	if m.focus == f {
		style = m.styles.FocusedLabelStyle
	}
	return style.Render(label) + view + "\n"
}

// expansionView draws the suggestion after the caret. It falls back to the
// plain input view when the caret no longer sits where the suggestion was
// computed.
func (m Model) expansionView() string {
	if m.focus != focusExpansion || !m.ghost.Visible() {
		return m.expansion.View()
	}

	value := m.expansion.Value()
	runes := []rune(value)
	pos := min(m.expansion.Position(), len(runes))
	if suggest.Anchor(value, pos) != m.ghost.Anchor() {
		return m.expansion.View()
	}

	suffix := []rune(m.ghost.Suffix())
	return m.expansion.Prompt +
		string(runes[:pos]) +
		m.styles.CursorStyle.Render(string(suffix[0])) +
		m.styles.GhostStyle.Render(string(suffix[1:])) +
		string(runes[pos:])
}

func (m *Model) setError(status string) {
	m.status = status
	m.statusError = true
}

func (m *Model) setInfo(status string) {
	m.status = status
	m.statusError = false
}
