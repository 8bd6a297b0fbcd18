// Package complete implements the input autocompletion engine: slash
// commands, $skills, and @file references.
package complete

import (
	"context"
	"strings"

	"github.com/mfern/kestrel/internal/domain"
)

// Kind says which trigger opened the session.
type Kind int

const (
	KindCommand Kind = iota // '/'
	KindSkill               // '$'
	KindFile                // '@'
)

const maxFileSuggestions = 10

// Suggestion is one selectable row. Insert is the literal text that
// replaces the trigger span on commit.
type Suggestion struct {
	Display string
	Insert  string
	Detail  string
}

// FileSearcher resolves @-queries against the working directory.
type FileSearcher interface {
	SearchFiles(ctx context.Context, workDir, query string, limit int) ([]string, error)
}

// Engine tracks at most one open autocompletion session for one input.
// The owner calls Update on every text or cursor change; offsets are byte
// positions into the input text.
type Engine struct {
	commands []Command
	skills   []domain.Skill
	searcher FileSearcher
	workDir  string

	active        bool
	kind          Kind
	query         string
	triggerOffset int
	suggestions   []Suggestion
	selected      int
}

func NewEngine(commands []Command, searcher FileSearcher) *Engine {
	return &Engine{commands: commands, searcher: searcher}
}

// SetSkills replaces the loaded skill list used by the $ source.
func (e *Engine) SetSkills(skills []domain.Skill) { e.skills = skills }

// SetWorkDir scopes the @ source.
func (e *Engine) SetWorkDir(dir string) { e.workDir = dir }

func (e *Engine) Active() bool              { return e.active }
func (e *Engine) Kind() Kind                { return e.kind }
func (e *Engine) Query() string             { return e.query }
func (e *Engine) TriggerOffset() int        { return e.triggerOffset }
func (e *Engine) Suggestions() []Suggestion { return e.suggestions }
func (e *Engine) SelectedIndex() int        { return e.selected }

// Update re-derives the session from the input. A session is open when
// the token under the cursor starts with a trigger character at offset 0
// or right after whitespace; whitespace in the token or the cursor moving
// before the trigger closes it.
func (e *Engine) Update(ctx context.Context, text string, cursor int) {
	offset, kind, ok := findTrigger(text, cursor)
	if !ok {
		e.Close()
		return
	}

	query := text[offset+1 : cursor]
	if e.active && e.kind == kind && e.triggerOffset == offset && e.query == query {
		return
	}

	e.active = true
	e.kind = kind
	e.triggerOffset = offset
	e.query = query
	e.selected = 0
	e.resolve(ctx)
}

// Close discards the session without committing.
func (e *Engine) Close() {
	e.active = false
	e.query = ""
	e.suggestions = nil
	e.selected = 0
}

// Next moves the selection down, wrapping at the end.
func (e *Engine) Next() {
	if len(e.suggestions) == 0 {
		return
	}
	e.selected = (e.selected + 1) % len(e.suggestions)
}

// Prev moves the selection up, wrapping at the start.
func (e *Engine) Prev() {
	if len(e.suggestions) == 0 {
		return
	}
	e.selected = (e.selected - 1 + len(e.suggestions)) % len(e.suggestions)
}

// Commit replaces the span from the trigger to the cursor with the
// selected suggestion plus a trailing space, returning the new text and
// cursor. ok is false when nothing is selectable.
func (e *Engine) Commit(text string, cursor int) (newText string, newCursor int, ok bool) {
	if !e.active || len(e.suggestions) == 0 {
		return text, cursor, false
	}
	s := e.suggestions[e.selected]
	inserted := s.Insert + " "
	newText = text[:e.triggerOffset] + inserted + text[cursor:]
	newCursor = e.triggerOffset + len(inserted)
	e.Close()
	return newText, newCursor, true
}

func (e *Engine) resolve(ctx context.Context) {
	switch e.kind {
	case KindCommand:
		e.suggestions = e.commandSuggestions()
	case KindSkill:
		e.suggestions = e.skillSuggestions()
	case KindFile:
		e.suggestions = e.fileSuggestions(ctx)
	}
	if e.selected >= len(e.suggestions) {
		e.selected = 0
	}
}

func (e *Engine) commandSuggestions() []Suggestion {
	out := make([]Suggestion, 0, len(e.commands))
	for _, c := range e.commands {
		if c.matches(e.query) {
			out = append(out, Suggestion{
				Display: "/" + c.Name,
				Insert:  "/" + c.Name,
				Detail:  c.Description,
			})
		}
	}
	return out
}

func (e *Engine) skillSuggestions() []Suggestion {
	var out []Suggestion
	for _, s := range e.skills {
		if contains(s.Name, e.query) {
			out = append(out, Suggestion{
				Display: "$" + s.Name,
				Insert:  "$" + s.Name,
				Detail:  s.Description,
			})
		}
	}
	return out
}

func (e *Engine) fileSuggestions(ctx context.Context) []Suggestion {
	if e.searcher == nil {
		return nil
	}
	paths, err := e.searcher.SearchFiles(ctx, e.workDir, e.query, maxFileSuggestions)
	if err != nil {
		return nil
	}
	if len(paths) > maxFileSuggestions {
		paths = paths[:maxFileSuggestions]
	}
	out := make([]Suggestion, 0, len(paths))
	for _, p := range paths {
		out = append(out, Suggestion{Display: p, Insert: "@" + p})
	}
	return out
}

// findTrigger scans back from the cursor to the start of the current
// whitespace-delimited token and reports a trigger when that token starts
// with one of the trigger characters.
func findTrigger(text string, cursor int) (offset int, kind Kind, ok bool) {
	if cursor < 1 || cursor > len(text) {
		return 0, 0, false
	}
	start := cursor - 1
	for start >= 0 && !isSpace(text[start]) {
		start--
	}
	start++
	if start >= cursor {
		return 0, 0, false
	}
	switch text[start] {
	case '/':
		kind = KindCommand
	case '$':
		kind = KindSkill
	case '@':
		kind = KindFile
	default:
		return 0, 0, false
	}
	return start, kind, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Anchor is the vertical placement of the suggestion panel.
type Anchor int

const (
	AnchorBelow Anchor = iota
	AnchorAbove
)

// Placement anchors the panel below the input unless there is not enough
// room below but enough above.
func Placement(spaceBelow, spaceAbove, panelHeight int) Anchor {
	if spaceBelow < panelHeight && spaceAbove >= panelHeight {
		return AnchorAbove
	}
	return AnchorBelow
}
