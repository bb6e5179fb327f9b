package iconpane

import (
	"context"
	"fmt"
	"sync"
)

// Token identifies one selection made in a session.
type Token uint64

// Selection is the icon a session currently points at.
type Selection struct {
	LibraryID string
	Style     string
	Category  string
	Icon      IconReference
}

// Session holds the browsing state of one panel: the active library, style,
// category and query, plus the current selection. Long running work started for
// a selection is checked against it before its result is applied.
type Session struct {
	processor *Processor
	inserter  Inserter
	placement Placement

	mu        sync.Mutex
	library   string
	style     string
	category  string
	query     string
	selection Selection
	token     Token
}

// NewSession creates a session rendering through p and inserting through ins.
func NewSession(p *Processor, ins Inserter, place Placement) *Session {
	return &Session{processor: p, inserter: ins, placement: place}
}

// SetLibrary switches the active library. An empty style selects the library default.
// The category filter is reset.
func (s *Session) SetLibrary(id, style string) error {
	d, err := s.processor.Registry().Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.library = d.ID
	s.style = d.StyleOrDefault(style)
	s.category = ""
	return nil
}

// SetStyle switches the style of the active library.
func (s *Session) SetStyle(style string) {
	s.mu.Lock()
	s.style = style
	s.mu.Unlock()
}

// SetCategory sets the category filter; "" and "all" clear it.
func (s *Session) SetCategory(category string) {
	if category == "all" {
		category = ""
	}
	s.mu.Lock()
	s.category = category
	s.mu.Unlock()
}

// SetQuery records the search query of the panel.
func (s *Session) SetQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

// State returns the active library, style, category and query.
func (s *Session) State() (library, style, category, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.library, s.style, s.category, s.query
}

// Select makes ref of the active library the current selection. A cross-library
// match selects in its own library.
func (s *Session) Select(libraryID string, ref IconReference) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	style := s.style
	if libraryID == "" {
		libraryID = s.library
	} else if libraryID != s.library {
		style = ""
	}
	s.token++
	s.selection = Selection{LibraryID: libraryID, Style: style, Category: ref.Category, Icon: ref}
	return s.token
}

// IsCurrent reports whether t is still the active selection.
func (s *Session) IsCurrent(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t != 0 && t == s.token
}

// Current returns the active selection and its token.
func (s *Session) Current() (Selection, Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection, s.token
}

// Render renders the selection of t. The rendering is returned only while t is
// still current; a superseded selection yields ErrStaleSelection.
func (s *Session) Render(ctx context.Context, t Token, style RenderStyle) (*Rendering, error) {
	sel, current := s.Current()
	if t == 0 || t != current {
		return nil, ErrStaleSelection
	}
	r, err := s.processor.Process(ctx, Request{
		LibraryID: sel.LibraryID,
		Icon:      sel.Icon,
		Style:     sel.Style,
		Render:    style,
	})
	if err != nil {
		return nil, err
	}
	if !s.IsCurrent(t) {
		return nil, ErrStaleSelection
	}
	return r, nil
}

// Insert renders the selection of t and hands it to the host.
func (s *Session) Insert(ctx context.Context, t Token, style RenderStyle) (string, error) {
	if s.inserter == nil {
		return "", &InsertionError{Message: "no host document available"}
	}
	r, err := s.Render(ctx, t, style)
	if err != nil {
		return "", err
	}
	p := NewInsertPayload(r, s.placement)
	if err := s.inserter.Insert(ctx, p); err != nil {
		return "", fmt.Errorf("insert %s: %w", r.Icon.Reference.Name, err)
	}
	return p.Label, nil
}
