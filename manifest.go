package iconpane

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IconReference addresses a single icon inside a library.
type IconReference struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
}

// ManifestIcon is an icon entry as found in a manifest file,
// optionally carrying its embedded vector payload.
type ManifestIcon struct {
	IconReference
	SVG *Payload `json:"svg,omitempty"`
}

// Payload is the embedded vector content of an icon. A manifest stores it either
// as a plain markup string or as a {content, viewBox} pair.
type Payload struct {
	Markup  string
	Content string
	ViewBox string
}

// IsZero reports whether the payload carries no content at all.
func (p *Payload) IsZero() bool {
	return p == nil || (p.Markup == "" && p.Content == "")
}

// UnmarshalJSON accepts both payload shapes.
func (p *Payload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.Markup)
	}
	var pair struct {
		Content string `json:"content"`
		ViewBox string `json:"viewBox"`
	}
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	p.Content, p.ViewBox = pair.Content, pair.ViewBox
	return nil
}

// MarshalJSON writes the payload back in the shape it was read in.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Markup != "" {
		return json.Marshal(p.Markup)
	}
	return json.Marshal(struct {
		Content string `json:"content"`
		ViewBox string `json:"viewBox,omitempty"`
	}{p.Content, p.ViewBox})
}

// ManifestDocument is the parsed form of a per-library manifest file.
type ManifestDocument struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	TotalIcons int               `json:"totalIcons"`
	CDNPattern string            `json:"cdnPattern,omitempty"`
	Icons      []ManifestIcon    `json:"icons"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// UnmarshalJSON decodes a manifest whose icons are either an ordered array or an
// object keyed by category. Category order is preserved as found in the document.
func (m *ManifestDocument) UnmarshalJSON(data []byte) error {
	type plain ManifestDocument
	var raw struct {
		plain
		Icons      json.RawMessage `json:"icons"`
		Attributes map[string]any  `json:"attributes,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ManifestDocument(raw.plain)

	icons, err := decodeIconList(raw.Icons)
	if err != nil {
		return err
	}
	m.Icons = icons

	if len(raw.Attributes) > 0 {
		m.Attributes = make(map[string]string, len(raw.Attributes))
		for k, v := range raw.Attributes {
			m.Attributes[k] = fmt.Sprint(v)
		}
	}
	return nil
}

// manifestEntry mirrors ManifestIcon with the "keywords" alias some manifests use for tags.
type manifestEntry struct {
	ManifestIcon
	Keywords []string `json:"keywords,omitempty"`
}

func (e manifestEntry) icon(category string) ManifestIcon {
	icon := e.ManifestIcon
	if len(icon.Tags) == 0 && len(e.Keywords) > 0 {
		icon.Tags = e.Keywords
	}
	if icon.Category == "" {
		icon.Category = category
	}
	if icon.Title == "" {
		icon.Title = TitleFromName(icon.Name)
	}
	return icon
}

func decodeIconList(data json.RawMessage) ([]ManifestIcon, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	if data[0] == '[' {
		var entries []manifestEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("icons: %w", err)
		}
		icons := make([]ManifestIcon, 0, len(entries))
		for _, e := range entries {
			icons = append(icons, e.icon(""))
		}
		return icons, nil
	}

	// Category-keyed form. A token walk keeps the categories in document order.
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("icons: %w", err)
	}
	var icons []ManifestIcon
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("icons: %w", err)
		}
		category, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("icons: unexpected token %v", tok)
		}
		var entries []manifestEntry
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("icons[%s]: %w", category, err)
		}
		for _, e := range entries {
			icons = append(icons, e.icon(category))
		}
	}
	return icons, nil
}

// LoadManifest reads and validates a manifest document.
func LoadManifest(r io.Reader) (*ManifestDocument, error) {
	var m ManifestDocument
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.TotalIcons == 0 {
		m.TotalIcons = len(m.Icons)
	}
	return &m, nil
}

// Validate checks the structural invariants of the manifest.
func (m *ManifestDocument) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidManifest)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: %s: missing name", ErrInvalidManifest, m.ID)
	}
	if strings.TrimSpace(m.Version) == "" {
		return fmt.Errorf("%w: %s: missing version", ErrInvalidManifest, m.ID)
	}
	if m.TotalIcons < 0 {
		return fmt.Errorf("%w: %s: negative icon count", ErrInvalidManifest, m.ID)
	}
	if m.CDNPattern != "" {
		if err := validateTemplate(m.CDNPattern); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidManifest, m.ID, err)
		}
	}
	seen := make(map[string]struct{}, len(m.Icons))
	for i, icon := range m.Icons {
		if icon.Name == "" {
			return fmt.Errorf("%w: %s: icon #%d has no name", ErrInvalidManifest, m.ID, i)
		}
		key := icon.Category + "/" + icon.Name
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s: duplicate icon %q", ErrInvalidManifest, m.ID, icon.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// References returns the icon references of the manifest in document order.
func (m *ManifestDocument) References() []IconReference {
	refs := make([]IconReference, len(m.Icons))
	for i, icon := range m.Icons {
		refs[i] = icon.IconReference
	}
	return refs
}

// Lookup returns the manifest icon with the given name and category.
// An empty category matches the first icon with that name.
func (m *ManifestDocument) Lookup(name, category string) (ManifestIcon, bool) {
	for _, icon := range m.Icons {
		if icon.Name == name && (category == "" || icon.Category == category) {
			return icon, true
		}
	}
	return ManifestIcon{}, false
}

// Categories lists the distinct icon categories in first-seen order.
func (m *ManifestDocument) Categories() []string {
	var out []string
	for _, icon := range m.Icons {
		if icon.Category != "" && !slices.Contains(out, icon.Category) {
			out = append(out, icon.Category)
		}
	}
	return out
}

// IndexEntry is one row of the library index file.
type IndexEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TotalIcons int    `json:"totalIcons"`
	Version    string `json:"version,omitempty"`
}

// LoadIndex reads the library index and returns it sorted by display name.
func LoadIndex(r io.Reader) ([]IndexEntry, error) {
	var entries []IndexEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: index: %v", ErrInvalidManifest, err)
	}
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: index entry #%d has no id", ErrInvalidManifest, i)
		}
		if e.TotalIcons < 0 {
			return nil, fmt.Errorf("%w: index entry %s has a negative icon count", ErrInvalidManifest, e.ID)
		}
	}
	sortIndex(entries)
	return entries, nil
}

// BuildIndex derives the library index from loaded manifests.
// Libraries without icons are left out.
func BuildIndex(manifests []*ManifestDocument) []IndexEntry {
	entries := make([]IndexEntry, 0, len(manifests))
	for _, m := range manifests {
		total := m.TotalIcons
		if total == 0 {
			total = len(m.Icons)
		}
		if total == 0 {
			continue
		}
		entries = append(entries, IndexEntry{ID: m.ID, Name: m.Name, TotalIcons: total, Version: m.Version})
	}
	sortIndex(entries)
	return entries
}

func sortIndex(entries []IndexEntry) {
	slices.SortStableFunc(entries, func(a, b IndexEntry) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

// TitleFromName turns an icon slug into a display title: "alarm-clock" becomes "Alarm Clock".
func TitleFromName(name string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	// Casers carry state and are not shared between goroutines.
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// FormatCategory returns the display label of a category key.
func FormatCategory(name string) string {
	switch name {
	case "", "all":
		return "All Icons"
	case "ppe":
		return "PPE"
	}
	r, n := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[n:]
}
