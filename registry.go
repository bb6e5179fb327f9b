package iconpane

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"
)

// ColorModel classifies how the icons of a library carry color.
type ColorModel string

// The supported color models. An empty model is resolved through the
// classification table when the library gets registered.
const (
	MultiColor  ColorModel = "multiColor"
	StrokeBased ColorModel = "strokeBased"
	FillBased   ColorModel = "fillBased"
)

// ParseColorModel converts a configuration value into a ColorModel.
func ParseColorModel(s string) (ColorModel, error) {
	switch ColorModel(s) {
	case MultiColor, StrokeBased, FillBased:
		return ColorModel(s), nil
	case "":
		return FillBased, nil
	}
	return "", fmt.Errorf("unsupported color model %q", s)
}

// colorModels is the manual classification of known libraries.
// Libraries missing from the table are fill based.
var colorModels = map[string]ColorModel{
	"flags":        MultiColor,
	"flagpack":     MultiColor,
	"circle-flags": MultiColor,
	"logos":        MultiColor,
	"payment":      MultiColor,
	"devicon":      MultiColor,
	"skill-icons":  MultiColor,
	"twemoji":      MultiColor,
	"noto-emoji":   MultiColor,
	"fluent-emoji": MultiColor,

	"feather":   StrokeBased,
	"lucide":    StrokeBased,
	"tabler":    StrokeBased,
	"heroicons": StrokeBased,
	"hero":      StrokeBased,
	"iconoir":   StrokeBased,
}

// Classify returns the color model of a library id according to the built-in table.
func Classify(id string) ColorModel {
	if m, ok := colorModels[id]; ok {
		return m
	}
	return FillBased
}

// ContentSource tells the resolver where the vector content of a library lives.
// It is one of LocalSource, CDNSource or EmbeddedSource.
type ContentSource interface {
	sourceKind() string
}

// LocalSource reads icons from a bundled asset tree.
// PathTemplate may reference {style}, {category} and {name}.
type LocalSource struct {
	Root         fs.FS
	PathTemplate string
}

// CDNSource fetches icons over HTTP. URLTemplate must contain exactly one {name} token;
// StyleTemplates optionally overrides it per style.
type CDNSource struct {
	URLTemplate    string
	StyleTemplates map[string]string
}

// EmbeddedSource serves icons shipped inside the manifest or a compressed package.
// Icons is keyed by name, and by "category/name" where a category exists.
type EmbeddedSource struct {
	Icons      map[string]Payload
	Attributes map[string]string
	Package    *Package
}

// Package is a compressed icon set, as extracted from a bundled script asset.
type Package struct {
	Data   string
	Scheme Scheme
}

func (LocalSource) sourceKind() string    { return "local" }
func (CDNSource) sourceKind() string      { return "cdn" }
func (EmbeddedSource) sourceKind() string { return "embedded" }

// StyleOption is a visual variant offered by a library.
type StyleOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LibraryDescriptor describes one registered icon library.
type LibraryDescriptor struct {
	ID           string
	Name         string
	Description  string
	Website      string
	License      string
	Version      string
	TotalIcons   int
	ColorModel   ColorModel
	Styles       []StyleOption
	DefaultStyle string
	Source       ContentSource
}

// IsLocal reports whether the library is served from the local bundle.
func (d LibraryDescriptor) IsLocal() bool {
	_, ok := d.Source.(LocalSource)
	return ok
}

// StyleOrDefault returns style, or the library default when style is empty.
func (d LibraryDescriptor) StyleOrDefault(style string) string {
	if style == "" {
		return d.DefaultStyle
	}
	return style
}

// Registry owns the library descriptors of a session.
type Registry struct {
	mu        sync.RWMutex
	libraries map[string]LibraryDescriptor
	models    map[string]ColorModel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		libraries: make(map[string]LibraryDescriptor),
		models:    make(map[string]ColorModel),
	}
}

// Classify records a manual color model for a library id. It takes precedence
// over the built-in table for libraries registered afterwards.
func (r *Registry) Classify(id string, model ColorModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[id] = model
}

// Register adds a library. Registering the same id twice is an error.
func (r *Registry) Register(d LibraryDescriptor) error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("library id is required")
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	if d.TotalIcons < 0 {
		return fmt.Errorf("library %s: negative icon count", d.ID)
	}
	if err := validateSource(d.Source); err != nil {
		return fmt.Errorf("library %s: %w", d.ID, err)
	}
	if d.DefaultStyle == "" && len(d.Styles) > 0 {
		d.DefaultStyle = d.Styles[0].ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.libraries[d.ID]; exists {
		return fmt.Errorf("library %s is already registered", d.ID)
	}
	if d.ColorModel == "" {
		if m, ok := r.models[d.ID]; ok {
			d.ColorModel = m
		} else {
			d.ColorModel = Classify(d.ID)
		}
	}
	r.libraries[d.ID] = d
	return nil
}

// Get returns the descriptor registered under id.
func (r *Registry) Get(id string) (LibraryDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.libraries[id]
	if !ok {
		return LibraryDescriptor{}, unknownLibrary(id)
	}
	return d, nil
}

// List returns all descriptors sorted by display name.
func (r *Registry) List() []LibraryDescriptor {
	r.mu.RLock()
	out := make([]LibraryDescriptor, 0, len(r.libraries))
	for _, d := range r.libraries {
		out = append(out, d)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b LibraryDescriptor) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// IDs returns the registered library ids in List order.
func (r *Registry) IDs() []string {
	libs := r.List()
	ids := make([]string, len(libs))
	for i, d := range libs {
		ids[i] = d.ID
	}
	return ids
}

func validateSource(src ContentSource) error {
	switch s := src.(type) {
	case LocalSource:
		if s.Root == nil {
			return errors.New("local source without asset root")
		}
		if s.PathTemplate == "" || !strings.Contains(s.PathTemplate, nameToken) {
			return fmt.Errorf("local path template %q lacks %s", s.PathTemplate, nameToken)
		}
	case CDNSource:
		if err := validateTemplate(s.URLTemplate); err != nil {
			return err
		}
		for style, tmpl := range s.StyleTemplates {
			if err := validateTemplate(tmpl); err != nil {
				return fmt.Errorf("style %s: %w", style, err)
			}
		}
	case EmbeddedSource:
		if len(s.Icons) == 0 && s.Package == nil {
			return errors.New("embedded source without icons")
		}
	case nil:
		return errors.New("missing content source")
	default:
		return fmt.Errorf("unsupported content source %T", src)
	}
	return nil
}

const (
	nameToken     = "{name}"
	styleToken    = "{style}"
	categoryToken = "{category}"
)

// validateTemplate enforces the single {name} placeholder of a CDN URL template.
func validateTemplate(tmpl string) error {
	if n := strings.Count(tmpl, nameToken); n != 1 {
		return fmt.Errorf("template %q must contain exactly one %s placeholder, found %d", tmpl, nameToken, n)
	}
	return nil
}

// expandTemplate substitutes the placeholders. No escaping is applied:
// icon names are expected to be URL safe already.
func expandTemplate(tmpl, name, style, category string) string {
	return strings.NewReplacer(
		nameToken, name,
		styleToken, style,
		categoryToken, category,
	).Replace(tmpl)
}

// DescriptorFromManifest derives a descriptor for a manifest-backed library.
// Manifests with a CDN pattern resolve over HTTP; the others must embed their
// vector content. Icons without embedded content are dropped from the returned
// manifest copy so that nothing unrenderable is presented.
func DescriptorFromManifest(m *ManifestDocument) (LibraryDescriptor, *ManifestDocument, error) {
	if err := m.Validate(); err != nil {
		return LibraryDescriptor{}, nil, err
	}
	d := LibraryDescriptor{
		ID:         m.ID,
		Name:       m.Name,
		Version:    m.Version,
		TotalIcons: m.TotalIcons,
	}

	if m.CDNPattern != "" {
		d.Source = CDNSource{URLTemplate: m.CDNPattern}
		if d.TotalIcons == 0 {
			d.TotalIcons = len(m.Icons)
		}
		return d, m, nil
	}

	renderable := *m
	renderable.Icons = make([]ManifestIcon, 0, len(m.Icons))
	icons := make(map[string]Payload, len(m.Icons))
	for _, icon := range m.Icons {
		if icon.SVG.IsZero() {
			continue
		}
		renderable.Icons = append(renderable.Icons, icon)
		if icon.Category != "" {
			icons[icon.Category+"/"+icon.Name] = *icon.SVG
		}
		if _, taken := icons[icon.Name]; !taken {
			icons[icon.Name] = *icon.SVG
		}
	}
	if len(icons) == 0 {
		return LibraryDescriptor{}, nil, fmt.Errorf("%w: %s: no cdn pattern and no embedded icons", ErrInvalidManifest, m.ID)
	}
	renderable.TotalIcons = len(renderable.Icons)
	d.TotalIcons = renderable.TotalIcons
	d.Source = EmbeddedSource{Icons: icons, Attributes: m.Attributes}
	return d, &renderable, nil
}
