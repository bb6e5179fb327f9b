package iconpane

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/openslides/iconpane/cache"
	"github.com/openslides/iconpane/utils"
)

// ResolvedIcon is the raw vector markup of one icon.
type ResolvedIcon struct {
	Reference IconReference
	Markup    string
	LibraryID string
	Style     string
}

// ResolverOptions configures a Resolver. The zero value is usable.
type ResolverOptions struct {
	// Client performs CDN requests. Defaults to http.DefaultClient.
	Client *http.Client
	// Session is an optional best-effort cache layer beneath the in-memory cache.
	Session cache.Store
	// Logger receives debug and warning output. Defaults to a discarding logger.
	Logger *log.Logger
	// UserAgent is sent with CDN requests when set.
	UserAgent string
}

type cacheKey struct {
	library, style, category, name string
}

// String is the key under which the session cache stores the entry.
func (k cacheKey) String() string {
	return k.library + "_" + k.style + "_" + k.category + "_" + k.name
}

// Resolver turns icon references into vector markup. Results are cached for the
// lifetime of the resolver; concurrent resolutions of the same key may both fetch,
// the last writer wins.
type Resolver struct {
	registry *Registry
	client   *http.Client
	session  cache.Store
	logger   *log.Logger
	agent    string

	mu       sync.RWMutex
	memory   map[cacheKey]string
	packages map[string]*IconPackage
}

// NewResolver creates a resolver over the libraries of reg.
func NewResolver(reg *Registry, opts ResolverOptions) *Resolver {
	r := &Resolver{
		registry: reg,
		client:   opts.Client,
		session:  opts.Session,
		logger:   opts.Logger,
		agent:    opts.UserAgent,
		memory:   make(map[cacheKey]string),
		packages: make(map[string]*IconPackage),
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Resolve returns the markup of icon name in the given library, style and category.
// An empty style selects the library default.
func (r *Resolver) Resolve(ctx context.Context, libraryID, name, style, category string) (*ResolvedIcon, error) {
	return r.ResolveRef(ctx, libraryID, IconReference{
		Name:     name,
		Title:    TitleFromName(name),
		Category: category,
	}, style)
}

// ResolveRef is Resolve for a reference taken from a manifest.
func (r *Resolver) ResolveRef(ctx context.Context, libraryID string, ref IconReference, style string) (*ResolvedIcon, error) {
	d, err := r.registry.Get(libraryID)
	if err != nil {
		return nil, err
	}
	if ref.Name == "" {
		return nil, fmt.Errorf("%w: %s: empty icon name", ErrAssetNotFound, libraryID)
	}
	style = d.StyleOrDefault(style)
	key := cacheKey{library: d.ID, style: style, category: ref.Category, name: ref.Name}

	icon := &ResolvedIcon{Reference: ref, LibraryID: d.ID, Style: style}

	if markup, ok := r.cached(ctx, key); ok {
		icon.Markup = markup
		return icon, nil
	}

	var markup string
	switch src := d.Source.(type) {
	case LocalSource:
		markup, err = r.readLocal(src, key)
	case CDNSource:
		markup, err = r.fetch(ctx, src, key)
	case EmbeddedSource:
		markup, err = r.decodeEmbedded(d.ID, src, key)
	default:
		err = fmt.Errorf("%w: %s: unsupported content source %T", ErrDecode, d.ID, d.Source)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("resolved icon", "library", d.ID, "name", ref.Name, "style", style, "source", d.Source.sourceKind())

	r.store(ctx, key, markup)
	icon.Markup = markup
	return icon, nil
}

// IconURL returns the CDN address of an icon. It fails for libraries that are not CDN backed.
func (r *Resolver) IconURL(libraryID, name, style, category string) (string, error) {
	d, err := r.registry.Get(libraryID)
	if err != nil {
		return "", err
	}
	src, ok := d.Source.(CDNSource)
	if !ok {
		return "", fmt.Errorf("library %s is not served from a CDN", libraryID)
	}
	return src.URL(name, d.StyleOrDefault(style), category), nil
}

// URL expands the template of style for one icon.
func (s CDNSource) URL(name, style, category string) string {
	tmpl := s.URLTemplate
	if t, ok := s.StyleTemplates[style]; ok {
		tmpl = t
	}
	return expandTemplate(tmpl, name, style, category)
}

// Cached reports how many entries the in-memory cache holds.
func (r *Resolver) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.memory)
}

func (r *Resolver) cached(ctx context.Context, key cacheKey) (string, bool) {
	r.mu.RLock()
	markup, ok := r.memory[key]
	r.mu.RUnlock()
	if ok {
		r.logger.Debug("cache hit", "key", key.String(), "layer", "memory")
		return markup, true
	}
	if r.session == nil {
		return "", false
	}

	markup, err := r.session.Get(ctx, key.String())
	switch {
	case err == nil:
		r.logger.Debug("cache hit", "key", key.String(), "layer", "session")
		r.mu.Lock()
		r.memory[key] = markup
		r.mu.Unlock()
		return markup, true
	case errors.Is(err, cache.ErrMiss):
		r.logger.Debug("cache miss", "key", key.String())
	default:
		r.logger.Debug("session cache unavailable", "key", key.String(), "err", err)
	}
	return "", false
}

func (r *Resolver) store(ctx context.Context, key cacheKey, markup string) {
	r.mu.Lock()
	r.memory[key] = markup
	r.mu.Unlock()

	if r.session == nil {
		return
	}
	if err := r.session.Set(ctx, key.String(), markup); err != nil {
		r.logger.Warn("session cache write failed", "key", key.String(), "err", err)
	}
}

func (r *Resolver) readLocal(src LocalSource, key cacheKey) (string, error) {
	p := path.Clean(strings.TrimPrefix(expandTemplate(src.PathTemplate, key.name, key.style, key.category), "/"))
	if !fs.ValidPath(p) || strings.HasPrefix(p, "../") || p == ".." {
		return "", fmt.Errorf("%w: %s: invalid path %q", ErrAssetNotFound, key.library, p)
	}
	data, err := fs.ReadFile(src.Root, p)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %s: %v", ErrAssetNotFound, key.library, p, err)
	}
	return string(data), nil
}

func (r *Resolver) fetch(ctx context.Context, src CDNSource, key cacheKey) (string, error) {
	url := src.URL(key.name, key.style, key.category)
	res, err := utils.Download(ctx, r.client, url, r.agent)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	if !res.OK() {
		return "", &FetchError{URL: url, Status: res.Status}
	}
	return string(res.Body), nil
}

func (r *Resolver) decodeEmbedded(libraryID string, src EmbeddedSource, key cacheKey) (string, error) {
	attrs := src.Attributes
	payload, ok := lookupPayload(src.Icons, key)
	if !ok && src.Package != nil {
		pkg, err := r.loadPackage(libraryID, src.Package)
		if err != nil {
			return "", err
		}
		payload, ok = lookupPayload(pkg.Icons, key)
		if len(attrs) == 0 {
			attrs = pkg.Attributes
		}
	}
	if !ok {
		return "", decodeError("%s: icon %q not found", libraryID, key.name)
	}
	markup, err := payloadMarkup(payload, attrs)
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", libraryID, key.name, err)
	}
	return markup, nil
}

func lookupPayload(icons map[string]Payload, key cacheKey) (Payload, bool) {
	if key.category != "" {
		if p, ok := icons[key.category+"/"+key.name]; ok {
			return p, true
		}
	}
	p, ok := icons[key.name]
	return p, ok
}

// loadPackage decodes the compressed package of a library once per resolver.
func (r *Resolver) loadPackage(libraryID string, p *Package) (*IconPackage, error) {
	r.mu.RLock()
	pkg, ok := r.packages[libraryID]
	r.mu.RUnlock()
	if ok {
		return pkg, nil
	}

	pkg, err := DecodePackage(p.Data, p.Scheme)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", libraryID, err)
	}
	r.mu.Lock()
	r.packages[libraryID] = pkg
	r.mu.Unlock()
	r.logger.Debug("decoded package", "library", libraryID, "icons", len(pkg.Icons))
	return pkg, nil
}
