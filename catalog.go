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
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/openslides/iconpane/utils"
)

// maxBatchSize sets the maximum number of manifests loaded concurrently.
const maxBatchSize = 16

const indexFile = "index.json"

// ManifestLoader supplies the library index and per-library manifests.
type ManifestLoader interface {
	LoadIndex(ctx context.Context) ([]IndexEntry, error)
	LoadManifest(ctx context.Context, id string) (*ManifestDocument, error)
}

// DirLoader reads index.json and <id>.json from a directory. A library without a
// JSON manifest may ship a <id>.js script bundling a compressed package instead.
type DirLoader struct {
	FS fs.FS
	// Scheme is the compression scheme of packages whose library declares none.
	// The zero value detects the scheme.
	Scheme Scheme
	// Schemes holds the compression scheme declared per library id.
	Schemes map[string]Scheme
}

// SchemeFor returns the compression scheme used for the package of library id.
func (l DirLoader) SchemeFor(id string) Scheme {
	if s, ok := l.Schemes[id]; ok && s != "" {
		return s
	}
	if l.Scheme != "" {
		return l.Scheme
	}
	return SchemeAuto
}

// LoadIndex reads index.json. Without one, the index is built from the manifests found.
func (l DirLoader) LoadIndex(ctx context.Context) ([]IndexEntry, error) {
	f, err := l.FS.Open(indexFile)
	if err == nil {
		defer f.Close()
		return LoadIndex(f)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	names, err := fs.Glob(l.FS, "*.json")
	if err != nil {
		return nil, err
	}
	var manifests []*ManifestDocument
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := l.LoadManifest(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return BuildIndex(manifests), nil
}

// LoadManifest reads the manifest of library id.
func (l DirLoader) LoadManifest(_ context.Context, id string) (*ManifestDocument, error) {
	if !validID(id) {
		return nil, unknownLibrary(id)
	}
	f, err := l.FS.Open(id + ".json")
	if errors.Is(err, fs.ErrNotExist) {
		script, serr := fs.ReadFile(l.FS, id+".js")
		if serr != nil {
			return nil, fmt.Errorf("%w: no manifest for %s", ErrUnknownLibrary, id)
		}
		_, m, err := DescriptorFromScript(id, string(script), l.SchemeFor(id))
		return m, err
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadManifest(f)
}

// HTTPLoader fetches index.json and <id>.json below BaseURL.
type HTTPLoader struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
}

// LoadIndex fetches the library index.
func (l HTTPLoader) LoadIndex(ctx context.Context) ([]IndexEntry, error) {
	body, err := l.get(ctx, indexFile)
	if err != nil {
		return nil, err
	}
	return LoadIndex(strings.NewReader(body))
}

// LoadManifest fetches the manifest of library id.
func (l HTTPLoader) LoadManifest(ctx context.Context, id string) (*ManifestDocument, error) {
	if !validID(id) {
		return nil, unknownLibrary(id)
	}
	body, err := l.get(ctx, id+".json")
	if err != nil {
		return nil, err
	}
	return LoadManifest(strings.NewReader(body))
}

func (l HTTPLoader) get(ctx context.Context, name string) (string, error) {
	url := strings.TrimSuffix(l.BaseURL, "/") + "/" + name
	res, err := utils.Download(ctx, l.Client, url, l.UserAgent)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	if !res.OK() {
		return "", &FetchError{URL: url, Status: res.Status}
	}
	return string(res.Body), nil
}

func validID(id string) bool {
	return id != "" && fs.ValidPath(id) && !strings.Contains(id, "/") && path.Ext(id) == ""
}

// CatalogOptions configures a Catalog.
type CatalogOptions struct {
	// BatchSize bounds how many manifests are loaded at once during a preload.
	BatchSize int
	Logger    *log.Logger
}

// Catalog loads manifests on demand and registers the libraries they describe.
type Catalog struct {
	registry *Registry
	loader   ManifestLoader
	batch    int
	logger   *log.Logger

	mu        sync.RWMutex
	manifests map[string]*ManifestDocument
	index     []IndexEntry
}

// NewCatalog creates a catalog registering manifest-backed libraries in reg.
func NewCatalog(reg *Registry, loader ManifestLoader, opts CatalogOptions) *Catalog {
	batch := opts.BatchSize
	if batch == 0 {
		batch = 4
	}
	c := &Catalog{
		registry:  reg,
		loader:    loader,
		batch:     utils.Clamp(batch, 1, maxBatchSize),
		logger:    opts.Logger,
		manifests: make(map[string]*ManifestDocument),
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Index returns the library index, loading it on first use.
func (c *Catalog) Index(ctx context.Context) ([]IndexEntry, error) {
	c.mu.RLock()
	index := c.index
	c.mu.RUnlock()
	if index != nil {
		return index, nil
	}
	if c.loader == nil {
		return []IndexEntry{}, nil
	}

	index, err := c.loader.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if index == nil {
		index = []IndexEntry{}
	}
	c.mu.Lock()
	c.index = index
	c.mu.Unlock()
	return index, nil
}

// Add registers an already loaded manifest.
func (c *Catalog) Add(m *ManifestDocument) error {
	_, err := c.adopt(m)
	return err
}

// Manifest returns the manifest of library id, loading and registering it on first use.
func (c *Catalog) Manifest(ctx context.Context, id string) (*ManifestDocument, error) {
	if m, ok := c.loaded(id); ok {
		return m, nil
	}
	if c.loader == nil {
		return nil, unknownLibrary(id)
	}

	m, err := c.loader.LoadManifest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", id, err)
	}
	if m.ID != id {
		return nil, fmt.Errorf("%w: manifest %s declares id %q", ErrInvalidManifest, id, m.ID)
	}
	return c.adopt(m)
}

// Loaded lists the ids of the manifests loaded so far.
func (c *Catalog) Loaded() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.manifests))
	for _, id := range c.registry.IDs() {
		if _, ok := c.manifests[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Catalog) loaded(id string) (*ManifestDocument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.manifests[id]
	return m, ok
}

// adopt stores m and registers its library unless the registry already knows it.
func (c *Catalog) adopt(m *ManifestDocument) (*ManifestDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.manifests[m.ID]; ok {
		return existing, nil
	}
	if _, err := c.registry.Get(m.ID); err != nil {
		d, renderable, err := DescriptorFromManifest(m)
		if err != nil {
			return nil, err
		}
		if err := c.registry.Register(d); err != nil {
			return nil, err
		}
		m = renderable
	} else if err := m.Validate(); err != nil {
		return nil, err
	}
	c.manifests[m.ID] = m
	return m, nil
}

// Preload loads the manifests of ids in batches of bounded size. Batches run one
// after the other; the manifests of a batch load concurrently. A library that fails
// to load does not stop the others; all failures are returned joined.
func (c *Catalog) Preload(ctx context.Context, ids []string) error {
	var pending []string
	for _, id := range ids {
		if _, ok := c.loaded(id); !ok {
			pending = append(pending, id)
		}
	}

	now := time.Now()
	var errs []error
	for start := 0; start < len(pending); start += c.batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := pending[start:utils.Min(start+c.batch, len(pending))]
		results := make([]error, len(batch))

		var g errgroup.Group
		for i, id := range batch {
			g.Go(func() error {
				_, results[i] = c.Manifest(ctx, id)
				return nil
			})
		}
		_ = g.Wait()

		for i, err := range results {
			if err != nil {
				c.logger.Warn("preload failed", "library", batch[i], "err", err)
				errs = append(errs, err)
			}
		}
		c.logger.Debug("preloaded batch", "libraries", batch)
	}
	if len(pending) > 0 {
		c.logger.Debug("preload finished", "libraries", len(pending), "failed", len(errs), "took", utils.FormatTime(time.Since(now)))
	}
	return errors.Join(errs...)
}

// LibraryIDs lists every known library: the registered ones and those of the index.
func (c *Catalog) LibraryIDs(ctx context.Context) []string {
	ids := c.registry.IDs()
	index, err := c.Index(ctx)
	if err != nil {
		c.logger.Warn("library index unavailable", "err", err)
		return ids
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, e := range index {
		if !seen[e.ID] {
			seen[e.ID] = true
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// SearchLibrary searches the icons of one library.
func (c *Catalog) SearchLibrary(ctx context.Context, id, query string) ([]Match, error) {
	m, err := c.Manifest(ctx, id)
	if err != nil {
		return nil, err
	}
	return Search([]*ManifestDocument{m}, query), nil
}

// SearchAll searches every library, loading the missing manifests first.
// Libraries that fail to load are skipped. Results follow registry order and are
// capped at DefaultSearchLimit.
func (c *Catalog) SearchAll(ctx context.Context, query string) ([]Match, error) {
	if err := c.Preload(ctx, c.LibraryIDs(ctx)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}

	c.mu.RLock()
	manifests := make([]*ManifestDocument, 0, len(c.manifests))
	for _, d := range c.registry.List() {
		if m, ok := c.manifests[d.ID]; ok {
			manifests = append(manifests, m)
		}
	}
	c.mu.RUnlock()

	return SearchWithLimit(manifests, query, DefaultSearchLimit), nil
}
