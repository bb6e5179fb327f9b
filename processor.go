package iconpane

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
)

// Request names one icon and the way it is rendered.
type Request struct {
	LibraryID string
	Icon      IconReference
	Style     string
	Render    RenderStyle
	// Format names the encoding of the bitmap: png (default), jpeg, gif, bmp or tiff.
	Format string
}

// Rendering is the outcome of a processed request.
type Rendering struct {
	Icon   *ResolvedIcon
	Styled StyledIcon
	Image  []byte
	Format imaging.Format
	Size   int
}

// Base64 returns the text-safe encoding of the bitmap.
func (r *Rendering) Base64() string {
	return EncodeBase64(r.Image)
}

// Processor runs the resolve, style and rasterize pipeline.
type Processor struct {
	registry *Registry
	resolver *Resolver
	logger   *log.Logger
}

// NewProcessor creates a processor over the libraries of reg.
func NewProcessor(reg *Registry, res *Resolver, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Processor{registry: reg, resolver: res, logger: logger}
}

// Registry returns the registry the processor resolves against.
func (p *Processor) Registry() *Registry { return p.registry }

// Process resolves the requested icon, recolors it for the color model of its
// library and rasterizes it. Failures carry the taxonomy of the failing stage.
func (p *Processor) Process(ctx context.Context, req Request) (*Rendering, error) {
	d, err := p.registry.Get(req.LibraryID)
	if err != nil {
		return nil, err
	}
	if req.Render.Size <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrRasterize, req.Render.Size)
	}
	format := imaging.PNG
	if req.Format != "" {
		if format, err = ParseFormat(req.Format); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
		}
	}
	if req.Icon.Title == "" {
		req.Icon.Title = TitleFromName(req.Icon.Name)
	}

	icon, err := p.resolver.ResolveRef(ctx, d.ID, req.Icon, req.Style)
	if err != nil {
		return nil, err
	}
	styled, err := ApplyStyle(icon.Markup, d.ColorModel, req.Render)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", d.ID, req.Icon.Name, err)
	}

	img, err := RasterizeFormat(styled.Markup, req.Render.Size, styled.Background, format)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", d.ID, req.Icon.Name, err)
	}
	p.logger.Debug("rendered icon", "library", d.ID, "name", req.Icon.Name, "model", d.ColorModel, "size", req.Render.Size, "bytes", len(img))

	return &Rendering{
		Icon:   icon,
		Styled: styled,
		Image:  img,
		Format: format,
		Size:   req.Render.Size,
	}, nil
}
