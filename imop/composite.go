// Package imop implements the Porter-Duff composition operations
// used for mixing a rendered icon with its backdrop.
// The image/draw core package implements only the source-over-destination and source
// operators; this package covers the remaining ones.
package imop

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	"github.com/openslides/iconpane/utils"
)

// Op names a Porter-Duff composition operator.
type Op string

const (
	Copy    Op = "copy"
	SrcOver Op = "src_over"
	DstOver Op = "dst_over"
	SrcIn   Op = "src_in"
	DstIn   Op = "dst_in"
	SrcOut  Op = "src_out"
	DstOut  Op = "dst_out"
	SrcAtop Op = "src_atop"
	DstAtop Op = "dst_atop"
	Xor     Op = "xor"
)

var ops = []Op{Copy, SrcOver, DstOver, SrcIn, DstIn, SrcOut, DstOut, SrcAtop, DstAtop, Xor}

// Composite holds the currently active composition operator.
type Composite struct {
	current Op
}

// InitOp returns a Composite using SrcOver.
func InitOp() *Composite {
	return &Composite{current: SrcOver}
}

// Set activates one of the supported operators.
func (c *Composite) Set(op Op) error {
	if !slices.Contains(ops, op) {
		return fmt.Errorf("unsupported composite operation %q", op)
	}
	c.current = op
	return nil
}

// Get returns the currently active operator.
func (c *Composite) Get() Op {
	return c.current
}

// factors returns the weights applied to the source and the backdrop color,
// given the source alpha as and the backdrop alpha ab.
func (c *Composite) factors(as, ab float64) (fs, fb float64) {
	switch c.current {
	case Copy:
		return 1, 0
	case SrcOver:
		return 1, 1 - as
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	}
	return 1, 1 - as
}

// Draw composes src over backdrop into dst. The three images are
// addressed relative to their own bounds; dst must be at least as large as src.
func (c *Composite) Draw(dst, src, backdrop *image.NRGBA) {
	sb, bb, db := src.Bounds(), backdrop.Bounds(), dst.Bounds()
	dx := utils.Min(sb.Dx(), utils.Min(bb.Dx(), db.Dx()))
	dy := utils.Min(sb.Dy(), utils.Min(bb.Dy(), db.Dy()))

	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			s := src.NRGBAAt(sb.Min.X+x, sb.Min.Y+y)
			b := backdrop.NRGBAAt(bb.Min.X+x, bb.Min.Y+y)

			as := float64(s.A) / 255
			ab := float64(b.A) / 255
			fs, fb := c.factors(as, ab)

			// alpha composition on premultiplied components
			ao := as*fs + ab*fb
			if ao <= 0 {
				dst.SetNRGBA(db.Min.X+x, db.Min.Y+y, color.NRGBA{})
				continue
			}
			mix := func(cs, cb uint8) uint8 {
				v := (as*fs*float64(cs)/255 + ab*fb*float64(cb)/255) / ao
				return uint8(utils.Clamp(v*255+0.5, 0, 255))
			}
			dst.SetNRGBA(db.Min.X+x, db.Min.Y+y, color.NRGBA{
				R: mix(s.R, b.R),
				G: mix(s.G, b.G),
				B: mix(s.B, b.B),
				A: uint8(utils.Clamp(ao*255+0.5, 0, 255)),
			})
		}
	}
}
