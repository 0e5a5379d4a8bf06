// Package imageproc derives the web-sized variants stored next to each
// uploaded original.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const ContentTypeWebP = "image/webp"

// VariantExt is the file extension of every derived variant.
const VariantExt = ".webp"

var ErrEmptyImage = errors.New("empty image data")

type Options struct {
	ThumbnailMaxDimension int
	DisplayMaxDimension   int
	Quality               int
}

type Processor struct {
	opts Options
}

func NewProcessor(opts Options) *Processor {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 80
	}
	return &Processor{opts: opts}
}

func (p *Processor) Thumbnail(data []byte) ([]byte, string, error) {
	return p.Derive(data, p.opts.ThumbnailMaxDimension)
}

func (p *Processor) Display(data []byte) ([]byte, string, error) {
	return p.Derive(data, p.opts.DisplayMaxDimension)
}

// Derive decodes data (applying EXIF orientation), shrinks it to fit a
// maxDimension square keeping the aspect ratio, and re-encodes it as lossy
// WebP. Images already within the bound are re-encoded at their own size.
func (p *Processor) Derive(data []byte, maxDimension int) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	if maxDimension <= 0 {
		return nil, "", fmt.Errorf("invalid max dimension %d", maxDimension)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: float32(p.opts.Quality)}); err != nil {
		return nil, "", fmt.Errorf("encode webp: %w", err)
	}

	return buf.Bytes(), ContentTypeWebP, nil
}
