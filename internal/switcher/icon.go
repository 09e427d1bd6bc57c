package switcher

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"binocular/internal/infrastructure/logging"
	"binocular/internal/platform"

	"golang.org/x/image/draw"
)

// IconRenderSize is the edge of the off-screen surface icons are drawn into
const IconRenderSize = 16

const dataURIPrefix = "data:image/png;base64,"

// IconExtractor produces a PNG data URI for a window's icon
type IconExtractor struct {
	source     platform.IconSource
	logger     logging.Logger
	outputSize int
}

// NewIconExtractor creates an extractor. outputSize scales the rendered
// icon before encoding; zero or IconRenderSize keeps it as rendered.
func NewIconExtractor(source platform.IconSource, logger logging.Logger, outputSize int) *IconExtractor {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if outputSize <= 0 {
		outputSize = IconRenderSize
	}
	return &IconExtractor{source: source, logger: logger, outputSize: outputSize}
}

// Extract returns the encoded icon of h, or nil when there is none or any
// stage of the pipeline fails.
func (e *IconExtractor) Extract(h platform.Handle) *string {
	icon, query, ok := e.resolve(h)
	if !ok {
		return nil
	}

	pixels, err := e.source.RenderIcon(icon, IconRenderSize)
	if err != nil {
		e.logger.Debug("Icon render failed", "handle", fmt.Sprintf("0x%x", uintptr(h)), "query", query.String(), "error", err.Error())
		return nil
	}

	img, err := imageFromBGRA(pixels, IconRenderSize)
	if err != nil {
		e.logger.Debug("Icon readback unusable", "handle", fmt.Sprintf("0x%x", uintptr(h)), "error", err.Error())
		return nil
	}

	var out image.Image = img
	if e.outputSize != IconRenderSize {
		out = scaleImage(img, e.outputSize)
	}

	uri, err := EncodeDataURI(out)
	if err != nil {
		e.logger.Debug("Icon encode failed", "handle", fmt.Sprintf("0x%x", uintptr(h)), "error", err.Error())
		return nil
	}
	return &uri
}

// resolve walks the lookups in fallback order and returns the first usable
// icon handle.
func (e *IconExtractor) resolve(h platform.Handle) (uintptr, platform.IconQuery, bool) {
	for _, q := range platform.IconQueries {
		if icon := e.source.IconHandle(h, q); icon != 0 {
			return icon, q, true
		}
	}
	return 0, 0, false
}

// SwapRedBlue exchanges the first and third byte of every 4-byte pixel,
// converting BGRA to RGBA or back. A trailing partial pixel is left alone.
func SwapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// imageFromBGRA builds an RGBA image from a top-down BGRA buffer of exactly
// size*size pixels. Buffers with no alpha anywhere come from icons drawn
// without an alpha channel and are made opaque.
func imageFromBGRA(buf []byte, size int) (*image.RGBA, error) {
	want := size * size * 4
	if len(buf) == 0 {
		return nil, fmt.Errorf("no pixel rows read")
	}
	if len(buf) != want {
		return nil, fmt.Errorf("pixel buffer is %d bytes, want %d", len(buf), want)
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	copy(img.Pix, buf)
	SwapRedBlue(img.Pix)

	hasAlpha := false
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			hasAlpha = true
			break
		}
	}
	if !hasAlpha {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xFF
		}
	}

	return img, nil
}

func scaleImage(src image.Image, size int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// EncodeDataURI encodes img as PNG wrapped in a data URI
func EncodeDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
