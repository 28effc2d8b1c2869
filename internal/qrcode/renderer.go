// Package qrcode renders network provisioning payloads as PNG QR images.
package qrcode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/boombuler/barcode/qr"
)

const (
	// DefaultScale is the pixel width of one QR module.
	DefaultScale = 4
	// dataURIPrefix precedes the base64 PNG in an inline image source.
	dataURIPrefix = "data:image/png;base64,"
)

// ErrEncoding indicates the payload could not be encoded as a QR symbol.
var ErrEncoding = errors.New("qr encoding failed")

// Renderer produces deterministic PNG QR images at error-correction level M.
type Renderer struct {
	scale int
}

// NewRenderer creates a renderer with the given module scale; scale <= 0 uses DefaultScale.
func NewRenderer(scale int) *Renderer {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Renderer{scale: scale}
}

// Scale returns the module scale in pixels.
func (r *Renderer) Scale() int { return r.scale }

// Border returns the quiet zone width in pixels.
func (r *Renderer) Border() int { return 2 * r.scale }

// Render encodes payload and rasterizes it with black modules on a white background.
func (r *Renderer) Render(payload string) ([]byte, error) {
	code, errEncode := qr.Encode(payload, qr.M, qr.Auto)
	if errEncode != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, errEncode)
	}

	bounds := code.Bounds()
	modules := bounds.Dx()
	border := r.Border()
	size := modules*r.scale + 2*border

	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	for y := 0; y < modules; y++ {
		for x := 0; x < modules; x++ {
			if !isDark(code.At(bounds.Min.X+x, bounds.Min.Y+y)) {
				continue
			}
			px := border + x*r.scale
			py := border + y*r.scale
			for dy := 0; dy < r.scale; dy++ {
				row := (py+dy)*img.Stride + px
				for dx := 0; dx < r.scale; dx++ {
					img.Pix[row+dx] = 0x00
				}
			}
		}
	}

	var buf bytes.Buffer
	if errPNG := png.Encode(&buf, img); errPNG != nil {
		return nil, fmt.Errorf("%w: png: %v", ErrEncoding, errPNG)
	}
	return buf.Bytes(), nil
}

func isDark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 0x80
}

// DataURI wraps PNG bytes for use as an inline image source.
func DataURI(pngBytes []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(pngBytes)
}
