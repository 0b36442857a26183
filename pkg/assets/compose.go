package assets

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Corner selects where the logo is placed on the base image.
type Corner string

const (
	CornerBottomRight Corner = "bottom-right"
	CornerBottomLeft  Corner = "bottom-left"
	CornerTopRight    Corner = "top-right"
	CornerTopLeft     Corner = "top-left"
)

// ParseCorner maps a request string to a Corner, defaulting to bottom-right.
func ParseCorner(s string) Corner {
	switch Corner(s) {
	case CornerBottomLeft, CornerTopRight, CornerTopLeft:
		return Corner(s)
	default:
		return CornerBottomRight
	}
}

// Compositing constants relative to the base image width.
const (
	logoWidthFraction = 0.12
	paddingFraction   = 0.04
	shadowOffset      = 2
	shadowAlpha       = 128
)

// CompositeLogo draws the logo onto the base image at the chosen corner. The
// logo is scaled to 12% of the base width with 4% padding and a drop shadow;
// the output keeps the base image's exact pixel dimensions and is re-encoded
// as PNG. A logo that fails to decode returns the base image unchanged.
func CompositeLogo(baseImage, logo []byte, corner Corner) []byte {
	base, _, err := image.Decode(bytes.NewReader(baseImage))
	if err != nil {
		return baseImage
	}

	logoImg, _, err := image.Decode(bytes.NewReader(decodeIfDataURL(logo)))
	if err != nil {
		return baseImage
	}

	bounds := base.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, base, bounds.Min, draw.Src)

	baseW := bounds.Dx()
	baseH := bounds.Dy()

	logoW := int(float64(baseW) * logoWidthFraction)
	if logoW < 1 {
		logoW = 1
	}
	scale := float64(logoW) / float64(logoImg.Bounds().Dx())
	logoH := int(float64(logoImg.Bounds().Dy()) * scale)
	if logoH < 1 {
		logoH = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, logoW, logoH))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), logoImg, logoImg.Bounds(), xdraw.Over, nil)

	padding := int(float64(baseW) * paddingFraction)
	var x, y int
	switch corner {
	case CornerBottomLeft:
		x, y = padding, baseH-logoH-padding
	case CornerTopRight:
		x, y = baseW-logoW-padding, padding
	case CornerTopLeft:
		x, y = padding, padding
	default: // bottom-right
		x, y = baseW-logoW-padding, baseH-logoH-padding
	}

	// Drop shadow: the logo's alpha mask offset and darkened
	shadow := image.NewUniform(color.RGBA{0, 0, 0, shadowAlpha})
	shadowRect := image.Rect(x+shadowOffset, y+shadowOffset, x+logoW+shadowOffset, y+logoH+shadowOffset)
	draw.DrawMask(canvas, shadowRect.Intersect(bounds), shadow, image.Point{}, scaled, scaled.Bounds().Min, draw.Over)

	logoRect := image.Rect(x, y, x+logoW, y+logoH)
	draw.Draw(canvas, logoRect.Intersect(bounds), scaled, scaled.Bounds().Min, draw.Over)

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return baseImage
	}
	return out.Bytes()
}

// decodeIfDataURL accepts both raw image bytes and the data-URL/base64 form
// the web client uploads logos in.
func decodeIfDataURL(data []byte) []byte {
	s := string(data)
	if idx := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && idx != -1 {
		s = s[idx+len(";base64,"):]
	}
	if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s)); err == nil {
		return decoded
	}
	return data
}
