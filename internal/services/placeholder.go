package services

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
)

// GeneratePlaceholderImage renders the fallback illustration used when every
// image provider fails for a scene. Rendered once at startup and reused.
func GeneratePlaceholderImage() ([]byte, error) {
	const width, height = 1024, 576

	dc := gg.NewContext(width, height)

	// Vertical dusk gradient
	grad := gg.NewLinearGradient(0, 0, 0, float64(height))
	grad.AddColorStop(0, color.NRGBA{R: 0x2B, G: 0x2D, B: 0x42, A: 0xFF})
	grad.AddColorStop(1, color.NRGBA{R: 0x8D, G: 0x99, B: 0xAE, A: 0xFF})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	// Horizon band
	dc.SetColor(color.NRGBA{R: 0xED, G: 0xF2, B: 0xF4, A: 0x33})
	dc.DrawRectangle(0, float64(height)*0.62, float64(width), 6)
	dc.Fill()

	// Sun disc
	dc.SetColor(color.NRGBA{R: 0xEF, G: 0x83, B: 0x54, A: 0xCC})
	dc.DrawCircle(float64(width)*0.72, float64(height)*0.38, 64)
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
