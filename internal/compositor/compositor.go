package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"

	// register decoders for listing photos
	_ "image/gif"
	_ "image/jpeg"
)

// Portrait format used by the feed post composite
const (
	canvasWidth  = 1080
	canvasHeight = 1350

	maxImageBytes = 20 << 20
)

// Brand holds the styling applied to a rendered composite
type Brand struct {
	Color1  string // gradient start, hex
	Color2  string // gradient end, hex
	LogoURL string // optional, drawn above the summary panel
}

// Uploader stores rendered PNG bytes and returns a public URL
type Uploader interface {
	UploadPNG(ctx context.Context, data []byte) (string, error)
}

// Renderer composes branded marketing images from a listing photo and a short
// summary, then uploads the result so the publish API can fetch it.
type Renderer struct {
	httpClient *http.Client
	uploader   Uploader
}

// NewRenderer creates a new composite renderer
func NewRenderer(uploader Uploader) *Renderer {
	return &Renderer{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		uploader:   uploader,
	}
}

// Render draws the composite and returns the hosted image URL.
// Layout: background photo cover-fitted, dark overlay, centered gradient panel
// carrying the summary lines, brand logo above the text when configured.
func (r *Renderer) Render(ctx context.Context, baseImageURL, summary string, brand Brand) (string, error) {
	baseImg, err := r.fetchImage(ctx, baseImageURL)
	if err != nil {
		return "", fmt.Errorf("loading base image: %w", err)
	}

	dc := gg.NewContext(canvasWidth, canvasHeight)
	drawCover(dc, baseImg)

	// Dim the photo so the panel text carries
	dc.SetRGBA(0, 0, 0, 0.25)
	dc.DrawRectangle(0, 0, canvasWidth, canvasHeight)
	dc.Fill()

	lines := SummaryLines(summary)
	if err := r.drawPanel(ctx, dc, lines, brand); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return "", fmt.Errorf("encoding composite: %w", err)
	}

	url, err := r.uploader.UploadPNG(ctx, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("uploading composite: %w", err)
	}
	return url, nil
}

// drawPanel renders the gradient panel with logo and summary lines
func (r *Renderer) drawPanel(ctx context.Context, dc *gg.Context, lines []string, brand Brand) error {
	fnt, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return fmt.Errorf("parsing font: %w", err)
	}
	face := truetype.NewFace(fnt, &truetype.Options{Size: 64})
	dc.SetFontFace(face)

	const lineHeight = 86.0
	panelWidth := float64(canvasWidth) * 0.9
	panelHeight := float64(len(lines))*lineHeight + 72

	var logo image.Image
	if brand.LogoURL != "" {
		// A broken logo URL must not fail the whole render
		if img, err := r.fetchImage(ctx, brand.LogoURL); err == nil {
			logo = img
		}
	}

	logoHeight := 0.0
	if logo != nil {
		logoHeight = 100
		panelHeight += logoHeight + 20
	}

	panelX := (float64(canvasWidth) - panelWidth) / 2
	panelY := (float64(canvasHeight) - panelHeight) / 2

	c1, err := parseHexColor(brand.Color1)
	if err != nil {
		return fmt.Errorf("brand color1: %w", err)
	}
	c2, err := parseHexColor(brand.Color2)
	if err != nil {
		return fmt.Errorf("brand color2: %w", err)
	}

	grad := gg.NewLinearGradient(panelX, panelY, panelX+panelWidth, panelY+panelHeight)
	grad.AddColorStop(0, c1)
	grad.AddColorStop(1, c2)

	dc.SetFillStyle(grad)
	dc.DrawRoundedRectangle(panelX, panelY, panelWidth, panelHeight, 24)
	dc.Fill()

	textTop := panelY + 36
	if logo != nil {
		drawScaled(dc, logo, canvasWidth/2, textTop+logoHeight/2, 250, logoHeight)
		textTop += logoHeight + 20
	}

	dc.SetRGB(1, 1, 1)
	for i, line := range lines {
		y := textTop + float64(i)*lineHeight + lineHeight/2
		dc.DrawStringAnchored(line, canvasWidth/2, y, 0.5, 0.5)
	}

	return nil
}

// fetchImage downloads and decodes a remote image
func (r *Renderer) fetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching %s: status %d", imageURL, resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// drawCover scales an image to fill the canvas, cropping the overflow
func drawCover(dc *gg.Context, img image.Image) {
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	scale := canvasWidth / w
	if s := canvasHeight / h; s > scale {
		scale = s
	}

	dc.Push()
	dc.Translate((canvasWidth-w*scale)/2, (canvasHeight-h*scale)/2)
	dc.Scale(scale, scale)
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

// drawScaled draws an image centered at (cx, cy), fitted within maxW x maxH
func drawScaled(dc *gg.Context, img image.Image, cx, cy, maxW, maxH float64) {
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}

	dc.Push()
	dc.Translate(cx-w*scale/2, cy-h*scale/2)
	dc.Scale(scale, scale)
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

// SummaryLines splits the generated short summary into display lines.
// The generator separates lines with <br>; plain newlines are accepted too.
func SummaryLines(summary string) []string {
	normalized := strings.ReplaceAll(summary, "<br>", "\n")
	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseHexColor parses "#rgb" or "#rrggbb" into a color
func parseHexColor(s string) (color.Color, error) {
	s = strings.TrimPrefix(s, "#")

	var r, g, b uint8
	switch len(s) {
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("invalid hex color %q", s)
		}
		r *= 17
		g *= 17
		b *= 17
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("invalid hex color %q", s)
		}
	default:
		return nil, fmt.Errorf("invalid hex color %q", s)
	}

	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
