// Package render draws choropleth maps of joined boundary features
// and exports them as PNG files.
package render

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"choromap/geom"
	"choromap/join"
)

// Scale is the value range mapped to the color ramp. Callers either
// supply it explicitly (for comparable maps across periods) or
// compute it from the statistics table.
type Scale struct {
	Min float64
	Max float64
}

// position returns the normalized ramp position for a value. A
// degenerate scale (min == max) maps everything to the middle of the
// ramp instead of dividing by zero.
func (s Scale) position(v float64) float64 {
	span := s.Max - s.Min
	if span <= 0 {
		return 0.5
	}
	return (v - s.Min) / span
}

// Options is the per-map styling and annotation configuration.
type Options struct {
	Title  string // top caption
	Legend string // colorbar label, may contain \n
	Source string // bottom-right note, may contain \n
	Format string // tick number format, e.g. "%.1f" or "%.1f%%"
	Colors string // colormap name, see RampByName
}

const (
	canvasWidth  = 1500
	canvasHeight = 1000
	titleBand    = 90
	legendBand   = 220
	plotPad      = 30
)

// Choropleth renders the joined features colored by value. Features
// without data are filled with a distinct no-data color and listed in
// the legend. The scale is used verbatim, never recomputed.
func Choropleth(features []join.Feature, scale Scale, opts Options) (image.Image, error) {
	if len(features) == 0 {
		return nil, errors.New("no boundary features to render")
	}
	ramp, err := RampByName(opts.Colors)
	if err != nil {
		return nil, err
	}

	bounds := geom.NewBounds()
	for i := range features {
		b := features[i].Geom.Bounds()
		bounds.ExtendBounds(b)
	}
	tr, err := newTransform(bounds)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(canvasWidth, canvasHeight)
	dc.SetHexColor(backgroundColor)
	dc.Clear()

	// filled features with thin edges
	dc.SetFillRuleEvenOdd()
	for i := range features {
		f := &features[i]
		tracePaths(dc, f.Geom, tr)
		if math.IsNaN(f.Value) {
			dc.SetColor(noDataColor)
		} else {
			dc.SetColor(ramp.At(scale.position(f.Value)))
		}
		dc.FillPreserve()
		dc.SetColor(edgeColor)
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	// heavier outline pass on top
	for i := range features {
		tracePaths(dc, features[i].Geom, tr)
		dc.SetColor(outlineColor)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	if err := drawLegend(dc, scale, ramp, opts); err != nil {
		return nil, err
	}
	if err := drawAnnotations(dc, opts); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// SavePNG writes the image, creating the output directory if needed.
func SavePNG(img image.Image, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return errors.Wrapf(err, "encoding %s", filename)
	}
	return f.Close()
}

// transform maps lon/lat to canvas pixels: equirectangular with the
// x axis compressed by cos(mid latitude), fit into the plot area.
type transform struct {
	bounds  geom.Bounds
	xScale  float64
	scale   float64
	offsetX float64
	offsetY float64
}

func newTransform(b geom.Bounds) (*transform, error) {
	if b.Width() <= 0 || b.Height() <= 0 {
		return nil, errors.New("degenerate boundary extent")
	}
	midLat := (b.Min.Y + b.Max.Y) / 2
	xScale := math.Cos(midLat * math.Pi / 180)

	plotW := float64(canvasWidth - legendBand - 2*plotPad)
	plotH := float64(canvasHeight - titleBand - 2*plotPad)
	scale := math.Min(plotW/(b.Width()*xScale), plotH/b.Height())

	// center the map inside the plot area
	usedW := b.Width() * xScale * scale
	usedH := b.Height() * scale
	offsetX := plotPad + (plotW-usedW)/2
	offsetY := titleBand + plotPad + (plotH-usedH)/2

	return &transform{
		bounds:  b,
		xScale:  xScale,
		scale:   scale,
		offsetX: offsetX,
		offsetY: offsetY,
	}, nil
}

func (t *transform) apply(p geom.Point) (x, y float64) {
	x = t.offsetX + (p.X-t.bounds.Min.X)*t.xScale*t.scale
	y = t.offsetY + (t.bounds.Max.Y-p.Y)*t.scale
	return x, y
}

func tracePaths(dc *gg.Context, g geom.Geometry, tr *transform) {
	for _, poly := range g {
		for _, ring := range poly {
			if len(ring) == 0 {
				continue
			}
			dc.NewSubPath()
			x, y := tr.apply(ring[0])
			dc.MoveTo(x, y)
			for _, p := range ring[1:] {
				x, y := tr.apply(p)
				dc.LineTo(x, y)
			}
			dc.ClosePath()
		}
	}
}

const legendTicks = 5

func drawLegend(dc *gg.Context, scale Scale, ramp Ramp, opts Options) error {
	barX := float64(canvasWidth - legendBand + 30)
	barW := 28.0
	barTop := float64(canvasHeight) * 0.18
	barBottom := float64(canvasHeight) * 0.78

	// gradient bar, max at the top
	for y := barTop; y <= barBottom; y++ {
		t := 1 - (y-barTop)/(barBottom-barTop)
		dc.SetColor(ramp.At(t))
		dc.DrawRectangle(barX, y, barW, 1)
		dc.Fill()
	}
	dc.SetColor(edgeColor)
	dc.SetLineWidth(1)
	dc.DrawRectangle(barX, barTop, barW, barBottom-barTop)
	dc.Stroke()

	face, err := fontFace(fontRegular, 17)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(textColor)

	format := opts.Format
	if format == "" {
		format = "%.2f"
	}
	for i := 0; i < legendTicks; i++ {
		frac := float64(i) / (legendTicks - 1)
		v := scale.Max - frac*(scale.Max-scale.Min)
		y := barTop + frac*(barBottom-barTop)
		dc.DrawLine(barX+barW, y, barX+barW+5, y)
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf(format, v), barX+barW+10, y, 0, 0.4)
	}

	// colorbar label, rotated along the bar
	if opts.Legend != "" {
		label := strings.ReplaceAll(opts.Legend, "\n", " ")
		cx := barX + barW + 90
		cy := (barTop + barBottom) / 2
		dc.Push()
		dc.RotateAbout(gg.Radians(90), cx, cy)
		dc.DrawStringAnchored(label, cx, cy, 0.5, 0.5)
		dc.Pop()
	}

	// no-data entry below the bar
	swatch := 18.0
	swatchY := barBottom + 30
	dc.SetColor(noDataColor)
	dc.DrawRectangle(barX, swatchY, swatch, swatch)
	dc.Fill()
	dc.SetColor(edgeColor)
	dc.DrawRectangle(barX, swatchY, swatch, swatch)
	dc.Stroke()
	dc.SetColor(textColor)
	dc.DrawStringAnchored("No Data", barX+swatch+8, swatchY+swatch/2, 0, 0.4)
	return nil
}

func drawAnnotations(dc *gg.Context, opts Options) error {
	if opts.Title != "" {
		face, err := fontFace(fontBold, 32)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		dc.SetColor(textColor)
		dc.DrawStringAnchored(opts.Title, float64(canvasWidth)/2, titleBand/2, 0.5, 0.5)
	}
	if opts.Source != "" {
		face, err := fontFace(fontItalic, 14)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		dc.SetColor(textColor)
		lines := strings.Split(opts.Source, "\n")
		y := float64(canvasHeight) - 12 - float64(len(lines)-1)*18
		for _, line := range lines {
			dc.DrawStringAnchored(line, float64(canvasWidth)-15, y, 1, 0.5)
			y += 18
		}
	}
	return nil
}

type fontStyle int

const (
	fontRegular fontStyle = iota
	fontBold
	fontItalic
)

var (
	fontOnce  sync.Once
	fontErr   error
	fontFonts [3]*opentype.Font

	faceMu    sync.Mutex
	faceCache = map[[2]interface{}]font.Face{}
)

func fontFace(style fontStyle, size float64) (font.Face, error) {
	fontOnce.Do(func() {
		for i, ttf := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF} {
			fontFonts[i], fontErr = opentype.Parse(ttf)
			if fontErr != nil {
				return
			}
		}
	})
	if fontErr != nil {
		return nil, errors.Wrap(fontErr, "parsing embedded font")
	}
	key := [2]interface{}{style, size}
	faceMu.Lock()
	defer faceMu.Unlock()
	if face, ok := faceCache[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(fontFonts[style], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating font face")
	}
	faceCache[key] = face
	return face, nil
}
