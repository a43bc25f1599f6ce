package Reports

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/gurunathasmb/Major-project/Analysis"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var palette = []color.RGBA{
	{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}, {255, 165, 0, 255},
	{128, 0, 128, 255}, {0, 255, 255, 255}, {255, 192, 203, 255}, {165, 42, 42, 255},
	{34, 139, 34, 255}, {75, 0, 130, 255}, {255, 215, 0, 255},
}

// Annotate draws each landmark as a coloured dot with its abbreviation onto a
// copy of the cephalogram.
func Annotate(data []byte, landmarks []Analysis.Landmark) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	r := min(b.Dx(), b.Dy()) / 100
	if r < 4 {
		r = 4
	}
	for i, lm := range landmarks {
		x, y := int(lm.X), int(lm.Y)
		fillCircle(dst, x, y, r+1, color.RGBA{0, 0, 0, 255})
		fillCircle(dst, x, y, r, palette[i%len(palette)])

		label := lm.Abbrev
		if label == "" {
			label = fmt.Sprintf("%d", i+1)
		}
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(color.RGBA{255, 255, 0, 255}),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(x+r+2, y-r),
		}
		d.DrawString(label)
	}
	return dst, nil
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	rect := img.Bounds()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			p := image.Pt(cx+dx, cy+dy)
			if p.In(rect) {
				img.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func WritePNG(img image.Image, path string) error {
	data, err := EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
