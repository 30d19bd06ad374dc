package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	previewCellW = 28
	previewLineH = 16
	previewPad   = 12
)

var (
	previewInk   = color.RGBA{30, 30, 30, 255}
	previewTitle = color.RGBA{20, 70, 140, 255}
)

// Previews writes one PNG per sheet into dir and returns the file paths.
func Previews(src SheetSource, dir string, sheets []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}

	var paths []string
	for _, sheet := range sheets {
		rows, err := src.Rows(sheet)
		if err != nil {
			return paths, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		path := filepath.Join(dir, sheet+".png")
		if err := writePNG(path, renderPreview(sheet, rows)); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func renderPreview(sheet string, rows [][]string) *image.RGBA {
	cols := maxColumns(rows)
	if cols == 0 {
		cols = 1
	}
	w := cols*previewCellW + 2*previewPad
	h := (len(rows)+2)*previewLineH + 2*previewPad

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(previewTitle),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(previewPad, previewPad+previewLineH),
	}
	d.DrawString(sheet)

	d.Src = image.NewUniform(previewInk)
	for r, row := range rows {
		y := previewPad + (r+3)*previewLineH
		for c, v := range row {
			if v == "" {
				continue
			}
			d.Dot = fixed.P(previewPad+c*previewCellW, y)
			d.DrawString(v)
		}
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
