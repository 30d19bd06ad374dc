package export

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

type fakeSheets map[string][][]string

func (f fakeSheets) Rows(sheet string) ([][]string, error) {
	rows, ok := f[sheet]
	if !ok {
		return nil, fmt.Errorf("no sheet %s", sheet)
	}
	return rows, nil
}

func testSheets() fakeSheets {
	return fakeSheets{
		"ASR1": {
			{"", "Station", "1", "2", "3", "0", "1", "9", "1", "9"},
			{"", "Lake Koocanusa at forebay, nr Libby, MT"},
			{},
			{"", "10 m depth   FA: ok, RA: turbid"},
		},
		"blank": {{"ServoSipper Blank"}},
		"empty": {},
	}
}

func TestPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ASRs", "12301919_20240501_1000_10m_NWQL_ASR_Servo.pdf")

	if err := PDF(testSheets(), path, []string{"ASR1", "blank", "empty"}); err != nil {
		t.Fatalf("PDF: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", data[:min(len(data), 8)])
	}
}

func TestPDF_Errors(t *testing.T) {
	dir := t.TempDir()
	if err := PDF(testSheets(), filepath.Join(dir, "a.pdf"), nil); err == nil {
		t.Error("PDF with no sheets succeeded")
	}
	if err := PDF(testSheets(), filepath.Join(dir, "b.pdf"), []string{"ASR7"}); err == nil {
		t.Error("PDF with a missing sheet succeeded")
	}
	if _, err := os.Stat(filepath.Join(dir, "b.pdf")); !os.IsNotExist(err) {
		t.Errorf("partial pdf written: %v", err)
	}
}

func TestPreviews(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "previews")

	paths, err := Previews(testSheets(), dir, []string{"ASR1", "blank"})
	if err != nil {
		t.Fatalf("Previews: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("len(paths) = %d, want 2", len(paths))
	}

	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	want := 10*previewCellW + 2*previewPad
	if got := img.Bounds().Dx(); got != want {
		t.Errorf("width = %d, want %d", got, want)
	}
}
