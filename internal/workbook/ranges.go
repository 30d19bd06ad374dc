package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// namedRange is a resolved workbook-level defined name.
type namedRange struct {
	Sheet    string
	FirstCol int
	FirstRow int
	LastCol  int
	LastRow  int
}

func (w *Workbook) resolveName(name string) (namedRange, error) {
	for _, dn := range w.f.GetDefinedName() {
		if strings.EqualFold(dn.Name, name) {
			return parseRefersTo(dn.RefersTo)
		}
	}
	return namedRange{}, fmt.Errorf("named range %q not found", name)
}

// parseRefersTo handles references like servo!$A$1:$J$40 and
// 'servo log'!$A$3:$E$4.
func parseRefersTo(ref string) (namedRange, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "=")
	i := strings.LastIndex(ref, "!")
	if i < 0 {
		return namedRange{}, fmt.Errorf("reference %q has no sheet", ref)
	}
	sheet := strings.Trim(ref[:i], "'")
	sheet = strings.ReplaceAll(sheet, "''", "'")
	cells := strings.ReplaceAll(ref[i+1:], "$", "")

	from, to, _ := splitRange(cells)
	c1, r1, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return namedRange{}, fmt.Errorf("reference %q: %w", ref, err)
	}
	c2, r2, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return namedRange{}, fmt.Errorf("reference %q: %w", ref, err)
	}
	return namedRange{Sheet: sheet, FirstCol: c1, FirstRow: r1, LastCol: c2, LastRow: r2}, nil
}

func splitRange(ref string) (from, to string, isRange bool) {
	if i := strings.Index(ref, ":"); i >= 0 {
		return ref[:i], ref[i+1:], true
	}
	return ref, ref, false
}

// readRange returns raw cell values of the range, row by row. Raw values
// keep dates as Excel serials and numbers unformatted.
func (w *Workbook) readRange(nr namedRange) ([][]string, error) {
	rows := make([][]string, 0, nr.LastRow-nr.FirstRow+1)
	for r := nr.FirstRow; r <= nr.LastRow; r++ {
		row := make([]string, 0, nr.LastCol-nr.FirstCol+1)
		for c := nr.FirstCol; c <= nr.LastCol; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return nil, err
			}
			v, err := w.f.GetCellValue(nr.Sheet, cell, excelize.Options{RawCellValue: true})
			if err != nil {
				return nil, fmt.Errorf("read %s!%s: %w", nr.Sheet, cell, err)
			}
			row = append(row, strings.TrimSpace(v))
		}
		rows = append(rows, row)
	}
	return rows, nil
}
