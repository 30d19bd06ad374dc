package workbook

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lox/servoasr/internal/models"
)

const (
	StationInfoName = "station_info"
	DataRangeName   = "data_range"
	LogSheet        = "log"
)

// sampleColumns is the positional column order of data_range.
const sampleColumns = 10

// MissingSheetError is returned when a form's template sheet is absent.
type MissingSheetError struct {
	Sheet string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("template sheet %q not found", e.Sheet)
}

type Workbook struct {
	f       *excelize.File
	path    string
	layout  Layout
	logNext int
}

// Open opens the workbook at path using the NWQL layout.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return New(f, path, NWQLLayout), nil
}

func New(f *excelize.File, path string, layout Layout) *Workbook {
	return &Workbook{f: f, path: path, layout: layout}
}

func (w *Workbook) Path() string {
	return w.path
}

// Dir is the folder holding the workbook.
func (w *Workbook) Dir() string {
	return filepath.Dir(w.path)
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

func (w *Workbook) Save() error {
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// HasSheet reports whether the workbook contains the named sheet.
func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Rows returns the formatted cell values of a sheet.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	if !w.HasSheet(sheet) {
		return nil, &MissingSheetError{Sheet: sheet}
	}
	return w.f.GetRows(sheet)
}

// StationInfo reads the single data row of the station_info range. Columns
// are matched by header text.
func (w *Workbook) StationInfo() (models.StationInfo, error) {
	nr, err := w.resolveName(StationInfoName)
	if err != nil {
		return models.StationInfo{}, err
	}
	rows, err := w.readRange(nr)
	if err != nil {
		return models.StationInfo{}, err
	}
	if len(rows) < 2 {
		return models.StationInfo{}, fmt.Errorf("%s has no data row", StationInfoName)
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(names ...string) string {
		for _, name := range names {
			if i, ok := header[name]; ok && i < len(rows[1]) {
				return rows[1][i]
			}
		}
		return ""
	}

	if _, ok := header["stationid"]; !ok {
		return models.StationInfo{}, fmt.Errorf("%s has no stationID column", StationInfoName)
	}

	return models.StationInfo{
		StationID:           get("stationid"),
		Depth:               get("depth (m)", "depth"),
		ShipDate:            get("ship_date"),
		SpecificConductance: get("sc", "specific_conductance"),
		BlankDateTime:       get("blank_datetime"),
	}, nil
}

// Samples reads data_range below its header row. Columns are positional:
// id, date-time, temp, Li battery, PIC battery, volume, comment, ASR
// comment, invalid flag, type.
func (w *Workbook) Samples() ([]models.SampleRecord, error) {
	nr, err := w.resolveName(DataRangeName)
	if err != nil {
		return nil, err
	}
	if nr.LastCol-nr.FirstCol+1 < sampleColumns {
		return nil, fmt.Errorf("%s has %d columns, want %d", DataRangeName, nr.LastCol-nr.FirstCol+1, sampleColumns)
	}
	rows, err := w.readRange(nr)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]models.SampleRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		records = append(records, models.SampleRecord{
			Row:        nr.FirstRow + 1 + i,
			SampleID:   row[0],
			DateTime:   row[1],
			Temp:       row[2],
			LiBatt:     row[3],
			PicBatt:    row[4],
			Volume:     row[5],
			Comment:    row[6],
			ASRComment: row[7],
			Invalid:    row[8],
			Type:       row[9],
		})
	}
	return records, nil
}

// WriteForm clears the form's template sheet and writes every assigned
// field through the layout.
func (w *Workbook) WriteForm(form models.FormInstance) error {
	if !w.HasSheet(form.Sheet) {
		return &MissingSheetError{Sheet: form.Sheet}
	}

	for _, ref := range w.layout.Clear {
		cells, err := cellsIn(ref)
		if err != nil {
			return fmt.Errorf("layout v%d clear %s: %w", w.layout.Version, ref, err)
		}
		for _, cell := range cells {
			if err := w.f.SetCellValue(form.Sheet, cell, nil); err != nil {
				return fmt.Errorf("clear %s!%s: %w", form.Sheet, cell, err)
			}
		}
	}

	for _, field := range models.AllFields() {
		value, ok := form.Fields[field]
		if !ok {
			continue
		}
		anchor, ok := w.layout.Cells[field]
		if !ok {
			return fmt.Errorf("layout v%d has no cell for %s", w.layout.Version, field)
		}
		if err := w.writeField(form.Sheet, anchor, field, value); err != nil {
			return fmt.Errorf("write %s to %s!%s: %w", field, form.Sheet, anchor, err)
		}
	}
	return nil
}

func (w *Workbook) writeField(sheet, anchor string, field models.Field, value string) error {
	if w.layout.Split[field] {
		for i, ch := range []rune(value) {
			cell, err := offsetCell(anchor, i)
			if err != nil {
				return err
			}
			if err := w.f.SetCellStr(sheet, cell, string(ch)); err != nil {
				return err
			}
		}
		return nil
	}
	if w.layout.Numeric[field] {
		if n, err := strconv.Atoi(value); err == nil {
			return w.f.SetCellValue(sheet, anchor, n)
		}
	}
	return w.f.SetCellStr(sheet, anchor, value)
}

// Log appends msg to column A of the log sheet at the first empty row.
// Failures are reported on stderr only; the log sheet is best effort.
func (w *Workbook) Log(msg string) {
	if err := w.appendLog(msg); err != nil {
		log.Printf("workbook: append log: %v", err)
	}
}

func (w *Workbook) appendLog(msg string) error {
	if !w.HasSheet(LogSheet) {
		if _, err := w.f.NewSheet(LogSheet); err != nil {
			return err
		}
	}
	if w.logNext == 0 {
		row := 1
		for {
			v, err := w.f.GetCellValue(LogSheet, "A"+strconv.Itoa(row))
			if err != nil {
				return err
			}
			if v == "" {
				break
			}
			row++
		}
		w.logNext = row
	}
	if err := w.f.SetCellStr(LogSheet, "A"+strconv.Itoa(w.logNext), msg); err != nil {
		return err
	}
	w.logNext++
	return nil
}
