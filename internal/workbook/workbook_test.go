package workbook

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/lox/servoasr/internal/models"
)

func setCells(t *testing.T, f *excelize.File, sheet, start string, rows [][]any) {
	t.Helper()
	col, row, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		t.Fatalf("start cell: %v", err)
	}
	for i, values := range rows {
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+j, row+i)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("SetCellValue %s: %v", cell, err)
			}
		}
	}
}

func setupTestWorkbook(t *testing.T) *Workbook {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	for _, name := range []string{"servo", "ASR1", "ASR2", "blank", LogSheet} {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet %s: %v", name, err)
		}
	}

	setCells(t, f, "servo", "A1", [][]any{
		{"stationID", "depth (m)", "ship_date", "SC", "blank_datetime"},
		{12301919, 10.0, "2024-05-09", 280, "2024-05-02 08:15"},
	})
	setCells(t, f, "servo", "A4", [][]any{
		{"sample", "time", "temp", "li", "pic", "vol", "comment", "asr", "invalid", "type"},
		{nil, "Date-Time", nil, nil, nil, nil, nil, nil, nil, nil},
		{"S1", 45413.5, 4.1, 3.6, 3.3, 250, "fine", "ok", nil, "FA"},
		{"S2", nil, 4.1, 3.6, 3.3, 250, nil, "turbid", nil, "RA"},
	})

	if err := f.SetDefinedName(&excelize.DefinedName{Name: StationInfoName, RefersTo: "servo!$A$1:$E$2"}); err != nil {
		t.Fatalf("SetDefinedName: %v", err)
	}
	if err := f.SetDefinedName(&excelize.DefinedName{Name: DataRangeName, RefersTo: "servo!$A$4:$J$9"}); err != nil {
		t.Fatalf("SetDefinedName: %v", err)
	}

	return New(f, filepath.Join(t.TempDir(), "servo.xlsx"), NWQLLayout)
}

func TestStationInfo(t *testing.T) {
	wb := setupTestWorkbook(t)

	info, err := wb.StationInfo()
	if err != nil {
		t.Fatalf("StationInfo: %v", err)
	}
	want := models.StationInfo{
		StationID:           "12301919",
		Depth:               "10",
		ShipDate:            "2024-05-09",
		SpecificConductance: "280",
		BlankDateTime:       "2024-05-02 08:15",
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("StationInfo mismatch (-want +got):\n%s", diff)
	}
}

func TestSamples(t *testing.T) {
	wb := setupTestWorkbook(t)

	samples, err := wb.Samples()
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(samples) != 5 {
		t.Fatalf("len(samples) = %d, want 5", len(samples))
	}

	if samples[0].SampleID != "" || samples[0].DateTime != "Date-Time" {
		t.Errorf("header echo row = %+v", samples[0])
	}
	s1 := samples[1]
	if s1.Row != 6 || s1.SampleID != "S1" || s1.DateTime != "45413.5" || s1.ASRComment != "ok" || s1.Type != "FA" {
		t.Errorf("samples[1] = %+v", s1)
	}
	if samples[2].DateTime != "" || samples[2].ASRComment != "turbid" {
		t.Errorf("samples[2] = %+v", samples[2])
	}
	if !samples[4].Empty() {
		t.Errorf("samples[4] = %+v, want empty trailing row", samples[4])
	}
}

func TestMissingNamedRange(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	wb := New(f, "x.xlsx", NWQLLayout)

	if _, err := wb.StationInfo(); err == nil {
		t.Error("StationInfo succeeded without a named range")
	}
	if _, err := wb.Samples(); err == nil {
		t.Error("Samples succeeded without a named range")
	}
}

func TestParseRefersTo(t *testing.T) {
	tests := []struct {
		ref  string
		want namedRange
	}{
		{"servo!$A$1:$E$2", namedRange{Sheet: "servo", FirstCol: 1, FirstRow: 1, LastCol: 5, LastRow: 2}},
		{"='servo log'!$B$3:$K$40", namedRange{Sheet: "servo log", FirstCol: 2, FirstRow: 3, LastCol: 11, LastRow: 40}},
		{"servo!$C$7", namedRange{Sheet: "servo", FirstCol: 3, FirstRow: 7, LastCol: 3, LastRow: 7}},
	}
	for _, tt := range tests {
		got, err := parseRefersTo(tt.ref)
		if err != nil {
			t.Fatalf("parseRefersTo(%q): %v", tt.ref, err)
		}
		if got != tt.want {
			t.Errorf("parseRefersTo(%q) = %+v, want %+v", tt.ref, got, tt.want)
		}
	}

	if _, err := parseRefersTo("$A$1:$B$2"); err == nil {
		t.Error("parseRefersTo without sheet succeeded")
	}
}

func TestWriteForm(t *testing.T) {
	wb := setupTestWorkbook(t)

	// Leftovers from a previous run.
	if err := wb.f.SetCellValue("ASR1", "L36", "3306"); err != nil {
		t.Fatal(err)
	}
	if err := wb.f.SetCellValue("ASR1", "AK14", "9"); err != nil {
		t.Fatal(err)
	}

	form := models.FormInstance{
		Sheet: "ASR1",
		Fields: map[models.Field]string{
			models.FieldStationID:   "12301919",
			models.FieldWindowStart: "20240501 1000",
			models.FieldStationName: "Lake Koocanusa at forebay, nr Libby, MT",
			models.FieldPrimaryCode: "3132",
			models.FieldFACount:     "2",
			models.FieldComment:     "10 m depth   FA: ok  ",
		},
	}
	if err := wb.WriteForm(form); err != nil {
		t.Fatalf("WriteForm: %v", err)
	}

	cell := func(ref string) string {
		t.Helper()
		v, err := wb.f.GetCellValue("ASR1", ref)
		if err != nil {
			t.Fatalf("GetCellValue %s: %v", ref, err)
		}
		return v
	}

	var id string
	for _, ref := range []string{"P12", "Q12", "R12", "S12", "T12", "U12", "V12", "W12"} {
		id += cell(ref)
	}
	if id != "12301919" {
		t.Errorf("station id cells = %q, want 12301919", id)
	}
	if cell("Y12") != "2" || cell("AF12") != "1" || cell("AH12") != "1" || cell("AK12") != "0" {
		t.Errorf("window start cells = %q %q %q %q", cell("Y12"), cell("AF12"), cell("AH12"), cell("AK12"))
	}
	if cell("I28") != "Lake Koocanusa at forebay, nr Libby, MT" {
		t.Errorf("I28 = %q", cell("I28"))
	}
	if cell("D36") != "3132" || cell("H41") != "2" {
		t.Errorf("D36 = %q, H41 = %q", cell("D36"), cell("H41"))
	}
	if cell("L36") != "" || cell("AK14") != "" {
		t.Errorf("stale cells not cleared: L36 = %q, AK14 = %q", cell("L36"), cell("AK14"))
	}
}

func TestWriteForm_MissingSheet(t *testing.T) {
	wb := setupTestWorkbook(t)

	err := wb.WriteForm(models.FormInstance{Sheet: "ASR9", Fields: map[models.Field]string{}})
	var missing *MissingSheetError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingSheetError", err)
	}
	if missing.Sheet != "ASR9" {
		t.Errorf("Sheet = %q, want ASR9", missing.Sheet)
	}
}

func TestLogAppendsAfterExistingLines(t *testing.T) {
	wb := setupTestWorkbook(t)
	if err := wb.f.SetCellValue(LogSheet, "A1", "Done!"); err != nil {
		t.Fatal(err)
	}

	wb.Log("ASR for 20240501 1000 complete.")
	wb.Log("Done!")

	rows, err := wb.Rows(LogSheet)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	var got []string
	for _, r := range rows {
		got = append(got, r[0])
	}
	want := []string{"Done!", "ASR for 20240501 1000 complete.", "Done!"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("log rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAndReopen(t *testing.T) {
	wb := setupTestWorkbook(t)
	wb.Log("hello")
	if err := wb.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := Open(wb.Path())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	v, err := reopened.f.GetCellValue(LogSheet, "A1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if v != "hello" {
		t.Errorf("A1 = %q, want hello", v)
	}
	if _, err := reopened.StationInfo(); err != nil {
		t.Errorf("StationInfo after reopen: %v", err)
	}
}

func TestCellsIn(t *testing.T) {
	got, err := cellsIn("P12:R13")
	if err != nil {
		t.Fatalf("cellsIn: %v", err)
	}
	want := []string{"P12", "Q12", "R12", "P13", "Q13", "R13"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cellsIn mismatch (-want +got):\n%s", diff)
	}
}
