package models

import (
	"time"
)

// StationInfo is the station_info block exactly as read from the workbook.
// Empty strings mean the cell was blank.
type StationInfo struct {
	StationID           string
	Depth               string
	ShipDate            string
	SpecificConductance string
	BlankDateTime       string
}

// Station is the normalized form of StationInfo.
type Station struct {
	ID          string
	Name        string
	Depth       string // integer metres, or the river sentinel
	ShipDate    string // 01/02/2006
	Conductance string
	BlankAt     *time.Time
}

type SampleRecord struct {
	Row        int // worksheet row, 0 when unknown
	SampleID   string
	DateTime   string
	Temp       string
	LiBatt     string
	PicBatt    string
	Volume     string
	Comment    string
	ASRComment string
	Invalid    string
	Type       string // "fa" or "ra", any case
}

// Empty reports whether every column of the row is blank.
func (r SampleRecord) Empty() bool {
	return r.SampleID == "" && r.DateTime == "" && r.Temp == "" && r.LiBatt == "" &&
		r.PicBatt == "" && r.Volume == "" && r.Comment == "" && r.ASRComment == "" &&
		r.Invalid == "" && r.Type == ""
}

type SampleGroup struct {
	Key     string
	Records []SampleRecord
}

// Field is a logical ASR form field. The workbook layout maps it to cells.
type Field int

const (
	FieldStationID Field = iota
	FieldWindowStart
	FieldWindowEnd
	FieldStationName
	FieldComment
	FieldShipDate
	FieldConductance
	FieldConductanceRemark
	FieldPrimaryCode
	FieldSecondaryCode
	FieldFACount
	FieldRACount
)

var fieldNames = map[Field]string{
	FieldStationID:         "station_id",
	FieldWindowStart:       "window_start",
	FieldWindowEnd:         "window_end",
	FieldStationName:       "station_name",
	FieldComment:           "comment",
	FieldShipDate:          "ship_date",
	FieldConductance:       "conductance",
	FieldConductanceRemark: "conductance_remark",
	FieldPrimaryCode:       "primary_code",
	FieldSecondaryCode:     "secondary_code",
	FieldFACount:           "fa_count",
	FieldRACount:           "ra_count",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// AllFields lists every Field in declaration order.
func AllFields() []Field {
	fields := make([]Field, 0, len(fieldNames))
	for f := FieldStationID; f <= FieldRACount; f++ {
		fields = append(fields, f)
	}
	return fields
}

// FormInstance is one filled ASR sheet.
type FormInstance struct {
	Sheet       string
	Fields      map[Field]string
	WindowStart time.Time
	WindowEnd   time.Time // zero for the blank form
	FACount     int
	RACount     int
	Comment     string
	Blank       bool
}

// Value returns the assigned value of f, or "" when unassigned.
func (fi FormInstance) Value(f Field) string {
	return fi.Fields[f]
}
