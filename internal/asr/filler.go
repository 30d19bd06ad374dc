package asr

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/lox/servoasr/internal/models"
)

const (
	FACode = "3132"
	RACode = "3306"

	BlankSheet       = "blank"
	BlankComment     = "ServoSipper Blank"
	BlankConductance = "2"
	BlankRemark      = "E"

	FileSuffix = "_NWQL_ASR_Servo.pdf"
)

// DatePolicy decides what happens to the remaining groups when a group's
// date-time cannot be parsed.
type DatePolicy string

const (
	// PolicyAbort stops at the first bad group and keeps the forms built so far.
	PolicyAbort DatePolicy = "abort"
	// PolicySkip drops only the bad group.
	PolicySkip DatePolicy = "skip"
)

func ParseDatePolicy(s string) (DatePolicy, error) {
	switch p := DatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyAbort, PolicySkip:
		return p, nil
	case "":
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown date policy %q (want abort or skip)", s)
	}
}

// LogSink receives the user-facing status lines of a run.
type LogSink interface {
	Log(msg string)
}

type discardSink struct{}

func (discardSink) Log(string) {}

// Batch is the output of one Fill.
type Batch struct {
	Station  models.Station
	Forms    []models.FormInstance
	FileName string
	Warnings []string
	Skipped  int
	Aborted  bool
}

// Sheets returns the sheet names of the batch's forms in export order.
func (b *Batch) Sheets() []string {
	sheets := make([]string, 0, len(b.Forms))
	for _, f := range b.Forms {
		sheets = append(sheets, f.Sheet)
	}
	return sheets
}

type Filler struct {
	Policy DatePolicy
	Sink   LogSink
	Now    func() time.Time
}

func NewFiller(policy DatePolicy, sink LogSink) *Filler {
	if sink == nil {
		sink = discardSink{}
	}
	return &Filler{Policy: policy, Sink: sink, Now: time.Now}
}

// Fill derives the ASR forms and output file name for one station's sample
// log. Lookup and pairing failures are fatal and return no batch.
func (f *Filler) Fill(info models.StationInfo, rows []models.SampleRecord) (*Batch, error) {
	b := &Batch{}

	st, err := f.NormalizeStation(b, info)
	if err != nil {
		return nil, fmt.Errorf("normalize station: %w", err)
	}
	b.Station = st

	samples, err := NormalizeSamples(rows)
	if err != nil {
		return nil, fmt.Errorf("normalize samples: %w", err)
	}

	for _, g := range GroupSamples(samples) {
		start, err := ParseDateTime(g.Key)
		if err != nil {
			if f.Policy == PolicySkip {
				f.warn(b, fmt.Sprintf("Invalid sample datetime %s.  Could not be parsed, skipping.", g.Key))
				b.Skipped++
				continue
			}
			f.warn(b, fmt.Sprintf("Invalid sample datetime %s.  Could not be parsed.  Exiting now.", g.Key))
			b.Aborted = true
			break
		}

		form := f.groupForm(b, len(b.Forms)+1, st, g, start)
		b.Forms = append(b.Forms, form)
		f.emit(fmt.Sprintf("ASR for %s complete.", start.Format(WindowLayout)))
	}

	if st.BlankAt != nil {
		b.Forms = append(b.Forms, blankForm(st))
		f.emit(fmt.Sprintf("ASR for blank on %s complete.", st.BlankAt.Format(WindowLayout)))
	}

	b.FileName = f.fileName(b, st, samples)
	return b, nil
}

func (f *Filler) groupForm(b *Batch, n int, st models.Station, g models.SampleGroup, start time.Time) models.FormInstance {
	end := start.AddDate(0, 0, 6)
	form := models.FormInstance{
		Sheet:       "ASR" + strconv.Itoa(n),
		Fields:      stationFields(st),
		WindowStart: start,
		WindowEnd:   end,
		Comment:     CleanComments(g.Records),
	}
	form.Fields[models.FieldWindowStart] = start.Format(WindowLayout)
	form.Fields[models.FieldWindowEnd] = end.Format(WindowLayout)
	form.Fields[models.FieldConductance] = st.Conductance

	fa, ra := countTypes(g.Records)
	if fa > 0 {
		form.FACount = fa
		form.Fields[models.FieldPrimaryCode] = FACode
		form.Fields[models.FieldFACount] = strconv.Itoa(fa)
	} else {
		f.warn(b, "No FA sample found on "+start.Format(WindowLayout))
	}
	if ra > 0 {
		form.RACount = ra
		if _, ok := form.Fields[models.FieldPrimaryCode]; ok {
			form.Fields[models.FieldSecondaryCode] = RACode
		} else {
			form.Fields[models.FieldPrimaryCode] = RACode
		}
		form.Fields[models.FieldRACount] = strconv.Itoa(ra)
	} else {
		f.warn(b, "No RA sample found on "+start.Format(WindowLayout))
	}

	if st.ID == RiverSiteID {
		form.Fields[models.FieldComment] = form.Comment
	} else {
		form.Fields[models.FieldComment] = DepthPrefixed(st, form.Comment+"  ")
	}
	return form
}

func blankForm(st models.Station) models.FormInstance {
	form := models.FormInstance{
		Sheet:       BlankSheet,
		Fields:      stationFields(st),
		WindowStart: *st.BlankAt,
		FACount:     1,
		Comment:     BlankComment,
		Blank:       true,
	}
	form.Fields[models.FieldWindowStart] = st.BlankAt.Format(WindowLayout)
	form.Fields[models.FieldPrimaryCode] = FACode
	form.Fields[models.FieldFACount] = "1"
	form.Fields[models.FieldConductance] = BlankConductance
	form.Fields[models.FieldConductanceRemark] = BlankRemark
	form.Fields[models.FieldComment] = DepthPrefixed(st, BlankComment)
	return form
}

func stationFields(st models.Station) map[models.Field]string {
	return map[models.Field]string{
		models.FieldStationID:   st.ID,
		models.FieldStationName: st.Name,
		models.FieldShipDate:    st.ShipDate,
	}
}

// fileName is <station>_<first sample time>[_<depth>m]_NWQL_ASR_Servo.pdf.
func (f *Filler) fileName(b *Batch, st models.Station, samples []models.SampleRecord) string {
	var stamp time.Time
	if len(samples) > 0 {
		if t, err := ParseDateTime(samples[0].DateTime); err == nil {
			stamp = t
		}
	}
	if stamp.IsZero() {
		f.warn(b, "No sample datetime for the file name, using the current time.")
		stamp = f.now()
	}

	name := st.ID + "_" + stamp.Format(FileLayout)
	if st.ID != RiverSiteID {
		name += "_" + st.Depth + "m"
	}
	return name + FileSuffix
}

func (f *Filler) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

func (f *Filler) emit(msg string) {
	log.Print(msg)
	if f.Sink != nil {
		f.Sink.Log(msg)
	}
}

func (f *Filler) warn(b *Batch, msg string) {
	b.Warnings = append(b.Warnings, msg)
	f.emit(msg)
}
