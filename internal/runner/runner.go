package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/servoasr/internal/asr"
	"github.com/lox/servoasr/internal/export"
	"github.com/lox/servoasr/internal/metrics"
	"github.com/lox/servoasr/internal/models"
	"github.com/lox/servoasr/internal/store"
	"github.com/lox/servoasr/internal/workbook"
)

// OutputDir is the folder, next to the workbook, that receives the PDFs.
const OutputDir = "ASRs"

// Uploader delivers an exported PDF.
type Uploader interface {
	Upload(ctx context.Context, path string) error
}

type Options struct {
	WorkbookPath string
	Policy       asr.DatePolicy
	DryRun       bool
	Previews     bool
	Store        *store.Store // optional run ledger
	Uploader     Uploader     // optional
	Now          func() time.Time
}

type Result struct {
	Batch    *asr.Batch
	Written  []models.FormInstance
	PDFPath  string
	Previews []string
}

// Generate runs one pass over a workbook: read inputs, fill forms, write
// them to the template sheets, export the PDF and save the workbook.
// Problems are logged to the workbook's log sheet; fatal ones are also
// returned.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	wb, err := workbook.Open(opts.WorkbookPath)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	var run *store.Run
	if opts.Store != nil {
		run, err = opts.Store.StartRun(opts.WorkbookPath, string(opts.Policy))
		if err != nil {
			log.Printf("runner: start ledger run: %v", err)
		}
	}

	res, genErr := generate(ctx, wb, opts)

	if !opts.DryRun {
		if genErr != nil {
			wb.Log("Failed: " + genErr.Error())
		} else {
			wb.Log("Done!")
		}
		if err := wb.Save(); err != nil && genErr == nil {
			genErr = err
		}
	}

	record(opts.Store, run, res, genErr)
	return res, genErr
}

func generate(ctx context.Context, wb *workbook.Workbook, opts Options) (*Result, error) {
	var sink asr.LogSink = wb
	if opts.DryRun {
		sink = nil
	}
	filler := asr.NewFiller(opts.Policy, sink)
	if opts.Now != nil {
		filler.Now = opts.Now
	}

	info, err := wb.StationInfo()
	if err != nil {
		return nil, fmt.Errorf("read station info: %w", err)
	}
	rows, err := wb.Samples()
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}

	batch, err := filler.Fill(info, rows)
	if err != nil {
		return nil, err
	}
	res := &Result{Batch: batch}

	if opts.DryRun {
		for _, form := range batch.Forms {
			log.Printf("runner: dry run %s: %s to %s", form.Sheet,
				form.Value(models.FieldWindowStart), form.Value(models.FieldWindowEnd))
		}
		return res, nil
	}

	for _, form := range batch.Forms {
		if err := wb.WriteForm(form); err != nil {
			var missing *workbook.MissingSheetError
			if errors.As(err, &missing) {
				wb.Log(fmt.Sprintf("No %s sheet in workbook, remaining ASRs not written.", missing.Sheet))
				break
			}
			return res, fmt.Errorf("write %s: %w", form.Sheet, err)
		}
		res.Written = append(res.Written, form)
	}

	if len(res.Written) == 0 {
		wb.Log("No ASRs generated.")
		return res, nil
	}

	sheets := make([]string, 0, len(res.Written))
	for _, form := range res.Written {
		sheets = append(sheets, form.Sheet)
	}

	res.PDFPath = filepath.Join(wb.Dir(), OutputDir, batch.FileName)
	if err := export.PDF(wb, res.PDFPath, sheets); err != nil {
		return res, fmt.Errorf("export pdf: %w", err)
	}

	if opts.Previews {
		dir := strings.TrimSuffix(res.PDFPath, filepath.Ext(res.PDFPath))
		res.Previews, err = export.Previews(wb, dir, sheets)
		if err != nil {
			log.Printf("runner: previews: %v", err)
		}
	}

	if opts.Uploader != nil {
		if err := opts.Uploader.Upload(ctx, res.PDFPath); err != nil {
			wb.Log("Upload failed: " + err.Error())
			return res, fmt.Errorf("upload: %w", err)
		}
		wb.Log("Uploaded " + batch.FileName)
	}

	return res, nil
}

func record(st *store.Store, run *store.Run, res *Result, genErr error) {
	status := "success"
	if genErr != nil {
		status = "failed"
	}
	metrics.RunsTotal.WithLabelValues(status).Inc()
	metrics.LastRunTimestamp.SetToCurrentTime()

	if res != nil && res.Batch != nil {
		id := res.Batch.Station.ID
		for _, form := range res.Written {
			kind := "sample"
			if form.Blank {
				kind = "blank"
			}
			metrics.FormsGenerated.WithLabelValues(id, kind).Inc()
		}
		metrics.Warnings.WithLabelValues(id).Add(float64(len(res.Batch.Warnings)))
		metrics.GroupsSkipped.WithLabelValues(id).Add(float64(res.Batch.Skipped))
	}

	if st == nil || run == nil {
		return
	}

	run.Success = genErr == nil
	if genErr != nil {
		run.ErrorMessage = sql.NullString{String: genErr.Error(), Valid: true}
	}
	if res != nil && res.Batch != nil {
		run.StationID = sql.NullString{String: res.Batch.Station.ID, Valid: true}
		run.Forms = len(res.Written)
		run.Warnings = len(res.Batch.Warnings)
		run.Skipped = res.Batch.Skipped
		run.Aborted = res.Batch.Aborted
		if err := st.InsertForms(run.ID, res.Written); err != nil {
			log.Printf("runner: record forms: %v", err)
		}
	}
	if res != nil && res.PDFPath != "" {
		run.OutputPath = sql.NullString{String: res.PDFPath, Valid: true}
		if data, err := os.ReadFile(res.PDFPath); err == nil {
			if _, err := st.StoreArtifact(run.ID, filepath.Base(res.PDFPath), data); err != nil {
				log.Printf("runner: archive pdf: %v", err)
			}
		}
	}
	if err := st.CompleteRun(run); err != nil {
		log.Printf("runner: complete ledger run: %v", err)
	}
}

// SeedStations records the fixed station lookup in the ledger.
func SeedStations(st *store.Store) error {
	for id, name := range asr.Stations {
		if err := st.UpsertStation(store.Station{StationID: id, Name: name, RiverSite: id == asr.RiverSiteID}); err != nil {
			return fmt.Errorf("upsert station %s: %w", id, err)
		}
	}
	return nil
}

// ExtractPDF writes the PDF archived by a ledger run to out. An empty out
// uses the archived file name in the current directory.
func ExtractPDF(st *store.Store, runID int64, out string) (string, error) {
	id, err := st.ArtifactForRun(runID)
	if err != nil {
		return "", err
	}
	name, data, err := st.GetArtifact(id)
	if err != nil {
		return "", err
	}
	if out == "" {
		out = name
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}
