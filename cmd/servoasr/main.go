package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/servoasr/internal/asr"
	"github.com/lox/servoasr/internal/deliver"
	"github.com/lox/servoasr/internal/metrics"
	"github.com/lox/servoasr/internal/runner"
	"github.com/lox/servoasr/internal/store"
)

// debugWorkbook is used when --debug is given instead of a workbook path.
const debugWorkbook = "testing.xlsm"

type CLI struct {
	DB string `help:"Path to the SQLite run ledger (empty disables it)." default:"data/servoasr.db" env:"SERVOASR_DB"`

	Generate GenerateCmd `cmd:"" default:"withargs" help:"Fill the ASR sheets of a workbook and export them to PDF."`
	History  HistoryCmd  `cmd:"" help:"List recent generate runs."`
	Extract  ExtractCmd  `cmd:"" help:"Write the PDF archived by a run back to disk."`
}

type GenerateCmd struct {
	Workbook    string `arg:"" optional:"" help:"Workbook holding the station_info and data_range tables."`
	Debug       bool   `help:"Use ./testing.xlsm instead of a workbook argument."`
	DatePolicy  string `help:"What to do with a sample group whose date-time cannot be parsed." enum:"abort,skip" default:"abort" env:"SERVOASR_DATE_POLICY"`
	DryRun      bool   `help:"Build the forms and log them without touching the workbook."`
	Previews    bool   `help:"Also write a PNG preview of every exported sheet."`
	MetricsFile string `help:"Write Prometheus metrics to this textfile after the run." env:"SERVOASR_METRICS_FILE"`

	FTPAddr     string        `name:"ftp-addr" help:"Lab FTP drop box, host:port." env:"SERVOASR_FTP_ADDR"`
	FTPUser     string        `name:"ftp-user" env:"SERVOASR_FTP_USER"`
	FTPPassword string        `name:"ftp-password" env:"SERVOASR_FTP_PASSWORD"`
	FTPDir      string        `name:"ftp-dir" help:"Remote directory for uploads." env:"SERVOASR_FTP_DIR"`
	FTPTimeout  time.Duration `name:"ftp-timeout" default:"30s" env:"SERVOASR_FTP_TIMEOUT"`
}

func (g *GenerateCmd) Run(cli *CLI) error {
	path := g.Workbook
	if path == "" || g.Debug {
		path = debugWorkbook
		log.Println("debugging triggered, generating ASRs with test workbook")
	}

	policy, err := asr.ParseDatePolicy(g.DatePolicy)
	if err != nil {
		return err
	}

	st, closeDB, err := openStore(cli.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	opts := runner.Options{
		WorkbookPath: path,
		Policy:       policy,
		DryRun:       g.DryRun,
		Previews:     g.Previews,
		Store:        st,
	}
	if g.FTPAddr != "" {
		opts.Uploader = deliver.NewFTPUploader(deliver.Config{
			Addr:     g.FTPAddr,
			User:     g.FTPUser,
			Password: g.FTPPassword,
			Dir:      g.FTPDir,
			Timeout:  g.FTPTimeout,
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, runErr := runner.Generate(ctx, opts)

	if g.MetricsFile != "" {
		if err := metrics.WriteTextfile(g.MetricsFile); err != nil {
			log.Printf("write metrics: %v", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if res.PDFPath != "" {
		log.Printf("wrote %d ASRs to %s", len(res.Written), res.PDFPath)
	}
	log.Println("Done!")
	return nil
}

type HistoryCmd struct {
	Station string `help:"Only show runs for this station id."`
	Limit   int    `help:"Number of runs to show." default:"20"`
	Forms   bool   `help:"List the forms of each run."`
}

func (h *HistoryCmd) Run(cli *CLI) error {
	if cli.DB == "" {
		return fmt.Errorf("history needs a run ledger (--db)")
	}
	st, closeDB, err := openStore(cli.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := st.RecentRuns(h.Station, h.Limit)
	if err != nil {
		return fmt.Errorf("recent runs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATION\tFORMS\tWARNINGS\tSTATUS\tOUTPUT")
	for _, r := range runs {
		status := "ok"
		switch {
		case !r.Success:
			status = "failed: " + r.ErrorMessage.String
		case r.Aborted:
			status = "aborted"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n", r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.StationID.String, r.Forms, r.Warnings, status, r.OutputPath.String)

		if !h.Forms {
			continue
		}
		forms, err := st.FormsForRun(r.ID)
		if err != nil {
			return fmt.Errorf("forms for run %d: %w", r.ID, err)
		}
		for _, f := range forms {
			fmt.Fprintf(w, "\t  %s\t%s\tFA %d\tRA %d\t%s\t\n", f.Sheet,
				f.WindowStart.Format(asr.WindowLayout), f.FACount, f.RACount, f.Comment)
		}
	}
	return w.Flush()
}

type ExtractCmd struct {
	RunID  int64  `arg:"" help:"Run ID as shown by history."`
	Output string `short:"o" help:"Destination file (defaults to the archived file name)."`
}

func (e *ExtractCmd) Run(cli *CLI) error {
	if cli.DB == "" {
		return fmt.Errorf("extract needs a run ledger (--db)")
	}
	st, closeDB, err := openStore(cli.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	path, err := runner.ExtractPDF(st, e.RunID, e.Output)
	if err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}

// openStore opens and migrates the ledger. An empty path returns a nil store.
func openStore(path string) (*store.Store, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	if err := runner.SeedStations(st); err != nil {
		db.Close()
		return nil, nil, err
	}
	return st, func() { db.Close() }, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("servoasr"),
		kong.Description("Generate NWQL ServoSipper ASR PDFs from a sample log workbook."),
		kong.UsageOnError(),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	if err := ctx.Run(&cli); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}
