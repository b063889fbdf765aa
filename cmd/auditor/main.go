// Command auditor runs the transcript audit from the command line.
//
//	auditor [-config file] [-out report.xlsx] call1.pdf call2.pdf ...
//	auditor [-config file] -watch inbox/ [-outbox reports/]
//	auditor [-config file] summarize [-out report.xlsx] existing.xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"sales-auditor-go/internal/aggregator"
	"sales-auditor-go/internal/config"
	"sales-auditor-go/internal/logger"
	"sales-auditor-go/internal/pipeline"
	"sales-auditor-go/internal/processor"
	"sales-auditor-go/internal/report"
	"sales-auditor-go/internal/types"
	"sales-auditor-go/internal/watch"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("auditor", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional YAML config file")
	out := fs.String("out", "", "output workbook (default: report.file_name)")
	watchDir := fs.String("watch", "", "process PDFs dropped into this directory")
	outbox := fs.String("outbox", "", "directory for watch-mode reports (default: the watched directory)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auditor: %v\n", err)
		return 1
	}
	log := logger.NewWith(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.Build(ctx, cfg, log, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auditor: %v\n", err)
		return 1
	}

	rest := fs.Args()
	switch {
	case *watchDir != "":
		return runWatch(ctx, cfg, p, log, *watchDir, *outbox)
	case len(rest) > 0 && rest[0] == "summarize":
		return runSummarize(ctx, p, rest[1:])
	case len(rest) == 0:
		fs.Usage()
		return 2
	}

	dest := *out
	if dest == "" {
		dest = cfg.Report.FileName
	}
	return runFiles(ctx, p, rest, dest)
}

func runFiles(ctx context.Context, p *pipeline.Pipeline, paths []string, dest string) int {
	files := make([]processor.Upload, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "auditor: %v\n", err)
			return 1
		}
		files = append(files, processor.Upload{Name: filepath.Base(path), Data: data})
	}

	progress := func(pr processor.Progress) {
		fmt.Fprintf(os.Stderr, "Processing %d/%d: %s (%s)\n", pr.Index, pr.Total, pr.File, pr.Status)
	}
	res, runErr := p.Processor.Run(ctx, aggregator.NewRun(), files, progress)
	for _, line := range res.Diagnostics {
		fmt.Println(line)
	}

	// Partial results are still written after a fatal error.
	if len(res.Records) > 0 {
		if err := writeWorkbook(dest, res.Report); err != nil {
			fmt.Fprintf(os.Stderr, "auditor: %v\n", err)
			return 1
		}
		fmt.Printf("Report written to %s (%d calls)\n", dest, len(res.Records))
	}
	if runErr != nil {
		return 1
	}
	return 0
}

func runWatch(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, log *logger.Logger, dir, outbox string) int {
	if outbox == "" {
		outbox = cfg.Watch.OutboxDir
	}
	w := watch.New(watch.Config{
		InboxDir:       dir,
		OutboxDir:      outbox,
		ReportFileName: cfg.Report.FileName,
		Debounce:       cfg.Watch.Debounce(),
	}, p.Processor, log)
	w.OnBatch = func(res processor.Result, path string) {
		fmt.Printf("Report written to %s (%d calls)\n", path, len(res.Records))
	}
	if _, err := w.Backfill(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "auditor: backfill: %v\n", err)
	}
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "auditor: %v\n", err)
		return 1
	}
	return 0
}

// runSummarize regenerates the summaries of an existing workbook.
func runSummarize(ctx context.Context, p *pipeline.Pipeline, args []string) int {
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	out := fs.String("out", "", "output workbook (default: overwrite the input)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: auditor summarize [-out report.xlsx] existing.xlsx")
		return 2
	}
	src := fs.Arg(0)

	f, err := os.Open(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "auditor: %v\n", err)
		return 1
	}
	records, err := report.ReadAnalysis(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "auditor: %s: %v\n", src, err)
		return 1
	}

	agents, team, err := p.Summary.Generate(ctx, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Summary Error: %v\n", err)
	}

	dest := *out
	if dest == "" {
		dest = src
	}
	if err := writeWorkbook(dest, types.Report{Records: records, AgentSummaries: agents, TeamInsights: team}); err != nil {
		fmt.Fprintf(os.Stderr, "auditor: %v\n", err)
		return 1
	}
	fmt.Printf("Report written to %s (%d calls, %d CSM summaries)\n", dest, len(records), len(agents))
	return 0
}

func writeWorkbook(path string, rep types.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Write(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
