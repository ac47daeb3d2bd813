// Command rank folds fight files into Elo ratings once and writes the
// ranking as CSV, optionally printing the top of the table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	app "github.com/okian/fightelo/internal/app"
	"github.com/okian/fightelo/pkg/logger"
)

// Default configuration constants.
const (
	defaultOutput = "fighter_elo.csv"
	defaultTopN   = 25
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		output    = fs.String("out", defaultOutput, "CSV output path; empty disables the export")
		topN      = fs.Int("top", defaultTopN, "Number of leaders to print; 0 prints nothing")
		fighter   = fs.String("fighter", "", "Print the rank and fight history of one fighter")
		workers   = fs.Int("workers", runtime.NumCPU(), "Number of files decoded concurrently")
		dedupe    = fs.Bool("dedupe", false, "Drop repeated identical fight records")
		drawPeak  = fs.Bool("draw-peak", false, "Let draws raise peak ratings")
		logLevel  = fs.String("log-level", "warn", "Log level: debug, info, warn, error")
		logFormat = fs.String("log-format", "text", "Log format: text or json")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: rank [flags] fights.json [more.json ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	files := fs.Args()
	if len(files) == 0 {
		files = []string{"fights.json"}
	}

	if err := logger.InitWith(stderr, *logFormat); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return 2
	}
	if err := logger.SetLevelString(*logLevel); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	opts := []app.Option{
		app.WithLogger(logger.Named("rank")),
		app.WithFightsFiles(files...),
		app.WithLoaderWorkers(*workers),
		app.WithDrawPeakTracking(*drawPeak),
		app.WithExportCSV(*output),
	}
	if *dedupe {
		opts = append(opts, app.WithDedupe(0))
	}
	svc := app.New(opts...)

	report, err := svc.Rebuild(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "rank failed:", err)
		return 1
	}

	stats := svc.GetStats(ctx)
	fmt.Fprintf(stdout, "Loaded %d fights from %s\n", report.Total, strings.Join(files, ", "))
	fmt.Fprintf(stdout, "Rated %d fighters: %d decisive, %d draws, %d skipped, %d invalid",
		stats.Competitors, report.Decisive, report.Draws, report.Unknown, len(report.Invalid))
	if *dedupe {
		fmt.Fprintf(stdout, ", %d duplicates", stats.Duplicates)
	}
	fmt.Fprintln(stdout)
	if *output != "" {
		fmt.Fprintf(stdout, "Elo rankings saved to %s\n", *output)
	}

	if *fighter != "" {
		return printFighter(ctx, svc, *fighter, stdout, stderr)
	}
	if *topN > 0 {
		return printLeaders(ctx, svc, *topN, stdout, stderr)
	}
	return 0
}

func printLeaders(ctx context.Context, svc *app.Service, n int, stdout, stderr io.Writer) int {
	entries, err := svc.TopN(ctx, n)
	if err != nil {
		fmt.Fprintln(stderr, "leaderboard failed:", err)
		return 1
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tFIGHTER\tELO\tPEAK\tMATCHES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%.0f\t%.0f\t%d\n", e.Rank, e.FighterID, e.Rating, e.PeakRating, e.Matches)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintln(stderr, "write leaderboard:", err)
		return 1
	}
	return 0
}

func printFighter(ctx context.Context, svc *app.Service, id string, stdout, stderr io.Writer) int {
	entry, err := svc.Rank(ctx, id)
	if err != nil {
		fmt.Fprintf(stderr, "fighter %q: %v\n", id, err)
		return 1
	}
	history, err := svc.History(ctx, id)
	if err != nil {
		fmt.Fprintf(stderr, "fighter %q: %v\n", id, err)
		return 1
	}

	fmt.Fprintf(stdout, "#%d %s  elo %.0f  peak %.0f  matches %d\n",
		entry.Rank, entry.FighterID, entry.Rating, entry.PeakRating, entry.Matches)
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tRESULT\tOPPONENT\tELO AFTER")
	for i, h := range history {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.0f\n", i+1, h.Result, h.Opponent, h.RatingAfter)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintln(stderr, "write history:", err)
		return 1
	}
	return 0
}
