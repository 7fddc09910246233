package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/entrypoint"
	"github.com/mrlokans/shortlinks/internal/links"
	"github.com/mrlokans/shortlinks/internal/scheduler"
)

// ExpiryReportCommand prints the mappings that have expired or expire soon.
type ExpiryReportCommand struct {
	DatabasePath string
	JSON         bool
	Snapshot     bool

	cfg *config.Config
}

func NewExpiryReportCommand(cfg *config.Config) *ExpiryReportCommand {
	return &ExpiryReportCommand{cfg: cfg}
}

func (cmd *ExpiryReportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("expiry-report", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the mappings database")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the report as JSON")
	fs.BoolVar(&cmd.Snapshot, "snapshot", false, "Also save the report to the audit directory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s expiry-report [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List enabled mappings that have expired or expire within %d days.\n\n", links.ExpiryHorizonDays)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ExpiryReportCommand) Run() error {
	cfg := *cmd.cfg
	cfg.Database.Path = cmd.DatabasePath
	app, err := entrypoint.NewComponents(&cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Links.Classify(context.Background())
	if err != nil {
		return fmt.Errorf("classify mappings: %w", err)
	}
	summary := scheduler.Summarize(report)

	if cmd.Snapshot && (len(summary.Expired) > 0 || len(summary.Expiring) > 0) {
		file, err := app.Auditor.SaveJSON("expiry-report", summary)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Snapshot saved as %s\n", file)
	}

	if cmd.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Println("Expiry Report")
	fmt.Println("=============")
	fmt.Printf("Generated: %s\n\n", report.GeneratedAt.In(app.Location).Format("2006-01-02 15:04 MST"))

	printEntries(fmt.Sprintf("Expired (%d)", len(summary.Expired)), summary.Expired, app.Location)
	printEntries(fmt.Sprintf("Expiring within %d days (%d)", links.ExpiryHorizonDays, len(summary.Expiring)), summary.Expiring, app.Location)
	return nil
}

func printEntries(title string, entries []scheduler.ReportEntry, loc *time.Location) {
	fmt.Println(title)
	if len(entries) == 0 {
		fmt.Println("  none")
	}
	for _, e := range entries {
		name := ""
		if e.Name != nil && *e.Name != "" {
			name = " (" + *e.Name + ")"
		}
		fmt.Printf("  %s  /%s%s -> %s\n", e.Expiry.In(loc).Format("2006-01-02"), e.Path, name, e.Target)
	}
	fmt.Println()
}
