package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/entities"
	"github.com/mrlokans/shortlinks/internal/entrypoint"
)

// SweepCommand deletes every mapping whose expiry has passed.
type SweepCommand struct {
	DatabasePath string
	BatchSize    int

	cfg *config.Config
}

func NewSweepCommand(cfg *config.Config) *SweepCommand {
	return &SweepCommand{cfg: cfg}
}

func (cmd *SweepCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the mappings database")
	fs.IntVar(&cmd.BatchSize, "batch", cmd.cfg.Sweep.BatchSize, "Number of mappings deleted per batch")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sweep [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete every mapping whose expiry has passed, disabled ones included.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sweep -batch 500\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.BatchSize < 1 {
		return fmt.Errorf("-batch must be at least 1, got %d", cmd.BatchSize)
	}
	return nil
}

func (cmd *SweepCommand) Run() error {
	fmt.Println("Expired Mapping Sweep")
	fmt.Println("=====================")

	cfg := *cmd.cfg
	cfg.Database.Path = cmd.DatabasePath
	app, err := entrypoint.NewComponents(&cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Links.Sweep(context.Background(), cmd.BatchSize)
	app.Audit.LogSweep(entities.AuditActorCLI, result.Deleted, result.Batches, result.Cutoff, err)
	if err != nil {
		return fmt.Errorf("sweep failed after deleting %d mappings: %w", result.Deleted, err)
	}

	fmt.Printf("Cutoff:  %s\n", result.Cutoff.In(app.Location).Format("2006-01-02 15:04 MST"))
	fmt.Printf("Deleted: %d mappings in %d batches\n", result.Deleted, result.Batches)
	return nil
}
