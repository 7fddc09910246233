package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/shortlinks/internal/config"
	"github.com/mrlokans/shortlinks/internal/entities"
	"github.com/mrlokans/shortlinks/internal/entrypoint"
	"github.com/mrlokans/shortlinks/internal/legacy"
)

// ImportLegacyCommand copies mappings from the old key/value store, either a
// live Redis server or a JSON export of it.
type ImportLegacyCommand struct {
	FilePath     string
	RedisAddr    string
	DatabasePath string
	Verbose      bool

	cfg *config.Config
}

func NewImportLegacyCommand(cfg *config.Config) *ImportLegacyCommand {
	return &ImportLegacyCommand{cfg: cfg}
}

func (cmd *ImportLegacyCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-legacy", flag.ContinueOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "JSON export of the legacy store ({\"path\": {...}})")
	fs.StringVar(&cmd.RedisAddr, "redis", "", "Address of the legacy Redis server (default: LEGACY_REDIS_ADDR)")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the mappings database")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every entry that failed to import")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-legacy (-file <path> | -redis <addr>) [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import mappings from the legacy key/value store. Existing paths,\n")
		fmt.Fprintf(os.Stderr, "reserved and empty keys are skipped; nothing is overwritten.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-legacy -redis localhost:6379\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-legacy -file export.json -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath != "" && cmd.RedisAddr != "" {
		return fmt.Errorf("-file and -redis are mutually exclusive")
	}
	if cmd.FilePath == "" && cmd.RedisAddr == "" && cmd.cfg.Legacy.RedisAddr == "" {
		return fmt.Errorf("one of -file or -redis is required when LEGACY_REDIS_ADDR is not set")
	}
	return nil
}

func (cmd *ImportLegacyCommand) Run() error {
	fmt.Println("Legacy Import")
	fmt.Println("=============")

	cfg := *cmd.cfg
	cfg.Database.Path = cmd.DatabasePath
	app, err := entrypoint.NewComponents(&cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	src, err := legacy.Open(legacy.SourceSpec{File: cmd.FilePath, RedisAddr: cmd.RedisAddr}, cfg.Legacy)
	if err != nil {
		return fmt.Errorf("open legacy source: %w", err)
	}
	defer src.Close()

	fmt.Printf("Source: %s\n\n", src.Name())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := app.Importer.Import(ctx, src)
	if result == nil {
		result = &legacy.ImportResult{Source: src.Name()}
	}
	app.Audit.LogImport(entities.AuditActorCLI, src.Name(), result.Imported, result.Skipped, result.Failed, err)

	fmt.Printf("Imported: %d\n", result.Imported)
	fmt.Printf("Skipped:  %d\n", result.Skipped)
	fmt.Printf("Failed:   %d\n", result.Failed)
	if result.SnapshotPath != "" {
		fmt.Printf("Snapshot: %s\n", result.SnapshotPath)
		if result.SnapshotTruncated {
			fmt.Println("          (first entries only)")
		}
	}

	if cmd.Verbose && len(result.Errors) > 0 {
		fmt.Println("\nFailures:")
		for _, e := range result.Errors {
			fmt.Printf("  %s: %s\n", e.Key, e.Error)
		}
	}

	if err != nil {
		return fmt.Errorf("import aborted: %w", err)
	}
	return nil
}
