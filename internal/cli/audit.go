package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"go-migration-audit/internal/app"
	"go-migration-audit/internal/config"
	"go-migration-audit/internal/event"
	"go-migration-audit/internal/inventory"
	"go-migration-audit/internal/model"
)

type auditFlags struct {
	mode          string
	format        string
	sheet         string
	headerRows    int
	delimiter     string
	owners        []string
	excluded      []string
	maxPathLength int
	maxFileSizeGB float64
	baseURL       string
	workers       int
	rate          float64
	attempts      int
	trailFile     string
	jsonOutput    bool
	progress      bool
}

func newAuditCommand(st *state) *cobra.Command {
	flags := &auditFlags{}

	cmd := &cobra.Command{
		Use:   "audit <inventory-file>",
		Short: "Evaluate an inventory export and optionally apply corrections",
		Example: `  auditor audit export.xlsx
  auditor audit --mode apply --owner boxadmin@example.edu.au export.xlsx
  auditor audit --format tsv --header-rows 2 export.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, st.cfg); err != nil {
				return err
			}
			if err := st.cfg.ValidateAudit(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var bus event.Bus
			if flags.progress {
				progressBus := event.NewBus()
				stopProgress := watchProgress(progressBus, cmd.ErrOrStderr())
				defer stopProgress()
				bus = progressBus
			}

			run, err := app.RunAudit(ctx, st.cfg, st.logger, bus, args[0])
			if run.RunID != "" {
				if printErr := printRun(cmd.OutOrStdout(), run, flags.jsonOutput); printErr != nil {
					return printErr
				}
			}
			if err != nil {
				return err
			}

			if run.Status != model.RunStatusCompleted {
				return fmt.Errorf("%w: status %s", errRunFailed, run.Status)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.mode, "mode", "", "dry-run or apply (env AUDIT_MODE)")
	f.StringVar(&flags.format, "format", "", "inventory format: xlsx, csv or tsv (default: from extension)")
	f.StringVar(&flags.sheet, "sheet", "", "worksheet to read (default: first sheet)")
	f.IntVar(&flags.headerRows, "header-rows", 1, "leading rows to skip")
	f.StringVar(&flags.delimiter, "delimiter", "", "field separator for delimited text")
	f.StringSliceVar(&flags.owners, "owner", nil, "owner login authorized for renames (repeatable, env AUTHORIZED_OWNERS)")
	f.StringSliceVar(&flags.excluded, "exclude", nil, "path fragment excluded from character rules (repeatable, env EXCLUDED_PATHS)")
	f.IntVar(&flags.maxPathLength, "max-path-length", 0, "path length limit")
	f.Float64Var(&flags.maxFileSizeGB, "max-file-size-gb", 0, "file size limit in gigabytes")
	f.StringVar(&flags.baseURL, "api-base-url", "", "item API base URL (env BOX_API_BASE_URL)")
	f.IntVar(&flags.workers, "workers", 0, "concurrent rename workers (env RENAME_WORKERS)")
	f.Float64Var(&flags.rate, "rate", 0, "rename API calls per second, 0 for unlimited (env RENAME_RATE_PER_SECOND)")
	f.IntVar(&flags.attempts, "attempts", 0, "attempts per API call (env RENAME_MAX_ATTEMPTS)")
	f.StringVar(&flags.trailFile, "trail-file", "", "JSONL audit trail path (env AUDIT_TRAIL_FILE)")
	f.BoolVar(&flags.jsonOutput, "json", false, "print the run summary as JSON")
	f.BoolVar(&flags.progress, "progress", false, "print proposed and applied renames to stderr as they happen")

	return cmd
}

// apply overlays the flags the user set onto cfg.
func (a *auditFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("mode") {
		cfg.Mode = model.Mode(a.mode)
	}
	if changed("format") {
		cfg.Inventory.Format = inventory.Format(a.format)
	}
	if changed("sheet") {
		cfg.Inventory.Sheet = a.sheet
	}
	if changed("header-rows") {
		cfg.Inventory.HeaderRows = a.headerRows
	}
	if changed("delimiter") {
		r, size := utf8.DecodeRuneInString(a.delimiter)
		if r == utf8.RuneError || size != len(a.delimiter) {
			return fmt.Errorf("%w: delimiter must be a single character", model.ErrInvalidInput)
		}
		cfg.Inventory.Delimiter = r
	}
	if changed("owner") {
		cfg.Policy.AuthorizedOwners = a.owners
	}
	if changed("exclude") {
		cfg.Policy.ExcludedPathPrefixes = a.excluded
	}
	if changed("max-path-length") {
		cfg.Policy.MaxPathLength = a.maxPathLength
	}
	if changed("max-file-size-gb") {
		cfg.Policy.MaxFileSizeGB = a.maxFileSizeGB
	}
	if changed("api-base-url") {
		cfg.BoxBaseURL = a.baseURL
	}
	if changed("workers") {
		cfg.RenameWorkers = a.workers
	}
	if changed("rate") {
		cfg.RenameRate = a.rate
	}
	if changed("attempts") {
		cfg.RenameAttempts = a.attempts
	}
	if changed("trail-file") {
		cfg.AuditTrailFile = a.trailFile
	}

	return nil
}

func printRun(w io.Writer, run model.AuditRun, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	elapsed := ""
	if started, err := time.Parse(time.RFC3339Nano, run.StartedAt); err == nil {
		if finished, err := time.Parse(time.RFC3339Nano, run.FinishedAt); err == nil {
			elapsed = finished.Sub(started).Round(time.Millisecond).String()
		}
	}

	_, err := fmt.Fprintf(w,
		"run %s (%s) %s\n  rows: %d  excluded: %d\n  findings: %d  warnings: %d  errors: %d\n  rename intents: %d  ok: %d  failed: %d\n",
		run.RunID, run.Mode, run.Status,
		run.Rows, run.Excluded,
		run.Findings, run.Warnings, run.Errors,
		run.Intents, run.RenamesOK, run.RenamesFailed,
	)
	if err != nil {
		return err
	}
	if elapsed != "" {
		if _, err := fmt.Fprintf(w, "  elapsed: %s\n", elapsed); err != nil {
			return err
		}
	}
	if run.FailureMessage != "" {
		_, err = fmt.Fprintf(w, "  failure: %s\n", run.FailureMessage)
	}
	return err
}
