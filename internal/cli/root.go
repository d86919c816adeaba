package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go-migration-audit/internal/config"
	"go-migration-audit/internal/logger"
)

// state is shared by every subcommand once the root pre-run has loaded it.
type state struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer

	logLevel   string
	logFile    string
	noColor    bool
	policyFile string
}

// NewRootCommand builds the auditor command tree.
func NewRootCommand() *cobra.Command {
	st := &state{}

	rootCmd := &cobra.Command{
		Use:   "auditor",
		Short: "Audit file inventory exports for migration naming and path compliance",
		Long: `auditor reads a file inventory export, reports names and paths that
would break a migration to the destination platform, and optionally
renames the offending items through the source platform's API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if st.closer != nil {
				_ = st.closer.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn or error (env LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&st.logFile, "log-file", "", "also write logs to this file (env LOG_FILE)")
	rootCmd.PersistentFlags().BoolVar(&st.noColor, "no-color", false, "disable colored console output")
	rootCmd.PersistentFlags().StringVar(&st.policyFile, "policy", "", "YAML policy file (env POLICY_FILE)")

	rootCmd.AddCommand(newAuditCommand(st), newServeCommand(st), newTokenCommand(st))

	return rootCmd
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return 0
}

func (st *state) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = st.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = st.logFile
	}
	if flags.Changed("no-color") {
		cfg.LogNoColor = st.noColor
	}
	if flags.Changed("policy") {
		if err := cfg.ApplyPolicyFile(st.policyFile); err != nil {
			return err
		}
	}

	log, closer, err := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		NoColor: cfg.LogNoColor,
	}, os.Stderr)
	if err != nil {
		return err
	}

	st.cfg = cfg
	st.logger = log
	st.closer = closer
	return nil
}
