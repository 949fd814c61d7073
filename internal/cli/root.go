// Package cli implements the watchlist operator command line: screening,
// subject lookups, whitelist maintenance, log listing, migrations and
// development tokens.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"watchlist/internal/bootstrap"
	"watchlist/internal/platform/config"
	"watchlist/internal/platform/logger"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

var (
	// Version info set from main
	version = "dev"
	commit  = "unknown"
)

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c string) {
	version = v
	commit = c
}

type app struct {
	out     io.Writer
	errOut  io.Writer
	format  string
	envFile string
	verbose bool
}

// Execute runs the root command against stdout.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree writing results to out and
// diagnostics to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "watchlist",
		Short: "Screen names against consolidated sanctions watchlists",
		Long: `watchlist scores names against the CANADA, UAE, UN, UK, OFAC and EU
sanctions lists and manages the screening log.

Storage follows the same environment as the server: DATABASE_URL selects
Postgres, otherwise an in-memory store seeded from SUBJECTS_FIXTURE is used.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.format != formatTable && a.format != formatJSON {
				return fmt.Errorf("unsupported output format %q (table, json)", a.format)
			}
			if a.envFile != "" {
				return config.LoadDotEnv(a.envFile)
			}
			return config.LoadDotEnv()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&a.format, "output", "o", formatTable, "output format (table, json)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file to load (default: .env when present)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level to stderr")

	root.AddCommand(
		a.searchCommand(),
		a.subjectCommand(),
		a.whitelistCommand(),
		a.logsCommand(),
		a.migrateCommand(),
		a.tokenCommand(),
		versionCommand(),
	)
	return root
}

func (a *app) config() (config.Server, error) {
	return config.FromEnv()
}

// stack builds the screening stack. Events are never published from the CLI.
func (a *app) stack(ctx context.Context) (*bootstrap.Stack, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	return bootstrap.Build(ctx, cfg, bootstrap.Options{
		Logger:    logger.NewWithWriter(a.errOut, level, "text"),
		SkipKafka: true,
	})
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "watchlist %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		},
	}
}
