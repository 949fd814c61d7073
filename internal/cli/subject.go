package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"watchlist/internal/screening/models"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject id %q", arg)
	}
	return id, nil
}

func (a *app) subjectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "subject <id>",
		Short: "Show a watchlist subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stack, err := a.stack(ctx)
			if err != nil {
				return err
			}
			defer stack.Close()

			subject, err := stack.Service.Subject(ctx, id)
			if err != nil {
				return err
			}
			return a.printSubject(subject)
		},
	}
}

func (a *app) whitelistCommand() *cobra.Command {
	var (
		reason string
		unset  bool
	)
	cmd := &cobra.Command{
		Use:   "whitelist <id>",
		Short: "Whitelist a subject, or clear its whitelist flag",
		Long: `Mark a subject as a known false positive so screenings that exclude
whitelisted subjects skip it. A reason is required when whitelisting.

Examples:
  watchlist whitelist 42 --reason "confirmed different person"
  watchlist whitelist 42 --clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stack, err := a.stack(ctx)
			if err != nil {
				return err
			}
			defer stack.Close()

			subject, err := stack.Service.SetWhitelisted(ctx, id, !unset, reason)
			if err != nil {
				return err
			}
			return a.printSubject(subject)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the subject is a false positive")
	cmd.Flags().BoolVar(&unset, "clear", false, "remove the whitelist flag")
	return cmd
}

func (a *app) printSubject(subject *models.Subject) error {
	if a.format == formatJSON {
		return writeJSON(a.out, subject)
	}
	renderSubject(a.out, subject)
	return nil
}
