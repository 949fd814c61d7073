package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"watchlist/internal/screening/handler"
)

type logsFlags struct {
	user          string
	screeningType string
	search        string
	match         string
	from          string
	to            string
	limit         int
	page          int
}

func (a *app) logsCommand() *cobra.Command {
	var f logsFlags
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List screening log entries",
		Long: `List screening log entries, newest first. Dates accept YYYY-MM-DD or
RFC 3339; a bare --to date includes that whole day. Without --user every
user's entries are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			set := func(key, value string) {
				if value != "" {
					q.Set(key, value)
				}
			}
			set("screening_type", f.screeningType)
			set("search", f.search)
			set("is_match", f.match)
			set("date_from", f.from)
			set("date_to", f.to)
			if cmd.Flags().Changed("limit") {
				q.Set("limit", strconv.Itoa(f.limit))
			}
			if cmd.Flags().Changed("page") {
				q.Set("offset", strconv.Itoa(f.page))
			}
			filter, err := handler.LogFilterFromQuery(q)
			if err != nil {
				return err
			}
			filter.UserID = f.user

			ctx := cmd.Context()
			stack, err := a.stack(ctx)
			if err != nil {
				return err
			}
			defer stack.Close()

			page, err := stack.Service.ListLogs(ctx, filter)
			if err != nil {
				return err
			}
			if a.format == formatJSON {
				return writeJSON(a.out, jsonLogs(page))
			}
			renderLogs(a.out, page)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.user, "user", "", "only entries recorded for this user id")
	flags.StringVarP(&f.screeningType, "type", "t", "", "screening type (individual, entity, vessel)")
	flags.StringVar(&f.search, "search", "", "case-insensitive substring of the searched name")
	flags.StringVar(&f.match, "match", "", "filter on outcome (true, false)")
	flags.StringVar(&f.from, "from", "", "earliest screening date, inclusive")
	flags.StringVar(&f.to, "to", "", "latest screening date")
	flags.IntVar(&f.limit, "limit", 15, "page size (max 500)")
	flags.IntVar(&f.page, "page", 1, "1-based page number")
	return cmd
}
