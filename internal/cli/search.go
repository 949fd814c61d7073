package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"watchlist/internal/screening/handler"
)

type searchFlags struct {
	subjectType        string
	birthDate          string
	gender             string
	country            string
	address            string
	imo                string
	sources            []string
	confidence         float64
	includeWhitelisted bool
	limit              int
	offset             int
	user               string
}

func (a *app) searchCommand() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Screen a name against the watchlists",
		Long: `Score a name, and optional attributes, against every watchlist record
that the candidate index returns. Each run is written to the screening log.

Examples:
  watchlist search "Ivan Petrov" --dob 1970-01-01 --country Russia
  watchlist search "Ivan Star" --type vessel --imo 9123456 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &handler.ScreenRequest{
				Search:           strings.Join(args, " "),
				SubjectType:      f.subjectType,
				BirthDate:        f.birthDate,
				Gender:           f.gender,
				Country:          f.country,
				Address:          f.address,
				IMO:              f.imo,
				Source:           handler.SourceList(f.sources),
				ConfidenceRating: f.confidence,
			}
			exclude := !f.includeWhitelisted
			req.ExcludeWhitelisted = &exclude
			if cmd.Flags().Changed("limit") {
				req.Limit = &f.limit
			}
			if cmd.Flags().Changed("offset") {
				req.Offset = &f.offset
			}
			if err := req.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			stack, err := a.stack(ctx)
			if err != nil {
				return err
			}
			defer stack.Close()

			result, err := stack.Service.Screen(ctx, req.ToModel(f.user))
			if err != nil {
				return err
			}
			if a.format == formatJSON {
				return writeJSON(a.out, jsonResult(result))
			}
			renderResult(a.out, result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.subjectType, "type", "t", "individual", "subject type (individual, entity, vessel)")
	flags.StringVar(&f.birthDate, "dob", "", "date of birth, any format containing the year")
	flags.StringVar(&f.gender, "gender", "", "gender")
	flags.StringVar(&f.country, "country", "", "nationality or country")
	flags.StringVar(&f.address, "address", "", "address")
	flags.StringVar(&f.imo, "imo", "", "vessel IMO number")
	flags.StringSliceVarP(&f.sources, "source", "s", nil, "restrict to sources (CANADA, UAE, UN, UK, OFAC, EU)")
	flags.Float64VarP(&f.confidence, "confidence", "c", 0, "confidence threshold")
	flags.BoolVar(&f.includeWhitelisted, "include-whitelisted", false, "include whitelisted subjects")
	flags.IntVar(&f.limit, "limit", 50, "page size")
	flags.IntVar(&f.offset, "offset", 1, "1-based position of the first result")
	flags.StringVar(&f.user, "user", "cli", "user id recorded in the screening log")
	return cmd
}
