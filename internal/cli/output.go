package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"watchlist/internal/screening/handler"
	"watchlist/internal/screening/models"
)

var (
	matchLabel   = color.New(color.FgRed, color.Bold).SprintFunc()
	clearLabel   = color.New(color.FgGreen).SprintFunc()
	headingLabel = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func renderResult(w io.Writer, result *models.ScreeningResult) {
	verdict := clearLabel("NO MATCH")
	if result.IsMatch {
		verdict = matchLabel("MATCH")
	}
	fmt.Fprintf(w, "%s %q (%s, threshold %s): %s\n",
		headingLabel("Screened"), result.SearchedFor, result.SubjectType,
		formatScore(result.ConfidenceThreshold), verdict)
	fmt.Fprintf(w, "%d candidates retrieved, %d above threshold\n\n",
		result.TotalCandidates, result.FilteredResults)

	if len(result.Page) == 0 {
		fmt.Fprintln(w, "No results.")
	} else {
		table := newTable(w, []string{"ID", "Source", "Name", "DOB", "Nationality", "Confidence"})
		for _, c := range result.Page {
			table.Append([]string{
				strconv.FormatInt(c.Subject.ID, 10),
				c.Subject.Source,
				c.Subject.Name,
				c.Subject.DOB,
				c.Subject.Nationality,
				formatScore(c.Confidence),
			})
		}
		table.Render()
	}

	fmt.Fprintf(w, "\n%s\n", headingLabel("Best by source"))
	table := newTable(w, []string{"Source", "Best", "Top match"})
	for _, g := range result.BestBySource {
		best, top := "-", "-"
		if g.BestConfidence != nil {
			best = formatScore(*g.BestConfidence)
		}
		if len(g.Data) > 0 && g.Data[0] != nil {
			top = g.Data[0].Subject.Name
		}
		table.Append([]string{g.Source, best, top})
	}
	table.Render()
}

func renderSubject(w io.Writer, s *models.Subject) {
	rows := [][2]string{
		{"ID", strconv.FormatInt(s.ID, 10)},
		{"Source", s.Source},
		{"Source record", s.SourceRecordID},
		{"Type", s.SubjectType},
		{"Name", s.Name},
		{"Aliases", strings.Join(s.Aliases, "; ")},
		{"Gender", s.Gender},
		{"DOB", s.DOB},
		{"POB", s.POB},
		{"Nationality", s.Nationality},
		{"Address", s.Address},
		{"Sanctions", s.Sanctions},
		{"Remarks", s.Remarks},
	}
	if s.ListedOn != nil {
		rows = append(rows, [2]string{"Listed on", s.ListedOn.Format("2006-01-02")})
	}
	whitelisted := "no"
	if s.IsWhitelisted {
		whitelisted = "yes"
		if s.WhitelistReason != "" {
			whitelisted += " (" + s.WhitelistReason + ")"
		}
	}
	rows = append(rows, [2]string{"Whitelisted", whitelisted})

	table := newTable(w, []string{"Field", "Value"})
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		table.Append([]string{row[0], row[1]})
	}
	table.Render()
}

func renderLogs(w io.Writer, page *models.LogPage) {
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No screening log entries found.")
		return
	}
	table := newTable(w, []string{"ID", "User", "Search", "Type", "Match", "Date"})
	for _, e := range page.Items {
		matched := clearLabel("no")
		if e.IsMatch {
			matched = matchLabel("yes")
		}
		table.Append([]string{
			strconv.FormatInt(e.ID, 10),
			e.UserID,
			e.SearchString,
			e.ScreeningType,
			matched,
			e.ScreeningDate.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
	fmt.Fprintf(w, "page %d, %d of %d entries\n", page.Offset, len(page.Items), page.Total)
}

// jsonResult keeps CLI JSON identical to the HTTP payload.
func jsonResult(result *models.ScreeningResult) any {
	return handler.FromResult(result)
}

func jsonLogs(page *models.LogPage) any {
	return handler.FromLogPage(page)
}
