package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dlwalsh/wa2019/internal/store"
	"github.com/dlwalsh/wa2019/pkg/apportion"
	"github.com/dlwalsh/wa2019/pkg/sa1"
	"github.com/dlwalsh/wa2019/pkg/validation"
)

// formatRow pads the title to 40 columns and right-aligns each figure in 12.
func formatRow(title string, figures ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-40s", title)
	for _, f := range figures {
		fmt.Fprintf(&b, "%12s", f)
	}
	return b.String()
}

// formatCount rounds to a whole number with thousands separators.
func formatCount(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func figureRow(title string, current int, area, phantom, total float64) string {
	return formatRow(title, formatCount(float64(current)), formatCount(area), formatCount(phantom), formatCount(total))
}

func printFigures(w io.Writer, run *apportion.Run) {
	for _, d := range run.Districts {
		fmt.Fprintln(w, formatRow(d.Name, "Actual", "Area", "Phantom", "Total"))
		for _, o := range d.Origins {
			fmt.Fprintln(w, figureRow("from "+o.DisplayName(), o.Current, o.Area, o.Phantom, o.Total))
		}
		fmt.Fprintln(w, figureRow("Total", d.Current, d.Area, d.Phantom, d.Total))
		fmt.Fprintln(w)
	}

	t := run.Total
	fmt.Fprintln(w, figureRow("Grand Total", t.Current, t.Area, t.Phantom, t.Total))
	printCoverage(w, run.Coverage)
}

func printCoverage(w io.Writer, c apportion.CoverageReport) {
	printIDs(w, "Missing SA1s", c.Missing)
	printIDs(w, "Duplicate SA1s", c.Duplicates)
}

func printIDs(w io.Writer, title string, ids []sa1.ID) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, id := range ids {
		fmt.Fprintf(w, "  %s\n", id)
	}
}

func printValidationReport(w io.Writer, r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "WARNINGS (%d):\n", len(r.Warnings))
		for _, e := range r.Warnings {
			printResult(w, e)
		}
		fmt.Fprintln(w)
	}

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func printResult(w io.Writer, res validation.Result) {
	fmt.Fprintf(w, "  [%s] %s\n", res.Level, res.Message)
	if res.ActualValue != nil {
		fmt.Fprintf(w, "    -> %v\n", res.ActualValue)
	}
	if res.Expected != "" {
		fmt.Fprintf(w, "    expected: %s\n", res.Expected)
	}
	for _, s := range res.Suggestions {
		fmt.Fprintf(w, "    * %s\n", s)
	}
}

func printSelection(w io.Writer, sel apportion.Selection) {
	ranges := make([]string, len(sel.Ranges))
	for i, r := range sel.Ranges {
		ranges[i] = r.String()
	}
	fmt.Fprintf(w, "SA1: [%s]\n\n", strings.Join(ranges, ", "))

	fmt.Fprintln(w, formatRow("Selection", "Actual", "Area", "Phantom", "Total"))
	for _, o := range sel.Origins {
		fmt.Fprintln(w, figureRow("from "+o.DisplayName(), o.Current, o.Area, o.Phantom, o.Total))
	}
	fmt.Fprintln(w, figureRow("Total", sel.Current, sel.Area, sel.Phantom, sel.Total))
	printIDs(w, "Unknown SA1s", sel.Unknown)
}

func printRuns(w io.Writer, runs []store.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No saved runs.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-16s  %-9s %12s %12s %8s %8s\n",
		"Run", "Saved", "Policy", "Actual", "Total", "Missing", "Dups")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-16s  %-9s %12s %12s %8d %8d\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Policy,
			formatCount(float64(r.Total.Current)), formatCount(r.Total.Total),
			r.Missing, r.Duplicates)
	}
}

func printDistrictRows(w io.Writer, rows []store.DistrictRow) {
	fmt.Fprintln(w, formatRow("District", "Actual", "Area", "Phantom", "Total"))
	for _, d := range rows {
		fmt.Fprintln(w, figureRow(d.Name, d.Current, d.Area, d.Phantom, d.Total))
	}
}
