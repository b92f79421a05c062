package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/piwi3910/hypernest/internal/model"
)

// Solution is one named nesting result in a report.
type Solution struct {
	Name   string
	Result model.NestingResult
}

func pct(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 2, 64)
}

func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteSummaryCSV writes one header block and one row per solution.
func WriteSummaryCSV(w io.Writer, solutions []Solution, generated time.Time) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"generated", generated.UTC().Format(time.RFC3339)},
		{"solutions", strconv.Itoa(len(solutions))},
		{},
		{"solution", "sheets_used", "sheets_available", "placed", "unplaced", "utilization_pct", "feasible", "generations"},
	}
	for _, s := range solutions {
		r := s.Result
		records = append(records, []string{
			s.Name,
			strconv.Itoa(len(r.UsedSheets())),
			strconv.Itoa(len(r.Sheets)),
			strconv.Itoa(len(r.Placements)),
			strconv.Itoa(len(r.UnplacedParts)),
			pct(r.Utilization),
			strconv.FormatBool(r.Feasible),
			strconv.Itoa(r.Generations),
		})
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	return nil
}

// WriteDetailedCSV writes one row per placement, preceded by the used
// sheet it sits on.
func WriteDetailedCSV(w io.Writer, solutions []Solution) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"solution", "sheet", "sheet_name", "sheet_utilization_pct", "part_id", "part", "copy", "x", "y", "angle"}); err != nil {
		return fmt.Errorf("write detailed csv: %w", err)
	}
	for _, s := range solutions {
		for _, sheet := range s.Result.UsedSheets() {
			for _, p := range s.Result.PlacementsOn(sheet.Slot) {
				b := placedBounds(p)
				record := []string{
					s.Name,
					strconv.Itoa(sheet.Slot + 1),
					sheet.Name,
					pct(sheet.Utilization),
					p.PartID,
					p.Label,
					strconv.Itoa(p.Instance + 1),
					mm(b.Min.X),
					mm(b.Min.Y),
					strconv.FormatFloat(p.Angle, 'g', -1, 64),
				}
				if err := cw.Write(record); err != nil {
					return fmt.Errorf("write detailed csv: %w", err)
				}
			}
		}
		for _, u := range s.Result.UnplacedParts {
			record := []string{s.Name, "", "", "", u.PartID, u.Label, strconv.Itoa(u.Instance + 1), "", "", ""}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write detailed csv: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryText writes the summary report as aligned plain text.
func WriteSummaryText(w io.Writer, solutions []Solution, generated time.Time) error {
	fmt.Fprintf(w, "Nesting Summary Report\n")
	fmt.Fprintf(w, "Generated: %s\n", generated.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Solutions: %d\n\n", len(solutions))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Solution\tSheets\tPlaced\tUnplaced\tUtilization\tFeasible")
	for _, s := range solutions {
		r := s.Result
		fmt.Fprintf(tw, "%s\t%d/%d\t%d\t%d\t%s%%\t%t\n",
			s.Name, len(r.UsedSheets()), len(r.Sheets), len(r.Placements), len(r.UnplacedParts), pct(r.Utilization), r.Feasible)
	}
	return tw.Flush()
}

// WriteDetailedText writes every solution sheet by sheet.
func WriteDetailedText(w io.Writer, solutions []Solution) error {
	fmt.Fprintf(w, "Nesting Detailed Report\n")
	for _, s := range solutions {
		r := s.Result
		fmt.Fprintf(w, "\n== %s ==\n", s.Name)
		fmt.Fprintf(w, "Utilization %s%%, %d generations, seed %d", pct(r.Utilization), r.Generations, r.Seed)
		if r.Cancelled {
			fmt.Fprint(w, ", cancelled")
		}
		fmt.Fprintln(w)
		for _, v := range r.Violations {
			labels := make([]string, len(v.Parts))
			for i, ref := range v.Parts {
				labels[i] = fmt.Sprintf("%s #%d", ref.Label, ref.Instance+1)
			}
			fmt.Fprintf(w, "! %s on sheet %d: %s (%.2f mm²)\n", v.Kind, v.Sheet+1, strings.Join(labels, ", "), v.Area)
		}

		for _, sheet := range r.UsedSheets() {
			fmt.Fprintf(w, "\nSheet %d: %s #%d (%.0f x %.0f mm), %s%% used\n",
				sheet.Slot+1, sheet.Name, sheet.Copy+1, sheet.Width, sheet.Height, pct(sheet.Utilization))
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "  Part\tCopy\tX\tY\tAngle")
			for _, p := range r.PlacementsOn(sheet.Slot) {
				b := placedBounds(p)
				fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%g\n", p.Label, p.Instance+1, mm(b.Min.X), mm(b.Min.Y), p.Angle)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		if len(r.UnplacedParts) > 0 {
			fmt.Fprintf(w, "\nUnplaced:\n")
			for _, u := range r.UnplacedParts {
				fmt.Fprintf(w, "  %s #%d\n", u.Label, u.Instance+1)
			}
		}
	}
	return nil
}

// ExportReports writes summary and detailed reports into dir for each of
// the requested formats ("csv", "txt") and returns the written paths.
func ExportReports(dir string, solutions []Solution, formats []string, generated time.Time) ([]string, error) {
	if len(solutions) == 0 {
		return nil, ErrNothingToExport
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	type report struct {
		name  string
		write func(io.Writer) error
	}
	var reports []report
	for _, f := range formats {
		switch f {
		case "csv":
			reports = append(reports,
				report{"summary.csv", func(w io.Writer) error { return WriteSummaryCSV(w, solutions, generated) }},
				report{"detailed.csv", func(w io.Writer) error { return WriteDetailedCSV(w, solutions) }},
			)
		case "txt":
			reports = append(reports,
				report{"summary.txt", func(w io.Writer) error { return WriteSummaryText(w, solutions, generated) }},
				report{"detailed.txt", func(w io.Writer) error { return WriteDetailedText(w, solutions) }},
			)
		default:
			return nil, fmt.Errorf("unknown report format %q", f)
		}
	}

	var written []string
	for _, r := range reports {
		path := filepath.Join(dir, r.name)
		if err := writeFile(path, r.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
