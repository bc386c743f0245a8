package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"attendancetracker/internal/attendance"
	"attendancetracker/internal/export"
)

// RenderRecords prints records as an aligned table, times shown in loc.
func RenderRecords(w io.Writer, records []attendance.Record, loc *time.Location) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No attendance records.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE & TIME\tNAME\tCOMPANY\tSUPERVISOR")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.DateTime.In(loc).Format(export.DateTimeLayout),
			oneLine(r.Name),
			oneLine(r.Company),
			oneLine(r.Supervisor),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d record(s)\n", len(records))
	return err
}

// RenderOptions prints the form choices, one list per section.
func RenderOptions(w io.Writer, companies, supervisors []string) error {
	_, err := fmt.Fprintf(w, "Companies:\n%s\nSupervisors:\n%s\n", bullets(companies), bullets(supervisors))
	return err
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "  (none)"
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "  - " + it
	}
	return strings.Join(lines, "\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
