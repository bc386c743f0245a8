// Package export renders attendance records as downloadable spreadsheet and PDF reports.
package export

import (
	"regexp"
	"time"

	"attendancetracker/internal/attendance"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"

	// DateTimeLayout is how timestamps appear in reports.
	DateTimeLayout = "2006-01-02 03:04 PM"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// Filename returns the download name for a report labelled label.
func Filename(label, format string) string {
	return "attendance_report_" + unsafeChars.ReplaceAllString(label, "-") + "." + format
}

// ContentType returns the MIME type of format, or "" when the format is unknown.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return ContentTypeXLSX
	case FormatPDF:
		return ContentTypePDF
	}
	return ""
}

// row is one report line; the excel tag is the column header.
type row struct {
	DateTime   string `excel:"Date & Time"`
	Name       string `excel:"Name"`
	Company    string `excel:"Company"`
	Supervisor string `excel:"Supervisor"`
}

func rows(records []attendance.Record, loc *time.Location) []row {
	out := make([]row, 0, len(records))
	for _, r := range records {
		out = append(out, row{
			DateTime:   r.DateTime.In(loc).Format(DateTimeLayout),
			Name:       r.Name,
			Company:    r.Company,
			Supervisor: r.Supervisor,
		})
	}
	return out
}
