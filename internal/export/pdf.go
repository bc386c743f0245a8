package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"attendancetracker/internal/attendance"
)

type pdfColumn struct {
	title  string
	x      float64
	width  float64
	maxLen int // runes kept before truncating with "..."
}

var pdfColumns = []pdfColumn{
	{"Date & Time", 15, 40, 0},
	{"Name", 55, 60, 28},
	{"Company", 115, 35, 16},
	{"Supervisor", 150, 25, 12},
	{"Signature", 175, 25, 0},
}

const (
	pdfLineHeight = 18.0
	pdfPageBottom = 270.0
	pdfTableTop   = 30.0
)

// PDF writes a tabular report titled with label. Signatures that decode as PNG or JPEG
// data URLs are drawn inline; anything else is skipped.
func PDF(w io.Writer, records []attendance.Record, label string, loc *time.Location, generated time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Attendance Report - "+label, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(15, 15, tr("Attendance Report - "+label))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(15, 22, "Generated: "+generated.In(loc).Format(DateTimeLayout))

	y := pdfHeader(pdf, pdfTableTop)
	for _, rec := range records {
		if y > pdfPageBottom {
			pdf.AddPage()
			y = pdfHeader(pdf, pdfTableTop)
		}
		values := []string{
			rec.DateTime.In(loc).Format(DateTimeLayout),
			rec.Name,
			rec.Company,
			rec.Supervisor,
		}
		for i, v := range values {
			col := pdfColumns[i]
			pdf.Text(col.x, y, tr(truncate(v, col.maxLen)))
		}
		drawSignature(pdf, rec, pdfColumns[4], y)
		y += pdfLineHeight
	}
	return pdf.Output(w)
}

func pdfHeader(pdf *fpdf.Fpdf, y float64) float64 {
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 150)
	for _, col := range pdfColumns {
		pdf.Text(col.x, y, col.title)
	}
	y += 2
	pdf.SetDrawColor(0, 0, 0)
	pdf.Line(15, y, 195, y)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	return y + pdfLineHeight
}

func drawSignature(pdf *fpdf.Fpdf, rec attendance.Record, col pdfColumn, y float64) {
	imageType, data, ok := decodeDataURL(rec.SignatureData)
	if !ok {
		return
	}
	name := fmt.Sprintf("signature-%d", rec.ID)
	opts := fpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if info == nil || !pdf.Ok() {
		pdf.ClearError()
		return
	}
	pdf.ImageOptions(name, col.x, y-10, col.width, 16, false, opts, 0, "")
}

// decodeDataURL extracts the image type and bytes of a base64 data URL.
func decodeDataURL(s string) (imageType string, data []byte, ok bool) {
	meta, payload, found := strings.Cut(s, ",")
	if !found || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return "", nil, false
	}
	switch strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64") {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg", "image/jpg":
		imageType = "JPG"
	default:
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, false
	}
	return imageType, data, true
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
