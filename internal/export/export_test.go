package export

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"attendancetracker/internal/attendance"
)

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		img.SetGray(x, 2, color.Gray{Y: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func sampleRecords(t *testing.T) []attendance.Record {
	return []attendance.Record{
		{
			ID:            2,
			DateTime:      time.Date(2024, 5, 1, 14, 5, 0, 0, time.UTC),
			Name:          "Mei Ling",
			Company:       "Ember",
			Supervisor:    "Gao Shin ming",
			SignatureData: pngDataURL(t),
		},
		{
			ID:            1,
			DateTime:      time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
			Name:          "Ali",
			Company:       "Ramo",
			Supervisor:    "Manoj",
			SignatureData: "not-an-image",
		},
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "attendance_report_2024-05-01.xlsx", Filename("2024-05-01", FormatXLSX))
	assert.Equal(t, "attendance_report_all-records.pdf", Filename("all-records", FormatPDF))
	assert.Equal(t, "attendance_report_a-b-c.pdf", Filename("a b/c", FormatPDF))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, ContentTypeXLSX, ContentType("xlsx"))
	assert.Equal(t, ContentTypePDF, ContentType("pdf"))
	assert.Empty(t, ContentType("csv"))
}

func TestSpreadsheet(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	var buf bytes.Buffer
	require.NoError(t, Spreadsheet(&buf, sampleRecords(t), loc))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Date & Time", "Name", "Company", "Supervisor"},
		{"2024-05-01 10:05 PM", "Mei Ling", "Ember", "Gao Shin ming"},
		{"2024-05-01 04:30 PM", "Ali", "Ramo", "Manoj"},
	}, rows)

	width, err := f.GetColWidth(SheetName, "B")
	require.NoError(t, err)
	assert.Equal(t, 25.0, width)
}

func TestSpreadsheet_EmptyKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Spreadsheet(&buf, nil, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Date & Time", "Name", "Company", "Supervisor"}}, rows)
}

func TestWriteSheetRejectsNonSlices(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	assert.Error(t, writeSheet(f, "Sheet1", row{}))
	assert.Error(t, writeSheet(f, "Sheet1", []string{"a"}))
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	generated := time.Date(2024, 5, 2, 7, 0, 0, 0, time.UTC)
	require.NoError(t, PDF(&buf, sampleRecords(t), "2024-05-01", time.UTC, generated))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestPDF_ManyRecordsAndNoRecords(t *testing.T) {
	var records []attendance.Record
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		records = append(records, attendance.Record{
			ID:            int64(i + 1),
			DateTime:      base.Add(time.Duration(i) * time.Minute),
			Name:          "A rather long employee name that needs truncating",
			Company:       "Ramo",
			Supervisor:    "Rajkumar",
			SignatureData: "x",
		})
	}
	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, records, "all-records", time.UTC, base))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	buf.Reset()
	require.NoError(t, PDF(&buf, nil, "2024-05-01", time.UTC, base))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestDecodeDataURL(t *testing.T) {
	typ, data, ok := decodeDataURL(pngDataURL(t))
	require.True(t, ok)
	assert.Equal(t, "PNG", typ)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	typ, _, ok = decodeDataURL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8}))
	require.True(t, ok)
	assert.Equal(t, "JPG", typ)

	for _, bad := range []string{
		"",
		"signature",
		"data:image/gif;base64,R0lGOD==",
		"data:image/png,rawbytes",
		"data:image/png;base64,%%%",
		"data:image/png;base64,",
	} {
		_, _, ok := decodeDataURL(bad)
		assert.False(t, ok, bad)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "unlimited", truncate("unlimited", 0))
	assert.Equal(t, "éééé...", truncate("ééééééééé", 7))
}
