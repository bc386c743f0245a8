// Package report keeps a per-day spreadsheet of check-ins up to date as check-in events arrive.
package report

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"attendancetracker/internal/attendance"
	"attendancetracker/internal/export"
	"attendancetracker/internal/queue"
)

// Lister reads the records of one calendar day.
type Lister interface {
	ListByDate(ctx context.Context, day attendance.Day) ([]attendance.Record, error)
}

// Uploader archives a generated report.
type Uploader interface {
	Upload(ctx context.Context, name string, body []byte, contentType string) error
}

// Publisher regenerates the daily spreadsheet for every check-in it is told about.
type Publisher struct {
	lister   Lister
	cal      attendance.Calendar
	dir      string
	uploader Uploader // nil when archiving is off
	log      *slog.Logger
}

// NewPublisher creates a publisher writing into dir. uploader may be nil.
func NewPublisher(lister Lister, cal attendance.Calendar, dir string, uploader Uploader, log *slog.Logger) *Publisher {
	return &Publisher{lister: lister, cal: cal, dir: dir, uploader: uploader, log: log}
}

// Run consumes messages until the channel closes. Failures are logged and skipped.
func (p *Publisher) Run(ctx context.Context, messages <-chan queue.Message) {
	for msg := range messages {
		if msg.Type != queue.TypeCheckin {
			continue
		}
		c, err := queue.DecodeCheckin(msg)
		if err != nil {
			p.log.Warn("bad checkin message", "error", err.Error())
			continue
		}
		path, err := p.Publish(ctx, c.Day)
		if err != nil {
			p.log.Error("publish daily report failed", "day", c.Day, "record_id", c.ID, "error", err.Error())
			continue
		}
		p.log.Info("daily report updated", "day", c.Day, "record_id", c.ID, "path", path)
	}
}

// Publish writes the spreadsheet for date (YYYY-MM-DD) and archives it when an uploader
// is configured. It returns the local file path.
func (p *Publisher) Publish(ctx context.Context, date string) (string, error) {
	day, err := p.cal.ParseDay(date)
	if err != nil {
		return "", err
	}
	records, err := p.lister.ListByDate(ctx, day)
	if err != nil {
		return "", errors.Wrapf(err, "list records for %s", date)
	}

	var buf bytes.Buffer
	if err := export.Spreadsheet(&buf, records, p.cal.Location()); err != nil {
		return "", errors.Wrap(err, "render spreadsheet")
	}

	name := export.Filename(day.Date, export.FormatXLSX)
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create report dir")
	}
	path := filepath.Join(p.dir, name)
	// write then rename so readers never see a partial file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", errors.Wrap(err, "write report")
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", errors.Wrap(err, "replace report")
	}

	if p.uploader != nil {
		if err := p.uploader.Upload(ctx, name, buf.Bytes(), export.ContentTypeXLSX); err != nil {
			return path, errors.Wrap(err, "archive report")
		}
	}
	return path, nil
}
