package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendancetracker/internal/attendance"
	"attendancetracker/internal/export"
	"attendancetracker/internal/queue"
)

// FormOptions are the choices offered by the check-in form besides free text.
type FormOptions struct {
	Companies   []string `json:"companies"`
	Supervisors []string `json:"supervisors"`
}

// Handler serves the attendance HTTP API.
type Handler struct {
	svc     *attendance.Service
	events  queue.Queue // nil disables check-in events
	options FormOptions
	log     *slog.Logger
	now     func() time.Time
}

// New creates a Handler. events may be nil, in which case no check-in events are published.
func New(svc *attendance.Service, events queue.Queue, options FormOptions, log *slog.Logger) *Handler {
	return &Handler{svc: svc, events: events, options: options, log: log, now: time.Now}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.POST("/attendance", h.Create)
		api.GET("/attendance", h.List)
		api.GET("/attendance/by-date/:date", h.ListByDate)
		api.GET("/attendance/export", h.Export)
		api.GET("/options", h.Options)
	}
}

// ---------- Check-in ----------

// Create stores a check-in submitted by the form.
func (h *Handler) Create(c *gin.Context) {
	const failure = "Invalid attendance record data"

	var in attendance.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, failure, err)
		return
	}

	rec, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		status := http.StatusInternalServerError
		if attendance.IsValidation(err) || attendance.IsDuplicate(err) {
			status = http.StatusBadRequest
		}
		h.log.Info("check-in rejected", "name", in.Name, "error", err)
		fail(c, status, failure, err)
		return
	}

	h.announce(c.Request.Context(), rec)
	c.JSON(http.StatusCreated, rec)
}

// announce publishes a check-in event; failures only get logged.
func (h *Handler) announce(ctx context.Context, rec attendance.Record) {
	if h.events == nil {
		return
	}
	day := h.svc.Calendar().DayOf(rec.DateTime)
	msg, err := queue.NewCheckinMessage(rec.ID, day.Date)
	if err == nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err = h.events.Publish(ctx, msg)
	}
	if err != nil {
		h.log.Warn("checkin event publish failed", "record_id", rec.ID, "error", err)
	}
}

// ---------- Listing ----------

// List returns all records newest first, optionally filtered by ?name=.
func (h *Handler) List(c *gin.Context) {
	records, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to fetch attendance records", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(attendance.FilterByName(records, c.Query("name"))))
}

// ListByDate returns the records of :date (YYYY-MM-DD), optionally filtered by ?name=.
func (h *Handler) ListByDate(c *gin.Context) {
	day, err := h.svc.Calendar().ParseDay(c.Param("date"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid date", err)
		return
	}
	records, err := h.svc.ListByDate(c.Request.Context(), day)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to fetch attendance records by date", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(attendance.FilterByName(records, c.Query("name"))))
}

// ---------- Export ----------

// Export downloads records as ?format=xlsx|pdf, for ?date= when given, otherwise all.
func (h *Handler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", export.FormatXLSX)
	contentType := export.ContentType(format)
	if contentType == "" {
		fail(c, http.StatusBadRequest, "Unsupported export format", &attendance.ValidationError{
			Field: "format", Message: "format must be xlsx or pdf",
		})
		return
	}

	ctx := c.Request.Context()
	cal := h.svc.Calendar()
	label := "all-records"
	var (
		records []attendance.Record
		err     error
	)
	if date := c.Query("date"); date != "" {
		day, perr := cal.ParseDay(date)
		if perr != nil {
			fail(c, http.StatusBadRequest, "Invalid date", perr)
			return
		}
		label = day.Date
		records, err = h.svc.ListByDate(ctx, day)
	} else {
		records, err = h.svc.ListAll(ctx)
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to fetch attendance records", err)
		return
	}
	records = attendance.FilterByName(records, c.Query("name"))

	var buf bytes.Buffer
	switch format {
	case export.FormatPDF:
		err = export.PDF(&buf, records, label, cal.Location(), h.now())
	default:
		err = export.Spreadsheet(&buf, records, cal.Location())
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to generate report", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(label, format)+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// ---------- Form ----------

// Options returns the company and supervisor choices offered by the check-in form.
func (h *Handler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, FormOptions{
		Companies:   nonNilStrings(h.options.Companies),
		Supervisors: nonNilStrings(h.options.Supervisors),
	})
}

func fail(c *gin.Context, status int, message string, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"message": message, "error": err.Error()})
}

func nonNil(records []attendance.Record) []attendance.Record {
	if records == nil {
		return []attendance.Record{}
	}
	return records
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
