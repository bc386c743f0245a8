package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"attendancetracker/internal/attendance"
	"attendancetracker/internal/export"
	"attendancetracker/internal/logger"
	"attendancetracker/internal/queue"
)

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type recordingQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
	err  error
}

func (q *recordingQueue) Publish(_ context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *recordingQueue) Consume(context.Context) (<-chan queue.Message, error) {
	return nil, errors.New("not supported")
}

func (q *recordingQueue) published() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Message(nil), q.msgs...)
}

func setupRouter(t *testing.T, events queue.Queue) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cal := attendance.CalendarIn(time.UTC)
	fb := attendance.NewFallback(cal)
	clock := func() time.Time { return now }
	svc := attendance.NewService(attendance.Unavailable{}, fb, cal,
		attendance.WithClock(clock), attendance.WithLogger(logger.Discard()))

	h := New(svc, events, FormOptions{
		Companies:   []string{"Ramo", "Ember"},
		Supervisors: []string{"Rajkumar", "Manoj"},
	}, logger.Discard())
	h.now = clock

	r := gin.New()
	h.Register(r)
	return r
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func checkin(name string) map[string]any {
	return map[string]any{
		"name":          name,
		"company":       "Ramo",
		"supervisor":    "Manoj",
		"signatureData": "data:image/png;base64,AAAA",
	}
}

func decodeRecords(t *testing.T, w *httptest.ResponseRecorder) []attendance.Record {
	t.Helper()
	var out []attendance.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeFailure(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestCreate(t *testing.T) {
	events := &recordingQueue{}
	r := setupRouter(t, events)

	w := performRequest(r, http.MethodPost, "/api/attendance", checkin("Ali"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got attendance.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Ali", got.Name)
	assert.True(t, got.DateTime.Equal(now))

	msgs := events.published()
	require.Len(t, msgs, 1)
	c, err := queue.DecodeCheckin(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, queue.Checkin{ID: 1, Day: "2024-05-01"}, c)
}

func TestCreate_ClientTimestamp(t *testing.T) {
	r := setupRouter(t, nil)

	body := checkin("Ali")
	body["dateTime"] = "2024-04-30T17:45:00Z"
	w := performRequest(r, http.MethodPost, "/api/attendance", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var got attendance.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.DateTime.Equal(time.Date(2024, 4, 30, 17, 45, 0, 0, time.UTC)))
}

func TestCreate_Invalid(t *testing.T) {
	r := setupRouter(t, nil)

	body := checkin("  ")
	w := performRequest(r, http.MethodPost, "/api/attendance", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeFailure(t, w)
	assert.Equal(t, "Invalid attendance record data", resp["message"])
	assert.Equal(t, "name is required", resp["error"])

	w = performRequest(r, http.MethodPost, "/api/attendance", "{not json")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid attendance record data", decodeFailure(t, w)["message"])

	w = performRequest(r, http.MethodGet, "/api/attendance", nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestCreate_Duplicate(t *testing.T) {
	events := &recordingQueue{}
	r := setupRouter(t, events)

	w := performRequest(r, http.MethodPost, "/api/attendance", checkin("Ali"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = performRequest(r, http.MethodPost, "/api/attendance", checkin("aLI"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeFailure(t, w)
	assert.Equal(t, "Invalid attendance record data", resp["message"])
	assert.Equal(t, "Attendance for aLI is already recorded for today.", resp["error"])

	assert.Len(t, events.published(), 1)
}

func TestCreate_EventFailureDoesNotFailRequest(t *testing.T) {
	r := setupRouter(t, &recordingQueue{err: errors.New("redis down")})

	w := performRequest(r, http.MethodPost, "/api/attendance", checkin("Ali"))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestList(t *testing.T) {
	r := setupRouter(t, nil)

	w := performRequest(r, http.MethodGet, "/api/attendance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	for _, body := range []map[string]any{checkin("Ali"), checkin("Mei Ling"), checkin("Alina")} {
		require.Equal(t, http.StatusCreated, performRequest(r, http.MethodPost, "/api/attendance", body).Code)
	}
	yesterday := checkin("Ali")
	yesterday["dateTime"] = "2024-04-30T10:00:00Z"
	require.Equal(t, http.StatusCreated, performRequest(r, http.MethodPost, "/api/attendance", yesterday).Code)

	w = performRequest(r, http.MethodGet, "/api/attendance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decodeRecords(t, w)
	require.Len(t, all, 4)
	// same instant, newest id first; yesterday last
	assert.Equal(t, []int64{3, 2, 1, 4}, []int64{all[0].ID, all[1].ID, all[2].ID, all[3].ID})

	w = performRequest(r, http.MethodGet, "/api/attendance?name=ALI", nil)
	assert.Len(t, decodeRecords(t, w), 3)
}

func TestListByDate(t *testing.T) {
	r := setupRouter(t, nil)

	require.Equal(t, http.StatusCreated, performRequest(r, http.MethodPost, "/api/attendance", checkin("Ali")).Code)
	require.Equal(t, http.StatusCreated, performRequest(r, http.MethodPost, "/api/attendance", checkin("Mei")).Code)

	w := performRequest(r, http.MethodGet, "/api/attendance/by-date/2024-05-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeRecords(t, w), 2)

	w = performRequest(r, http.MethodGet, "/api/attendance/by-date/2024-05-01?name=mei", nil)
	got := decodeRecords(t, w)
	require.Len(t, got, 1)
	assert.Equal(t, "Mei", got[0].Name)

	w = performRequest(r, http.MethodGet, "/api/attendance/by-date/2024-05-02", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = performRequest(r, http.MethodGet, "/api/attendance/by-date/05-01-2024", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid date", decodeFailure(t, w)["message"])
}

func TestExportSpreadsheet(t *testing.T) {
	r := setupRouter(t, nil)
	require.Equal(t, http.StatusCreated, performRequest(r, http.MethodPost, "/api/attendance", checkin("Ali")).Code)

	w := performRequest(r, http.MethodGet, "/api/attendance/export?format=xlsx&date=2024-05-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance_report_2024-05-01.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date & Time", "Name", "Company", "Supervisor"}, rows[0])
	assert.Equal(t, []string{"2024-05-01 09:00 AM", "Ali", "Ramo", "Manoj"}, rows[1])
}

func TestExportPDFDefaultsToAllRecords(t *testing.T) {
	r := setupRouter(t, nil)
	require.Equal(t, http.StatusCreated, performRequest(r, http.MethodPost, "/api/attendance", checkin("Ali")).Code)

	w := performRequest(r, http.MethodGet, "/api/attendance/export?format=pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypePDF, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance_report_all-records.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestExportRejectsBadInput(t *testing.T) {
	r := setupRouter(t, nil)

	w := performRequest(r, http.MethodGet, "/api/attendance/export?format=csv", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, http.MethodGet, "/api/attendance/export?format=xlsx&date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptions(t *testing.T) {
	r := setupRouter(t, nil)

	w := performRequest(r, http.MethodGet, "/api/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"companies":["Ramo","Ember"],"supervisors":["Rajkumar","Manoj"]}`, w.Body.String())
}
