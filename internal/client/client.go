// Package client talks to the attendance HTTP API.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"attendancetracker/internal/attendance"
)

// APIError is the failure body returned by the API.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Detail  string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Options lists the form choices served by the API.
type Options struct {
	Companies   []string `json:"companies"`
	Supervisors []string `json:"supervisors"`
}

// Export is a downloaded report.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

type Client struct {
	http *resty.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// List fetches records, for one day when date (YYYY-MM-DD) is set, filtered by name when set.
func (c *Client) List(ctx context.Context, date, name string) ([]attendance.Record, error) {
	var out []attendance.Record
	req := c.http.R().SetContext(ctx).SetResult(&out).SetError(&APIError{})
	if name != "" {
		req.SetQueryParam("name", name)
	}
	path := "/api/attendance"
	if date != "" {
		req.SetPathParam("date", date)
		path = "/api/attendance/by-date/{date}"
	}
	resp, err := req.Get(path)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Submit creates a check-in.
func (c *Client) Submit(ctx context.Context, in attendance.Input) (attendance.Record, error) {
	var out attendance.Record
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&out).
		SetError(&APIError{}).
		Post("/api/attendance")
	if err := check(resp, err); err != nil {
		return attendance.Record{}, err
	}
	return out, nil
}

// Options fetches the company and supervisor choices.
func (c *Client) Options(ctx context.Context) (Options, error) {
	var out Options
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).SetError(&APIError{}).Get("/api/options")
	if err := check(resp, err); err != nil {
		return Options{}, err
	}
	return out, nil
}

// Export downloads a report in format (xlsx or pdf).
func (c *Client) Export(ctx context.Context, format, date, name string) (Export, error) {
	params := map[string]string{"format": format}
	if date != "" {
		params["date"] = date
	}
	if name != "" {
		params["name"] = name
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetError(&APIError{}).
		Get("/api/attendance/export")
	if err := check(resp, err); err != nil {
		return Export{}, err
	}
	return Export{
		Filename:    filenameFrom(resp.Header().Get("Content-Disposition")),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr.Message != "" {
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return &APIError{Status: resp.StatusCode(), Message: resp.Status()}
}

// filenameFrom extracts filename="..." from a Content-Disposition header.
func filenameFrom(disposition string) string {
	_, rest, ok := strings.Cut(disposition, `filename="`)
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, `"`)
	return name
}
