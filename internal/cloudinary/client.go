// Package cloudinary archives generated reports as raw Cloudinary assets.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the Cloudinary upload API.
const DefaultBaseURL = "https://api.cloudinary.com"

// Client uploads files to Cloudinary using their REST API.
type Client struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string

	http *resty.Client
	now  func() time.Time
}

// New creates a Cloudinary client.
func New(cloudName, apiKey, apiSecret, folder string) *Client {
	return &Client{
		CloudName: cloudName,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Folder:    strings.Trim(folder, "/"),
		http:      resty.New().SetBaseURL(DefaultBaseURL).SetTimeout(30 * time.Second),
		now:       time.Now,
	}
}

// WithBaseURL points the client at another API host.
func (c *Client) WithBaseURL(url string) *Client {
	c.http.SetBaseURL(url)
	return c
}

// UploadResult holds the response from Cloudinary after a successful upload.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Bytes     int    `json:"bytes"`
	Version   int64  `json:"version"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload stores body as the raw asset name, replacing an earlier upload of the same name.
// It implements report.Uploader.
func (c *Client) Upload(ctx context.Context, name string, body []byte, contentType string) error {
	_, err := c.UploadRaw(ctx, name, body)
	return err
}

// UploadRaw uploads a non-image file and returns the stored asset.
func (c *Client) UploadRaw(ctx context.Context, name string, body []byte) (*UploadResult, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
		"public_id": name,
		"overwrite": "true",
	}
	if c.Folder != "" {
		params["folder"] = c.Folder
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.APIKey

	var (
		result UploadResult
		failed apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("cloud", c.CloudName).
		SetFormData(params).
		SetFileReader("file", name, bytes.NewReader(body)).
		SetResult(&result).
		SetError(&failed).
		Post("/v1_1/{cloud}/raw/upload")
	if err != nil {
		return nil, fmt.Errorf("cloudinary: request failed: %w", err)
	}
	if resp.IsError() {
		msg := failed.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		return nil, fmt.Errorf("cloudinary: upload failed (%d): %s", resp.StatusCode(), msg)
	}
	return &result, nil
}

// sign computes the Cloudinary API signature from the given params.
// api_key, file and resource_type are not signed.
func (c *Client) sign(params map[string]string) string {
	excludeKeys := map[string]bool{"api_key": true, "file": true, "resource_type": true}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if !excludeKeys[k] && v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)

	payload := strings.Join(pairs, "&") + c.APISecret
	h := sha1.New()
	h.Write([]byte(payload))
	return fmt.Sprintf("%x", h.Sum(nil))
}
