// Package upload sends screenshot files to a Discord webhook.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrNoWebhook is returned when no webhook URL is configured. No network
// call is made in that case.
var ErrNoWebhook = errors.New("no webhook URL configured")

// Result describes one upload attempt.
type Result struct {
	Success        bool
	StatusCode     int // 0 when no HTTP response was received
	SizeBytes      int64
	UploadDuration time.Duration // network call alone
	TotalDuration  time.Duration // file creation to completion, when known
	Err            error         // read or transport failure

	// Post-upload deletion outcome. A failed deletion never reclassifies
	// the upload itself.
	Deleted   bool
	DeleteErr error
}

// Client uploads files to a webhook URL via multipart POST.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a webhook upload client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Upload POSTs the file at filePath to webhookURL as a multipart form with a
// single field "file" holding the base filename and raw bytes. Success is
// exactly HTTP status 200. When createdAt is non-zero, TotalDuration measures
// from createdAt to completion. On success with deleteAfter set, the source
// file is removed.
func (c *Client) Upload(ctx context.Context, webhookURL, filePath string, createdAt time.Time, deleteAfter bool) *Result {
	res := &Result{}
	defer func() {
		if !createdAt.IsZero() {
			res.TotalDuration = time.Since(createdAt)
		}
	}()

	if webhookURL == "" {
		res.Err = ErrNoWebhook
		return res
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		res.Err = fmt.Errorf("read file: %w", err)
		return res
	}
	res.SizeBytes = int64(len(data))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		res.Err = fmt.Errorf("create form file: %w", err)
		return res
	}
	if _, err := part.Write(data); err != nil {
		res.Err = fmt.Errorf("write form file: %w", err)
		return res
	}
	if err := writer.Close(); err != nil {
		res.Err = fmt.Errorf("finalize form: %w", err)
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, &body)
	if err != nil {
		res.Err = fmt.Errorf("create request: %w", err)
		return res
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	res.UploadDuration = time.Since(start)
	if err != nil {
		res.Err = fmt.Errorf("send request: %w", err)
		return res
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	res.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		return res
	}
	res.Success = true

	if deleteAfter {
		if err := os.Remove(filePath); err != nil {
			res.DeleteErr = fmt.Errorf("delete file: %w", err)
		} else {
			res.Deleted = true
		}
	}

	return res
}
