package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mhoffm/shotrelay/internal/upload"
)

// The creation event can outrun the file being fully materialized on disk,
// so the handler waits up to existsRetries * existsRetryInterval for it.
const (
	existsRetries       = 3
	existsRetryInterval = 500 * time.Millisecond
)

// Uploader sends one file to the webhook.
type Uploader interface {
	Upload(ctx context.Context, webhookURL, filePath string, createdAt time.Time, deleteAfter bool) *upload.Result
}

// ResultWriter records completed upload attempts.
type ResultWriter interface {
	WriteResult(ctx context.Context, path string, res *upload.Result) error
}

// Handler processes one creation event end to end: delay, filter, upload.
type Handler struct {
	uploader    Uploader
	webhookURL  string
	deleteAfter bool
	log         func(string)
	results     ResultWriter // optional
}

// HandleCreated runs the pipeline for a single created file. The delay is a
// fixed pause, not cancellable mid-wait, so a producing application can
// finish writing the file.
func (h *Handler) HandleCreated(ctx context.Context, ev Event, delay time.Duration) {
	h.log("New screenshot detected.")
	if delay > 0 {
		time.Sleep(delay)
	}
	if !IsAllowed(ev.Path) {
		h.log("Ignored screenshot (unsupported file type).")
		return
	}
	h.uploadFile(ctx, ev)
}

func (h *Handler) uploadFile(ctx context.Context, ev Event) {
	// A file already being processed is allowed to finish even while the
	// session shuts down; the client's own timeout still bounds the call.
	ctx = context.WithoutCancel(ctx)

	if h.webhookURL == "" {
		h.log("No webhook URL set! Please enter one.")
		return
	}

	// If the file still isn't there after the retries, attempt the upload
	// anyway; the failed open is reported as an upload error.
	for attempt := 0; attempt < existsRetries; attempt++ {
		if _, err := os.Stat(ev.Path); err == nil {
			break
		}
		time.Sleep(existsRetryInterval)
	}

	res := h.uploader.Upload(ctx, h.webhookURL, ev.Path, ev.ObservedAt, h.deleteAfter)
	switch {
	case res.Err != nil:
		h.log(fmt.Sprintf("Error uploading screenshot: %v", res.Err))
	case res.Success:
		h.log(fmt.Sprintf("Uploaded screenshot in %.2f sec (total: %.2f sec).",
			res.UploadDuration.Seconds(), res.TotalDuration.Seconds()))
		if res.DeleteErr != nil {
			h.log(fmt.Sprintf("Could not delete screenshot after upload: %v", res.DeleteErr))
		} else if res.Deleted {
			h.log("Deleted screenshot after upload.")
		}
	default:
		h.log(fmt.Sprintf("Upload failed. Status code: %d", res.StatusCode))
	}

	if h.results != nil {
		if err := h.results.WriteResult(ctx, ev.Path, res); err != nil {
			slog.Error("failed to record upload", "path", ev.Path, "error", err)
		}
	}
}
