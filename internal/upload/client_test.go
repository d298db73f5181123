package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

func TestUploadNoWebhook(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	path := writeTestFile(t, "shot.png", "data")
	res := NewClient().Upload(context.Background(), "", path, time.Time{}, false)

	if !errors.Is(res.Err, ErrNoWebhook) {
		t.Errorf("expected ErrNoWebhook, got %v", res.Err)
	}
	if requests.Load() != 0 {
		t.Errorf("expected no network call, got %d requests", requests.Load())
	}
}

func TestUploadSuccess(t *testing.T) {
	var gotFilename, gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotFilename = header.Filename
		gotContent = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := writeTestFile(t, "shot.png", "image-bytes")
	createdAt := time.Now().Add(-2 * time.Second)

	res := NewClient().Upload(context.Background(), server.URL, path, createdAt, false)

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Success {
		t.Errorf("expected success, got status %d", res.StatusCode)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", res.StatusCode)
	}
	if gotFilename != "shot.png" {
		t.Errorf("expected filename 'shot.png', got %q", gotFilename)
	}
	if gotContent != "image-bytes" {
		t.Errorf("expected file contents 'image-bytes', got %q", gotContent)
	}
	if res.SizeBytes != int64(len("image-bytes")) {
		t.Errorf("expected size %d, got %d", len("image-bytes"), res.SizeBytes)
	}
	if res.UploadDuration <= 0 {
		t.Error("expected positive upload duration")
	}
	if res.TotalDuration < 2*time.Second {
		t.Errorf("expected total duration >= 2s, got %s", res.TotalDuration)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should not have been deleted: %v", err)
	}
}

func TestUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no thanks", http.StatusBadRequest)
	}))
	defer server.Close()

	path := writeTestFile(t, "shot.png", "data")
	res := NewClient().Upload(context.Background(), server.URL, path, time.Time{}, false)

	if res.Err != nil {
		t.Fatalf("rejection is not a transport error, got %v", res.Err)
	}
	if res.Success {
		t.Error("expected failure for non-200 status")
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", res.StatusCode)
	}
}

func TestUploadTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	path := writeTestFile(t, "shot.png", "data")
	res := NewClient().Upload(context.Background(), server.URL, path, time.Time{}, false)

	if res.Err == nil {
		t.Fatal("expected transport error")
	}
	if res.Success {
		t.Error("expected failure result")
	}
	if res.StatusCode != 0 {
		t.Errorf("expected no status code, got %d", res.StatusCode)
	}
}

func TestUploadReadError(t *testing.T) {
	res := NewClient().Upload(context.Background(), "http://localhost:1", "/nonexistent/shot.png", time.Time{}, false)
	if res.Err == nil {
		t.Fatal("expected read error")
	}
	if !strings.Contains(res.Err.Error(), "read file") {
		t.Errorf("expected read error, got %v", res.Err)
	}
}

func TestUploadDeleteAfterUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := writeTestFile(t, "shot.png", "data")
	res := NewClient().Upload(context.Background(), server.URL, path, time.Time{}, true)

	if !res.Success {
		t.Fatalf("expected success, got status %d err %v", res.StatusCode, res.Err)
	}
	if !res.Deleted {
		t.Error("expected file to be deleted")
	}
	if res.DeleteErr != nil {
		t.Errorf("unexpected deletion error: %v", res.DeleteErr)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected file to be removed from disk")
	}
}

func TestUploadDeleteFailure(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Remove the file before the client gets a chance to, so its
		// own deletion fails.
		os.Remove(path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path = writeTestFile(t, "shot.png", "data")
	res := NewClient().Upload(context.Background(), server.URL, path, time.Time{}, true)

	if !res.Success {
		t.Fatalf("deletion failure must not reclassify the upload, got status %d err %v", res.StatusCode, res.Err)
	}
	if res.Deleted {
		t.Error("expected Deleted to be false")
	}
	if res.DeleteErr == nil {
		t.Error("expected a deletion error")
	}
}

func TestUploadNoDeleteOnRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	path := writeTestFile(t, "shot.png", "data")
	res := NewClient().Upload(context.Background(), server.URL, path, time.Time{}, true)

	if res.Success {
		t.Fatal("expected rejection")
	}
	if res.Deleted || res.DeleteErr != nil {
		t.Error("rejected upload must not touch the source file")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should still exist: %v", err)
	}
}
