package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDownloaderDownloadToFile(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
	}{
		{
			name:       "successful_download",
			statusCode: http.StatusOK,
			body:       "test archive content",
			wantErr:    false,
		},
		{
			name:       "404_not_found",
			statusCode: http.StatusNotFound,
			body:       "not found",
			wantErr:    true,
		},
		{
			name:       "500_server_error",
			statusCode: http.StatusInternalServerError,
			body:       "server error",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != DefaultUserAgent {
					t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
				}
				w.WriteHeader(tt.statusCode)
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Errorf("failed to write response: %v", err)
				}
			}))
			defer server.Close()

			destPath := filepath.Join(t.TempDir(), "test-file")
			err := NewDownloader().DownloadToFile(context.Background(), server.URL, destPath, RequestOptions{})

			if tt.wantErr {
				var downloadErr *DownloadError
				if !errors.As(err, &downloadErr) {
					t.Fatalf("error = %v, want *DownloadError", err)
				}
				var statusErr *HTTPStatusError
				if !errors.As(err, &statusErr) || statusErr.Code != tt.statusCode {
					t.Errorf("error = %v, want status %d", err, tt.statusCode)
				}
				if _, statErr := os.Stat(destPath); !os.IsNotExist(statErr) {
					t.Error("destination must not exist after a failed download")
				}
				if _, statErr := os.Stat(destPath + ".tmp"); !os.IsNotExist(statErr) {
					t.Error("temp file must be cleaned up")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			content, err := os.ReadFile(destPath)
			if err != nil {
				t.Fatalf("failed to read downloaded file: %v", err)
			}
			if string(content) != tt.body {
				t.Errorf("content mismatch:\ngot:  %q\nwant: %q", string(content), tt.body)
			}
		})
	}
}

func TestDownloaderUserAgentOverride(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "Launcher.jar")
	err := NewDownloader().DownloadToFile(context.Background(), server.URL, destPath, RequestOptions{UserAgent: "Custom/2.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Custom/2.0" {
		t.Errorf("User-Agent = %q, want Custom/2.0", got)
	}

	if _, err := NewDownloader(WithUserAgent("Base/1.0")).FetchText(context.Background(), server.URL, RequestOptions{}); err != nil {
		t.Fatalf("FetchText error: %v", err)
	}
	if got != "Base/1.0" {
		t.Errorf("User-Agent = %q, want Base/1.0", got)
	}
}

func TestDownloaderDoesNotRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "test-file")
	if err := NewDownloader().DownloadToFile(context.Background(), server.URL, destPath, RequestOptions{}); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDownloaderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		fmt.Fprint(w, "too late")
	}))
	defer server.Close()

	d := NewDownloader(WithTimeout(20 * time.Millisecond))
	_, err := d.FetchText(context.Background(), server.URL, RequestOptions{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestDownloaderContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		fmt.Fprint(w, "too late")
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	destPath := filepath.Join(t.TempDir(), "test-file")
	err := NewDownloader().DownloadToFile(ctx, server.URL, destPath, RequestOptions{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !strings.Contains(err.Error(), "context") {
		t.Errorf("expected context error, got: %v", err)
	}
}

func TestFetchText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "  abc123\n")
	}))
	defer server.Close()

	d := NewDownloader()
	got, err := d.FetchText(context.Background(), server.URL+"/sha", RequestOptions{})
	if err != nil {
		t.Fatalf("FetchText error: %v", err)
	}
	if got != "abc123" {
		t.Errorf("FetchText = %q, want abc123", got)
	}

	_, err = d.FetchText(context.Background(), server.URL+"/missing", RequestOptions{})
	var lookupErr *RemoteLookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("error = %v, want *RemoteLookupError", err)
	}
	if !IsRemoteFailure(err) {
		t.Error("IsRemoteFailure should be true")
	}
}

func TestDownloaderCreatesNestedDirectories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "test")
	}))
	defer server.Close()

	deepPath := filepath.Join(t.TempDir(), "a", "b", "c", "file.txt")
	if err := NewDownloader().DownloadToFile(context.Background(), server.URL, deepPath, RequestOptions{}); err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if _, err := os.Stat(deepPath); err != nil {
		t.Errorf("file was not created in nested directory: %v", err)
	}
}

func TestDownloaderRedirectHandling(t *testing.T) {
	redirectCount := 0
	finalContent := "final content after redirects"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if redirectCount < 3 {
			redirectCount++
			http.Redirect(w, r, fmt.Sprintf("/redirect-%d", redirectCount), http.StatusMovedPermanently)
			return
		}
		fmt.Fprint(w, finalContent)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "redirected-file")
	if err := NewDownloader().DownloadToFile(context.Background(), server.URL, destPath, RequestOptions{}); err != nil {
		t.Fatalf("download with redirects failed: %v", err)
	}

	content, _ := os.ReadFile(destPath)
	if string(content) != finalContent {
		t.Errorf("unexpected content after redirects: %s", string(content))
	}
}

func TestDownloaderOverwritesExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "new")
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(destPath, []byte("old content that is longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewDownloader().DownloadToFile(context.Background(), server.URL, destPath, RequestOptions{}); err != nil {
		t.Fatalf("download failed: %v", err)
	}
	content, _ := os.ReadFile(destPath)
	if string(content) != "new" {
		t.Errorf("content = %q, want new", content)
	}
}
