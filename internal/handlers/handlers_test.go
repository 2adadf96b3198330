package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/photobooth/internal/booth"
	"github.com/lehigh-university-libraries/photobooth/internal/filter"
	"github.com/lehigh-university-libraries/photobooth/internal/models"
	"github.com/lehigh-university-libraries/photobooth/internal/testsupport"
)

func newTestServer(t *testing.T) (*httptest.Server, *booth.Booth, *testsupport.FakeClock) {
	t.Helper()
	clk := testsupport.NewFakeClock()
	b := booth.New(testsupport.NewSource(16, 12), nil, booth.Options{Clock: clk})
	h := New(context.Background(), b, "")
	server := httptest.NewServer(h.Routes())
	t.Cleanup(server.Close)
	return server, b, clk
}

func decodeStatus(t *testing.T, resp *http.Response) models.SessionStatus {
	t.Helper()
	defer resp.Body.Close()
	var status models.SessionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	return status
}

func TestSessionLifecycle(t *testing.T) {
	server, b, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/session", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	if err := b.Wait(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	resp, err = http.Get(server.URL + "/api/session")
	if err != nil {
		t.Fatal(err)
	}
	status := decodeStatus(t, resp)
	if status.State != "finished" || status.PhotosTaken != 4 || len(status.Photos) != 4 {
		t.Errorf("Unexpected status: %+v", status)
	}

	resp, err = http.Get(server.URL + status.Photos[1].ImageURL)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Photo is not a PNG: %v", err)
	}
	if cfg.Width != 16 || cfg.Height != 12 {
		t.Errorf("Expected 16x12 photo, got %dx%d", cfg.Width, cfg.Height)
	}

	resp, err = http.Get(server.URL + "/api/session/strip")
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="photo-strip.png"` {
		t.Errorf("Unexpected Content-Disposition %q", got)
	}
	cfg, err = png.DecodeConfig(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Strip is not a PNG: %v", err)
	}
	if cfg.Width != 16+30 || cfg.Height != 4*12+5*15+40 {
		t.Errorf("Unexpected strip size %dx%d", cfg.Width, cfg.Height)
	}

	resp, err = http.Post(server.URL+"/api/session/reset", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	status = decodeStatus(t, resp)
	if status.PhotosTaken != 0 || !status.CanStart || status.State != "idle" {
		t.Errorf("Unexpected status after reset: %+v", status)
	}
}

func TestStartWhileRunning(t *testing.T) {
	server, b, clk := newTestServer(t)
	clk.Gate = make(chan struct{})

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	resp, err := http.Post(server.URL+"/api/session", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409, got %d", resp.StatusCode)
	}

	close(clk.Gate)
	if err := b.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestErrorStatuses(t *testing.T) {
	server, _, _ := newTestServer(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		expected int
	}{
		{name: "strip before any session", method: http.MethodGet, path: "/api/session/strip", expected: http.StatusConflict},
		{name: "bad photo index", method: http.MethodGet, path: "/api/session/photos/abc", expected: http.StatusBadRequest},
		{name: "missing photo", method: http.MethodGet, path: "/api/session/photos/0", expected: http.StatusNotFound},
		{name: "unknown filter", method: http.MethodPut, path: "/api/filter", body: `{"filter":"sparkle"}`, expected: http.StatusBadRequest},
		{name: "invalid json", method: http.MethodPut, path: "/api/filter", body: `{`, expected: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodDelete, path: "/api/session", expected: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, resp.StatusCode)
			}
		})
	}
}

func TestSetFilterAndPreview(t *testing.T) {
	server, b, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/filter", strings.NewReader(`{"filter":"polaroid"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if b.Filter() != filter.Polaroid {
		t.Errorf("Expected polaroid selected, got %s", b.Filter())
	}

	resp, err = http.Get(server.URL + "/api/preview.png")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Preview is not a PNG: %v", err)
	}
	if cfg.Width != 16+20 || cfg.Height != 12+50 {
		t.Errorf("Expected framed preview, got %dx%d", cfg.Width, cfg.Height)
	}

	resp, err = http.Get(server.URL + "/api/filters")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var filters struct {
		Filters  []string `json:"filters"`
		Selected string   `json:"selected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&filters); err != nil {
		t.Fatal(err)
	}
	if len(filters.Filters) != len(filter.All()) || filters.Selected != "polaroid" {
		t.Errorf("Unexpected filters response: %+v", filters)
	}
}

func TestUnavailableSource(t *testing.T) {
	b := booth.New(nil, errors.New("permission denied"), booth.Options{Clock: testsupport.NewFakeClock()})
	server := httptest.NewServer(New(context.Background(), b, "").Routes())
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/session", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/session")
	if err != nil {
		t.Fatal(err)
	}
	status := decodeStatus(t, resp)
	if status.CanStart || status.Error == "" {
		t.Errorf("Expected capture disabled with error, got %+v", status)
	}
}

// multipartStills builds a compose form. A non-zero firstSize pads the first
// file with trailing bytes to exactly that length.
func multipartStills(t *testing.T, count, firstSize int) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i := 0; i < count; i++ {
		part, err := mw.CreateFormFile("files", "still.png")
		if err != nil {
			t.Fatal(err)
		}
		var file bytes.Buffer
		img := testsupport.SolidImage(20, 10, color.RGBA{R: uint8(i * 50), A: 255})
		if err := png.Encode(&file, img); err != nil {
			t.Fatal(err)
		}
		if i == 0 && firstSize > file.Len() {
			file.Write(make([]byte, firstSize-file.Len()))
		}
		if _, err := part.Write(file.Bytes()); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.WriteField("label", "Test Day"); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func TestComposeUpload(t *testing.T) {
	server, _, _ := newTestServer(t)

	body, contentType := multipartStills(t, 4, 0)
	resp, err := http.Post(server.URL+"/api/strips", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	cfg, err := png.DecodeConfig(resp.Body)
	if err != nil {
		t.Fatalf("Strip is not a PNG: %v", err)
	}
	if cfg.Width != 20+30 || cfg.Height != 4*10+5*15+40 {
		t.Errorf("Unexpected strip size %dx%d", cfg.Width, cfg.Height)
	}

	body, contentType = multipartStills(t, 3, 0)
	resp2, err := http.Post(server.URL+"/api/strips", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for 3 stills, got %d", resp2.StatusCode)
	}
}

func TestComposeUploadSizeLimit(t *testing.T) {
	server, _, _ := newTestServer(t)

	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{name: "exactly the limit", size: maxUploadSize, expected: http.StatusOK},
		{name: "one byte over", size: maxUploadSize + 1, expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartStills(t, 4, tt.size)
			resp, err := http.Post(server.URL+"/api/strips", contentType, body)
			if err != nil {
				t.Fatal(err)
			}
			msg, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode != tt.expected {
				t.Errorf("Expected %d, got %d: %s", tt.expected, resp.StatusCode, msg)
			}
		})
	}
}

func TestRequestsLoggedThroughSlog(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	b := booth.New(testsupport.NewSource(16, 12), nil, booth.Options{Clock: testsupport.NewFakeClock()})
	routes := New(context.Background(), b, "").Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	out := logs.String()
	for _, want := range []string{`msg="Request handled"`, "method=GET", "path=/healthcheck", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q:\n%s", want, out)
		}
	}
}

func TestIndexAndHealthcheck(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Unexpected index response: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp, err = http.Get(server.URL + "/healthcheck")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
