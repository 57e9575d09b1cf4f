package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"transcript-tool/internal/domain"
	"transcript-tool/internal/http/handlers"
	"transcript-tool/internal/http/httpapi"
	"transcript-tool/internal/jobs"
	"transcript-tool/internal/storage"
	"transcript-tool/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, domain.JobStore, *storage.Workspace) {
	t.Helper()
	st := store.NewMemory()
	ws, err := storage.NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	registry := jobs.NewService(st, jobs.NopDispatcher())
	app := handlers.NewApp(registry, ws, zerolog.Nop(), 60)
	srv := httptest.NewServer(httpapi.NewRouter(app, zerolog.Nop(), 1000))
	t.Cleanup(srv.Close)
	return srv, st, ws
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func decodeJSON(t *testing.T, r io.Reader, v any) {
	t.Helper()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestTranscribeCreatesQueuedJob(t *testing.T) {
	srv, st, ws := newTestServer(t)

	body, ctype := multipartBody(t, map[string]string{"model": "tiny"}, "meeting.mp4", []byte("fake media"))
	resp, err := http.Post(srv.URL+"/api/transcribe", ctype, body)
	if err != nil {
		t.Fatalf("POST /api/transcribe: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var created struct {
		TaskID string `json:"task_id"`
	}
	decodeJSON(t, resp.Body, &created)
	if created.TaskID == "" {
		t.Fatal("empty task_id")
	}

	job, err := st.Get(context.Background(), created.TaskID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != domain.JobStatusQueued {
		t.Errorf("Status = %q", job.Status)
	}
	if job.Options.Model != "tiny" {
		t.Errorf("Model = %q", job.Options.Model)
	}
	want := filepath.Join(ws.Root(), "uploads", created.TaskID, "meeting.mp4")
	if job.InputPath != want {
		t.Errorf("InputPath = %q, want %q", job.InputPath, want)
	}
	if _, err := os.Stat(job.InputPath); err != nil {
		t.Errorf("upload not saved: %v", err)
	}
}

func TestTranscribeRejectsBadRequests(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
	}{
		{name: "missing file", fields: map[string]string{"model": "tiny"}},
		{name: "unknown model", fields: map[string]string{"model": "enormous"}, filename: "a.mp4"},
		{name: "bad language", fields: map[string]string{"model": "tiny", "language": "???"}, filename: "a.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := multipartBody(t, tt.fields, tt.filename, []byte("x"))
			resp, err := http.Post(srv.URL+"/api/transcribe", ctype, body)
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestStatusUnknownTask(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/status/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPauseResumeFlow(t *testing.T) {
	srv, st, _ := newTestServer(t)

	job := &domain.Job{
		ID:       "task-1",
		Status:   domain.JobStatusProcessing,
		Progress: 40,
		Options:  domain.Options{Model: "tiny", ChunkSeconds: 60},
	}
	if err := st.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := http.Post(srv.URL+"/api/pause/task-1", "application/json", nil)
	if err != nil {
		t.Fatalf("POST pause: %v", err)
	}
	var status struct {
		Status string `json:"status"`
		Paused bool   `json:"paused"`
	}
	decodeJSON(t, resp.Body, &status)
	resp.Body.Close()
	if !status.Paused || status.Status != "paused" {
		t.Errorf("after pause: %+v", status)
	}

	resp, err = http.Post(srv.URL+"/api/resume/task-1", "application/json", nil)
	if err != nil {
		t.Fatalf("POST resume: %v", err)
	}
	decodeJSON(t, resp.Body, &status)
	resp.Body.Close()
	if status.Paused || status.Status != "processing" {
		t.Errorf("after resume: %+v", status)
	}
}

func TestPauseFinishedTaskConflicts(t *testing.T) {
	srv, st, _ := newTestServer(t)

	job := &domain.Job{
		ID:      "done",
		Status:  domain.JobStatusCompleted,
		Options: domain.Options{Model: "tiny", ChunkSeconds: 60},
	}
	if err := st.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := http.Post(srv.URL+"/api/pause/done", "application/json", nil)
	if err != nil {
		t.Fatalf("POST pause: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestDownloadNotReady(t *testing.T) {
	srv, st, _ := newTestServer(t)

	job := &domain.Job{
		ID:      "task-2",
		Status:  domain.JobStatusProcessing,
		Options: domain.Options{Model: "tiny", ChunkSeconds: 60},
	}
	if err := st.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/download/task-2")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDownloadServesSubtitle(t *testing.T) {
	srv, st, _ := newTestServer(t)

	dir := t.TempDir()
	srt := filepath.Join(dir, "talk.srt")
	content := "1\n00:00:00,000 --> 00:00:01,000\nHello\n"
	if err := os.WriteFile(srt, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	job := &domain.Job{
		ID:               "task-3",
		Status:           domain.JobStatusCompleted,
		Options:          domain.Options{Model: "tiny", ChunkSeconds: 60},
		SubtitleReady:    true,
		SubtitlePath:     srt,
		SubtitleFilename: "talk.srt",
	}
	if err := st.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/download/task-3")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got, _ := io.ReadAll(resp.Body)
	if string(got) != content {
		t.Errorf("body = %q", got)
	}
}

func TestStatusIncludesSubtitleURLWhenReady(t *testing.T) {
	srv, st, _ := newTestServer(t)

	job := &domain.Job{
		ID:               "task-4",
		Status:           domain.JobStatusCompleted,
		Progress:         100,
		Message:          "Transcription complete",
		Options:          domain.Options{Model: "small", ChunkSeconds: 60},
		SubtitleReady:    true,
		SubtitleFilename: "talk.srt",
	}
	if err := st.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/status/task-4")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var status struct {
		SubtitleURL      string `json:"subtitle_url"`
		SubtitleFilename string `json:"subtitle_filename"`
		Model            string `json:"model"`
	}
	decodeJSON(t, resp.Body, &status)
	if status.SubtitleURL != "/api/download/task-4" {
		t.Errorf("SubtitleURL = %q", status.SubtitleURL)
	}
	if status.SubtitleFilename != "talk.srt" {
		t.Errorf("SubtitleFilename = %q", status.SubtitleFilename)
	}
	if status.Model != "small" {
		t.Errorf("Model = %q", status.Model)
	}
}
