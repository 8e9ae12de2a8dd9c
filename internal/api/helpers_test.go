package api

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kdimtricp/camlens/internal/analysis"
	"github.com/kdimtricp/camlens/internal/database"
	"github.com/kdimtricp/camlens/internal/frame"
	"github.com/kdimtricp/camlens/internal/storage"
	"github.com/kdimtricp/camlens/internal/video"
	"github.com/rs/zerolog"
)

type fakeExtractor struct{}

func (fakeExtractor) Extract(req frame.Request) (*frame.Extracted, error) {
	data := testJPEG()
	if err := os.WriteFile(req.OutputPath, data, 0644); err != nil {
		return nil, err
	}
	return &frame.Extracted{Path: req.OutputPath, SizeBytes: int64(len(data)), TimeOffset: req.TimeOffset}, nil
}

type fakeVision struct {
	result  string
	err     error
	prompts []string
}

func (f *fakeVision) Analyze(ctx context.Context, imageBase64, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

type TestServer struct {
	Server   *httptest.Server
	DB       *database.DB
	Vision   *fakeVision
	Storage  *storage.LocalStorage
	VideoDir string
	clock    time.Time
}

func setupTestServer(t *testing.T) *TestServer {
	t.Helper()

	tempDir := t.TempDir()
	videoDir := filepath.Join(tempDir, "videos")
	if err := os.MkdirAll(videoDir, 0755); err != nil {
		t.Fatalf("Failed to create video dir: %v", err)
	}

	localStorage, err := storage.NewLocalStorage(filepath.Join(tempDir, "frames"), filepath.Join(tempDir, "analysis"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	db := database.NewTestDB(t)
	prompts := database.NewPromptRepo(db)
	if err := prompts.Seed(context.Background(), database.DefaultPrompt); err != nil {
		t.Fatalf("Failed to seed prompt: %v", err)
	}

	ts := &TestServer{
		DB:       db,
		Vision:   &fakeVision{result: "A cat next to its bowl."},
		Storage:  localStorage,
		VideoDir: videoDir,
		clock:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	catalog := video.DefaultCatalog()
	locator := video.NewLocator(videoDir)
	svc := analysis.NewService(catalog, locator, fakeExtractor{}, ts.Vision, localStorage,
		database.NewHistoryRepo(db), prompts,
		analysis.Config{Now: func() time.Time {
			ts.clock = ts.clock.Add(time.Second)
			return ts.clock
		}},
		zerolog.Nop())

	app := &App{
		Analysis:      svc,
		Catalog:       catalog,
		Locator:       locator,
		Storage:       localStorage,
		MaxUploadSize: 1 << 20,
		Logger:        zerolog.Nop(),
	}

	ts.Server = httptest.NewServer(NewRouter(app))
	t.Cleanup(ts.Server.Close)
	return ts
}

func (ts *TestServer) writeVideo(t *testing.T, name string, content []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(ts.VideoDir, name), content, 0644); err != nil {
		t.Fatalf("Failed to write video: %v", err)
	}
}

func testJPEG() []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil)
	return buf.Bytes()
}

func createSnapshotUpload(t *testing.T, image []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if image != nil {
		part, err := writer.CreateFormFile("image", "snapshot.jpg")
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		part.Write(image)
	}

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
