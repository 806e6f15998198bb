package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/dto"
	"clipforge/pkg/ffmpeg"
	"clipforge/service"

	"github.com/gin-gonic/gin"
)

type stubService struct {
	outDir        string
	composeResult dto.ComposeResult
	composeErr    error
	thumbnailErr  error
}

func (s *stubService) Compose(context.Context, service.ComposeParams) (dto.ComposeResult, error) {
	return s.composeResult, s.composeErr
}

func (s *stubService) EnsureThumbnail(_ context.Context, outputId string) (string, error) {
	if s.thumbnailErr != nil {
		return "", s.thumbnailErr
	}
	return s.ThumbnailPath(outputId), nil
}

func (s *stubService) Effects() []service.EffectDefinition {
	return service.DefaultCatalog().List()
}

func (s *stubService) OutputPath(outputId string) string {
	return filepath.Join(s.outDir, outputId+".mp4")
}

func (s *stubService) ThumbnailPath(outputId string) string {
	return filepath.Join(s.outDir, outputId+".jpg")
}

func newTestRouter(t *testing.T, svc *stubService) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uploadDir := t.TempDir()
	r := gin.New()
	h := New(svc, nil, nil, uploadDir)
	h.Register(r)
	return r, uploadDir
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidInterval, http.StatusBadRequest},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrRetrieval, http.StatusBadGateway},
		{service.ErrEffectSynthesis, http.StatusInternalServerError},
		{service.ErrComposition, http.StatusInternalServerError},
		{ffmpeg.ErrMediaIO, http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
		{errors.Join(service.ErrComposition, service.ErrInvalidInterval), http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestGetVideo(t *testing.T) {
	svc := &stubService{outDir: t.TempDir()}
	r, _ := newTestRouter(t, svc)

	// Malformed id never touches the filesystem.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/video/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed id status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/video/0b7f3a84-33d1-4f2a-9c3e-0d9f6b1a2c3d", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing output status = %d, want 404", w.Code)
	}

	id := "1b7f3a84-33d1-4f2a-9c3e-0d9f6b1a2c3d"
	if err := os.WriteFile(svc.OutputPath(id), []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/video/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("existing output status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("content type = %q, want video/mp4", ct)
	}
}

func TestCompose_Validation(t *testing.T) {
	svc := &stubService{outDir: t.TempDir()}
	r, _ := newTestRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/video/process", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing videoId status = %d, want 400", w.Code)
	}
}

func TestCompose_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.Join(service.ErrInvalidInterval, errors.New("out of bounds")), http.StatusBadRequest},
		{errors.Join(service.ErrNotFound, errors.New("unknown effect")), http.StatusNotFound},
		{errors.Join(service.ErrComposition, errors.New("mixdown failed")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &stubService{outDir: t.TempDir(), composeErr: tc.err}
		r, _ := newTestRouter(t, svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/video/process", strings.NewReader(`{"videoId":"abc"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("status for %v = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestCompose_Success(t *testing.T) {
	svc := &stubService{
		outDir: t.TempDir(),
		composeResult: dto.ComposeResult{
			Success:  true,
			VideoId:  "out-id",
			Duration: 9.97,
			Url:      "/api/video/out-id",
		},
	}
	r, _ := newTestRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/video/process", strings.NewReader(`{"videoId":"abc","soundEffect":"dramatic"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result dto.ComposeResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result != svc.composeResult {
		t.Fatalf("result = %+v, want %+v", result, svc.composeResult)
	}
}

func TestListEffects(t *testing.T) {
	svc := &stubService{outDir: t.TempDir()}
	r, _ := newTestRouter(t, svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/video/effects", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Effects []dto.SoundEffect `json:"effects"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	want := []string{"dramatic", "suspense", "upbeat"}
	if len(body.Effects) != len(want) {
		t.Fatalf("got %d effects, want %d", len(body.Effects), len(want))
	}
	for i, id := range want {
		if body.Effects[i].Id != id {
			t.Fatalf("effects[%d].Id = %q, want %q", i, body.Effects[i].Id, id)
		}
	}
}

func TestUpload(t *testing.T) {
	svc := &stubService{outDir: t.TempDir()}
	r, uploadDir := newTestRouter(t, svc)

	newUpload := func(filename string) *http.Request {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte("video bytes")); err != nil {
			t.Fatal(err)
		}
		mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/video/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, newUpload("clip.exe"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad extension status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, newUpload("clip.mp4"))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result dto.UploadResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.VideoId == "" {
		t.Fatalf("upload result = %+v", result)
	}
	if _, err := os.Stat(filepath.Join(uploadDir, result.VideoId+".mp4")); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	// No file at all.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/video/upload", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file status = %d, want 400", w.Code)
	}
}
