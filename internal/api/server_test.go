package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/pdfnav/internal/config"
	"github.com/dgallion1/pdfnav/internal/pdftest"
)

const testKey = "secret"

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func samplePDF() []byte {
	return pdftest.Build(pdftest.Doc{
		Info: map[string]string{"Title": "Field Guide", "Author": "Survey Team"},
		Pages: []pdftest.Page{
			{
				Texts: []pdftest.Text{
					pdftest.Heading(720, 22, "Birds"),
					pdftest.Body(690, "Birds are warm-blooded vertebrates with feathers and beaks."),
					pdftest.Heading(650, 16, "Owls"),
					pdftest.Body(620, "Owls hunt mostly at night and have excellent hearing."),
				},
				Images: []pdftest.Image{{Name: "Im0", Width: 4, Height: 4, Data: pdftest.GrayPixels(4, 4)}},
			},
			{
				Texts: []pdftest.Text{
					pdftest.Heading(720, 22, "Insects"),
					pdftest.Body(690, "Insects have six legs and three body segments."),
				},
			},
		},
	})
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.APIKey = testKey
	cfg.RateLimitRPS = 0
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(log, cfg, WithRand(fixedRand(0)))
}

func post(t *testing.T, s *Server, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/toc", bytes.NewReader(samplePDF())))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/toc", bytes.NewReader(samplePDF()))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api key", decode(t, rec)["error"])
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.APIKey = "" })
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/info", bytes.NewReader(samplePDF())))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTOC(t *testing.T) {
	rec := post(t, newTestServer(t, nil), "/api/toc", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "Field Guide", out["title"])
	sections := out["sections"].([]any)
	require.Len(t, sections, 3)
	var ids []string
	for _, s := range sections {
		ids = append(ids, s.(map[string]any)["id"].(string))
	}
	assert.Equal(t, []string{"s-1-0", "s-2-0", "s-1-1"}, ids)
	owls := sections[1].(map[string]any)
	assert.Equal(t, []any{"Birds", "Owls"}, owls["path"])
	assert.EqualValues(t, 1, owls["image_count"])
}

func TestRead(t *testing.T) {
	s := newTestServer(t, nil)

	rec := post(t, s, "/api/read?section=s-2-0", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "s-2-0", out["id"])
	assert.Equal(t, "Owls", out["title"])
	assert.Contains(t, out["text"], "Owls hunt mostly at night")
	assert.Contains(t, out["text"], "![](image:p1-Im0)")

	rec = post(t, s, "/api/read?format=html", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
	assert.Contains(t, rec.Body.String(), "<title>Field Guide</title>")
	assert.Contains(t, rec.Body.String(), "<h2>Owls</h2>")

	rec = post(t, s, "/api/read?section=s-1-1&format=docx", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "wordprocessingml")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "docx is a zip package")

	rec = post(t, s, "/api/read?format=pdf", samplePDF())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   []byte
		mutate func(*config.Config)
		want   int
	}{
		{"invalid section id", "/api/read?section=s-x-1", samplePDF(), nil, http.StatusBadRequest},
		{"invalid position", "/api/peek?position=sideways", samplePDF(), nil, http.StatusBadRequest},
		{"section not found", "/api/read?section=s-3-9", samplePDF(), nil, http.StatusNotFound},
		{"image not found", "/api/image?id=p1-Im9", samplePDF(), nil, http.StatusNotFound},
		{"unparseable body", "/api/toc", []byte("%PDF-1.7\nnot really"), nil, http.StatusUnprocessableEntity},
		{"empty body", "/api/toc", nil, nil, http.StatusBadRequest},
		{"too large", "/api/toc", samplePDF(), func(c *config.Config) { c.MaxUploadBytes = 64 }, http.StatusRequestEntityTooLarge},
		{"bad limit", "/api/peek?limit=-3", samplePDF(), nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(t, tt.mutate), tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestPeek(t *testing.T) {
	s := newTestServer(t, nil)

	rec := post(t, s, "/api/peek?section=s-1-1&position=ending&limit=10", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, " segments.", out["text"])
	assert.Equal(t, "ending", out["position"])
	assert.EqualValues(t, 46, out["total"])
	assert.EqualValues(t, 36, out["start"])

	rec = post(t, s, "/api/peek?limit=5", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Bir", decode(t, rec)["text"])
}

func TestImages(t *testing.T) {
	s := newTestServer(t, nil)

	rec := post(t, s, "/api/images?section=s-1-0", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	imgs := decode(t, rec)["images"].([]any)
	require.Len(t, imgs, 1)
	assert.Equal(t, "p1-Im0", imgs[0].(map[string]any)["id"])

	rec = post(t, s, "/api/images?section=s-1-1", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["images"])
}

func TestImage(t *testing.T) {
	s := newTestServer(t, nil)

	rec := post(t, s, "/api/image?id=p1-Im0", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "4", rec.Header().Get("X-Image-Width"))
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	assert.NoError(t, err)

	rec = post(t, s, "/api/image?id=Im0", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1-Im0", rec.Header().Get("X-Image-Id"))

	rec = post(t, s, "/api/image?random=true&section=s-2-0", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1-Im0", rec.Header().Get("X-Image-Id"))

	rec = post(t, s, "/api/image?random=true&section=s-1-1", samplePDF())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(t, s, "/api/image", samplePDF())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInfo(t *testing.T) {
	rec := post(t, newTestServer(t, nil), "/api/info", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Survey Team", out["author"])
	assert.EqualValues(t, 2, out["page_count"])
	assert.NotContains(t, out, "keywords")
}

func TestChunks(t *testing.T) {
	s := newTestServer(t, nil)

	rec := post(t, s, "/api/chunks?size=500&overlap=50", samplePDF())
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	chunks := out["chunks"].([]any)
	require.Len(t, chunks, 3)
	first := chunks[0].(map[string]any)
	assert.Equal(t, "s-1-0", first["section_id"])
	assert.Equal(t, []any{"Birds"}, first["breadcrumb"])

	rec = post(t, s, "/api/chunks?size=50&overlap=50", samplePDF())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 1
	})
	assert.Equal(t, http.StatusOK, post(t, s, "/api/info", samplePDF()).Code)
	rec := post(t, s, "/api/info", samplePDF())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestConcurrencyLimitRejectsCancelled(t *testing.T) {
	slots := make(chan struct{}, 1)
	slots <- struct{}{}
	h := ConcurrencyLimit(slots)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a slot")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/toc", nil)
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
