package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"postshare/internal/config"
	"postshare/internal/models"
	"postshare/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-key-12345678901234567890123456789012"

type harness struct {
	s      *Server
	app    *fiber.App
	db     *gorm.DB
	images *testutil.ImageStoreStub
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                 "0",
		JWTSecret:            testJWTSecret,
		JWTIssuer:            "postshare-api",
		JWTAudience:          "postshare-client",
		JWTTTL:               time.Hour,
		AllowedOrigins:       "http://localhost:3000",
		RateLimitPerMinute:   10000,
		ImageMaxUploadSizeMB: 1,
	}
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db := testutil.NewSQLiteDB(t)
	images := testutil.NewImageStoreStub()
	s, err := NewServerWithDeps(cfg, db, nil, WithImageStore(images))
	require.NoError(t, err)

	return &harness{s: s, app: s.App(), db: db, images: images}
}

func (h *harness) token(t *testing.T, userID uint) string {
	t.Helper()
	tok, err := h.s.generateToken(userID)
	require.NoError(t, err)
	return tok
}

// do sends body as JSON (nil for none) and decodes the response into out when out is non-nil.
func (h *harness) do(t *testing.T, method, path string, body any, token string, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.send(t, req, out)
}

// doMultipart sends fields plus an optional file under fileField.
func (h *harness) doMultipart(t *testing.T, method, path string, fields map[string]string, fileField string, file []byte, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return h.send(t, req, out)
}

func (h *harness) send(t *testing.T, req *http.Request, out any) *http.Response {
	t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (h *harness) user(t *testing.T, username string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, h.db, username)
}

func (h *harness) post(t *testing.T, ownerID uint, title string) *models.Post {
	t.Helper()
	return testutil.CreatePost(t, h.db, ownerID, title)
}

func (h *harness) reloadUser(t *testing.T, id uint) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, h.db.First(&u, id).Error)
	return &u
}

func (h *harness) reloadPost(t *testing.T, id uint) *models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, h.db.First(&p, id).Error)
	return &p
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
