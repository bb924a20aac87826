package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"postshare/internal/config"
	"postshare/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageUploadDir       = "/tmp/postshare/uploads"
	DefaultImageMaxUploadSizeMB = 10
	ImageMaxEdge                = 1080
	WebPQuality                 = 70
	// UploadsRoute is where stored images are served from.
	UploadsRoute = "/uploads"
)

// ImageStore keeps post images and avatars. Release takes the reference Save returned.
type ImageStore interface {
	Save(ctx context.Context, ownerID uint, data []byte) (string, error)
	Release(ctx context.Context, ref string) error
}

var storedImageName = regexp.MustCompile(`^[0-9]+-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.webp$`)

// LocalImageStore writes WebP files under one directory, one file per Save.
type LocalImageStore struct {
	uploadDir          string
	publicBaseURL      string
	maxUploadSizeBytes int64
}

func NewLocalImageStore(cfg *config.Config) *LocalImageStore {
	uploadDir := DefaultImageUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	var baseURL string

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
		baseURL = cfg.PublicBaseURL
	}

	return &LocalImageStore{
		uploadDir:          uploadDir,
		publicBaseURL:      baseURL,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Dir is the directory served at UploadsRoute.
func (s *LocalImageStore) Dir() string {
	return s.uploadDir
}

// Save validates and re-encodes data as WebP, bounded to ImageMaxEdge, and returns its URL.
// Every call writes a new file, so releasing one reference never touches another.
func (s *LocalImageStore) Save(ctx context.Context, ownerID uint, data []byte) (string, error) {
	if len(data) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(data)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(data)) {
		return "", models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	encoded, err := encodeWebP(resizeToFit(decoded, ImageMaxEdge, ImageMaxEdge), WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if err := ctx.Err(); err != nil {
		return "", models.NewTimeoutError(err)
	}

	name := buildImageName(ownerID)
	if err := writeBytesToFile(filepath.Join(s.uploadDir, name), encoded); err != nil {
		return "", models.NewInternalError(err)
	}
	return s.publicBaseURL + path.Join(UploadsRoute, name), nil
}

// Release deletes the file named by the last path segment of ref. References this store
// did not produce are ignored, and releasing a missing file succeeds.
func (s *LocalImageStore) Release(_ context.Context, ref string) error {
	name := lastSegment(ref)
	if !storedImageName.MatchString(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.uploadDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func lastSegment(ref string) string {
	if u, err := url.Parse(ref); err == nil {
		ref = u.Path
	}
	ref = strings.TrimRight(ref, "/")
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func buildImageName(ownerID uint) string {
	return fmt.Sprintf("%d-%s.webp", ownerID, uuid.NewString())
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
