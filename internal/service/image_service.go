package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"exon/internal/config"
	"exon/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageUploadDir       = "/tmp/exon/uploads/images"
	DefaultImageMaxUploadSizeMB = 10
	ProfileImageMaxSize         = 1024
	JPEGQuality                 = 82
	WebPQuality                 = 70
)

// UploadImageInput carries a profile image upload.
type UploadImageInput struct {
	UserID      string
	Filename    string
	ContentType string
	Content     []byte
}

// StoredImage describes a processed profile image on disk.
type StoredImage struct {
	Hash string `json:"hash"`
	URL  string `json:"url"`
}

// ImageService validates, normalizes, and stores profile images. Each upload
// is re-encoded to JPEG and WebP under a content-addressed directory, so the
// same bytes from the same user never occupy disk twice.
type ImageService struct {
	uploadDir          string
	mediaBaseURL       string
	maxUploadSizeBytes int64
}

// NewImageService returns a new ImageService.
func NewImageService(cfg *config.Config) *ImageService {
	uploadDir := DefaultImageUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	mediaBaseURL := ""

	if cfg != nil {
		if cfg.ImageUploadDir != "" {
			uploadDir = cfg.ImageUploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
		mediaBaseURL = strings.TrimSuffix(cfg.MediaBaseURL, "/")
	}

	return &ImageService{
		uploadDir:          uploadDir,
		mediaBaseURL:       mediaBaseURL,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// UploadDir returns the directory served under /media/i.
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

// Upload stores a profile image and returns its public URL.
func (s *ImageService) Upload(_ context.Context, in UploadImageInput) (*StoredImage, error) {
	if in.UserID == "" {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	master := resizeToFit(decoded, ProfileImageMaxSize, ProfileImageMaxSize)

	encodedJPG, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	encodedWebP, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := buildDeterministicImageHash(in.UserID, encodedJPG)
	jpgAbs := filepath.Join(s.uploadDir, hash, "master.jpg")
	webpAbs := filepath.Join(s.uploadDir, hash, "master.webp")

	if err := writeBytesToFile(jpgAbs, encodedJPG); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpAbs, encodedWebP); err != nil {
		_ = os.Remove(jpgAbs)
		return nil, models.NewInternalError(err)
	}

	return &StoredImage{Hash: hash, URL: s.BuildImageURL(hash)}, nil
}

// BuildImageURL returns the canonical public URL for a stored image.
func (s *ImageService) BuildImageURL(hash string) string {
	return fmt.Sprintf("%s/media/i/%s/master.jpg", s.mediaBaseURL, hash)
}

// IsValidImageHash checks that the hash is strictly lowercase hex. This
// prevents path traversal via crafted hash parameters.
func IsValidImageHash(hash string) bool {
	if len(hash) == 0 || len(hash) > 128 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
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

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
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

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func buildDeterministicImageHash(userID string, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
