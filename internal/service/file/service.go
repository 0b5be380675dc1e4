package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var ErrInvalidImage = errors.New("invalid image")

type FileService interface {
	// UploadAttendanceProof compresses and stores a check-in or check-out photo
	UploadAttendanceProof(ctx context.Context, userID string, date time.Time, file io.Reader, filename string, action attendance.Action) (string, error)

	// Generic operations
	OpenFile(ctx context.Context, path string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, path string) error
	GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

type ImageOptions struct {
	// MaxDimension bounds the longer edge in pixels
	MaxDimension int
	// Quality is the starting JPEG quality
	Quality int
	// TargetSize is the size in bytes the encoder tries to stay under
	TargetSize int
}

type fileServiceImpl struct {
	storage storage.FileStorage
	image   ImageOptions
}

func NewFileService(storage storage.FileStorage, opts ImageOptions) FileService {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 1280
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 85
	}
	if opts.TargetSize <= 0 {
		opts.TargetSize = 150 * 1024
	}
	return &fileServiceImpl{
		storage: storage,
		image:   opts,
	}
}

// UploadAttendanceProof uploads attendance check-in/out proof photo
func (s *fileServiceImpl) UploadAttendanceProof(ctx context.Context, userID string, date time.Time, file io.Reader, filename string, action attendance.Action) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	// Validate image format
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", fmt.Errorf("%w: only jpg, jpeg, png allowed", ErrInvalidImage)
	}

	compressed, err := s.compressImage(file)
	if err != nil {
		return "", err
	}

	// Generate path: attendance/{date}/{userID}-{action}-{uuid}.jpg
	// Always output as JPEG after compression for consistency
	dateStr := date.Format("2006-01-02")
	newFilename := fmt.Sprintf("%s-%s-%s.jpg", userID, action, uuid.New().String())
	objectPath := path.Join("attendance", dateStr, newFilename)

	uploadedPath, err := s.storage.Upload(ctx, bytes.NewReader(compressed), objectPath, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload attendance proof: %w", err)
	}

	return uploadedPath, nil
}

// OpenFile streams a stored file
func (s *fileServiceImpl) OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.storage.Download(ctx, path)
}

// DeleteFile deletes a file
func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

// GetFileURL generates URL to access file
func (s *fileServiceImpl) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return s.storage.GetURL(ctx, path, expiry)
}

// ==================== HELPER FUNCTIONS ====================

// compressImage re-encodes the photo as JPEG. EXIF orientation is applied,
// the image is bounded to MaxDimension and quality drops in steps until the
// result fits TargetSize or quality reaches 50.
func (s *fileServiceImpl) compressImage(file io.Reader) ([]byte, error) {
	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img = fitWithin(img, s.image.MaxDimension)

	var compressed []byte
	for quality := s.image.Quality; quality >= 50; quality -= 10 {
		buf := new(bytes.Buffer)
		if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		compressed = buf.Bytes()
		if len(compressed) <= s.image.TargetSize {
			break
		}
	}

	return compressed, nil
}

func fitWithin(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}
