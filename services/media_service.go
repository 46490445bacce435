package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/baaten/partner_console/models"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // register webp for avatar decoding
)

const (
	// Maximum media download size (25MB)
	maxMediaSize = 25 * 1024 * 1024

	avatarQuality   = 80
	compressQuality = 60
	// Avatars larger than this on either side are scaled down by Compress
	compressMaxDimension = 1024
)

// ErrMediaTooLarge is returned when a media download exceeds maxMediaSize
var ErrMediaTooLarge = errors.New("media file too large")

// MediaFetcher downloads partner media and prepares it for the onboarding service
type MediaFetcher interface {
	FetchAvatar(ctx context.Context, rawURL string) (*models.MediaFile, error)
	FetchSample(ctx context.Context, rawURL string) (*models.MediaFile, error)
}

// MediaService fetches partner media from its hosting urls
type MediaService struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMediaService creates a media service
func NewMediaService(httpClient *http.Client, logger *zap.Logger) *MediaService {
	return &MediaService{httpClient: httpClient, logger: logger.Named("media")}
}

// FetchAvatar downloads an image, re-encodes it to JPEG and compresses it
func (s *MediaService) FetchAvatar(ctx context.Context, rawURL string) (*models.MediaFile, error) {
	data, _, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	encoded, err := NormalizeToJPEG(data, avatarQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode avatar: %w", err)
	}
	compressed, err := Compress(encoded, compressMaxDimension, compressQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to compress avatar: %w", err)
	}

	s.logger.Debug("avatar prepared",
		zap.String("url", rawURL),
		zap.Int("sourceBytes", len(data)),
		zap.Int("finalBytes", len(compressed)))

	return &models.MediaFile{
		Filename:    "avatar.jpg",
		ContentType: "image/jpeg",
		Data:        compressed,
		SourceURL:   rawURL,
	}, nil
}

// FetchSample downloads the audio intro unchanged
func (s *MediaService) FetchSample(ctx context.Context, rawURL string) (*models.MediaFile, error) {
	data, contentType, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return &models.MediaFile{
		Filename:    sampleFilename(rawURL, contentType),
		ContentType: contentType,
		Data:        data,
		SourceURL:   rawURL,
	}, nil
}

func (s *MediaService) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", &APIError{Service: "media host", StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if len(data) > maxMediaSize {
		return nil, "", ErrMediaTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// NormalizeToJPEG decodes jpeg/png/gif/webp input, applies the EXIF
// orientation and encodes it as a metadata-free JPEG.
func NormalizeToJPEG(data []byte, quality int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Compress scales a JPEG down to fit maxDimension and re-encodes it at quality.
// The input is returned unchanged when compression does not make it smaller.
func Compress(data []byte, maxDimension, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	if buf.Len() >= len(data) {
		return data, nil
	}
	return buf.Bytes(), nil
}

func sampleFilename(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." && strings.Contains(base, ".") {
			return base
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			return "sample" + exts[0]
		}
	}
	return "sample"
}
