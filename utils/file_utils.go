package utils

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/baaten/partner_console/models"
)

// Media kinds accepted by ReadUpload
const (
	MediaImage    = "image"
	MediaAudio    = "audio"
	MediaDocument = "document"
)

// Maximum upload size (10MB)
const maxFileSize = 10 * 1024 * 1024

var (
	allowedImageExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
	}
	allowedAudioExts = map[string]bool{
		".mp3":  true,
		".m4a":  true,
		".aac":  true,
		".wav":  true,
		".ogg":  true,
		".webm": true,
	}
	// PAN cards arrive as scans or PDFs
	allowedDocumentExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".pdf":  true,
	}

	// not all of these are in the mime package's builtin table
	contentTypes = map[string]string{
		".mp3":  "audio/mpeg",
		".m4a":  "audio/mp4",
		".aac":  "audio/aac",
		".wav":  "audio/wav",
		".ogg":  "audio/ogg",
		".webm": "audio/webm",
	}

	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// cleanFilename removes any path components and unusual characters
func cleanFilename(filename string) string {
	filename = unsafeFilenameChars.ReplaceAllString(filepath.Base(filename), "")
	if filename == "" || filename == "." {
		return "upload"
	}
	return filename
}

// ValidateFileType checks if the file extension is allowed for the given media kind
func ValidateFileType(filename, mediaType string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	switch mediaType {
	case MediaImage:
		if !allowedImageExts[ext] {
			return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png, webp")
		}
	case MediaAudio:
		if !allowedAudioExts[ext] {
			return fmt.Errorf("unsupported audio format. Allowed formats: mp3, m4a, aac, wav, ogg, webm")
		}
	case MediaDocument:
		if !allowedDocumentExts[ext] {
			return fmt.Errorf("unsupported document format. Allowed formats: jpg, jpeg, png, pdf")
		}
	default:
		return fmt.Errorf("invalid media type %q", mediaType)
	}
	return nil
}

// ReadUpload validates a multipart file and reads it into memory
func ReadUpload(fh *multipart.FileHeader, mediaType string) (*models.MediaFile, error) {
	if fh.Size > maxFileSize {
		return nil, fmt.Errorf("%s exceeds the 10MB limit", fh.Filename)
	}
	if err := ValidateFileType(fh.Filename, mediaType); err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("%s exceeds the 10MB limit", fh.Filename)
	}

	name := cleanFilename(fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(name))
		if known, ok := contentTypes[ext]; ok {
			contentType = known
		} else if byExt := mime.TypeByExtension(ext); byExt != "" {
			contentType = byExt
		} else {
			contentType = http.DetectContentType(data)
		}
	}

	return &models.MediaFile{Filename: name, ContentType: contentType, Data: data}, nil
}
