package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP decoder

	"secondmain/internal/models"
)

// ImageInfo describes an accepted upload.
type ImageInfo struct {
	MimeType  string
	Extension string
}

// CheckImage validates that data is a decodable image of an allowed type and
// no larger than maxBytes.
func CheckImage(upload Upload, maxBytes int64) (ImageInfo, error) {
	if len(upload.Data) == 0 {
		return ImageInfo{}, models.NewValidationError("Empty file uploaded")
	}
	if maxBytes > 0 && int64(len(upload.Data)) > maxBytes {
		return ImageInfo{}, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}

	if provided := normalizeContentType(upload.ContentType); provided != "" && provided != "application/octet-stream" && !isAllowedImageMIME(provided) {
		return ImageInfo{}, models.NewValidationError("Only image files are allowed")
	}

	detected := normalizeContentType(http.DetectContentType(upload.Data))
	if !isAllowedImageMIME(detected) {
		return ImageInfo{}, models.NewValidationError("Only image files are allowed")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(upload.Data))
	if err != nil {
		return ImageInfo{}, models.NewValidationError("Invalid image file")
	}

	mimeType := decodedFormatToMime(format)
	if mimeType == "" {
		return ImageInfo{}, models.NewValidationError("Unsupported image format")
	}
	return ImageInfo{MimeType: mimeType, Extension: extensionFor(mimeType)}, nil
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

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
