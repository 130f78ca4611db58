package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

// GetFileExtensionFromContentType maps a MIME type to the extension used for stored attachments.
func GetFileExtensionFromContentType(contentType string) string {
	contentType = strings.ToLower(contentType)

	switch {
	case strings.Contains(contentType, "jpeg") || strings.Contains(contentType, "jpg"):
		return "jpg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	case strings.Contains(contentType, "heif") || strings.Contains(contentType, "heic"):
		return "heic"
	case strings.Contains(contentType, "pdf"):
		return "pdf"
	case strings.Contains(contentType, "word") || strings.Contains(contentType, "doc"):
		return "docx"
	case strings.Contains(contentType, "excel") || strings.Contains(contentType, "xls"):
		return "xlsx"
	case strings.Contains(contentType, "csv"):
		return "csv"
	case strings.Contains(contentType, "text/plain"):
		return "txt"
	case strings.Contains(contentType, "html"):
		return "html"
	case strings.Contains(contentType, "calendar") || strings.Contains(contentType, "ics"):
		return "ics"
	case strings.Contains(contentType, "vcard") || strings.Contains(contentType, "vcf"):
		return "vcf"
	case strings.Contains(contentType, "zip") || strings.Contains(contentType, "compressed"):
		return "zip"
	default:
		return "bin"
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w.\-]+`)

// SafeAttachmentFilename returns a storage-safe filename, deriving one from the content type if needed.
func SafeAttachmentFilename(filename, contentType string) string {
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "attachment." + GetFileExtensionFromContentType(contentType)
	}
	filename = unsafeFilenameChars.ReplaceAllString(filename, "_")
	if len(filename) > 120 {
		ext := filepath.Ext(filename)
		filename = filename[:120-len(ext)] + ext
	}
	return filename
}
