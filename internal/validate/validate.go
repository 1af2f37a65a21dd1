// Package validate holds the pure input checks guarding the pipeline.
// Every failure is an apperr.ValidationError with a human-readable message.
package validate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mannyyang/docubeam/internal/apperr"
)

const (
	// PDFContentType is the only MIME type accepted for uploads.
	PDFContentType = "application/pdf"

	// MaxFileSize caps uploads at 10 MiB.
	MaxFileSize = 10 << 20

	// MinPDFSize is the floor for a decoded upload buffer. Anything smaller
	// cannot even hold a PDF header and trailer.
	MinPDFSize = 100

	// MaxFileNameLength caps original filenames.
	MaxFileNameLength = 255
)

// invalidNameChars are rejected anywhere in a filename.
const invalidNameChars = `<>:"/\|?*`

// reservedNames are operating-system-reserved basenames (compared without
// extension, case-insensitively).
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// FileInfo describes an uploaded file for validation purposes.
type FileInfo struct {
	Name        string
	Size        int64
	ContentType string
}

// File rejects a missing file, a non-PDF content type, an empty file, and a
// file over the size cap.
func File(f *FileInfo) error {
	if f == nil {
		return apperr.Validation("no file provided")
	}
	if f.ContentType != PDFContentType {
		return apperr.Validation("unsupported content type %q, only %s is accepted", f.ContentType, PDFContentType)
	}
	if f.Size == 0 {
		return apperr.Validation("file is empty")
	}
	if f.Size > MaxFileSize {
		return apperr.Validation("file size %d exceeds the %d byte limit", f.Size, MaxFileSize)
	}
	return nil
}

// DocumentID rejects empty or non-UUID identifiers.
func DocumentID(id string) error {
	if id == "" {
		return apperr.Validation("document id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("document id %q is not a valid UUID", id)
	}
	return nil
}

// PageNumber rejects page numbers below 1 and, when max > 0, above max.
func PageNumber(n, max int) error {
	if n < 1 {
		return apperr.Validation("page number must be at least 1, got %d", n)
	}
	if max > 0 && n > max {
		return apperr.Validation("page number %d exceeds document page count %d", n, max)
	}
	return nil
}

// FileName rejects empty names, names with control or forbidden characters,
// over-long names, and OS-reserved names.
func FileName(name string) error {
	if name == "" {
		return apperr.Validation("file name is required")
	}
	if len(name) > MaxFileNameLength {
		return apperr.Validation("file name exceeds %d characters", MaxFileNameLength)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return apperr.Validation("file name contains control characters")
		}
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return apperr.Validation(`file name contains one of the forbidden characters <>:"/\|?*`)
	}
	base := name
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if _, ok := reservedNames[strings.ToUpper(base)]; ok {
		return apperr.Validation("file name %q is reserved by the operating system", name)
	}
	return nil
}

// Environment rejects configurations missing the storage bucket binding or
// the OCR provider credential.
func Environment(storageBucket, ocrAPIKey string) error {
	if storageBucket == "" {
		return apperr.Validation("storage bucket is not configured")
	}
	if ocrAPIKey == "" {
		return apperr.Validation("OCR provider API key is not configured")
	}
	return nil
}

// Buffer rejects nil or empty buffers, and buffers under minSize when
// minSize > 0.
func Buffer(buf []byte, minSize int) error {
	if len(buf) == 0 {
		return apperr.Validation("buffer is empty")
	}
	if minSize > 0 && len(buf) < minSize {
		return apperr.Validation("buffer of %d bytes is below the %d byte minimum", len(buf), minSize)
	}
	return nil
}

// ContentType rejects an empty type and, when allowed is non-empty, a type
// outside the allow-list.
func ContentType(contentType string, allowed []string) error {
	if contentType == "" {
		return apperr.Validation("content type is required")
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, a := range allowed {
		if contentType == a {
			return nil
		}
	}
	return apperr.Validation("content type %q is not one of %s", contentType, fmt.Sprintf("%v", allowed))
}
