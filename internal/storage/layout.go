package storage

import "fmt"

// The canonical layout. Every object a document owns lives under its prefix,
// so prefix listing doubles as document enumeration and prefix deletion as
// document teardown.
//
//	documents/{id}/original/{filename}
//	documents/{id}/metadata.json
//	documents/{id}/ocr/full-result.json
//	documents/{id}/ocr/extracted-text.md
//	documents/{id}/ocr/pages/page-{NNN}.md
//	documents/{id}/ocr/images/page-{NNN}-img-{NNN}.base64

// RootPrefix is the top-level namespace for all document objects.
const RootPrefix = "documents/"

const (
	metadataName      = "metadata.json"
	fullResultName    = "full-result.json"
	extractedTextName = "extracted-text.md"
)

// DocumentPrefix returns the prefix owning every object of one document.
func DocumentPrefix(id string) string {
	return RootPrefix + id + "/"
}

// OriginalPath returns the canonical location of the original upload.
func OriginalPath(id, filename string) string {
	return DocumentPrefix(id) + "original/" + filename
}

// MetadataPath returns the location of the document's metadata record.
func MetadataPath(id string) string {
	return DocumentPrefix(id) + metadataName
}

// OCRPrefix returns the prefix owning every derived OCR artifact.
func OCRPrefix(id string) string {
	return DocumentPrefix(id) + "ocr/"
}

// FullResultPath returns the location of the normalized OCR result.
func FullResultPath(id string) string {
	return OCRPrefix(id) + fullResultName
}

// ExtractedTextPath returns the location of the concatenated page markdown.
func ExtractedTextPath(id string) string {
	return OCRPrefix(id) + extractedTextName
}

// PagePath returns the location of one page's markdown, 3-digit zero-padded.
func PagePath(id string, pageNumber int) string {
	return fmt.Sprintf("%spages/page-%03d.md", OCRPrefix(id), pageNumber)
}

// PageName returns the object name of one page's markdown.
func PageName(pageNumber int) string {
	return fmt.Sprintf("page-%03d.md", pageNumber)
}

// ImagePath returns the location of one extracted image payload.
func ImagePath(id string, pageNumber, imageIndex int) string {
	return fmt.Sprintf("%simages/page-%03d-img-%03d.base64", OCRPrefix(id), pageNumber, imageIndex)
}

// ImageName returns the object name of one extracted image payload.
func ImageName(pageNumber, imageIndex int) string {
	return fmt.Sprintf("page-%03d-img-%03d.base64", pageNumber, imageIndex)
}
