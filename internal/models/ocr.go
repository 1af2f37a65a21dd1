package models

import "time"

// --- OCR provider wire types ---

// OCRRequest is the request body sent to the OCR provider.
type OCRRequest struct {
	Model              string      `json:"model"`
	Document           DocumentURL `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

// DocumentURL wraps the base64 data URI carrying the PDF payload.
type DocumentURL struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

// OCRResponse is the provider's page-indexed response. Page indices are
// 0-based on the wire.
type OCRResponse struct {
	Pages     []OCRPage `json:"pages"`
	Model     string    `json:"model,omitempty"`
	UsageInfo UsageInfo `json:"usage_info"`
}

// OCRPage is a single page of the provider response.
type OCRPage struct {
	Index      int            `json:"index"`
	Markdown   string         `json:"markdown"`
	Images     []OCRImage     `json:"images"`
	Dimensions PageDimensions `json:"dimensions"`
}

// OCRImage is an image embedded in a provider page, located by a pixel
// bounding box.
type OCRImage struct {
	ID           string `json:"id"`
	TopLeftX     int    `json:"top_left_x"`
	TopLeftY     int    `json:"top_left_y"`
	BottomRightX int    `json:"bottom_right_x"`
	BottomRightY int    `json:"bottom_right_y"`
	ImageBase64  string `json:"image_base64"`
}

// PageDimensions carries the page's pixel dimensions and DPI.
type PageDimensions struct {
	DPI    int `json:"dpi"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UsageInfo reports provider-side accounting.
type UsageInfo struct {
	PagesProcessed int  `json:"pages_processed"`
	DocSizeBytes   *int `json:"doc_size_bytes,omitempty"`
}

// OCRErrorResponse is the JSON body carried by non-2xx provider responses.
type OCRErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// --- Normalized internal representation ---

// ProcessedOCRResult is the normalized OCR output for one document, persisted
// as documents/{id}/ocr/full-result.json. A retry fully replaces it.
type ProcessedOCRResult struct {
	TotalPages  int                `json:"totalPages"`
	FullText    string             `json:"fullText"`
	Pages       []ProcessedOCRPage `json:"pages"`
	Images      []ProcessedImage   `json:"images"`
	ProcessedAt time.Time          `json:"processedAt"`
}

// ProcessedOCRPage is one page of the normalized result. PageNumber is
// 1-based.
type ProcessedOCRPage struct {
	PageNumber int              `json:"pageNumber"`
	Markdown   string           `json:"markdown"`
	Images     []ProcessedImage `json:"images"`
	Dimensions PageDimensions   `json:"dimensions"`
}

// ProcessedImage is an extracted image. ImageIndex is 0-based and scoped to
// the owning page; PageNumber is 1-based.
type ProcessedImage struct {
	ID           string `json:"id"`
	PageNumber   int    `json:"pageNumber"`
	ImageIndex   int    `json:"imageIndex"`
	TopLeftX     int    `json:"topLeftX"`
	TopLeftY     int    `json:"topLeftY"`
	BottomRightX int    `json:"bottomRightX"`
	BottomRightY int    `json:"bottomRightY"`
	ImageBase64  string `json:"imageBase64"`
}
