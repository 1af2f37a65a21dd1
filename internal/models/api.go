package models

// These types shape the JSON payloads exposed by the HTTP surface.

// DocumentURLs are the resource endpoints a client uses after upload.
type DocumentURLs struct {
	File   string `json:"fileUrl"`
	Text   string `json:"textUrl"`
	OCR    string `json:"ocrUrl"`
	Status string `json:"statusUrl"`
	Images string `json:"imagesUrl"`
}

// UploadResult is the upload pipeline's success response. OCR may still be
// running (or have failed); the status endpoint is the source of truth.
type UploadResult struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Size      int64          `json:"size"`
	PageCount int            `json:"pageCount"`
	Status    DocumentStatus `json:"status"`
	URLs      DocumentURLs   `json:"urls"`
}

// OCRStatus reports the persisted lifecycle state of a document's OCR run.
type OCRStatus struct {
	DocumentID string         `json:"documentId"`
	Status     DocumentStatus `json:"status"`
	PageCount  int            `json:"pageCount"`
	Error      string         `json:"error,omitempty"`
}

// DocumentImage locates one extracted image and its stored payload path.
type DocumentImage struct {
	ID           string `json:"id"`
	PageNumber   int    `json:"pageNumber"`
	ImageIndex   int    `json:"imageIndex"`
	Path         string `json:"path"`
	TopLeftX     int    `json:"topLeftX"`
	TopLeftY     int    `json:"topLeftY"`
	BottomRightX int    `json:"bottomRightX"`
	BottomRightY int    `json:"bottomRightY"`
}

// DocumentSummary is a boolean/length rollup over the full OCR result.
type DocumentSummary struct {
	DocumentID string `json:"documentId"`
	HasText    bool   `json:"hasText"`
	HasImages  bool   `json:"hasImages"`
	PageCount  int    `json:"pageCount"`
	ImageCount int    `json:"imageCount"`
	TextLength int    `json:"textLength"`
}

// SearchMatch is one case-insensitive substring hit in a document's full
// text, with a context window around the match.
type SearchMatch struct {
	PageNumber int    `json:"pageNumber"`
	Context    string `json:"context"`
	Offset     int    `json:"offset"`
}

// SearchResults groups every match for one query against one document.
type SearchResults struct {
	DocumentID   string        `json:"documentId"`
	Query        string        `json:"query"`
	TotalMatches int           `json:"totalMatches"`
	Matches      []SearchMatch `json:"matches"`
}

// PageContent is one page's markdown.
type PageContent struct {
	PageNumber int    `json:"pageNumber"`
	Markdown   string `json:"markdown"`
}
