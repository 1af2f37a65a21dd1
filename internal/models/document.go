package models

import "time"

// DocumentStatus is the persisted lifecycle state of a document. Status is an
// explicit metadata field, never inferred from the presence of artifacts.
type DocumentStatus string

const (
	StatusNotStarted DocumentStatus = "not_started"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the identity record for one uploaded PDF, persisted as
// documents/{id}/metadata.json.
type Document struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Size       int64          `json:"size"`
	PageCount  int            `json:"pageCount"`
	Status     DocumentStatus `json:"status"`
	UploadDate time.Time      `json:"uploadDate"`
	Path       string         `json:"path"`
	FileHash   string         `json:"fileHash,omitempty"`
	// OCRError is present only while the last OCR attempt failed and has not
	// been cleared by a successful retry.
	OCRError string `json:"ocrError,omitempty"`
}
