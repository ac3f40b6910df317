package record

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// MaxFileSize is the largest accepted upload payload. Records are stored
// inline in the backing document store, so the cap is enforced before a
// record is ever created, never after.
const MaxFileSize = 500 * 1024

// Record represents a stored presentation in the SlideVault catalog
type Record struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description,omitempty"`
	FileName    string    `json:"fileName"`
	FileType    string    `json:"fileType"` // pdf, ppt or pptx
	FileSize    int64     `json:"fileSize"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index:idx_presentations_created_at,sort:desc"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Views       int64     `json:"views"`
	IsPublic    bool      `json:"isPublic"`
	Tags        datatypes.JSONSlice[string] `json:"tags" gorm:"type:jsonb"`
	// FileData holds the base64-encoded payload. Empty for demo-seeded
	// records, which render a placeholder instead of a parsed document.
	FileData string `json:"fileData,omitempty"`
}

// TableName maps records to the presentations table
func (Record) TableName() string { return "presentations" }

// Stats holds the aggregate totals over the record set. They are a cached
// projection, recomputable at any time by a full scan.
type Stats struct {
	TotalPresentations int64     `json:"totalPresentations"`
	TotalViews         int64     `json:"totalViews"`
	LastUpdated        time.Time `json:"lastUpdated"`
}

// supportedTypes lists the accepted presentation file extensions
var supportedTypes = map[string]bool{
	"pdf":  true,
	"ppt":  true,
	"pptx": true,
}

// FileTypeFromName extracts the lowercase extension from a file name.
// Returns an empty string when the name has no extension.
func FileTypeFromName(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// SupportedType reports whether ext is an accepted presentation type
func SupportedType(ext string) bool {
	return supportedTypes[strings.ToLower(ext)]
}

// SupportedTypes returns the accepted extensions for error messages
func SupportedTypes() []string {
	return []string{"pdf", "ppt", "pptx"}
}

// Validate checks the record invariants before it is persisted
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record ID cannot be empty")
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("record title cannot be empty")
	}
	if !SupportedType(r.FileType) {
		return fmt.Errorf("unsupported file type: %q", r.FileType)
	}
	if r.FileSize < 0 {
		return fmt.Errorf("file size cannot be negative")
	}
	if r.Views < 0 {
		return fmt.Errorf("view count cannot be negative")
	}
	return nil
}

// HasPayload reports whether the record carries embedded file bytes.
// Demo-seeded records do not, and the viewer shows a placeholder for them.
func (r *Record) HasPayload() bool {
	return r.FileData != ""
}

// Touch updates the mutation timestamp
func (r *Record) Touch() {
	r.UpdatedAt = time.Now().UTC()
}
