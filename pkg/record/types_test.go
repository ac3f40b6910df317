package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestFileTypeFromName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected string
	}{
		{
			name:     "plain pdf",
			fileName: "slides.pdf",
			expected: "pdf",
		},
		{
			name:     "uppercase extension",
			fileName: "Quarterly.PDF",
			expected: "pdf",
		},
		{
			name:     "pptx",
			fileName: "deck.pptx",
			expected: "pptx",
		},
		{
			name:     "dots in name",
			fileName: "q1.review.final.ppt",
			expected: "ppt",
		},
		{
			name:     "no extension",
			fileName: "README",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileTypeFromName(tt.fileName))
		})
	}
}

func TestSupportedType(t *testing.T) {
	assert.True(t, SupportedType("pdf"))
	assert.True(t, SupportedType("PPT"))
	assert.True(t, SupportedType("pptx"))
	assert.False(t, SupportedType("docx"))
	assert.False(t, SupportedType(""))
}

func TestRecord_Validate(t *testing.T) {
	valid := func() *Record {
		now := time.Now()
		return &Record{
			ID:        "presentation-abc-1",
			Title:     "Q1 Review",
			FileName:  "slides.pdf",
			FileType:  "pdf",
			FileSize:  300 * 1024,
			CreatedAt: now,
			UpdatedAt: now,
			Tags:      datatypes.JSONSlice[string]{"finance", "q1"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Record)
		wantErr string
	}{
		{
			name:   "valid record",
			mutate: func(r *Record) {},
		},
		{
			name:    "missing ID",
			mutate:  func(r *Record) { r.ID = "" },
			wantErr: "record ID cannot be empty",
		},
		{
			name:    "blank title",
			mutate:  func(r *Record) { r.Title = "   " },
			wantErr: "record title cannot be empty",
		},
		{
			name:    "unknown file type",
			mutate:  func(r *Record) { r.FileType = "docx" },
			wantErr: "unsupported file type",
		},
		{
			name:    "negative size",
			mutate:  func(r *Record) { r.FileSize = -1 },
			wantErr: "file size cannot be negative",
		},
		{
			name:    "negative views",
			mutate:  func(r *Record) { r.Views = -5 },
			wantErr: "view count cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid()
			tt.mutate(rec)
			err := rec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestRecord_HasPayload(t *testing.T) {
	rec := &Record{ID: "demo-1", Title: "Demo", FileType: "pdf"}
	assert.False(t, rec.HasPayload(), "demo-seeded records carry no payload")

	rec.FileData = "JVBERi0="
	assert.True(t, rec.HasPayload())
}
