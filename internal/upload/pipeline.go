package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/slidevault/slidevault/internal/catalog"
	"github.com/slidevault/slidevault/internal/store"
	"github.com/slidevault/slidevault/pkg/logging"
	"github.com/slidevault/slidevault/pkg/record"
)

// Validation errors reported before any mutation
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = fmt.Errorf("file exceeds the %d byte limit", record.MaxFileSize)
	ErrEmptyTitle      = errors.New("title cannot be empty")
)

// EncodingError reports a malformed or mismatched payload
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("payload encoding failed: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Pipeline validates uploads, encodes the payload and commits new records
// through the store. It performs no retries: if persistence fails the
// caller resubmits.
type Pipeline struct {
	store   store.Store
	catalog *catalog.Catalog
	// SniffPayload enables MIME detection on the raw bytes as a second
	// check that the payload matches the claimed extension.
	SniffPayload bool
}

// NewPipeline creates an upload pipeline
func NewPipeline(s store.Store, c *catalog.Catalog) *Pipeline {
	return &Pipeline{store: s, catalog: c, SniffPayload: true}
}

// Validate checks the file name and declared size before any bytes are
// read. The size cap is enforced here and never re-checked on stored
// records.
func Validate(fileName string, size int64) error {
	ext := record.FileTypeFromName(fileName)
	if !record.SupportedType(ext) {
		return fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedType, ext, strings.Join(record.SupportedTypes(), ", "))
	}
	if size > record.MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

// Submit validates the metadata, encodes the payload and persists a new
// record. On success the catalog is refreshed and the aggregate stats
// recomputed. If persistence fails no record is created.
func (p *Pipeline) Submit(ctx context.Context, fileName string, data []byte, title, description, tagsText string, isPublic bool) (*record.Record, error) {
	if err := Validate(fileName, int64(len(data))); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	ext := record.FileTypeFromName(fileName)
	if p.SniffPayload {
		if err := checkPayloadType(ext, data); err != nil {
			return nil, &EncodingError{Err: err}
		}
	}

	now := time.Now().UTC()
	rec := &record.Record{
		ID:          NewID(),
		Title:       title,
		Description: strings.TrimSpace(description),
		FileName:    fileName,
		FileType:    ext,
		FileSize:    int64(len(data)),
		CreatedAt:   now,
		UpdatedAt:   now,
		Views:       0,
		IsPublic:    isPublic,
		Tags:        datatypes.JSONSlice[string](ParseTags(tagsText)),
		FileData:    EncodePayload(data),
	}

	if _, err := p.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	logger := logging.GetLogger("upload")
	if err := p.catalog.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Str("id", rec.ID).Msg("Catalog refresh after upload failed")
	}
	if _, err := p.store.RecomputeStats(ctx); err != nil {
		logger.Warn().Err(err).Str("id", rec.ID).Msg("Stats recomputation after upload failed")
	}

	return rec, nil
}

// NewID generates a fresh record id. A random component plus a timestamp
// keeps the collision probability negligible for the expected record
// counts.
func NewID() string {
	return fmt.Sprintf("presentation-%s-%d", uuid.NewString(), time.Now().UnixMilli())
}

// ParseTags splits comma-separated tag text, trimming each segment and
// dropping empties.
func ParseTags(tagsText string) []string {
	parts := strings.Split(tagsText, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// EncodePayload encodes file bytes for inline storage
func EncodePayload(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodePayload restores the original bytes of an encoded payload
func DecodePayload(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	return data, nil
}

// checkPayloadType sniffs the payload and rejects it when the detected
// MIME type contradicts the claimed extension
func checkPayloadType(ext string, data []byte) error {
	mtype := mimetype.Detect(data)
	switch ext {
	case "pdf":
		if !mtype.Is("application/pdf") {
			return fmt.Errorf("payload is %s, not a PDF", mtype.String())
		}
	case "pptx":
		if !mtype.Is("application/vnd.openxmlformats-officedocument.presentationml.presentation") &&
			!mtype.Is("application/zip") {
			return fmt.Errorf("payload is %s, not a PPTX", mtype.String())
		}
	case "ppt":
		if !mtype.Is("application/vnd.ms-powerpoint") &&
			!mtype.Is("application/x-ole-storage") {
			return fmt.Errorf("payload is %s, not a PPT", mtype.String())
		}
	}
	return nil
}
