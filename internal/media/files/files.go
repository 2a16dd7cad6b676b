// Package files stores uploaded book files (cover images and PDFs).
//
// Uploads are addressed by a relative path of the form "<dir>/<uuid>.<ext>".
// That path is what gets persisted on the book row and what GET /storage/*
// resolves, regardless of which backend holds the bytes.
package files

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Open when no object exists at the path.
var ErrNotFound = errors.New("file not found")

// ErrInvalidPath is returned for paths that are empty or escape the storage root.
var ErrInvalidPath = errors.New("invalid file path")

// Storage persists upload bytes.
type Storage interface {
	// Put stores data under dir with a freshly generated name and returns its relative path.
	Put(ctx context.Context, dir string, data []byte, contentType string) (string, error)

	// Open returns the bytes and content type stored at path.
	Open(ctx context.Context, path string) ([]byte, string, error)

	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

// Detected is the sniffed type of an upload.
type Detected struct {
	MIME      string
	Extension string // with leading dot, e.g. ".png"
}

// Detect sniffs the content type of data from its leading bytes.
// Client-declared types are never trusted.
func Detect(data []byte) Detected {
	mt := mimetype.Detect(data)

	// Strip parameters such as "; charset=utf-8".
	mime, _, _ := strings.Cut(mt.String(), ";")

	return Detected{MIME: strings.TrimSpace(mime), Extension: mt.Extension()}
}

// Rule constrains one kind of upload.
type Rule struct {
	// Accepted lists allowed MIME types.
	Accepted []string
	// Extensions is the human-readable list used in error messages.
	Extensions []string
	// MaxKilobytes is the inclusive size limit in KiB.
	MaxKilobytes int
}

// Upload rules for book files.
var (
	CoverImageRule = Rule{
		Accepted:     []string{"image/jpeg", "image/png", "image/gif"},
		Extensions:   []string{"jpeg", "png", "jpg", "gif"},
		MaxKilobytes: 2048,
	}
	PDFRule = Rule{
		Accepted:     []string{"application/pdf"},
		Extensions:   []string{"pdf"},
		MaxKilobytes: 10000,
	}
)

// Violation describes why an upload was refused.
type Violation int

// Upload violations.
const (
	ViolationNone Violation = iota
	ViolationEmpty
	ViolationType
	ViolationSize
)

// Check reports the first rule the upload breaks.
func (r Rule) Check(data []byte) (Detected, Violation) {
	if len(data) == 0 {
		return Detected{}, ViolationEmpty
	}
	det := Detect(data)
	if !slices.Contains(r.Accepted, det.MIME) {
		return det, ViolationType
	}
	if len(data) > r.MaxKilobytes*1024 {
		return det, ViolationSize
	}
	return det, ViolationNone
}

// Message renders a violation for the named field the way clients expect it.
func (r Rule) Message(field string, v Violation) string {
	switch v {
	case ViolationEmpty:
		return fmt.Sprintf("The %s field must be a file.", field)
	case ViolationType:
		return fmt.Sprintf("The %s field must be a file of type: %s.", field, strings.Join(r.Extensions, ", "))
	case ViolationSize:
		return fmt.Sprintf("The %s field must not be greater than %d kilobytes.", field, r.MaxKilobytes)
	default:
		return ""
	}
}

// newObjectName returns "<dir>/<uuid><ext>" for data.
func newObjectName(dir string, data []byte) (string, error) {
	dir, err := cleanPath(dir)
	if err != nil {
		return "", err
	}
	return dir + "/" + uuid.NewString() + Detect(data).Extension, nil
}

// cleanPath normalizes a relative storage path and refuses anything that
// would resolve outside the storage root.
func cleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
