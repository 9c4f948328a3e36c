package validation

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize is the largest accepted document, 50 MB.
const MaxUploadSize = 50 << 20

// SniffLen is how many leading bytes ValidateUpload needs for content checks.
const SniffLen = 3072

var ErrInvalidUpload = errors.New("invalid upload")

// UploadError is a rejected upload with a message for the user.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string { return e.Message }
func (e *UploadError) Unwrap() error { return ErrInvalidUpload }

// expected MIME type per accepted extension, with the generic container
// types a truncated sniff may report instead.
var acceptedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".txt":  {"text/plain"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
}

const (
	msgTooLarge    = "File size must be less than 50MB"
	msgUnsupported = "File type not supported. Please upload PDF, DOCX, TXT, or XLSX files."
	msgMismatch    = "File content does not match its extension"
)

// ValidateUpload checks the size, the extension and, when head is given, that
// the sniffed content agrees with the extension.
func ValidateUpload(name string, size int64, head []byte) error {
	if size > MaxUploadSize {
		return &UploadError{Message: msgTooLarge}
	}

	ext := strings.ToLower(filepath.Ext(name))
	want, ok := acceptedTypes[ext]
	if !ok {
		return &UploadError{Message: msgUnsupported}
	}

	if head == nil {
		return nil
	}
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	if !matches(mimetype.Detect(head), want) {
		return &UploadError{Message: msgMismatch}
	}
	return nil
}

func matches(detected *mimetype.MIME, want []string) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, w := range want {
			if m.Is(w) {
				return true
			}
		}
	}
	return false
}

// DefaultTitle is the file name up to its first dot.
func DefaultTitle(name string) string {
	base := filepath.Base(name)
	title, _, _ := strings.Cut(base, ".")
	return title
}
