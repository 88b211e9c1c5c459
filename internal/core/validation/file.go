package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// FilePolicy restricts what may be uploaded. Both the extension and the
// declared content type must appear on the allow-list.
type FilePolicy struct {
	AllowedExtensions []string
	MaxSizeBytes      int64
}

// DefaultMaxUploadSize caps uploads at 10 MB unless configured otherwise.
const DefaultMaxUploadSize = 10 << 20

var extensionContentTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".txt":  {"text/plain"},
	".md":   {"text/plain", "text/markdown"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".csv":  {"text/csv", "application/csv"},
}

func NewFilePolicy(extensions []string, maxSize int64) *FilePolicy {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &FilePolicy{AllowedExtensions: extensions, MaxSizeBytes: maxSize}
}

// CheckFile validates a candidate upload before any bytes are stored.
func (p *FilePolicy) CheckFile(filename, contentType string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return &ValidationErrors{Errors: []ValidationError{
			{Field: "file", Message: "file has no extension"},
		}}
	}

	allowed := false
	for _, a := range p.AllowedExtensions {
		if ext == strings.ToLower(a) {
			allowed = true
			break
		}
	}
	if !allowed {
		return &ValidationErrors{Errors: []ValidationError{
			{Field: "file", Message: fmt.Sprintf("file type %s is not allowed", ext)},
		}}
	}

	if contentType != "" {
		if types, ok := extensionContentTypes[ext]; ok {
			base := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
			match := false
			for _, t := range types {
				if base == t {
					match = true
					break
				}
			}
			if !match {
				return &ValidationErrors{Errors: []ValidationError{
					{Field: "file", Message: fmt.Sprintf("content type %s does not match extension %s", base, ext)},
				}}
			}
		}
	}

	if size > p.MaxSizeBytes {
		return &ValidationErrors{Errors: []ValidationError{
			{Field: "file", Message: fmt.Sprintf("file exceeds maximum size of %d bytes", p.MaxSizeBytes)},
		}}
	}

	return nil
}

// CheckURL validates that a string is an absolute http or https URL.
func CheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationErrors{Errors: []ValidationError{
			{Field: "url", Message: "must be a valid http or https URL"},
		}}
	}
	return nil
}
