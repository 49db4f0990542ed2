package util

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectMimeType sniffs the first 512 bytes of reader. The returned reader yields the full content,
// sniffed bytes included.
func DetectMimeType(reader io.Reader) (string, io.Reader, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	head := buffer[:n]
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), reader), nil
}

// ValidateMimeType reports whether mimeType matches one of the allowed prefixes or exact types.
func ValidateMimeType(mimeType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return nil
		}
	}
	return ErrUnsupportedMedia
}

func HasExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
