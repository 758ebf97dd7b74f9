package ingest

import (
	"mime"
	"path/filepath"
	"strings"
)

var csvMediaTypes = map[string]bool{
	"text/csv":                    true,
	"application/csv":             true,
	"text/comma-separated-values": true,
	"application/vnd.ms-excel":    true,
}

// IsCSV reports whether an upload declared as contentType with the given
// filename should be treated as CSV. text/plain and octet-stream pass only
// with a .csv extension.
func IsCSV(contentType, filename string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if csvMediaTypes[mediaType] {
		return true
	}
	hasCSVExt := strings.EqualFold(filepath.Ext(filename), ".csv")
	switch mediaType {
	case "text/plain", "application/octet-stream":
		return hasCSVExt
	}
	return false
}

// Column widths of uploads.filename and uploads.content_type.
const (
	maxFilenameRunes    = 255
	maxContentTypeBytes = 128
)

// MediaType returns the bare media type of contentType, dropping parameters.
// Unparseable or overlong values yield "".
func MediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || len(mediaType) > maxContentTypeBytes {
		return ""
	}
	return mediaType
}

// CleanFilename reduces a client-supplied name to its base and caps it at
// the stored width, keeping the extension when the name has to be cut.
func CleanFilename(name string) string {
	name = strings.ToValidUTF8(strings.ReplaceAll(name, "\x00", ""), "")
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	runes := []rune(name)
	if len(runes) <= maxFilenameRunes {
		return name
	}
	ext := []rune(filepath.Ext(name))
	if len(ext) >= maxFilenameRunes {
		return string(runes[:maxFilenameRunes])
	}
	return string(runes[:maxFilenameRunes-len(ext)]) + string(ext)
}
