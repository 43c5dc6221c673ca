// Package contenttype picks the content type recorded for an uploaded file.
package contenttype

import (
	"path"
	"strings"

	"nullid/internal/domain"

	"github.com/gabriel-vasile/mimetype"
)

const (
	CSV  = "text/csv"
	JSON = "application/json"
)

var byExtension = map[string]string{
	".csv":  CSV,
	".json": JSON,
}

// Detect prefers the declared type, then the file extension, then sniffing
// the first bytes of the content.
func Detect(name, declared string, head []byte) string {
	if declared != "" && declared != domain.DefaultContentType {
		return declared
	}
	if ct, ok := byExtension[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	if len(head) > 0 {
		return mimetype.Detect(head).String()
	}
	return domain.DefaultContentType
}
