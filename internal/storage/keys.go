package storage

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExtensionFor maps an image content type to a file extension.
func ExtensionFor(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "image/webp":
		return "webp"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}

// ResultKey derives a unique key:
// generated/{style}/{yyyymmdd_HHMMSS}_{rand8}.{ext}.
func ResultKey(styleID string, contentType string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "generated/" + styleID + "/" + now.UTC().Format("20060102_150405") + "_" + suffix + "." + ExtensionFor(contentType)
}
