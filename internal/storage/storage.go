package storage

import (
	"context"
	"io"
	"strings"
)

// ObjectStorage is the blob store holding declaration photos.
type ObjectStorage interface {
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
	PublicURL(objectName string) string
	Remove(ctx context.Context, objectName string) error
}

// ObjectNameFromURL recovers the object name from a URL built by PublicURL.
// It returns "" when the URL does not point into bucket.
func ObjectNameFromURL(url, bucket string) string {
	marker := "/" + bucket + "/"
	i := strings.LastIndex(url, marker)
	if i < 0 {
		return ""
	}
	name := url[i+len(marker):]
	if q := strings.IndexAny(name, "?#"); q >= 0 {
		name = name[:q]
	}
	return name
}
