package imagesync

import (
	"strings"
)

// Defaults matching the application's bucket layout.
const (
	DefaultStorageHost = "storage.googleapis.com"
	DefaultPrefix      = "posts/"
)

// Locator knows how the application writes image locators: either a public
// URL "https://<host>/<bucket>/<key>" or a bare key under Prefix.
type Locator struct {
	Host   string
	Bucket string
	Prefix string
}

// ExtractKey maps a stored locator to an object key. Rules, first match wins:
//
//  1. empty: not extractable
//  2. contains "<host>/<bucket>/": everything after it
//  3. starts with Prefix: the locator itself
//  4. two or more "/" segments: the last two joined by "/"
//
// Anything else is not extractable. ExtractKey is pure.
func (l Locator) ExtractKey(locator string) (string, bool) {
	if locator == "" {
		return "", false
	}

	if l.Host != "" && l.Bucket != "" {
		marker := l.Host + "/" + l.Bucket + "/"
		if i := strings.Index(locator, marker); i >= 0 {
			return locator[i+len(marker):], true
		}
	}

	if l.Prefix != "" && strings.HasPrefix(locator, l.Prefix) {
		return locator, true
	}

	segments := strings.Split(locator, "/")
	if len(segments) < 2 {
		return "", false
	}
	return strings.Join(segments[len(segments)-2:], "/"), true
}

// URL builds the fully qualified locator written back for key.
func (l Locator) URL(key string) string {
	return "https://" + l.Host + "/" + l.Bucket + "/" + key
}
