package codec

import (
	"sort"
	"strings"
	"sync"
)

var (
	mu       sync.RWMutex
	encoders = make(map[string]ImageEncoder)
)

// Register makes e available under mimeType, replacing any previous
// encoder for it. MIME types are matched case-insensitively.
func Register(mimeType string, e ImageEncoder) {
	mu.Lock()
	defer mu.Unlock()
	encoders[strings.ToLower(mimeType)] = e
}

// Lookup returns the encoder registered for mimeType.
func Lookup(mimeType string) (ImageEncoder, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := encoders[strings.ToLower(mimeType)]
	return e, ok
}

// MimeTypes lists the registered MIME types in sorted order.
func MimeTypes() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(encoders))
	for t := range encoders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
