package shortener

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Code represents a short URL code.
type Code string

// URLHash represents the hex-encoded SHA-256 digest of an original URL.
type URLHash string

// ShortURL maps a code to the original URL it resolves to. Codes are write-once.
type ShortURL struct {
	Code        Code
	OriginalURL string
	URLHash     URLHash
	CreatedAt   time.Time
}

// NewShortURL builds a mapping stamped with the current time.
func NewShortURL(code Code, originalURL string) *ShortURL {
	return &ShortURL{
		Code:        code,
		OriginalURL: originalURL,
		URLHash:     HashURL(originalURL),
		CreatedAt:   time.Now().UTC(),
	}
}

// Link composes the public short URL for the mapping.
func (s *ShortURL) Link(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + string(s.Code)
}

// HashURL computes the SHA-256 digest of a URL as a hex string.
// It bounds key sizes for the reverse index regardless of URL length.
func HashURL(rawURL string) URLHash {
	h := sha256.Sum256([]byte(rawURL))

	return URLHash(hex.EncodeToString(h[:]))
}
