// Package events defines the link lifecycle events and their handlers.
package events

import (
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// TopicLinkCreated carries a LinkCreated for every newly created mapping.
const TopicLinkCreated = "link.created"

// LinkCreated is emitted once when a mapping is first persisted.
type LinkCreated struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewLinkCreated builds the event for shortURL.
func NewLinkCreated(shortURL *shortener.ShortURL) *LinkCreated {
	return &LinkCreated{
		Code:        string(shortURL.Code),
		OriginalURL: shortURL.OriginalURL,
		CreatedAt:   shortURL.CreatedAt,
	}
}

// ShortURL restores the mapping described by the event.
func (e *LinkCreated) ShortURL() *shortener.ShortURL {
	return &shortener.ShortURL{
		Code:        shortener.Code(e.Code),
		OriginalURL: e.OriginalURL,
		URLHash:     shortener.HashURL(e.OriginalURL),
		CreatedAt:   e.CreatedAt,
	}
}
