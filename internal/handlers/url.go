package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// MaxURLLength is the longest original URL accepted for encoding.
const MaxURLLength = 2048

const (
	msgInvalidURL  = "Original URL is invalid"
	msgNotFound    = "Short URL not found"
	msgUnavailable = "storage temporarily unavailable"
	msgInternal    = "failed to process url"
)

// Encoder resolves an original URL to its mapping.
type Encoder interface {
	Encode(ctx context.Context, originalURL string) (*shortener.ShortURL, error)
}

// Decoder resolves a code to its mapping.
type Decoder interface {
	Decode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, bool, error)
}

// URLHandler handles URL encoding, decoding and redirects.
type URLHandler struct {
	encoder Encoder
	decoder Decoder
	baseURL string
	base    *url.URL
	logger  *zap.Logger
}

// NewURLHandler creates a new URL handler. baseURL prefixes every short URL
// and must be an absolute http or https URL.
func NewURLHandler(encoder Encoder, decoder Decoder, baseURL string, logger *zap.Logger) (*URLHandler, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")

	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	return &URLHandler{
		encoder: encoder,
		decoder: decoder,
		baseURL: baseURL,
		base:    base,
		logger:  logger,
	}, nil
}

// ParseBaseURL parses the public base URL of short links.
func ParseBaseURL(raw string) (*url.URL, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}

	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http or https url", raw)
	}

	return base, nil
}

func (h *URLHandler) Encode(ctx context.Context, req *EncodeRequest) (*ShortURLResponse, error) {
	if !validOriginalURL(req.Body.URL) {
		return nil, huma.Error422UnprocessableEntity(msgInvalidURL)
	}

	shortURL, err := h.encoder.Encode(ctx, req.Body.URL)
	if err != nil {
		return nil, h.failure("encode failed", err)
	}

	return h.response(shortURL), nil
}

func (h *URLHandler) Decode(ctx context.Context, req *DecodeRequest) (*ShortURLResponse, error) {
	code, ok := h.extractCode(strings.TrimSpace(req.Body.URL))
	if !ok {
		return nil, huma.Error404NotFound(msgNotFound)
	}

	shortURL, found, err := h.decoder.Decode(ctx, code)
	if err != nil {
		return nil, h.failure("decode failed", err)
	}

	if !found {
		return nil, huma.Error404NotFound(msgNotFound)
	}

	return h.response(shortURL), nil
}

func (h *URLHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	shortURL, found, err := h.decoder.Decode(ctx, shortener.Code(req.Code))
	if err != nil {
		return nil, h.failure("redirect failed", err)
	}

	if !found {
		return nil, huma.Error404NotFound(msgNotFound)
	}

	resp := &RedirectResponse{Status: http.StatusMovedPermanently}
	resp.Headers.Location = shortURL.OriginalURL

	return resp, nil
}

func (h *URLHandler) response(shortURL *shortener.ShortURL) *ShortURLResponse {
	resp := &ShortURLResponse{}
	resp.Body.Code = string(shortURL.Code)
	resp.Body.ShortURL = shortURL.Link(h.baseURL)
	resp.Body.OriginalURL = shortURL.OriginalURL

	return resp
}

func (h *URLHandler) failure(msg string, err error) error {
	h.logger.Error(msg, zap.Error(err))

	switch {
	case errors.Is(err, shortener.ErrStoreUnavailable):
		return huma.Error503ServiceUnavailable(msgUnavailable)
	case errors.Is(err, shortener.ErrCodeExhausted):
		return huma.Error500InternalServerError("no free short code available")
	default:
		return huma.Error500InternalServerError(msgInternal)
	}
}

// extractCode accepts a full short URL on our base host or a bare code.
// A URL on any other host cannot be one of ours.
func (h *URLHandler) extractCode(input string) (shortener.Code, bool) {
	if input == "" {
		return "", false
	}

	parsed, err := url.Parse(input)
	if err != nil || parsed.Host == "" {
		if strings.ContainsAny(input, "/?#") {
			return "", false
		}

		return shortener.Code(input), true
	}

	if !sameOrigin(parsed, h.base) {
		return "", false
	}

	rest := strings.TrimPrefix(parsed.Path, h.base.Path)
	rest = strings.TrimPrefix(rest, "/")

	code, _, _ := strings.Cut(rest, "/")
	if code == "" {
		return "", false
	}

	return shortener.Code(code), true
}

// sameOrigin compares scheme, host and port, filling in the scheme's default port.
func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if port := u.Port(); port != "" {
		return port
	}

	if strings.EqualFold(u.Scheme, "https") {
		return "443"
	}

	return "80"
}

func validOriginalURL(raw string) bool {
	if raw == "" || len(raw) > MaxURLLength {
		return false
	}

	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}

	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
