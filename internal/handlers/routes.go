package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/ratelimit"
)

// RegisterRoutes registers the URL routes with per-endpoint rate limits.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	// Writes are limited harder than reads.
	huma.Register(api, huma.Operation{
		OperationID: "encode-url",
		Method:      http.MethodPost,
		Path:        "/v1/urls/encode",
		Summary:     "Encode URL",
		Description: "Returns the short URL for an original URL, creating it on first use.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: []ratelimit.Limit{
				{Window: time.Minute, Max: 10},
				{Window: time.Hour, Max: 100},
				{Window: 24 * time.Hour, Max: 500},
			},
		},
	}, urlHandler.Encode)

	huma.Register(api, huma.Operation{
		OperationID: "decode-url",
		Method:      http.MethodPost,
		Path:        "/v1/urls/decode",
		Summary:     "Decode URL",
		Description: "Resolves a short URL or code to its original URL.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: []ratelimit.Limit{
				{Window: time.Minute, Max: 100},
			},
		},
	}, urlHandler.Decode)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: []ratelimit.Limit{
				{Window: time.Minute, Max: 1000},
			},
		},
	}, urlHandler.Redirect)
}
