package handlers

// EncodeRequest is the request body for encoding an original URL.
type EncodeRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url"`
	}
}

// DecodeRequest is the request body for resolving a short URL or bare code.
type DecodeRequest struct {
	Body struct {
		URL string `doc:"A short URL or its code" example:"http://localhost:8888/abc123XY" json:"url"`
	}
}

// ShortURLResponse describes a mapping.
type ShortURLResponse struct {
	Body struct {
		Code        string `doc:"The short code"     example:"abc123XY"                           json:"code"`
		ShortURL    string `doc:"The full short URL" example:"http://localhost:8888/abc123XY"     json:"shortUrl"`
		OriginalURL string `doc:"The original URL"   example:"https://example.com/very/long/path" json:"originalUrl"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"abc123XY" path:"code"`
}

// RedirectResponse is a permanent redirect to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `header:"Location"`
	}
}
