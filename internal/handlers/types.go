package handlers

import "github.com/serroba/linkbot/internal/analytics"

// RedirectRequest is the request for following a short link.
type RedirectRequest struct {
	Alias string `doc:"The short link alias" example:"abc123" path:"alias"`
}

// PageResponse is either a redirect or a rendered HTML page.
type PageResponse struct {
	Status      int
	Location    string `header:"Location"`
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// CreateLinkRequest is the request body for creating a short link.
type CreateLinkRequest struct {
	Body struct {
		URL     string `doc:"The URL to shorten"                         example:"https://example.com/very/long/path" json:"url"                minLength:"1"`
		Alias   string `doc:"Custom alias, generated when omitted"       example:"my-link"                            json:"alias,omitempty"`
		OwnerID int64  `doc:"Telegram user id of the owner, 0 when none" example:"123456789"                          json:"ownerId,omitempty"`
	}
}

// CreateLinkResponse is the response for a successfully created short link.
type CreateLinkResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body struct {
		Alias       string `doc:"The alias"          example:"abc123"                             json:"alias"`
		ShortURL    string `doc:"The full short URL" example:"http://localhost:8888/abc123"       json:"shortUrl"`
		OriginalURL string `doc:"The original URL"   example:"https://example.com/very/long/path" json:"originalUrl"`
	}
}

// StatsRequest is the request for a link's analytics.
type StatsRequest struct {
	Alias string `doc:"The short link alias" example:"abc123" path:"alias"`
}

// StatsResponse carries the aggregated analytics of a link.
type StatsResponse struct {
	Body *analytics.Statistics
}
