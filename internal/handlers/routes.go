package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the public redirect routes and the link API.
func RegisterRoutes(api huma.API, redirects *RedirectHandler, links *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/api/links",
		Summary:       "Create short link",
		Description:   "Creates a short link with a generated or custom alias.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, links.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link-stats",
		Method:      http.MethodGet,
		Path:        "/api/links/{alias}/stats",
		Summary:     "Get link statistics",
		Description: "Aggregates the recorded clicks of a short link.",
		Tags:        []string{"Links"},
	}, links.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "landing",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Landing page",
		Tags:        []string{"Pages"},
		Hidden:      true,
	}, redirects.Landing)

	// GET /{alias} - Redirect to original URL
	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{alias}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL and records the click in the background.",
		Tags:        []string{"Links"},
		Responses: map[string]*huma.Response{
			"301": {Description: "Redirect to the original URL"},
			"404": {Description: "Unknown alias", Content: map[string]*huma.MediaType{"text/html": {}}},
			"500": {Description: "Store unavailable", Content: map[string]*huma.MediaType{"text/html": {}}},
		},
	}, redirects.Redirect)
}
