package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterFilterRoutes(r chi.Router) {
	r.Get("/filters", listFiltersHandler)
	r.Post("/filters", createFilterHandler)
	r.Get("/filters/{slug}", getFilterHandler)
	r.Get("/filters/{slug}/urls", filterURLsHandler)
}
