package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterURLRoutes(r chi.Router) {
	r.Get("/urls", listURLsHandler)
	r.Post("/urls", createURLHandler)
	r.Put("/urls/{id}", updateURLHandler)
	r.Delete("/urls/{id}", setURLActiveHandler(false))
	r.Post("/urls/{id}/activate", setURLActiveHandler(true))
	r.Get("/urls/{id}/timings", urlTimingsHandler)
}
