package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterCollectRoutes(r chi.Router) {
	r.Post("/collect/report/", collectReportHandler)
	r.Get("/collect/report/", collectReportMethodNotAllowed)
}

func RegisterQueueRoutes(r chi.Router) {
	r.Get("/queue/", queueHandler)
}
