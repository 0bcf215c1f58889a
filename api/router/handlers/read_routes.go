package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterReadRoutes(r chi.Router) {
	r.Get("/lighthousedata/{runID}", lighthouseDataHandler)
	r.Get("/urltypeahead", urlTypeaheadHandler)
	r.Get("/urlid", urlIDHandler)
	r.Get("/compareinfo", compareInfoHandler)
	r.Get("/home/items", homeItemsHandler)
	r.Get("/chart/scores", chartScoresHandler)
	r.Get("/table/kpis", tableKPIsHandler)
	r.Get("/dashboard", dashboardHandler)
}
