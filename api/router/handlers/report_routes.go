package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterReportRoutes(r chi.Router) {
	r.Get("/report/urls/detail/{id}", urlDetailHandler)
	r.Get("/report/urls/compare/{id1}/{id2}", urlCompareHandler)
	r.Get("/report/urls/compare/{id1}/{id2}/{id3}", urlCompareHandler)
}

func hasParam(r *http.Request, name string) bool {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return false
	}
	for _, k := range rctx.URLParams.Keys {
		if k == name {
			return true
		}
	}
	return false
}
