package api

import (
	"net/http"
)

// handleListRecipes returns the recipes whose ingredients match every
// ?ingredienti= value.
func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	filters := r.URL.Query()["ingredienti"]

	recipes, err := s.recipes.Query(r.Context(), filters)
	if err != nil {
		s.logger.Error("recipe query failed",
			"error", err,
			"filters", len(filters),
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, recipes)
}
