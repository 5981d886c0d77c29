package api

import (
	"encoding/json"
	"net/http"
)

// assistantStub describes a placeholder endpoint whose logic runs in the
// mobile client. It echoes one field of the request body.
type assistantStub struct {
	path    string
	field   string
	empty   json.RawMessage
	message string
}

var assistantStubs = []assistantStub{
	{
		path:    "/ai/recipes/",
		field:   "ingredients",
		empty:   json.RawMessage(`[]`),
		message: "La generazione di ricette con l'AI è gestita dall'app client",
	},
	{
		path:    "/ai/tips/",
		field:   "ingredient",
		empty:   json.RawMessage(`""`),
		message: "I consigli sugli ingredienti sono gestiti dall'app client",
	},
	{
		path:    "/ai/complements/",
		field:   "ingredients",
		empty:   json.RawMessage(`[]`),
		message: "Gli ingredienti complementari sono calcolati dall'app client",
	},
	{
		path:    "/ai/suggestions/",
		field:   "preferences",
		empty:   json.RawMessage(`{}`),
		message: "I suggerimenti intelligenti sono gestiti dall'app client",
	},
}

// handleAssistantStub returns a handler answering with the stub's static
// payload. Bodies that are empty, malformed, or not objects count as {}.
func (s *Server) handleAssistantStub(stub assistantStub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := stub.empty

		var body map[string]json.RawMessage
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				if v, ok := body[stub.field]; ok {
					value = v
				}
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			stub.field:   value,
			"message":    stub.message,
			"handled_by": "client",
		})
	}
}
