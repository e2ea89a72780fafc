package steamwatch

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/steamlink/kit"
	"github.com/hazyhaar/steamlink/shield"
)

// RegisterHTTP mounts the per-tab routes next to the trigger's:
//
//	GET  /v1/pages                  → watched page IDs
//	GET  /v1/pages/{pageID}         → monitor state
//	POST /v1/pages/{pageID}/open    → toolbar action on that tab
func (w *Watcher) RegisterHTTP(r chi.Router) {
	r.Get("/v1/pages", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, http.StatusOK, map[string][]string{"pages": w.Pages()})
	})

	r.Get("/v1/pages/{pageID}", func(rw http.ResponseWriter, r *http.Request) {
		st, err := w.Snapshot(chi.URLParam(r, "pageID"))
		if err != nil {
			fail(rw, r, err)
			return
		}
		writeJSON(rw, http.StatusOK, st)
	})

	r.Post("/v1/pages/{pageID}/open", func(rw http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		res, err := w.TriggerPage(ctx, chi.URLParam(r, "pageID"))
		if err != nil {
			fail(rw, r, err)
			return
		}
		if !res.Acted {
			rw.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(rw, http.StatusOK, res)
	})
}

func fail(rw http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		shield.GetLogger(r.Context()).Warn("steamwatch: page request failed", "error", err)
	}
	writeError(rw, code, err)
}

func statusFor(err error) int {
	if errors.Is(err, ErrUnknownPage) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
