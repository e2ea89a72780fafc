package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/steamlink/kit"
	"github.com/hazyhaar/steamlink/shield"
)

var errMissingURL = errors.New("url is required")

// RegisterHTTP mounts the trigger routes:
//
//	POST /v1/open       {"url": "..."} → 200 Result, or 204 when not a Steam page
//	GET  /v1/classify?url=...           → 200 Classification
//	GET  /healthz
func (t *Trigger) RegisterHTTP(r chi.Router) {
	open, classify := t.Endpoints()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/open", func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shield.GetLogger(r.Context()).Debug("trigger: invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
			return
		}
		resp, err := open(httpContext(r), &req)
		switch {
		case errors.Is(err, errMissingURL):
			writeError(w, http.StatusBadRequest, err)
			return
		case err != nil:
			shield.GetLogger(r.Context()).Warn("trigger: open failed", "url", req.URL, "error", err)
			writeError(w, http.StatusBadGateway, err)
			return
		}
		res := resp.(Result)
		if !res.Acted {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	r.Get("/v1/classify", func(w http.ResponseWriter, r *http.Request) {
		resp, err := classify(httpContext(r), &urlRequest{URL: r.URL.Query().Get("url")})
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// NewRouter builds the chi router served by `steamlink serve`, behind the
// loopback shield stack.
func NewRouter(t *Trigger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range shield.DefaultLocalStack(t.logger) {
		r.Use(mw)
	}
	t.RegisterHTTP(r)
	return r
}

func httpContext(r *http.Request) context.Context {
	return kit.WithTransport(r.Context(), "http")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
