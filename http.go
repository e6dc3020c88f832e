package authkit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler returns a net/http handler serving the auth routes under the
// configured base path. Mount it on the application's mux, or hang extra
// routes off the returned router.
func (e *Engine) Handler() chi.Router {
	r := chi.NewRouter()
	r.HandleFunc(e.cfg.BasePath, e.ServeHTTP)
	r.HandleFunc(e.cfg.BasePath+"/*", e.ServeHTTP)
	return r
}

// ServeHTTP implements http.Handler by translating between net/http and the
// abstract boundary.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := FromHTTP(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	WriteHTTP(w, e.Handle(r.Context(), req))
}
