package methodview

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Mount builds v and registers it on r at pattern for every method.
//
// Resource paths are canonical with a trailing slash ("/account/"). When
// pattern has one, the slash-less form is also registered and answers with a
// 308 to the canonical path, so a POST body survives the redirect.
func Mount(r chi.Router, pattern string, v *View) error {
	h, err := v.Build()
	if err != nil {
		return err
	}
	r.Handle(pattern, h)

	if bare := strings.TrimSuffix(pattern, "/"); bare != "" && bare != pattern {
		r.Handle(bare, canonicalRedirect(pattern))
	}
	return nil
}

func canonicalRedirect(target string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		to := target
		if r.URL.RawQuery != "" {
			to += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, to, http.StatusPermanentRedirect)
	})
}
